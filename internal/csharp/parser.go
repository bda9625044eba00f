// Package csharp is the C# notation: a tree-sitter backed parser oracle,
// a class renamer, and the code generation back-end.
package csharp

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	sitter "github.com/smacker/go-tree-sitter"
	tscsharp "github.com/smacker/go-tree-sitter/csharp"
	"go.uber.org/zap"

	"github.com/sokinpui/formsync/model"
)

const reanalysisQueueSize = 16

type job struct {
	file string
	text string
}

// Parser parses C# files into compilation units and remembers the latest
// unit per file so partial classes can be merged across files.
type Parser struct {
	mu     sync.RWMutex
	units  map[string]*model.CompilationUnit
	known  map[string]struct{}
	logger *zap.Logger

	queue  chan job
	quit   chan struct{}
	closed bool
	wg     sync.WaitGroup
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for parse diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithKnownTypes extends the catalog used to resolve simple type names.
func WithKnownTypes(types []string) Option {
	return func(p *Parser) {
		for _, t := range types {
			p.known[t] = struct{}{}
		}
	}
}

// NewParser creates a parser and starts its background reanalysis worker.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		units:  make(map[string]*model.CompilationUnit),
		known:  make(map[string]struct{}),
		logger: zap.NewNop(),
		queue:  make(chan job, reanalysisQueueSize),
		quit:   make(chan struct{}),
	}
	for _, t := range DefaultKnownTypes {
		p.known[t] = struct{}{}
	}
	for _, opt := range opts {
		opt(p)
	}
	p.wg.Add(1)
	go p.worker()
	return p
}

// Close stops the reanalysis worker and waits for it to exit.
func (p *Parser) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.quit)
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Parser) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case j := <-p.queue:
			if _, err := p.Parse(j.file, j.text); err != nil {
				p.logger.Warn("background reanalysis failed", zap.String("file", j.file), zap.Error(err))
			}
		}
	}
}

// EnqueueReanalysis schedules a background parse of text. It never blocks;
// when the queue is full the request is dropped because the next pass
// reparses anyway.
func (p *Parser) EnqueueReanalysis(file, text string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- job{file: file, text: text}:
	default:
		p.logger.Debug("reanalysis queue full, dropping request", zap.String("file", file))
	}
}

// Unit returns the latest compilation unit parsed for file.
func (p *Parser) Unit(file string) (*model.CompilationUnit, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	u, ok := p.units[cleanPath(file)]
	return u, ok
}

// Parse parses text as the content of file and records the result.
func (p *Parser) Parse(file, text string) (*model.CompilationUnit, error) {
	start := time.Now()
	unit, err := p.parse(file, []byte(text))
	if err != nil {
		p.logger.Error("parse failed", zap.String("file", file), zap.Error(err))
		return nil, err
	}
	p.mu.Lock()
	p.units[cleanPath(file)] = unit
	p.mu.Unlock()
	p.logger.Debug("parsed",
		zap.String("file", filepath.Base(file)),
		zap.Int("classes", len(unit.Classes)),
		zap.Duration("took", time.Since(start)))
	return unit, nil
}

// CompoundClass merges the parts of c's class declared in units into one
// view. With no units it falls back to the latest unit recorded per file,
// which background reanalysis may have replaced.
func (p *Parser) CompoundClass(c *model.Class, units ...*model.CompilationUnit) *model.Class {
	if c == nil {
		return nil
	}
	if len(units) == 0 {
		p.mu.RLock()
		for _, u := range p.units {
			units = append(units, u)
		}
		p.mu.RUnlock()
	}
	var parts []*model.Class
	for _, u := range units {
		for _, other := range u.Classes {
			if other.FullName() == c.FullName() && other.File != c.File {
				parts = append(parts, other)
			}
		}
	}
	return Compound(c, parts...)
}

// Compound merges c with its other parts. c comes first, the remaining
// parts are ordered by file name.
func Compound(c *model.Class, others ...*model.Class) *model.Class {
	sorted := append([]*model.Class(nil), others...)
	sortByFile(sorted)
	parts := append([]*model.Class{c}, sorted...)

	compound := &model.Class{
		Name:       c.Name,
		Namespace:  c.Namespace,
		Modifiers:  c.Modifiers,
		Region:     c.Region,
		BodyRegion: c.BodyRegion,
		File:       c.File,
		Parts:      parts,
	}
	seenBase := make(map[string]bool)
	for _, part := range parts {
		for _, b := range part.BaseTypes {
			if !seenBase[b] {
				seenBase[b] = true
				compound.BaseTypes = append(compound.BaseTypes, b)
			}
		}
		compound.Fields = append(compound.Fields, part.Fields...)
		compound.Methods = append(compound.Methods, part.Methods...)
	}
	return compound
}

func sortByFile(classes []*model.Class) {
	sort.SliceStable(classes, func(i, j int) bool { return classes[i].File < classes[j].File })
}

func cleanPath(file string) string {
	if file == "" {
		return file
	}
	return filepath.Clean(file)
}

func (p *Parser) parse(file string, content []byte) (*model.CompilationUnit, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(tscsharp.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	defer tree.Close()

	w := &walker{
		file:    cleanPath(file),
		content: content,
		known:   p.known,
		unit:    &model.CompilationUnit{File: cleanPath(file)},
	}
	w.collectUsings(tree.RootNode())
	w.walk(tree.RootNode(), "")
	return w.unit, nil
}

type walker struct {
	file    string
	content []byte
	known   map[string]struct{}
	unit    *model.CompilationUnit
}

func (w *walker) text(n *sitter.Node) string {
	return n.Content(w.content)
}

func (w *walker) collectUsings(root *sitter.Node) {
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			switch child.Type() {
			case "using_directive":
				if name := usingName(child, w.content); name != "" {
					w.unit.Usings = append(w.unit.Usings, name)
				}
			case "namespace_declaration", "file_scoped_namespace_declaration", "declaration_list":
				visit(child)
			}
		}
	}
	visit(root)
}

func usingName(n *sitter.Node, content []byte) string {
	if n.ChildByFieldName("alias") != nil {
		return ""
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "name_equals":
			return ""
		case "qualified_name", "identifier":
			return child.Content(content)
		}
	}
	return ""
}

// walk visits type-level declarations. File-scoped namespaces apply to the
// declarations that follow them.
func (w *walker) walk(n *sitter.Node, namespace string) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "namespace_declaration":
			ns := qualify(namespace, w.nameOf(child))
			if body := child.ChildByFieldName("body"); body != nil {
				w.walk(body, ns)
			}
		case "file_scoped_namespace_declaration":
			namespace = qualify(namespace, w.nameOf(child))
			w.walk(child, namespace)
		case "declaration_list":
			w.walk(child, namespace)
		case "class_declaration":
			if c := w.class(child, namespace); c != nil {
				w.unit.Classes = append(w.unit.Classes, c)
			}
		}
	}
}

func (w *walker) nameOf(n *sitter.Node) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return w.text(name)
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() == "identifier" || child.Type() == "qualified_name" {
			return w.text(child)
		}
	}
	return ""
}

func qualify(outer, inner string) string {
	switch {
	case outer == "":
		return inner
	case inner == "":
		return outer
	}
	return outer + "." + inner
}

func (w *walker) class(n *sitter.Node, namespace string) *model.Class {
	name := w.nameOf(n)
	if name == "" {
		return nil
	}
	c := &model.Class{
		Name:      name,
		Namespace: namespace,
		Modifiers: w.modifiers(n),
		Region:    regionOf(n),
		File:      w.file,
	}
	res := newResolver(w.known, w.unit.Usings, namespace)

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "base_list" {
			continue
		}
		for j := 0; j < int(child.NamedChildCount()); j++ {
			c.BaseTypes = append(c.BaseTypes, w.text(child.NamedChild(j)))
		}
	}

	body := n.ChildByFieldName("body")
	if body == nil {
		return c
	}
	c.BodyRegion = regionOf(body)
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "field_declaration":
			c.Fields = append(c.Fields, w.fields(member, res)...)
		case "method_declaration":
			if m := w.method(member, res); m != nil {
				c.Methods = append(c.Methods, m)
			}
		}
	}
	return c
}

var modifierFlags = map[string]model.Modifiers{
	"private":   model.Private,
	"protected": model.Protected,
	"internal":  model.Internal,
	"public":    model.Public,
	"static":    model.Static,
	"readonly":  model.ReadOnly,
	"const":     model.Const,
	"partial":   model.Partial,
	"abstract":  model.Abstract,
	"sealed":    model.Sealed,
	"virtual":   model.Virtual,
	"override":  model.Override,
	"new":       model.New,
}

// modifiers collects the modifier keywords of a declaration and materializes
// the default private visibility.
func (w *walker) modifiers(n *sitter.Node) model.Modifiers {
	var mods model.Modifiers
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.Type() != "modifier" {
			continue
		}
		for _, word := range strings.Fields(w.text(child)) {
			mods |= modifierFlags[word]
		}
	}
	if mods.Visibility() == 0 {
		mods |= model.Private
	}
	return mods
}

func (w *walker) fields(n *sitter.Node, res *resolver) []*model.Field {
	var decl *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() == "variable_declaration" {
			decl = child
			break
		}
	}
	if decl == nil {
		return nil
	}
	typeNode := decl.ChildByFieldName("type")
	if typeNode == nil && decl.NamedChildCount() > 0 {
		typeNode = decl.NamedChild(0)
	}
	var typ model.TypeRef
	if typeNode != nil {
		name := w.text(typeNode)
		typ = model.TypeRef{Name: name, FullName: res.resolve(name)}
	}

	mods := w.modifiers(n)
	region := regionOf(n)
	var out []*model.Field
	for i := 0; i < int(decl.NamedChildCount()); i++ {
		declarator := decl.NamedChild(i)
		if declarator.Type() != "variable_declarator" {
			continue
		}
		name := w.nameOf(declarator)
		if name == "" {
			continue
		}
		out = append(out, &model.Field{
			Name:      name,
			Type:      typ,
			Modifiers: mods,
			Region:    region,
			File:      w.file,
		})
	}
	return out
}

func (w *walker) method(n *sitter.Node, res *resolver) *model.Method {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	m := &model.Method{
		Name:      w.text(nameNode),
		Modifiers: w.modifiers(n),
		Region:    regionOf(n),
		File:      w.file,
	}
	ret := n.ChildByFieldName("returns")
	if ret == nil {
		ret = n.ChildByFieldName("type")
	}
	if ret != nil {
		name := w.text(ret)
		m.ReturnType = model.TypeRef{Name: name, FullName: res.resolve(name)}
	}
	if params := n.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			param := params.NamedChild(i)
			if param.Type() != "parameter" {
				continue
			}
			p := model.Parameter{Name: w.nameOf(param)}
			if t := param.ChildByFieldName("type"); t != nil {
				name := w.text(t)
				p.Type = model.TypeRef{Name: name, FullName: res.resolve(name)}
			}
			m.Parameters = append(m.Parameters, p)
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		m.BodyRegion = regionOf(body)
	}
	return m
}

// regionOf converts a node's 0-based points into a 1-based region.
func regionOf(n *sitter.Node) model.Region {
	start, end := n.StartPoint(), n.EndPoint()
	return model.Region{
		BeginLine:   int(start.Row) + 1,
		BeginColumn: int(start.Column) + 1,
		EndLine:     int(end.Row) + 1,
		EndColumn:   int(end.Column) + 1,
	}
}
