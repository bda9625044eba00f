// Package merge is the reconciliation driver. It merges the designer's
// desired state into the source buffers of a form, reparsing after every
// step that can shift positions.
package merge

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/sokinpui/formsync/internal/codegen"
	"github.com/sokinpui/formsync/internal/edit"
	"github.com/sokinpui/formsync/internal/region"
	"github.com/sokinpui/formsync/model"
)

const (
	// DefaultInitMethod is the method whose body the designer owns.
	DefaultInitMethod = "InitializeComponent"
	// DefaultIndentUnit is added to the method indentation for body lines.
	DefaultIndentUnit = "\t"
)

// DefaultDesignableBases are the base types that make a class a form or control.
var DefaultDesignableBases = []string{
	"Form", "UserControl", "Control",
	"System.Windows.Forms.Form",
	"System.Windows.Forms.UserControl",
	"System.Windows.Forms.Control",
}

// Parser is the parser oracle.
type Parser interface {
	Parse(file, text string) (*model.CompilationUnit, error)
	// CompoundClass merges the parts of c's class found in units.
	CompoundClass(c *model.Class, units ...*model.CompilationUnit) *model.Class
	EnqueueReanalysis(file, text string)
}

// Renamer renames a class symbol across the given buffers.
type Renamer interface {
	RenameClass(class *model.Class, newName string, targets map[string]edit.Buffer) error
}

// Opener gives access to the buffers of a file. Open returns the editable
// buffer, Peek only the current text; Peek on a missing file returns an
// error satisfying errors.Is(err, fs.ErrNotExist).
type Opener interface {
	Open(path string) (edit.Buffer, error)
	Peek(path string) (string, error)
}

// Notifier shows messages to the user.
type Notifier interface {
	ShowMessage(msg string)
	ShowError(err error)
}

// Host supplies the designer's current desired state when the engine has to
// flush it on its own, e.g. before inserting an event handler.
type Host interface {
	CurrentDesiredState() (*model.DesiredState, error)
}

// Options wires an Engine to its collaborators.
type Options struct {
	// PrimaryFile is the file the designer was opened for.
	PrimaryFile string
	// Parts are other files that may declare parts of the class, such as
	// the Designer.cs file next to the primary file.
	Parts []string

	Parser   Parser
	Backend  codegen.Backend
	Renamer  Renamer
	Opener   Opener
	Notifier Notifier
	Host     Host
	Logger   *zap.Logger

	InitMethod      string
	IndentUnit      string
	DesignableBases []string
}

// Engine runs reconciliation passes against one designer target. Passes
// are serialized.
type Engine struct {
	mu sync.Mutex

	primary  string
	parts    []string
	designer string // file declaring the initialization method, set by locate

	parser   Parser
	backend  codegen.Backend
	renamer  Renamer
	opener   Opener
	notifier Notifier
	host     Host
	logger   *zap.Logger

	initMethod string
	indentUnit string
	bases      []string

	paths map[edit.Buffer]string
}

// New validates opts and creates an Engine.
func New(opts Options) (*Engine, error) {
	switch {
	case opts.PrimaryFile == "":
		return nil, errors.New("merge: primary file is required")
	case opts.Parser == nil:
		return nil, errors.New("merge: parser is required")
	case opts.Backend == nil:
		return nil, errors.New("merge: code generation back-end is required")
	case opts.Opener == nil:
		return nil, errors.New("merge: buffer opener is required")
	}
	e := &Engine{
		primary:    filepath.Clean(opts.PrimaryFile),
		parser:     opts.Parser,
		backend:    opts.Backend,
		renamer:    opts.Renamer,
		opener:     opts.Opener,
		notifier:   opts.Notifier,
		host:       opts.Host,
		logger:     opts.Logger,
		initMethod: opts.InitMethod,
		indentUnit: opts.IndentUnit,
		bases:      opts.DesignableBases,
		paths:      make(map[edit.Buffer]string),
	}
	for _, p := range opts.Parts {
		if p = filepath.Clean(p); p != e.primary {
			e.parts = append(e.parts, p)
		}
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.notifier == nil {
		e.notifier = logNotifier{e.logger}
	}
	if e.initMethod == "" {
		e.initMethod = DefaultInitMethod
	}
	if e.indentUnit == "" {
		e.indentUnit = DefaultIndentUnit
	}
	if len(e.bases) == 0 {
		e.bases = DefaultDesignableBases
	}
	return e, nil
}

// logNotifier is used when no Notifier is configured.
type logNotifier struct{ logger *zap.Logger }

func (n logNotifier) ShowMessage(msg string) { n.logger.Info(msg) }
func (n logNotifier) ShowError(err error)    { n.logger.Error("merge failed", zap.Error(err)) }

// Context is the state of one reparse. It is never updated; every step that
// edits text builds a new one.
type Context struct {
	PrimaryFile  string
	DesignerFile string
	// Part is the class part declaring the initialization method.
	Part *model.Class
	// Primary is the class part in the primary file, nil if it has none.
	Primary *model.Class
	// Complete is the union of all parts.
	Complete *model.Class
	Init     *model.Method
	// Indent is the leading whitespace of the initialization method's line.
	Indent string

	primaryBuf  edit.Buffer
	designerBuf edit.Buffer
}

// DesignerFile returns the file declaring the initialization method, or ""
// before the owner has been located.
func (e *Engine) DesignerFile() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.designer
}

// LocateInitializationOwner finds the designable class of the primary file
// and the file declaring its initialization method, and opens that file.
func (e *Engine) LocateInitializationOwner() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.locate()
}

func (e *Engine) locate() (string, error) {
	units, err := e.parseAll()
	if err != nil {
		return "", err
	}
	designable := e.designable(units)
	for _, c := range units[0].Classes {
		if !designable(c) {
			continue
		}
		im := region.FindInitializationMethod(e.parser.CompoundClass(c, units...), e.initMethod)
		if im == nil || im.File == "" {
			continue
		}
		file := filepath.Clean(im.File)
		if _, err := e.open(file); err != nil {
			return "", &model.Error{Kind: model.ErrLoad, Op: "locate", Msg: "open " + file, Err: err}
		}
		e.designer = file
		e.logger.Debug("located initialization owner",
			zap.String("class", c.FullName()), zap.String("file", file))
		return file, nil
	}
	return "", model.LoadError("locate", "could not find %s method in any part of the open class", e.initMethod)
}

func (e *Engine) open(path string) (edit.Buffer, error) {
	buf, err := e.opener.Open(path)
	if err != nil {
		return nil, err
	}
	e.paths[buf] = path
	return buf, nil
}

// parseAll parses the primary file, then every part file. The primary and
// designer files are read from their editable buffers, other parts are
// peeked and skipped when missing.
func (e *Engine) parseAll() ([]*model.CompilationUnit, error) {
	files := append([]string{e.primary}, e.parts...)
	if e.designer != "" && e.designer != e.primary && !slices.Contains(e.parts, e.designer) {
		files = append(files, e.designer)
	}
	units := make([]*model.CompilationUnit, 0, len(files))
	for i, file := range files {
		var text string
		if i == 0 || file == e.designer {
			buf, err := e.open(file)
			if err != nil {
				return nil, &model.Error{Kind: model.ErrLoad, Op: "reparse", Msg: "open " + file, Err: err}
			}
			text = buf.Text()
		} else {
			t, err := e.opener.Peek(file)
			if err != nil {
				e.logger.Debug("skipping unreadable part", zap.String("file", file), zap.Error(err))
				continue
			}
			text = t
		}
		unit, err := e.parser.Parse(file, text)
		if err != nil {
			return nil, fmt.Errorf("reparse %s: %w", file, err)
		}
		units = append(units, unit)
	}
	return units, nil
}

// designable checks a class by the base types of its compound class,
// following bases declared by the parsed units.
func (e *Engine) designable(units []*model.CompilationUnit) region.Designable {
	lookup := func(name string) *model.Class {
		for _, u := range units {
			for _, c := range u.Classes {
				if c.Name == name || c.FullName() == name {
					return e.parser.CompoundClass(c, units...)
				}
			}
		}
		return nil
	}
	base := region.BaseTypes(e.bases, lookup)
	return func(c *model.Class) bool {
		return base(e.parser.CompoundClass(c, units...))
	}
}

// reparse rebuilds the Context from the current buffer text. It reports
// false when the designer file no longer declares the initialization method
// in a designable class.
func (e *Engine) reparse() (*Context, bool, error) {
	if e.designer == "" {
		if _, err := e.locate(); err != nil {
			return nil, false, err
		}
	}
	units, err := e.parseAll()
	if err != nil {
		return nil, false, err
	}
	var primaryUnit, designerUnit *model.CompilationUnit
	for _, u := range units {
		if u.File == e.primary {
			primaryUnit = u
		}
		if u.File == e.designer {
			designerUnit = u
		}
	}
	owner, ok := region.FindDesignerOwnerClass(designerUnit, e.designable(units), e.initMethod)
	if !ok {
		return nil, false, nil
	}

	primaryBuf, err := e.open(e.primary)
	if err != nil {
		return nil, false, err
	}
	designerBuf, err := e.open(e.designer)
	if err != nil {
		return nil, false, err
	}
	rc := &Context{
		PrimaryFile:  e.primary,
		DesignerFile: e.designer,
		Part:         owner.Class,
		Primary:      region.FindClass(primaryUnit, owner.Class.FullName()),
		Complete:     e.parser.CompoundClass(owner.Class, units...),
		Init:         owner.Init,
		Indent:       region.Indentation(designerBuf.Text(), owner.Init.Region.BeginLine),
		primaryBuf:   primaryBuf,
		designerBuf:  designerBuf,
	}
	return rc, true, nil
}
