package model

import "fmt"

// Location is a 1-based line/column position. Columns count bytes.
type Location struct {
	Line   int
	Column int
}

// Region spans from Begin (inclusive) to End (exclusive), 1-based.
type Region struct {
	BeginLine   int
	BeginColumn int
	EndLine     int
	EndColumn   int
}

func (r Region) Begin() Location { return Location{Line: r.BeginLine, Column: r.BeginColumn} }
func (r Region) End() Location   { return Location{Line: r.EndLine, Column: r.EndColumn} }

// Valid reports whether every coordinate of the region is positive.
func (r Region) Valid() bool {
	return r.BeginLine > 0 && r.BeginColumn > 0 && r.EndLine > 0 && r.EndColumn > 0
}

// IsEmpty reports whether the region has no extent.
func (r Region) IsEmpty() bool {
	return r.BeginLine == r.EndLine && r.BeginColumn == r.EndColumn
}

func (r Region) String() string {
	return fmt.Sprintf("%d:%d-%d:%d", r.BeginLine, r.BeginColumn, r.EndLine, r.EndColumn)
}

// Modifiers is the observed (parsed source) modifier vocabulary.
// The parser always materializes a visibility; Private is the default.
type Modifiers uint16

const (
	Private Modifiers = 1 << iota
	Protected
	Internal
	Public
	Static
	ReadOnly
	Const
	Partial
	Abstract
	Sealed
	Virtual
	Override
	New
)

// VisibilityMask selects the access bits of a Modifiers value.
const VisibilityMask = Private | Protected | Internal | Public

// ProtectedInternal is the combined protected-or-internal visibility.
const ProtectedInternal = Protected | Internal

// Visibility returns only the access bits.
func (m Modifiers) Visibility() Modifiers { return m & VisibilityMask }

// Has reports whether all bits of flag are set.
func (m Modifiers) Has(flag Modifiers) bool { return m&flag == flag }

// TypeRef is a type as written in source plus its resolved full name.
// FullName is empty when the parser could not resolve the type.
type TypeRef struct {
	Name     string
	FullName string
}

// Resolved reports whether the underlying type is known.
func (t TypeRef) Resolved() bool { return t.FullName != "" }

// String returns the most precise name available.
func (t TypeRef) String() string {
	if t.FullName != "" {
		return t.FullName
	}
	return t.Name
}

// Field is an observed field declaration.
type Field struct {
	Name      string
	Type      TypeRef
	Modifiers Modifiers
	Region    Region
	File      string
}

// Parameter is one observed method parameter.
type Parameter struct {
	Name string
	Type TypeRef
}

// Method is an observed method declaration.
type Method struct {
	Name       string
	ReturnType TypeRef
	Parameters []Parameter
	Modifiers  Modifiers
	Region     Region
	BodyRegion Region
	File       string
}

// Class is one observed class declaration. For a partial class each part is
// a separate Class; the compound class merges every part's members and keeps
// the parts in Parts.
type Class struct {
	Name       string
	Namespace  string
	BaseTypes  []string
	Modifiers  Modifiers
	Region     Region
	BodyRegion Region
	File       string
	Fields     []*Field
	Methods    []*Method
	Parts      []*Class
}

// FullName returns the namespace-qualified class name.
func (c *Class) FullName() string {
	if c.Namespace == "" {
		return c.Name
	}
	return c.Namespace + "." + c.Name
}

// Field returns the field with the given name, or nil.
func (c *Class) Field(name string) *Field {
	if c == nil {
		return nil
	}
	for _, f := range c.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Method returns the first method with the given name, or nil.
func (c *Class) Method(name string) *Method {
	if c == nil {
		return nil
	}
	for _, m := range c.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// CompilationUnit is the parser's structural view of one file.
type CompilationUnit struct {
	File    string
	Usings  []string
	Classes []*Class
}
