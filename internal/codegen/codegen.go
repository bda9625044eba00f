// Package codegen declares the notation back-end capability a
// reconciliation engine depends on, plus the default cursor policy.
package codegen

import "github.com/sokinpui/formsync/model"

// CodeProvider renders designer output as source text.
type CodeProvider interface {
	// Field renders one field declaration without indentation or terminator.
	Field(f model.DesiredField) string
	// Statements renders each statement on its own line prefixed with indent.
	// Every line, including the last, ends with a line terminator.
	Statements(stmts []model.Statement, indent string) string
}

// Backend is implemented once per target notation.
type Backend interface {
	Name() string
	CreateCodeProvider() CodeProvider
	// GetReplaceRegion returns the part of an initialization method body that
	// is regenerated on every pass.
	GetReplaceRegion(body model.Region) model.Region
	// FormatBody adapts rendered statements to the replace region, e.g. when
	// the body was written on a single line.
	FormatBody(statements, indent string, body model.Region) string
	// CreateEventHandler renders a complete method stub for sig.
	CreateEventHandler(sig model.EventSignature, name, body, indent string) string
	// FixGeneratedCode adjusts the designer's initialization method before
	// it is rendered.
	FixGeneratedCode(class *model.Class, method model.DesiredMethod) model.DesiredMethod
}

// CursorPolicy lets a back-end override where the caret goes after an
// event handler lookup or insertion.
type CursorPolicy interface {
	CursorLine(m *model.Method) int
	CursorLineAfterEventHandler() int
	EventHandlerInsertionLine(c *model.Class) int
}

// DefaultCursorPolicy places the caret on the first body line of a method
// and inserts new handlers before the closing line of the class.
type DefaultCursorPolicy struct{}

func (DefaultCursorPolicy) CursorLine(m *model.Method) int               { return m.BodyRegion.BeginLine + 1 }
func (DefaultCursorPolicy) CursorLineAfterEventHandler() int             { return 2 }
func (DefaultCursorPolicy) EventHandlerInsertionLine(c *model.Class) int { return c.Region.EndLine }

// PolicyOf returns the back-end's own cursor policy or the default one.
func PolicyOf(b Backend) CursorPolicy {
	if p, ok := b.(CursorPolicy); ok {
		return p
	}
	return DefaultCursorPolicy{}
}
