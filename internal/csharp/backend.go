package csharp

import (
	"strings"

	"github.com/sokinpui/formsync/internal/codegen"
	"github.com/sokinpui/formsync/model"
)

// Backend generates C# for the designer.
type Backend struct {
	// IndentUnit is appended to the method indentation for body lines.
	IndentUnit string
	// InsertTodoComment fills empty event handler bodies with a TODO comment.
	InsertTodoComment bool
}

var (
	_ codegen.Backend      = (*Backend)(nil)
	_ codegen.CursorPolicy = (*Backend)(nil)
)

// NewBackend returns a back-end indenting with a tab.
func NewBackend() *Backend {
	return &Backend{IndentUnit: "\t", InsertTodoComment: true}
}

func (b *Backend) Name() string { return "csharp" }

func (b *Backend) CreateCodeProvider() codegen.CodeProvider {
	return provider{}
}

// GetReplaceRegion covers the lines between the braces of a multi-line body,
// or the text between the braces of a single-line body.
func (b *Backend) GetReplaceRegion(body model.Region) model.Region {
	if body.BeginLine == body.EndLine {
		return model.Region{
			BeginLine:   body.BeginLine,
			BeginColumn: body.BeginColumn + 1,
			EndLine:     body.EndLine,
			EndColumn:   body.EndColumn - 1,
		}
	}
	return model.Region{BeginLine: body.BeginLine + 1, BeginColumn: 1, EndLine: body.EndLine, EndColumn: 1}
}

// FormatBody breaks a single-line body open so the closing brace keeps the
// method's indentation.
func (b *Backend) FormatBody(statements, indent string, body model.Region) string {
	if body.BeginLine != body.EndLine {
		return statements
	}
	return "\n" + statements + indent
}

// CreateEventHandler renders a separator line followed by the handler.
func (b *Backend) CreateEventHandler(sig model.EventSignature, name, body, indent string) string {
	if body == "" && b.InsertTodoComment {
		body = "// TODO: Implement " + name
	}
	ret := "void"
	if sig.ReturnType != "" {
		ret = Alias(sig.ReturnType)
	}
	params := make([]string, len(sig.Parameters))
	for i, p := range sig.Parameters {
		params[i] = Alias(p.Type) + " " + p.Name
	}

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(indent + ret + " " + name + "(" + strings.Join(params, ", ") + ")\n")
	sb.WriteString(indent + "{\n")
	for _, line := range strings.Split(body, "\n") {
		if line == "" {
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(indent + b.IndentUnit + line + "\n")
	}
	sb.WriteString(indent + "}\n")
	return sb.String()
}

// FixGeneratedCode drops event hookups whose handler name is empty; the
// designer emits those for events the user cleared.
func (b *Backend) FixGeneratedCode(_ *model.Class, method model.DesiredMethod) model.DesiredMethod {
	fixed := model.DesiredMethod{Name: method.Name, Statements: make([]model.Statement, 0, len(method.Statements))}
	for _, s := range method.Statements {
		if s.Kind == model.StatementAttachEvent && s.Method == "" {
			continue
		}
		fixed.Statements = append(fixed.Statements, s)
	}
	return fixed
}

func (b *Backend) CursorLine(m *model.Method) int { return m.BodyRegion.BeginLine + 1 }

// CursorLineAfterEventHandler points at the body line of a handler created
// by CreateEventHandler: separator, signature, brace, body.
func (b *Backend) CursorLineAfterEventHandler() int { return 3 }

func (b *Backend) EventHandlerInsertionLine(c *model.Class) int { return c.Region.EndLine }

type provider struct{}

func (provider) Field(f model.DesiredField) string {
	access := f.Access.String()
	if access == "" {
		access = model.AccessPrivate.String()
	}
	return access + " " + f.Type + " " + f.Name + ";"
}

func (provider) Statements(stmts []model.Statement, indent string) string {
	var sb strings.Builder
	for _, s := range stmts {
		switch s.Kind {
		case model.StatementAssign:
			sb.WriteString(indent + s.Target + " = " + s.Value + ";\n")
		case model.StatementCall:
			call := s.Method + "(" + strings.Join(s.Args, ", ") + ");"
			if s.Target != "" {
				call = s.Target + "." + call
			}
			sb.WriteString(indent + call + "\n")
		case model.StatementAttachEvent:
			sb.WriteString(indent + s.Target + " += new " + s.Value + "(this." + s.Method + ");\n")
		case model.StatementComment:
			for _, line := range strings.Split(s.Text, "\n") {
				if line == "" {
					sb.WriteString(indent + "//\n")
					continue
				}
				sb.WriteString(indent + "// " + line + "\n")
			}
		case model.StatementSnippet:
			for _, line := range strings.Split(strings.TrimRight(s.Text, "\n"), "\n") {
				if strings.TrimSpace(line) == "" {
					sb.WriteString("\n")
					continue
				}
				sb.WriteString(indent + line + "\n")
			}
		}
	}
	return sb.String()
}
