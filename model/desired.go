package model

import (
	"fmt"
	"strings"
)

// Access is the designer's member-attribute vocabulary. AccessDefault means
// the designer did not specify a visibility, which is private by default.
type Access uint8

const (
	AccessDefault Access = iota
	AccessPrivate
	AccessFamily
	AccessFamilyOrAssembly
	AccessAssembly
	AccessPublic
)

var accessNames = map[Access]string{
	AccessDefault:          "",
	AccessPrivate:          "private",
	AccessFamily:           "protected",
	AccessFamilyOrAssembly: "protected internal",
	AccessAssembly:         "internal",
	AccessPublic:           "public",
}

func (a Access) String() string { return accessNames[a] }

// ParseAccess accepts the C# keyword spelling of an access level.
func ParseAccess(s string) (Access, error) {
	norm := strings.Join(strings.Fields(strings.ToLower(s)), " ")
	if norm == "" || norm == "default" {
		return AccessDefault, nil
	}
	for a, name := range accessNames {
		if name != "" && name == norm {
			return a, nil
		}
	}
	switch norm {
	case "family":
		return AccessFamily, nil
	case "familyorassembly", "internal protected":
		return AccessFamilyOrAssembly, nil
	case "assembly":
		return AccessAssembly, nil
	}
	return AccessDefault, fmt.Errorf("unknown access %q", s)
}

// DesiredField is a field declaration produced by the designer surface.
// Type is the declared base type name, normally fully qualified.
type DesiredField struct {
	Name   string
	Type   string
	Access Access
}

// StatementKind selects how a Statement is rendered.
type StatementKind uint8

const (
	StatementAssign StatementKind = iota
	StatementCall
	StatementAttachEvent
	StatementComment
	StatementSnippet
)

var statementKindNames = [...]string{
	StatementAssign:      "assign",
	StatementCall:        "call",
	StatementAttachEvent: "attach-event",
	StatementComment:     "comment",
	StatementSnippet:     "snippet",
}

func (k StatementKind) String() string {
	if int(k) < len(statementKindNames) {
		return statementKindNames[k]
	}
	return "unknown"
}

// ParseStatementKind maps the textual kind back to a StatementKind.
func ParseStatementKind(s string) (StatementKind, error) {
	for i, name := range statementKindNames {
		if name == s {
			return StatementKind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown statement kind %q", s)
}

// Statement is one initialization statement.
//
//	assign:       Target = Value;
//	call:         Target.Method(Args...);
//	attach-event: Target += new Value(this.Method);
//	comment:      // Text
//	snippet:      Text verbatim
type Statement struct {
	Kind   StatementKind
	Target string
	Value  string
	Method string
	Args   []string
	Text   string
}

// DesiredMethod is a method the designer generates, normally the
// initialization method.
type DesiredMethod struct {
	Name       string
	Statements []Statement
}

// DesiredType is one type declaration in the designer output.
type DesiredType struct {
	Name     string
	BaseType string
	Fields   []DesiredField
	Methods  []DesiredMethod
}

// Field returns the desired field with the given name, or nil.
func (t *DesiredType) Field(name string) *DesiredField {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i]
		}
	}
	return nil
}

// Method returns the desired method with the given name, or nil.
func (t *DesiredType) Method(name string) *DesiredMethod {
	for i := range t.Methods {
		if t.Methods[i].Name == name {
			return &t.Methods[i]
		}
	}
	return nil
}

// DesiredState is the designer's declaration of how the form is built.
// It is immutable input to one pass.
type DesiredState struct {
	Namespace string
	Types     []DesiredType
}

// EventSignature describes the delegate an event handler must match.
type EventSignature struct {
	Delegate   string
	ReturnType string
	Parameters []SignatureParameter
}

// SignatureParameter is one parameter of an event delegate. Type is the
// fully qualified type name.
type SignatureParameter struct {
	Name string
	Type string
}
