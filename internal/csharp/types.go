package csharp

import "strings"

// keywordTypes maps C# keyword aliases to their framework type names.
var keywordTypes = map[string]string{
	"bool":    "System.Boolean",
	"byte":    "System.Byte",
	"sbyte":   "System.SByte",
	"char":    "System.Char",
	"decimal": "System.Decimal",
	"double":  "System.Double",
	"float":   "System.Single",
	"int":     "System.Int32",
	"uint":    "System.UInt32",
	"long":    "System.Int64",
	"ulong":   "System.UInt64",
	"short":   "System.Int16",
	"ushort":  "System.UInt16",
	"object":  "System.Object",
	"string":  "System.String",
	"void":    "System.Void",
}

// DefaultKnownTypes is the catalog used to resolve simple type names
// through using directives.
var DefaultKnownTypes = []string{
	"System.EventArgs",
	"System.EventHandler",
	"System.ComponentModel.IContainer",
	"System.ComponentModel.Container",
	"System.ComponentModel.ComponentResourceManager",
	"System.ComponentModel.CancelEventArgs",
	"System.Drawing.Point",
	"System.Drawing.Size",
	"System.Drawing.SizeF",
	"System.Drawing.Color",
	"System.Drawing.Font",
	"System.Windows.Forms.Form",
	"System.Windows.Forms.UserControl",
	"System.Windows.Forms.Control",
	"System.Windows.Forms.Button",
	"System.Windows.Forms.Label",
	"System.Windows.Forms.TextBox",
	"System.Windows.Forms.CheckBox",
	"System.Windows.Forms.ComboBox",
	"System.Windows.Forms.ListBox",
	"System.Windows.Forms.Panel",
	"System.Windows.Forms.GroupBox",
	"System.Windows.Forms.MenuStrip",
	"System.Windows.Forms.ToolStripMenuItem",
	"System.Windows.Forms.Timer",
	"System.Windows.Forms.MouseEventArgs",
	"System.Windows.Forms.KeyEventArgs",
	"System.Windows.Forms.KeyPressEventArgs",
	"System.Windows.Forms.PaintEventArgs",
	"System.Windows.Forms.FormClosingEventArgs",
	"System.Windows.Forms.AutoScaleMode",
}

// resolver turns type names written in source into full names.
type resolver struct {
	known     map[string]struct{}
	usings    []string
	namespace string
}

func newResolver(known map[string]struct{}, usings []string, namespace string) *resolver {
	return &resolver{known: known, usings: usings, namespace: namespace}
}

// resolve returns the full name of name, or "" when it cannot be resolved
// syntactically.
func (r *resolver) resolve(name string) string {
	name = strings.TrimPrefix(strings.TrimSpace(name), "global::")
	if full, ok := keywordTypes[name]; ok {
		return full
	}
	if name == "" || name == "var" || name == "dynamic" || strings.ContainsAny(name, "<>[]?*(,") {
		return ""
	}
	if strings.Contains(name, ".") {
		return name
	}
	if _, ok := r.known[name]; ok {
		return name
	}
	candidates := make([]string, 0, len(r.usings)+1)
	if r.namespace != "" {
		candidates = append(candidates, r.namespace)
	}
	candidates = append(candidates, r.usings...)
	for _, ns := range candidates {
		full := ns + "." + name
		if _, ok := r.known[full]; ok {
			return full
		}
	}
	return ""
}

// Alias returns the C# keyword for a framework type, or the name unchanged.
func Alias(full string) string {
	for kw, name := range keywordTypes {
		if name == full {
			return kw
		}
	}
	return full
}
