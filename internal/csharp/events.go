package csharp

import (
	"fmt"
	"strings"

	"github.com/sokinpui/formsync/model"
)

func sig(delegate, args string) model.EventSignature {
	return model.EventSignature{
		Delegate:   delegate,
		ReturnType: "void",
		Parameters: []model.SignatureParameter{
			{Name: "sender", Type: "System.Object"},
			{Name: "e", Type: args},
		},
	}
}

// EventSignatures holds the common Windows Forms event delegates by full name.
var EventSignatures = map[string]model.EventSignature{
	"System.EventHandler":                               sig("System.EventHandler", "System.EventArgs"),
	"System.ComponentModel.CancelEventHandler":          sig("System.ComponentModel.CancelEventHandler", "System.ComponentModel.CancelEventArgs"),
	"System.Windows.Forms.MouseEventHandler":            sig("System.Windows.Forms.MouseEventHandler", "System.Windows.Forms.MouseEventArgs"),
	"System.Windows.Forms.KeyEventHandler":              sig("System.Windows.Forms.KeyEventHandler", "System.Windows.Forms.KeyEventArgs"),
	"System.Windows.Forms.KeyPressEventHandler":         sig("System.Windows.Forms.KeyPressEventHandler", "System.Windows.Forms.KeyPressEventArgs"),
	"System.Windows.Forms.PaintEventHandler":            sig("System.Windows.Forms.PaintEventHandler", "System.Windows.Forms.PaintEventArgs"),
	"System.Windows.Forms.FormClosingEventHandler":      sig("System.Windows.Forms.FormClosingEventHandler", "System.Windows.Forms.FormClosingEventArgs"),
	"System.Windows.Forms.FormClosedEventHandler":       sig("System.Windows.Forms.FormClosedEventHandler", "System.Windows.Forms.FormClosedEventArgs"),
	"System.Windows.Forms.DragEventHandler":             sig("System.Windows.Forms.DragEventHandler", "System.Windows.Forms.DragEventArgs"),
	"System.Windows.Forms.ItemCheckEventHandler":        sig("System.Windows.Forms.ItemCheckEventHandler", "System.Windows.Forms.ItemCheckEventArgs"),
	"System.Windows.Forms.TreeViewEventHandler":         sig("System.Windows.Forms.TreeViewEventHandler", "System.Windows.Forms.TreeViewEventArgs"),
	"System.Windows.Forms.DataGridViewCellEventHandler": sig("System.Windows.Forms.DataGridViewCellEventHandler", "System.Windows.Forms.DataGridViewCellEventArgs"),
}

// LookupSignature finds a delegate by full or short name.
func LookupSignature(delegate string) (model.EventSignature, bool) {
	if s, ok := EventSignatures[delegate]; ok {
		return s, true
	}
	for full, s := range EventSignatures {
		if full[strings.LastIndexByte(full, '.')+1:] == delegate {
			return s, true
		}
	}
	return model.EventSignature{}, false
}

// ParseSignature accepts a catalog delegate name or an explicit signature
// such as "Acme.ValueChangedHandler(System.Object sender, Acme.ValueEventArgs e)".
// Parameter types are resolved against the usual designer namespaces.
func ParseSignature(text string) (model.EventSignature, error) {
	text = strings.TrimSpace(text)
	open := strings.IndexByte(text, '(')
	if open < 0 {
		if s, ok := LookupSignature(text); ok {
			return s, nil
		}
		return model.EventSignature{}, fmt.Errorf("unknown event delegate %q", text)
	}
	if !strings.HasSuffix(text, ")") {
		return model.EventSignature{}, fmt.Errorf("signature %q: missing closing parenthesis", text)
	}
	s := model.EventSignature{Delegate: strings.TrimSpace(text[:open]), ReturnType: "void"}
	if s.Delegate == "" {
		return model.EventSignature{}, fmt.Errorf("signature %q: missing delegate name", text)
	}
	res := newResolver(knownSet(nil), []string{"System", "System.ComponentModel", "System.Windows.Forms", "System.Drawing"}, "")
	params := strings.TrimSpace(text[open+1 : len(text)-1])
	if params == "" {
		return s, nil
	}
	for i, p := range strings.Split(params, ",") {
		fields := strings.Fields(p)
		if len(fields) != 2 {
			return model.EventSignature{}, fmt.Errorf("signature %q: parameter %d must be \"Type name\"", text, i+1)
		}
		typ := res.resolve(fields[0])
		if typ == "" {
			typ = fields[0]
		}
		s.Parameters = append(s.Parameters, model.SignatureParameter{Name: fields[1], Type: typ})
	}
	return s, nil
}

func knownSet(extra []string) map[string]struct{} {
	known := make(map[string]struct{}, len(DefaultKnownTypes)+2*len(EventSignatures)+len(extra))
	for _, t := range DefaultKnownTypes {
		known[t] = struct{}{}
	}
	for full, s := range EventSignatures {
		known[full] = struct{}{}
		for _, p := range s.Parameters {
			known[p.Type] = struct{}{}
		}
	}
	for _, t := range extra {
		known[t] = struct{}{}
	}
	return known
}
