// Package desired decodes the designer's desired state from YAML.
//
//	namespace: Demo
//	types:
//	  - name: MainForm
//	    base: System.Windows.Forms.Form
//	    fields:
//	      - {name: button1, type: System.Windows.Forms.Button, access: public}
//	    methods:
//	      - name: InitializeComponent
//	        statements:
//	          - {kind: assign, target: this.button1, value: new System.Windows.Forms.Button()}
//	          - {kind: attach-event, target: this.button1.Click, value: System.EventHandler, method: Button1Click}
package desired

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/sokinpui/formsync/model"
)

type document struct {
	Namespace string     `yaml:"namespace"`
	Types     []typeDecl `yaml:"types"`
}

type typeDecl struct {
	Name    string       `yaml:"name"`
	Base    string       `yaml:"base"`
	Fields  []fieldDecl  `yaml:"fields"`
	Methods []methodDecl `yaml:"methods"`
}

type fieldDecl struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Access string `yaml:"access"`
}

type methodDecl struct {
	Name       string          `yaml:"name"`
	Statements []statementDecl `yaml:"statements"`
}

type statementDecl struct {
	Kind   string   `yaml:"kind"`
	Target string   `yaml:"target"`
	Value  string   `yaml:"value"`
	Method string   `yaml:"method"`
	Args   []string `yaml:"args"`
	Text   string   `yaml:"text"`
}

// Parse decodes one desired state document.
func Parse(data []byte) (*model.DesiredState, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads one desired state document from r. Unknown keys are errors.
func Decode(r io.Reader) (*model.DesiredState, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("desired state is empty")
		}
		return nil, fmt.Errorf("failed to decode desired state: %w", err)
	}
	return doc.convert()
}

func (d *document) convert() (*model.DesiredState, error) {
	state := &model.DesiredState{Namespace: d.Namespace}
	for i, t := range d.Types {
		if t.Name == "" {
			return nil, fmt.Errorf("types[%d]: name is required", i)
		}
		typ := model.DesiredType{Name: t.Name, BaseType: t.Base}
		for j, f := range t.Fields {
			if f.Name == "" || f.Type == "" {
				return nil, fmt.Errorf("%s.fields[%d]: name and type are required", t.Name, j)
			}
			access, err := model.ParseAccess(f.Access)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", t.Name, f.Name, err)
			}
			typ.Fields = append(typ.Fields, model.DesiredField{Name: f.Name, Type: f.Type, Access: access})
		}
		for _, m := range t.Methods {
			method := model.DesiredMethod{Name: m.Name}
			for k, s := range m.Statements {
				stmt, err := s.convert()
				if err != nil {
					return nil, fmt.Errorf("%s.%s statement %d: %w", t.Name, m.Name, k+1, err)
				}
				method.Statements = append(method.Statements, stmt)
			}
			typ.Methods = append(typ.Methods, method)
		}
		state.Types = append(state.Types, typ)
	}
	return state, nil
}

func (s statementDecl) convert() (model.Statement, error) {
	kind, err := model.ParseStatementKind(s.Kind)
	if err != nil {
		return model.Statement{}, err
	}
	stmt := model.Statement{Kind: kind, Target: s.Target, Value: s.Value, Method: s.Method, Args: s.Args, Text: s.Text}
	switch kind {
	case model.StatementAssign:
		if s.Target == "" || s.Value == "" {
			return model.Statement{}, errors.New("assign needs target and value")
		}
	case model.StatementCall:
		if s.Method == "" {
			return model.Statement{}, errors.New("call needs a method")
		}
	case model.StatementAttachEvent:
		if s.Target == "" || s.Value == "" {
			return model.Statement{}, errors.New("attach-event needs target and value")
		}
	}
	return stmt, nil
}
