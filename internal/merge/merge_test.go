package merge_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sokinpui/formsync/internal/buffer"
	"github.com/sokinpui/formsync/internal/csharp"
	"github.com/sokinpui/formsync/internal/edit"
	"github.com/sokinpui/formsync/internal/merge"
	"github.com/sokinpui/formsync/model"
)

const (
	primaryFile  = "MainForm.cs"
	designerFile = "MainForm.Designer.cs"
)

const primarySrc = `using System;
using System.Windows.Forms;

namespace Demo
{
	public partial class MainForm : Form
	{
		public MainForm()
		{
			InitializeComponent();
		}
	}
}
`

const designerSrc = `namespace Demo
{
	partial class MainForm
	{
		private System.ComponentModel.IContainer components = null;

		private void InitializeComponent()
		{
			this.SuspendLayout();
			this.ResumeLayout(false);
		}

		private System.Windows.Forms.Button button1;
	}
}
`

type recorder struct {
	messages []string
	errs     []error
}

func (r *recorder) ShowMessage(msg string) { r.messages = append(r.messages, msg) }
func (r *recorder) ShowError(err error)    { r.errs = append(r.errs, err) }

type fixture struct {
	engine   *merge.Engine
	primary  *buffer.Document
	designer *buffer.Document
	parser   *csharp.Parser
	notes    *recorder
}

func newFixture(t *testing.T, primary, designer string, opts ...func(*merge.Options)) *fixture {
	t.Helper()
	ws := buffer.NewWorkspace()
	f := &fixture{
		primary:  buffer.NewDocument(primaryFile, primary),
		designer: buffer.NewDocument(designerFile, designer),
		parser:   csharp.NewParser(),
		notes:    &recorder{},
	}
	t.Cleanup(f.parser.Close)
	ws.Add(primaryFile, f.primary)
	ws.Add(designerFile, f.designer)

	o := merge.Options{
		PrimaryFile: primaryFile,
		Parts:       []string{designerFile},
		Parser:      f.parser,
		Backend:     csharp.NewBackend(),
		Renamer:     csharp.NewRenamer(nil),
		Opener:      ws,
		Notifier:    f.notes,
	}
	for _, opt := range opts {
		opt(&o)
	}
	e, err := merge.New(o)
	require.NoError(t, err)
	f.engine = e
	return f
}

func form(name string, fields []model.DesiredField, stmts ...model.Statement) *model.DesiredState {
	return &model.DesiredState{
		Namespace: "Demo",
		Types: []model.DesiredType{{
			Name:     name,
			BaseType: "System.Windows.Forms.Form",
			Fields:   fields,
			Methods:  []model.DesiredMethod{{Name: "InitializeComponent", Statements: stmts}},
		}},
	}
}

func assign(target, value string) model.Statement {
	return model.Statement{Kind: model.StatementAssign, Target: target, Value: value}
}

var components = model.DesiredField{Name: "components", Type: "System.ComponentModel.IContainer"}

func TestLocateInitializationOwner(t *testing.T) {
	f := newFixture(t, primarySrc, designerSrc)
	file, err := f.engine.LocateInitializationOwner()
	require.NoError(t, err)
	assert.Equal(t, designerFile, file)
	assert.Equal(t, designerFile, f.engine.DesignerFile())
}

func TestLocateWithoutInitializationMethod(t *testing.T) {
	f := newFixture(t, primarySrc, strings.Replace(designerSrc, "InitializeComponent", "Setup", 1))
	_, err := f.engine.LocateInitializationOwner()
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrLoad), "got %v", err)
}

func TestMergeAddsFieldAfterBody(t *testing.T) {
	f := newFixture(t, primarySrc, designerSrc)
	d := form("MainForm",
		[]model.DesiredField{
			components,
			{Name: "button1", Type: "System.Windows.Forms.Button"},
			{Name: "label1", Type: "System.Windows.Forms.Label", Access: model.AccessPublic},
		},
		assign("this.button1", "new System.Windows.Forms.Button()"),
		assign("this.label1", "new System.Windows.Forms.Label()"),
	)

	res, err := f.engine.MergeDesiredState(d)
	require.NoError(t, err)
	assert.Equal(t, []string{"components", "button1"}, res.Unchanged)
	assert.Equal(t, []string{"label1"}, res.Added)
	assert.Empty(t, res.Removed)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, []string{designerFile}, res.Files)
	assert.NotEmpty(t, res.ID)

	want := `namespace Demo
{
	partial class MainForm
	{
		private System.ComponentModel.IContainer components = null;

		private void InitializeComponent()
		{
			this.button1 = new System.Windows.Forms.Button();
			this.label1 = new System.Windows.Forms.Label();
		}
		public System.Windows.Forms.Label label1;

		private System.Windows.Forms.Button button1;
	}
}
`
	assert.Equal(t, want, f.designer.Text())
	assert.Equal(t, 1, f.designer.ModifyCount(), "designer must be marked modified once per pass")
	assert.Equal(t, 0, f.primary.ModifyCount())

	// A second pass with the same state changes nothing.
	again, err := f.engine.MergeDesiredState(d)
	require.NoError(t, err)
	assert.Equal(t, want, f.designer.Text())
	assert.Empty(t, again.Added)
	assert.Empty(t, again.Changed)
	assert.Empty(t, again.Removed)
	assert.Equal(t, []string{"components", "button1", "label1"}, again.Unchanged)
}

func TestMergeRemovesFieldsInTwoPhases(t *testing.T) {
	designer := `namespace Demo
{
	partial class MainForm
	{
		private System.Windows.Forms.TextBox textBox1;

		private void InitializeComponent()
		{
		}

		private System.Windows.Forms.TextBox textBox2;
		private System.Windows.Forms.TextBox textBox3;
	}
}
`
	f := newFixture(t, primarySrc, designer)
	res, err := f.engine.MergeDesiredState(form("MainForm",
		[]model.DesiredField{{Name: "textBox1", Type: "System.Windows.Forms.TextBox"}},
		assign("this.textBox1", "new System.Windows.Forms.TextBox()"),
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"textBox2", "textBox3"}, res.Removed)

	want := `namespace Demo
{
	partial class MainForm
	{
		private System.Windows.Forms.TextBox textBox1;

		private void InitializeComponent()
		{
			this.textBox1 = new System.Windows.Forms.TextBox();
		}

	}
}
`
	assert.Equal(t, want, f.designer.Text())
}

func TestMergeRenameThenAddField(t *testing.T) {
	f := newFixture(t, primarySrc, designerSrc)
	res, err := f.engine.MergeDesiredState(form("MainWindow",
		[]model.DesiredField{
			components,
			{Name: "button1", Type: "System.Windows.Forms.Button"},
			{Name: "label1", Type: "System.Windows.Forms.Label"},
		},
		assign("this.Text", `"Main"`),
	))
	require.NoError(t, err)
	assert.Equal(t, "MainWindow", res.Renamed)
	assert.Equal(t, []string{"label1"}, res.Added)
	assert.ElementsMatch(t, []string{primaryFile, designerFile}, res.Files)

	want := `namespace Demo
{
	partial class MainWindow
	{
		private System.ComponentModel.IContainer components = null;

		private void InitializeComponent()
		{
			this.Text = "Main";
		}
		private System.Windows.Forms.Label label1;

		private System.Windows.Forms.Button button1;
	}
}
`
	assert.Equal(t, want, f.designer.Text())
	assert.Equal(t, strings.ReplaceAll(primarySrc, "MainForm", "MainWindow"), f.primary.Text())
	assert.Equal(t, 1, f.primary.ModifyCount())
	assert.Equal(t, 1, f.designer.ModifyCount())
}

func TestMergeShiftsFieldsBelowGrownBody(t *testing.T) {
	f := newFixture(t, primarySrc, designerSrc)
	stmts := []model.Statement{
		assign("this.button1", "new System.Windows.Forms.Button()"),
		{Kind: model.StatementCall, Target: "this", Method: "SuspendLayout"},
		{Kind: model.StatementComment, Text: "button1"},
		assign("this.button1.Location", "new System.Drawing.Point(12, 12)"),
		assign("this.button1.Name", `"button1"`),
		assign("this.button1.Text", `"OK"`),
		{Kind: model.StatementAttachEvent, Target: "this.button1.Click", Value: "System.EventHandler", Method: "Button1Click"},
		{Kind: model.StatementCall, Target: "this", Method: "ResumeLayout", Args: []string{"false"}},
	}
	res, err := f.engine.MergeDesiredState(form("MainForm",
		[]model.DesiredField{components, {Name: "button1", Type: "System.Windows.Forms.Button", Access: model.AccessPublic}},
		stmts...,
	))
	require.NoError(t, err)
	assert.Equal(t, []string{"button1"}, res.Changed)

	unit, err := f.parser.Parse(designerFile, f.designer.Text())
	require.NoError(t, err)
	button := unit.Classes[0].Field("button1")
	require.NotNil(t, button)
	assert.Equal(t, 19, button.Region.BeginLine)
	assert.Equal(t, model.Public, button.Modifiers.Visibility())

	lines := strings.Split(f.designer.Text(), "\n")
	assert.Equal(t, "\t\t\tthis.button1 = new System.Windows.Forms.Button();", lines[8])
	assert.Equal(t, "\t\t\tthis.ResumeLayout(false);", lines[15])
	assert.Equal(t, "\t\t}", lines[16])
	assert.Equal(t, "\t\tpublic System.Windows.Forms.Button button1;", lines[18])
}

func TestMergeExpandsSingleLineBody(t *testing.T) {
	designer := strings.Replace(designerSrc,
		"\t\tprivate void InitializeComponent()\n\t\t{\n\t\t\tthis.SuspendLayout();\n\t\t\tthis.ResumeLayout(false);\n\t\t}\n",
		"\t\tprivate void InitializeComponent() { }\n", 1)
	f := newFixture(t, primarySrc, designer)
	_, err := f.engine.MergeDesiredState(form("MainForm",
		[]model.DesiredField{components, {Name: "button1", Type: "System.Windows.Forms.Button"}},
		model.Statement{Kind: model.StatementCall, Target: "this", Method: "SuspendLayout"},
	))
	require.NoError(t, err)
	assert.Contains(t, f.designer.Text(),
		"\t\tprivate void InitializeComponent() {\n\t\t\tthis.SuspendLayout();\n\t\t}\n")
}

func TestMergeWarnsOnFieldsInOtherParts(t *testing.T) {
	primary := `using System;
using System.Windows.Forms;

namespace Demo
{
	public partial class MainForm : Form
	{
		private Timer timer1;
		private Label status;

		public MainForm()
		{
			InitializeComponent();
		}
	}
}
`
	f := newFixture(t, primary, designerSrc)
	res, err := f.engine.MergeDesiredState(form("MainForm",
		[]model.DesiredField{
			components,
			{Name: "button1", Type: "System.Windows.Forms.Button"},
			{Name: "timer1", Type: "System.Windows.Forms.Timer", Access: model.AccessPublic},
		},
	))
	require.NoError(t, err)

	var warned []string
	for _, w := range res.Warnings {
		warned = append(warned, w.Field)
	}
	assert.Equal(t, []string{"timer1", "status"}, warned)
	assert.Empty(t, res.Changed)
	assert.Empty(t, res.Removed)
	assert.Equal(t, primary, f.primary.Text())
	assert.Equal(t, 0, f.primary.ModifyCount())
}

func TestMergeIntegrationErrorLeavesTextAlone(t *testing.T) {
	f := newFixture(t, primarySrc, designerSrc)
	d := &model.DesiredState{Types: []model.DesiredType{{
		Name:   "MainForm",
		Fields: []model.DesiredField{{Name: "label1", Type: "System.Windows.Forms.Label"}},
	}}}
	_, err := f.engine.MergeDesiredState(d)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrIntegration), "got %v", err)
	assert.Equal(t, designerSrc, f.designer.Text())
	assert.Equal(t, primarySrc, f.primary.Text())
	assert.Equal(t, 0, f.designer.ModifyCount())
}

func TestMergeSkipsWhenInitializationMethodVanished(t *testing.T) {
	f := newFixture(t, primarySrc, designerSrc)
	_, err := f.engine.LocateInitializationOwner()
	require.NoError(t, err)

	// The user renames the method behind the designer's back.
	off := strings.Index(f.designer.Text(), "InitializeComponent")
	require.NoError(t, f.designer.Replace(off, len("InitializeComponent"), "Setup"))
	edited := f.designer.Text()

	res, err := f.engine.MergeDesiredState(form("MainForm", []model.DesiredField{components}))
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Len(t, f.notes.messages, 1)
	assert.Equal(t, edited, f.designer.Text())
}

func TestMergeAddsSeveralFieldsAndChangesOne(t *testing.T) {
	f := newFixture(t, primarySrc, designerSrc)
	d := form("MainForm",
		[]model.DesiredField{
			components,
			{Name: "button1", Type: "System.Windows.Forms.Button", Access: model.AccessPublic},
			{Name: "label1", Type: "System.Windows.Forms.Label"},
			{Name: "label2", Type: "System.Windows.Forms.Label"},
			{Name: "label3", Type: "System.Windows.Forms.Label"},
		},
		assign("this.Text", `"Main"`),
	)

	res, err := f.engine.MergeDesiredState(d)
	require.NoError(t, err)
	assert.Equal(t, []string{"label1", "label2", "label3"}, res.Added)
	assert.Equal(t, []string{"button1"}, res.Changed)
	assert.Empty(t, res.Failed)

	// Each new field goes on the line right after the body, so later
	// additions end up above earlier ones.
	want := `namespace Demo
{
	partial class MainForm
	{
		private System.ComponentModel.IContainer components = null;

		private void InitializeComponent()
		{
			this.Text = "Main";
		}
		private System.Windows.Forms.Label label3;
		private System.Windows.Forms.Label label2;
		private System.Windows.Forms.Label label1;

		public System.Windows.Forms.Button button1;
	}
}
`
	assert.Equal(t, want, f.designer.Text())
	assert.Equal(t, 1, f.designer.ModifyCount())

	again, err := f.engine.MergeDesiredState(d)
	require.NoError(t, err)
	assert.Equal(t, want, f.designer.Text())
	assert.Empty(t, again.Added)
	assert.Empty(t, again.Changed)
	assert.Empty(t, again.Removed)
	assert.Len(t, again.Unchanged, 5)
}

// brittleBuffer panics on any edit whose text mentions poison.
type brittleBuffer struct {
	*buffer.Document
	poison string
}

func (b *brittleBuffer) Replace(offset, length int, text string) error {
	if strings.Contains(text, b.poison) {
		panic("buffer rejected edit")
	}
	return b.Document.Replace(offset, length, text)
}

type brittleOpener struct {
	*buffer.Workspace
	designer *brittleBuffer
}

func (o *brittleOpener) Open(path string) (edit.Buffer, error) {
	if path == designerFile {
		return o.designer, nil
	}
	return o.Workspace.Open(path)
}

func TestMergeContinuesAfterFieldFailure(t *testing.T) {
	var designer *buffer.Document
	f := newFixture(t, primarySrc, designerSrc, func(o *merge.Options) {
		ws := o.Opener.(*buffer.Workspace)
		doc, err := ws.Document(designerFile)
		require.NoError(t, err)
		designer = doc
		o.Opener = &brittleOpener{Workspace: ws, designer: &brittleBuffer{Document: doc, poison: "label1"}}
	})
	require.Same(t, f.designer, designer)

	res, err := f.engine.MergeDesiredState(form("MainForm",
		[]model.DesiredField{
			components,
			{Name: "label1", Type: "System.Windows.Forms.Label"},
			{Name: "label2", Type: "System.Windows.Forms.Label"},
		},
		assign("this.Text", `"Main"`),
	))
	require.NoError(t, err)

	require.Len(t, res.Failed, 1)
	assert.Equal(t, "label1", res.Failed[0].Field)
	assert.Contains(t, res.Failed[0].Reason, "buffer rejected edit")
	require.Len(t, f.notes.errs, 1)
	assert.Contains(t, f.notes.errs[0].Error(), "label1")

	assert.Equal(t, []string{"label2"}, res.Added)
	assert.Equal(t, []string{"button1"}, res.Removed)
	assert.Equal(t, []string{designerFile}, res.Files)

	want := `namespace Demo
{
	partial class MainForm
	{
		private System.ComponentModel.IContainer components = null;

		private void InitializeComponent()
		{
			this.Text = "Main";
		}
		private System.Windows.Forms.Label label2;

	}
}
`
	assert.Equal(t, want, f.designer.Text())
	assert.Equal(t, 1, f.designer.ModifyCount())
}
