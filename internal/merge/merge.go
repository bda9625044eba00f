package merge

import (
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sokinpui/formsync/internal/codegen"
	"github.com/sokinpui/formsync/internal/compare"
	"github.com/sokinpui/formsync/internal/edit"
	"github.com/sokinpui/formsync/internal/region"
	"github.com/sokinpui/formsync/model"
)

const skipMessage = "Cannot save form: %s method does not exist anymore. You should not modify the designer file while editing a form."

// MergeDesiredState runs one reconciliation pass. Load and integration
// errors abort the pass before any text changes. A designer file that no
// longer declares the initialization method skips the pass with a message.
func (e *Engine) MergeDesiredState(d *model.DesiredState) (*model.PassResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.merge(d)
}

// target finds the desired type declaring the initialization method.
func (e *Engine) target(d *model.DesiredState) (*model.DesiredType, *model.DesiredMethod, error) {
	if d != nil {
		for i := range d.Types {
			if m := d.Types[i].Method(e.initMethod); m != nil {
				return &d.Types[i], m, nil
			}
		}
	}
	return nil, nil, model.IntegrationError("merge", "%s method not found in the designer output", e.initMethod)
}

func (e *Engine) merge(d *model.DesiredState) (*model.PassResult, error) {
	res := &model.PassResult{ID: uuid.NewString()}
	log := e.logger.With(zap.String("pass", res.ID))

	rc, ok, err := e.reparse()
	if err != nil {
		return nil, err
	}
	typ, method, err := e.target(d)
	if err != nil {
		return nil, err
	}
	if !ok {
		res.Skipped = true
		res.Message = fmt.Sprintf(skipMessage, e.initMethod)
		e.notifier.ShowMessage(res.Message)
		return res, nil
	}

	session := edit.NewSession()
	designerFile, designerBuf := rc.DesignerFile, rc.designerBuf
	defer func() {
		for _, buf := range session.Commit() {
			res.Files = append(res.Files, e.paths[buf])
		}
		e.parser.EnqueueReanalysis(designerFile, designerBuf.Text())
	}()

	if typ.Name != rc.Part.Name {
		if rc, err = e.rename(session, rc, typ.Name, log); err != nil {
			return res, err
		}
		res.Renamed = typ.Name
		if rc == nil {
			res.Skipped = true
			res.Message = fmt.Sprintf(skipMessage, e.initMethod)
			e.notifier.ShowMessage(res.Message)
			return res, nil
		}
	}

	provider := e.backend.CreateCodeProvider()
	if err := e.replaceBody(session, rc, provider, method); err != nil {
		return res, err
	}

	// Fields are classified against a snapshot taken after the body
	// replacement; each edit below reparses for its own positions.
	if rc, ok, err = e.reparse(); err != nil || !ok {
		if err == nil {
			err = fmt.Errorf("%s disappeared after body replacement", e.initMethod)
		}
		return res, err
	}
	diffs := compare.Classify(rc.Complete, typ.Fields)

	for _, diff := range diffs {
		switch diff.Kind {
		case model.Unchanged:
			res.Unchanged = append(res.Unchanged, diff.Name)
		case model.Added, model.Changed:
			if diff.Kind == model.Changed {
				log.Debug("FieldChanged", zap.String("field", diff.Name),
					zap.String("old", diff.Old.Type.String()), zap.String("new", diff.New.Type))
			}
			warn, err := e.upsertField(session, provider, diff.New, log)
			switch {
			case err != nil:
				e.fail(res, diff.Name, err)
			case warn != nil:
				res.Warnings = append(res.Warnings, *warn)
			case diff.Kind == model.Added:
				res.Added = append(res.Added, diff.Name)
			default:
				res.Changed = append(res.Changed, diff.Name)
			}
		}
	}

	// Removal names are collected in full before the first declaration is
	// deleted.
	var removed []string
	for _, diff := range diffs {
		if diff.Kind == model.Removed {
			removed = append(removed, diff.Name)
		}
	}
	for _, name := range removed {
		done, warn, err := e.removeField(session, name, log)
		switch {
		case err != nil:
			e.fail(res, name, err)
		case warn != nil:
			res.Warnings = append(res.Warnings, *warn)
		case done:
			res.Removed = append(res.Removed, name)
		}
	}

	log.Info("merged desired state",
		zap.Int("edits", session.Edits()),
		zap.Strings("added", res.Added),
		zap.Strings("changed", res.Changed),
		zap.Strings("removed", res.Removed),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

func (e *Engine) fail(res *model.PassResult, field string, err error) {
	res.Failed = append(res.Failed, model.Warning{Field: field, Reason: err.Error()})
	e.notifier.ShowError(fmt.Errorf("field %s: %w", field, err))
}

// rename renames the class in the designer and primary buffers and returns
// the reparsed context, nil when the class can no longer be found.
func (e *Engine) rename(s *edit.Session, rc *Context, newName string, log *zap.Logger) (*Context, error) {
	if e.renamer == nil {
		return nil, fmt.Errorf("rename %s to %s: no rename service", rc.Part.Name, newName)
	}
	log.Info("Renaming form", zap.String("from", rc.Part.Name), zap.String("to", newName))
	targets := map[string]edit.Buffer{rc.DesignerFile: rc.designerBuf}
	if rc.PrimaryFile != rc.DesignerFile {
		targets[rc.PrimaryFile] = rc.primaryBuf
	}
	if err := e.renamer.RenameClass(rc.Part, newName, targets); err != nil {
		return nil, err
	}
	s.Touch(rc.designerBuf)
	s.Touch(rc.primaryBuf)

	next, ok, err := e.reparse()
	if err != nil || !ok {
		return nil, err
	}
	return next, nil
}

func (e *Engine) replaceBody(s *edit.Session, rc *Context, provider codegen.CodeProvider, method *model.DesiredMethod) error {
	fixed := e.backend.FixGeneratedCode(rc.Part, *method)
	statements := provider.Statements(fixed.Statements, rc.Indent+e.indentUnit)

	body := e.backend.GetReplaceRegion(rc.Init.BodyRegion)
	if err := region.CheckRegion("replace body", body); err != nil {
		return err
	}
	text := e.backend.FormatBody(statements, rc.Indent, rc.Init.BodyRegion)
	if err := s.ReplaceRegion(rc.designerBuf, body, text); err != nil {
		return fmt.Errorf("replace %s body: %w", e.initMethod, err)
	}
	return nil
}

// upsertField replaces the declaration of f in the designer part, or
// inserts it on the line after the initialization method. A declaration in
// another part is left alone with a warning.
func (e *Engine) upsertField(s *edit.Session, provider codegen.CodeProvider, f *model.DesiredField, log *zap.Logger) (warn *model.Warning, err error) {
	defer recoverField(&err)

	rc, ok, err := e.reparse()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s not found", e.initMethod)
	}
	decl := rc.Indent + provider.Field(*f)

	if old := rc.Part.Field(f.Name); old != nil {
		span := region.LineSpan(old.Region.BeginLine, old.Region.EndLine)
		return nil, s.ReplaceRegion(rc.designerBuf, span, decl+edit.LineTerminator)
	}
	if rc.Complete.Field(f.Name) != nil {
		log.Warn("Field declaration replacement in non-designer part currently not supported", zap.String("field", f.Name))
		return &model.Warning{Field: f.Name, Reason: "declared in a non-designer part"}, nil
	}
	offset, err := edit.LineOffset(rc.designerBuf, rc.Init.BodyRegion.EndLine+1)
	if err != nil {
		return nil, err
	}
	return nil, s.InsertLine(rc.designerBuf, offset, decl)
}

// removeField deletes the whole-line declaration of name from the designer part.
func (e *Engine) removeField(s *edit.Session, name string, log *zap.Logger) (done bool, warn *model.Warning, err error) {
	defer recoverField(&err)

	log.Info("Remove field declaration", zap.String("field", name))
	rc, ok, err := e.reparse()
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return false, nil, fmt.Errorf("%s not found", e.initMethod)
	}
	if f := rc.Part.Field(name); f != nil {
		span := region.LineSpan(f.Region.BeginLine, f.Region.EndLine)
		return true, nil, s.RemoveRegion(rc.designerBuf, span)
	}
	if rc.Complete.Field(name) != nil {
		log.Warn("Removing field declaration in non-designer part currently not supported", zap.String("field", name))
		return false, &model.Warning{Field: name, Reason: "declared in a non-designer part"}, nil
	}
	return false, nil, nil
}

// recoverField turns a panic while editing one field into that field's error.
func recoverField(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
	}
}
