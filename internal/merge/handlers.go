package merge

import (
	"errors"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"github.com/sokinpui/formsync/internal/codegen"
	"github.com/sokinpui/formsync/internal/edit"
	"github.com/sokinpui/formsync/model"
)

// HandlerLocation is where an event handler lives and where the caret goes.
type HandlerLocation struct {
	File    string
	Line    int
	Created bool
}

// InsertEventHandler returns the location of the method named name, creating
// it in the primary file when the class does not declare it yet. It reports
// false when the method exists in a file that cannot be found.
func (e *Engine) InsertEventHandler(sig model.EventSignature, name, body string) (HandlerLocation, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rc, ok, err := e.reparse()
	if err != nil {
		return HandlerLocation{}, false, err
	}
	if !ok {
		return HandlerLocation{}, false, model.LoadError("insert handler", "%s method not found in %s", e.initMethod, e.designer)
	}
	policy := codegen.PolicyOf(e.backend)

	if m := rc.Complete.Method(name); m != nil {
		return e.existingHandler(rc, m, policy)
	}

	if e.host != nil {
		d, err := e.host.CurrentDesiredState()
		if err != nil {
			return HandlerLocation{}, false, fmt.Errorf("flush designer: %w", err)
		}
		if _, err := e.merge(d); err != nil {
			return HandlerLocation{}, false, err
		}
		if rc, ok, err = e.reparse(); err != nil || !ok {
			if err == nil {
				err = model.LoadError("insert handler", "%s method not found after merge", e.initMethod)
			}
			return HandlerLocation{}, false, err
		}
	}

	part := rc.Primary
	if part == nil {
		return HandlerLocation{}, false, model.LoadError("insert handler", "class %s has no part in %s", rc.Part.FullName(), rc.PrimaryFile)
	}
	line := policy.EventHandlerInsertionLine(part)
	offset, err := edit.LineOffset(rc.primaryBuf, line)
	if err != nil {
		return HandlerLocation{}, false, err
	}
	s := edit.NewSession()
	if err := s.Insert(rc.primaryBuf, offset, e.backend.CreateEventHandler(sig, name, body, rc.Indent)); err != nil {
		return HandlerLocation{}, false, err
	}
	s.Commit()
	e.parser.EnqueueReanalysis(rc.PrimaryFile, rc.primaryBuf.Text())

	loc := HandlerLocation{File: rc.PrimaryFile, Line: line + policy.CursorLineAfterEventHandler(), Created: true}
	e.logger.Info("inserted event handler", zap.String("method", name), zap.String("file", loc.File), zap.Int("line", loc.Line))
	return loc, true, nil
}

// existingHandler resolves the caret line of m. Methods outside the primary
// and designer files are reparsed from the file's current text.
func (e *Engine) existingHandler(rc *Context, m *model.Method, policy codegen.CursorPolicy) (HandlerLocation, bool, error) {
	if m.File == rc.PrimaryFile || m.File == rc.DesignerFile {
		return HandlerLocation{File: m.File, Line: policy.CursorLine(m)}, true, nil
	}
	text, err := e.opener.Peek(m.File)
	if errors.Is(err, fs.ErrNotExist) {
		e.logger.Warn("event handler file not found", zap.String("file", m.File))
		return HandlerLocation{}, false, nil
	}
	if err != nil {
		return HandlerLocation{}, false, err
	}
	unit, err := e.parser.Parse(m.File, text)
	if err != nil {
		return HandlerLocation{}, false, err
	}
	for _, c := range unit.Classes {
		if c.FullName() != rc.Part.FullName() {
			continue
		}
		if fresh := c.Method(m.Name); fresh != nil {
			return HandlerLocation{File: m.File, Line: policy.CursorLine(fresh)}, true, nil
		}
	}
	return HandlerLocation{}, false, nil
}

// FindCompatibleMethods lists the methods of the complete class whose
// parameter types match sig exactly, by full type name.
func (e *Engine) FindCompatibleMethods(sig model.EventSignature) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rc, ok, err := e.reparse()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var names []string
	for _, m := range rc.Complete.Methods {
		if compatible(m, sig) {
			names = append(names, m.Name)
		}
	}
	return names, nil
}

func compatible(m *model.Method, sig model.EventSignature) bool {
	if len(m.Parameters) != len(sig.Parameters) {
		return false
	}
	for i, p := range m.Parameters {
		if p.Type.String() != sig.Parameters[i].Type {
			return false
		}
	}
	return true
}
