// Package formsync wires the reconciliation engine to files, Neovim, the
// journal and the console.
package formsync

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sokinpui/formsync/cli"
	"github.com/sokinpui/formsync/internal/buffer"
	"github.com/sokinpui/formsync/internal/config"
	"github.com/sokinpui/formsync/internal/csharp"
	"github.com/sokinpui/formsync/internal/fs"
	"github.com/sokinpui/formsync/internal/logging"
	"github.com/sokinpui/formsync/internal/merge"
	"github.com/sokinpui/formsync/internal/nvim"
	"github.com/sokinpui/formsync/internal/parser"
	"github.com/sokinpui/formsync/internal/preview"
	"github.com/sokinpui/formsync/internal/source"
	"github.com/sokinpui/formsync/internal/state"
	"github.com/sokinpui/formsync/internal/ui"
	"github.com/sokinpui/formsync/model"
)

// App orchestrates the entire application logic.
type App struct {
	cfg            *cli.Config
	conf           *config.Config
	logger         *zap.Logger
	stateManager   *state.Manager
	pathResolver   *fs.PathResolver
	sourceProvider *source.SourceProvider
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

func (e *DetailedError) Unwrap() error { return e.Err }

func (e *DetailedError) StackTrace() []byte { return e.Stack }

// New creates a new App instance.
func New(cfg *cli.Config) (*App, error) {
	conf, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.New(conf.Log.Level, conf.Log.Development, cfg.Verbose)
	if err != nil {
		return nil, err
	}
	stateManager, err := state.New(conf.State.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize state manager: %w", err)
	}
	pathResolver, err := fs.NewPathResolver(nil)
	if err != nil {
		return nil, err
	}
	if conf.Path != "" {
		logger.Debug("loaded configuration", zap.String("path", conf.Path))
	}

	return &App{
		cfg:            cfg,
		conf:           conf,
		logger:         logger,
		stateManager:   stateManager,
		pathResolver:   pathResolver,
		sourceProvider: source.New(cfg.Desired),
	}, nil
}

// Close flushes the logger.
func (a *App) Close() {
	_ = a.logger.Sync()
}

// Execute executes the main application logic based on parsed flags.
func (a *App) Execute() (summary model.Summary, err error) {
	// Centralized panic recovery.
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	switch {
	case a.cfg.Revert:
		return a.revertLastPass()
	case a.cfg.Locate:
		return a.locate()
	case a.cfg.Compatible != "":
		return a.compatibleMethods()
	case a.cfg.Handler != "":
		return a.insertHandler()
	default:
		return a.mergeDesiredState()
	}
}

// buffers is the buffer service of one run: files on disk or Neovim.
type buffers interface {
	merge.Opener
	save() ([]string, error)
	close()
}

type diskBuffers struct{ *buffer.Workspace }

func (d diskBuffers) save() ([]string, error) { return d.SaveAll() }
func (d diskBuffers) close()                  {}

type nvimBuffers struct {
	*nvim.Manager
	keep bool
}

func (n nvimBuffers) save() ([]string, error) {
	if n.keep {
		return nil, nil
	}
	return n.SaveAllBuffers()
}
func (n nvimBuffers) close() { n.Close() }

// session is one engine bound to the form named on the command line.
type session struct {
	engine  *merge.Engine
	parser  *csharp.Parser
	buffers buffers
	primary string
}

func (s *session) close() {
	s.parser.Close()
	s.buffers.close()
}

func (a *App) openSession(host merge.Host) (*session, error) {
	primary := a.pathResolver.ResolveExisting(a.cfg.PrimaryFile)
	if primary == "" {
		return nil, fmt.Errorf("form file %s: %w", a.cfg.PrimaryFile, os.ErrNotExist)
	}
	parts, err := fs.SiblingParts(primary)
	if err != nil {
		return nil, err
	}
	designer := fs.DesignerPartFor(primary, a.conf.Designer.DesignerSuffix)
	if !containsPath(parts, designer) {
		if _, err := os.Stat(designer); err == nil {
			parts = append(parts, designer)
		}
	}

	var bufs buffers
	if a.cfg.Nvim && !a.cfg.DryRun {
		m, err := nvim.New(a.cfg.NvimAddr)
		if err != nil {
			return nil, err
		}
		bufs = nvimBuffers{Manager: m, keep: a.cfg.Buffer}
	} else {
		bufs = diskBuffers{buffer.NewWorkspace()}
	}

	p := csharp.NewParser(
		csharp.WithLogger(a.logger.Named("parser")),
		csharp.WithKnownTypes(a.conf.Designer.KnownTypes),
	)
	backend := csharp.NewBackend()
	backend.IndentUnit = a.conf.Designer.IndentUnit
	backend.InsertTodoComment = a.conf.InsertTodoComment()

	engine, err := merge.New(merge.Options{
		PrimaryFile:     primary,
		Parts:           parts,
		Parser:          p,
		Backend:         backend,
		Renamer:         csharp.NewRenamer(a.logger.Named("rename")),
		Opener:          bufs,
		Notifier:        ui.Notifier{},
		Host:            host,
		Logger:          a.logger.Named("merge"),
		InitMethod:      a.conf.Designer.InitMethod,
		IndentUnit:      a.conf.Designer.IndentUnit,
		DesignableBases: a.conf.Designer.DesignableBases,
	})
	if err != nil {
		p.Close()
		bufs.close()
		return nil, err
	}
	return &session{engine: engine, parser: p, buffers: bufs, primary: primary}, nil
}

func containsPath(paths []string, p string) bool {
	for _, q := range paths {
		if filepath.Clean(q) == filepath.Clean(p) {
			return true
		}
	}
	return false
}

// desiredState reads and decodes the desired state input.
func (a *App) desiredState() (*model.DesiredState, error) {
	content, err := a.sourceProvider.GetContent()
	if err != nil {
		return nil, err
	}
	return parser.ParseDesired(content)
}

// sourceHost flushes the desired state input before a handler is created.
type sourceHost struct{ a *App }

func (h sourceHost) CurrentDesiredState() (*model.DesiredState, error) {
	return h.a.desiredState()
}

// finish saves or previews the buffers a pass touched and journals the
// saved files.
func (a *App) finish(s *session, id, form string, snap *state.Snapshot, summary *model.Summary) error {
	if a.cfg.DryRun {
		var changes []preview.Change
		for _, p := range snap.Paths() {
			after, err := s.buffers.Peek(p)
			if err != nil {
				return err
			}
			changes = append(changes, preview.Change{Path: a.pathResolver.Relative(p), Before: string(snap.Content(p)), After: after})
		}
		diff, err := preview.Render(changes)
		if err != nil {
			return err
		}
		if diff != "" {
			summary.Lines = append(summary.Lines, strings.Split(strings.TrimSuffix(diff, "\n"), "\n")...)
		}
		summary.Message = "Dry run: nothing was written."
		return nil
	}

	saved, err := s.buffers.save()
	if err != nil {
		return fmt.Errorf("failed to save buffers: %w", err)
	}
	if a.cfg.Buffer {
		summary.Message = "Buffers updated in Neovim; not saved."
		return nil
	}
	if _, err := a.stateManager.Record(id, form, snap); err != nil {
		a.logger.Warn("failed to journal pass", zap.Error(err))
	}
	summary.Modified = a.relative(saved)
	return nil
}

// snapshot locates the designer file and captures it with the primary file.
func (a *App) snapshot(s *session) (*state.Snapshot, error) {
	designer, err := s.engine.LocateInitializationOwner()
	if err != nil {
		return nil, err
	}
	return state.Take(s.primary, designer)
}

// mergeDesiredState runs one reconciliation pass from the input.
func (a *App) mergeDesiredState() (model.Summary, error) {
	d, err := a.desiredState()
	if errors.Is(err, parser.ErrNoDesiredState) {
		return model.Summary{Message: "Source has no desired state. Nothing to process."}, nil
	}
	if err != nil {
		return model.Summary{}, err
	}

	s, err := a.openSession(nil)
	if err != nil {
		return model.Summary{}, err
	}
	defer s.close()

	snap, err := a.snapshot(s)
	if err != nil {
		return model.Summary{}, err
	}
	res, err := s.engine.MergeDesiredState(d)
	if err != nil {
		return model.Summary{}, err
	}
	summary := model.Summary{Pass: res}
	if res.Skipped {
		return summary, nil
	}
	form := strings.TrimSuffix(filepath.Base(s.primary), filepath.Ext(s.primary))
	if err := a.finish(s, res.ID, form, snap, &summary); err != nil {
		return summary, err
	}
	res.Files = a.relative(res.Files)
	return summary, nil
}

func (a *App) locate() (model.Summary, error) {
	s, err := a.openSession(nil)
	if err != nil {
		return model.Summary{}, err
	}
	defer s.close()

	file, err := s.engine.LocateInitializationOwner()
	if err != nil {
		return model.Summary{}, err
	}
	return model.Summary{Lines: []string{a.pathResolver.Relative(file)}}, nil
}

func (a *App) compatibleMethods() (model.Summary, error) {
	sig, err := csharp.ParseSignature(a.cfg.Compatible)
	if err != nil {
		return model.Summary{}, err
	}
	s, err := a.openSession(nil)
	if err != nil {
		return model.Summary{}, err
	}
	defer s.close()

	names, err := s.engine.FindCompatibleMethods(sig)
	if err != nil {
		return model.Summary{}, err
	}
	if len(names) == 0 {
		return model.Summary{Message: fmt.Sprintf("No methods compatible with %s.", sig.Delegate)}, nil
	}
	return model.Summary{Lines: names}, nil
}

func (a *App) insertHandler() (model.Summary, error) {
	sig, err := csharp.ParseSignature(a.cfg.Delegate)
	if err != nil {
		return model.Summary{}, err
	}
	var host merge.Host
	if a.cfg.Desired != "" {
		host = sourceHost{a}
	}
	s, err := a.openSession(host)
	if err != nil {
		return model.Summary{}, err
	}
	defer s.close()

	snap, err := a.snapshot(s)
	if err != nil {
		return model.Summary{}, err
	}
	loc, ok, err := s.engine.InsertEventHandler(sig, a.cfg.Handler, a.cfg.Body)
	if err != nil {
		return model.Summary{}, err
	}
	if !ok {
		return model.Summary{Message: fmt.Sprintf("The file declaring %s could not be found.", a.cfg.Handler)}, nil
	}

	summary := model.Summary{Lines: []string{fmt.Sprintf("%s:%d", a.pathResolver.Relative(loc.File), loc.Line)}}
	if !loc.Created {
		return summary, nil
	}
	if err := a.finish(s, uuid.NewString(), a.cfg.Handler, snap, &summary); err != nil {
		return summary, err
	}
	return summary, nil
}

// revertLastPass restores the files of the newest journaled pass.
func (a *App) revertLastPass() (model.Summary, error) {
	restore := state.WriteFile
	if a.cfg.Nvim {
		m, err := nvim.New(a.cfg.NvimAddr)
		if err != nil {
			return model.Summary{}, err
		}
		defer m.Close()
		restore = m.Restore
	}

	entry, reverted, failed, err := a.stateManager.Revert(restore)
	if errors.Is(err, state.ErrNothingToRevert) {
		return model.Summary{Message: "No pass to revert."}, nil
	}
	if err != nil {
		return model.Summary{}, err
	}
	return model.Summary{
		Modified: a.relative(reverted),
		Failed:   a.relative(failed),
		Message:  fmt.Sprintf("Reverted pass on %s.", entry.Form),
	}, nil
}

// relative converts absolute file paths to be relative to the working
// directory for cleaner display.
func (a *App) relative(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = a.pathResolver.Relative(p)
	}
	return out
}
