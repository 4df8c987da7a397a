package host

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/turtacn/CameraShell/pkg/ability"
	"github.com/turtacn/CameraShell/pkg/protocol"
)

// Host result codes used by the simulated capabilities.
const (
	CodeWindowStateAbnormal = 1300002
	CodeSystemAbnormal      = 1300003
	CodePermissionDenied    = 201
)

// AppContext is the application context handed out by the simulated host.
type AppContext struct {
	Ability string `json:"abilityName"`
	Bundle  string `json:"bundleName"`
	ID      string `json:"instanceId"`
}

// NewAppContext issues a context with a fresh instance ID.
func NewAppContext(abilityName, bundle string) *AppContext {
	return &AppContext{Ability: abilityName, Bundle: bundle, ID: uuid.NewString()}
}

func (a *AppContext) AbilityName() string { return a.Ability }
func (a *AppContext) InstanceID() string  { return a.ID }

// Calls counts host capability invocations.
type Calls struct {
	GetMainWindow          atomic.Int32
	SetFullScreen          atomic.Int32
	SetSystemBarEnable     atomic.Int32
	SetSystemBarProperties atomic.Int32
	LoadContent            atomic.Int32
	RequestPermissions     atomic.Int32
}

// Stage is a simulated window stage. After Detach every call fails with
// CodeWindowStateAbnormal instead of touching the window.
type Stage struct {
	faults  protocol.FaultConfig
	latency time.Duration
	calls   *Calls

	detached atomic.Bool
	window   *Window

	mu    sync.Mutex
	pages []string
}

// NewStage creates a simulated stage with the given faults.
func NewStage(faults protocol.FaultConfig, latency time.Duration, calls *Calls) *Stage {
	if calls == nil {
		calls = &Calls{}
	}
	s := &Stage{faults: faults, latency: latency, calls: calls}
	s.window = &Window{stage: s}
	return s
}

// Calls returns the invocation counters.
func (s *Stage) Calls() *Calls { return s.calls }

// Detach invalidates the stage.
func (s *Stage) Detach() { s.detached.Store(true) }

// Pages returns the pages successfully loaded into the stage.
func (s *Stage) Pages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.pages...)
}

func (s *Stage) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(s.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Stage) check(ctx context.Context, fail bool, op string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	if s.detached.Load() {
		return &ability.HostError{Code: CodeWindowStateAbnormal, Msg: op + ": window stage detached"}
	}
	if fail {
		return &ability.HostError{Code: CodeSystemAbnormal, Msg: op + ": injected failure"}
	}
	return nil
}

func (s *Stage) GetMainWindow(ctx context.Context) (ability.Window, error) {
	s.calls.GetMainWindow.Add(1)
	if err := s.check(ctx, s.faults.GetMainWindow, "getMainWindow"); err != nil {
		return nil, err
	}
	return s.window, nil
}

func (s *Stage) LoadContent(ctx context.Context, page string) (ability.LoadResult, error) {
	s.calls.LoadContent.Add(1)
	if err := s.check(ctx, false, "loadContent"); err != nil {
		return ability.LoadResult{}, err
	}
	if s.faults.LoadContentCode != 0 {
		return ability.LoadResult{Code: s.faults.LoadContentCode, Message: "page " + page + " failed to load"}, nil
	}
	s.mu.Lock()
	s.pages = append(s.pages, page)
	s.mu.Unlock()
	return ability.LoadResult{Data: map[string]string{"page": page}}, nil
}

// Window is the primary window of a simulated stage.
type Window struct {
	stage *Stage

	mu         sync.Mutex
	fullScreen bool
	bars       []string
	props      ability.SystemBarProperties
}

func (w *Window) SetLayoutFullScreen(ctx context.Context, enabled bool) error {
	w.stage.calls.SetFullScreen.Add(1)
	if err := w.stage.check(ctx, w.stage.faults.SetFullScreen, "setLayoutFullScreen"); err != nil {
		return err
	}
	w.mu.Lock()
	w.fullScreen = enabled
	w.mu.Unlock()
	return nil
}

func (w *Window) SetSystemBarEnable(ctx context.Context, bars []string) error {
	w.stage.calls.SetSystemBarEnable.Add(1)
	if err := w.stage.check(ctx, w.stage.faults.SetSystemBarEnable, "setSystemBarEnable"); err != nil {
		return err
	}
	w.mu.Lock()
	w.bars = append([]string(nil), bars...)
	w.mu.Unlock()
	return nil
}

func (w *Window) SetSystemBarProperties(ctx context.Context, props ability.SystemBarProperties) error {
	w.stage.calls.SetSystemBarProperties.Add(1)
	if err := w.stage.check(ctx, w.stage.faults.SetSystemBarProperties, "setSystemBarProperties"); err != nil {
		return err
	}
	w.mu.Lock()
	w.props = props
	w.mu.Unlock()
	return nil
}

// Snapshot returns the applied window chrome.
func (w *Window) Snapshot() (fullScreen bool, bars []string, props ability.SystemBarProperties) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fullScreen, append([]string(nil), w.bars...), w.props
}

// Window returns the stage's primary window.
func (s *Stage) Window() *Window { return s.window }

// Permissions is a simulated permission manager.
type Permissions struct {
	denyCode int
	latency  time.Duration
	calls    *Calls

	mu        sync.Mutex
	requested []string
}

// NewPermissions creates a permission manager that rejects with denyCode when non-zero.
func NewPermissions(fault protocol.PermissionFault, latency time.Duration, calls *Calls) *Permissions {
	if calls == nil {
		calls = &Calls{}
	}
	return &Permissions{denyCode: fault.DenyCode, latency: latency, calls: calls}
}

func (p *Permissions) RequestPermissions(ctx context.Context, app ability.ApplicationContext, permissions []string) error {
	p.calls.RequestPermissions.Add(1)
	if p.latency > 0 {
		select {
		case <-time.After(p.latency):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	p.requested = append([]string(nil), permissions...)
	p.mu.Unlock()
	if p.denyCode != 0 {
		return &ability.HostError{Code: p.denyCode, Msg: "user denied permissions for " + app.AbilityName()}
	}
	return nil
}

// Requested returns the permissions of the last request.
func (p *Permissions) Requested() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.requested...)
}

// Personal.AI order the ending
