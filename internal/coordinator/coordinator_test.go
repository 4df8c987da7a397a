package coordinator

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/CameraShell/internal/monitor"
	"github.com/turtacn/CameraShell/internal/registry"
	"github.com/turtacn/CameraShell/pkg/ability"
	"github.com/turtacn/CameraShell/pkg/consts"
	"github.com/turtacn/CameraShell/pkg/errors"
	"github.com/turtacn/CameraShell/pkg/protocol"
)

type testApp struct{ id string }

func (a testApp) AbilityName() string { return "MainAbility" }
func (a testApp) InstanceID() string  { return a.id }

// fakeWindow records calls and fails or panics on demand.
type fakeWindow struct {
	fullScreen, bars, props atomic.Int32

	failFullScreen  bool
	panicFullScreen bool
	failBars        bool
	failProps       bool
	propsDone       chan struct{}
}

func (w *fakeWindow) SetLayoutFullScreen(ctx context.Context, enabled bool) error {
	w.fullScreen.Add(1)
	if w.panicFullScreen {
		panic("layout service crashed")
	}
	if w.failFullScreen {
		return &ability.HostError{Code: 1300003, Msg: "full screen unsupported"}
	}
	return nil
}

func (w *fakeWindow) SetSystemBarEnable(ctx context.Context, bars []string) error {
	w.bars.Add(1)
	if w.failBars {
		return &ability.HostError{Code: 1300003, Msg: "bars unsupported"}
	}
	return nil
}

func (w *fakeWindow) SetSystemBarProperties(ctx context.Context, props ability.SystemBarProperties) error {
	w.props.Add(1)
	if w.propsDone != nil {
		defer close(w.propsDone)
	}
	if w.failProps {
		return &ability.HostError{Code: 1300003, Msg: "bar color unsupported"}
	}
	return nil
}

// fakeStage hands out win and answers LoadContent with result.
type fakeStage struct {
	win        *fakeWindow
	windowErr  error
	result     ability.LoadResult
	loadErr    error
	loadGate   <-chan struct{}
	getWindow  atomic.Int32
	loads      atomic.Int32
	mu         sync.Mutex
	loadedPage string
}

func (s *fakeStage) GetMainWindow(ctx context.Context) (ability.Window, error) {
	s.getWindow.Add(1)
	if s.windowErr != nil {
		return nil, s.windowErr
	}
	return s.win, nil
}

func (s *fakeStage) LoadContent(ctx context.Context, page string) (ability.LoadResult, error) {
	s.loads.Add(1)
	if s.loadGate != nil {
		<-s.loadGate
	}
	s.mu.Lock()
	s.loadedPage = page
	s.mu.Unlock()
	return s.result, s.loadErr
}

type fakePermissions struct {
	err       error
	calls     atomic.Int32
	mu        sync.Mutex
	requested []string
	app       ability.ApplicationContext
}

func (p *fakePermissions) RequestPermissions(ctx context.Context, app ability.ApplicationContext, permissions []string) error {
	p.calls.Add(1)
	p.mu.Lock()
	p.requested = permissions
	p.app = app
	p.mu.Unlock()
	return p.err
}

func newCoordinator(t *testing.T, perms ability.PermissionManager) (*Coordinator, *sink) {
	t.Helper()
	s, l := newSink()
	opts := OptionsFromConfig(protocol.Default().Ability)
	opts.Permissions = perms
	opts.Logger = l
	return New(opts), s
}

func TestNew_Defaults(t *testing.T) {
	c := New(Options{})
	assert.Equal(t, consts.DefaultAbilityName, c.opts.AbilityName)
	assert.Equal(t, consts.DefaultInitialPage, c.opts.InitialPage)
	assert.Equal(t, []string{consts.SystemBarNavigation}, c.opts.SystemBars)
	assert.NotNil(t, c.Registry())
	assert.Equal(t, consts.StateInitial, c.State())
}

func TestOnCreate_PublishesContext(t *testing.T) {
	c, s := newCoordinator(t, nil)
	c.OnCreate(testApp{id: "ctx-1"}, ability.LaunchParams{"launchReason": "START_ABILITY"})

	app, ok := c.Registry().Get()
	require.True(t, ok)
	assert.Equal(t, "ctx-1", app.InstanceID())
	assert.Equal(t, consts.StateCreated, c.State())
	assert.Equal(t, 1, s.count("Ability onCreate"))
	assert.Equal(t, 1, s.count("launchParam"))
	assert.Empty(t, s.errors())
}

func TestOnCreate_SerializationFailureIsContained(t *testing.T) {
	c, s := newCoordinator(t, nil)

	require.NotPanics(t, func() {
		c.OnCreate(testApp{id: "ctx-2"}, ability.LaunchParams{"callback": make(chan int)})
	})

	_, ok := c.Registry().Get()
	assert.True(t, ok, "context is published even when diagnostics fail")

	errs := s.errorsFor("Marshal")
	require.Len(t, errs, 1)
	assert.Equal(t, int(errors.ErrCodeSerialization), errs[0].Attrs["code"])
}

func TestOnCreate_NilContext(t *testing.T) {
	c, s := newCoordinator(t, nil)
	require.NotPanics(t, func() { c.OnCreate(nil, nil) })

	_, ok := c.Registry().Get()
	assert.False(t, ok)
	require.Len(t, s.errorsFor("OnCreate"), 1)
}

func TestOnForeground_Idempotent(t *testing.T) {
	c, s := newCoordinator(t, nil)
	before := testutil.ToFloat64(monitor.LifecycleEvents.WithLabelValues(string(consts.EventForeground)))

	c.OnForeground()
	c.OnForeground()

	assert.Equal(t, 2, s.count("Ability onForeground"))
	assert.Equal(t, consts.StateForeground, c.State())
	assert.Empty(t, s.errors())
	after := testutil.ToFloat64(monitor.LifecycleEvents.WithLabelValues(string(consts.EventForeground)))
	assert.Equal(t, 2.0, after-before)

	c.OnBackground()
	c.OnForeground()
	c.OnBackground()
	assert.Equal(t, consts.StateBackground, c.State())
	assert.Equal(t, 2, s.count("Ability onBackground"))
}

func TestOnWindowStageCreate_ConfiguresWindowAndLoadsPage(t *testing.T) {
	perms := &fakePermissions{}
	c, s := newCoordinator(t, perms)
	stage := &fakeStage{win: &fakeWindow{}}

	c.OnCreate(testApp{id: "ctx-3"}, nil)
	c.OnWindowStageCreate(context.Background(), stage)
	c.Wait()

	assert.EqualValues(t, 1, stage.getWindow.Load())
	assert.EqualValues(t, 1, stage.win.fullScreen.Load())
	assert.EqualValues(t, 1, stage.win.bars.Load())
	assert.EqualValues(t, 1, stage.win.props.Load())
	assert.EqualValues(t, 1, stage.loads.Load())
	assert.Equal(t, consts.DefaultInitialPage, stage.loadedPage)

	assert.EqualValues(t, 1, perms.calls.Load())
	assert.Equal(t, consts.CameraPermissions(), perms.requested)
	assert.Equal(t, "ctx-3", perms.app.InstanceID())

	assert.Equal(t, 1, s.count("Succeeded in loading the content"))
	assert.Empty(t, s.errors())
}

func TestOnWindowStageCreate_EntryVariant(t *testing.T) {
	perms := &fakePermissions{}
	s, l := newSink()
	c := New(Options{
		AbilityName: "EntryAbility",
		InitialPage: consts.EntryInitialPage,
		Permissions: perms,
		Logger:      l,
	})
	stage := &fakeStage{win: &fakeWindow{}}

	c.OnWindowStageCreate(context.Background(), stage)
	c.Wait()

	assert.EqualValues(t, 0, stage.getWindow.Load(), "no window chrome in this variant")
	assert.EqualValues(t, 0, perms.calls.Load(), "no permission request in this variant")
	assert.Equal(t, consts.EntryInitialPage, stage.loadedPage)
	assert.Empty(t, s.errors())
}

func TestLoadFailure_DoesNotBlockWindowChain(t *testing.T) {
	c, s := newCoordinator(t, &fakePermissions{})
	stage := &fakeStage{
		win:    &fakeWindow{},
		result: ability.LoadResult{Code: 16000050, Message: "internal error"},
	}
	before := testutil.ToFloat64(monitor.AsyncStepFailures.WithLabelValues(StepLoadContent))

	c.OnCreate(testApp{id: "ctx-4"}, nil)
	c.OnWindowStageCreate(context.Background(), stage)
	c.Wait()

	assert.EqualValues(t, 1, stage.win.fullScreen.Load())
	assert.EqualValues(t, 1, stage.win.bars.Load())
	assert.EqualValues(t, 1, stage.win.props.Load())

	errs := s.errorsFor(StepLoadContent)
	require.Len(t, errs, 1)
	assert.Equal(t, 16000050, errs[0].Attrs["code"])
	assert.Equal(t, consts.DefaultInitialPage, errs[0].Attrs["page"])
	assert.Contains(t, errs[0].Attrs["cause"], "16000050")
	assert.EqualValues(t, 1, stage.loads.Load(), "no retry")

	after := testutil.ToFloat64(monitor.AsyncStepFailures.WithLabelValues(StepLoadContent))
	assert.Equal(t, 1.0, after-before)
}

func TestWindowFailure_DoesNotBlockLoad(t *testing.T) {
	c, s := newCoordinator(t, &fakePermissions{})
	stage := &fakeStage{windowErr: &ability.HostError{Code: 1300002, Msg: "no main window"}}

	c.OnCreate(testApp{id: "ctx-5"}, nil)
	c.OnWindowStageCreate(context.Background(), stage)
	c.Wait()

	assert.EqualValues(t, 1, stage.loads.Load())
	assert.Equal(t, 1, s.count("Succeeded in loading the content"))
	errs := s.errorsFor(StepGetMainWindow)
	require.Len(t, errs, 1)
	assert.Equal(t, 1300002, errs[0].Attrs["code"])
}

func TestWindowSteps_FailIndependently(t *testing.T) {
	c, s := newCoordinator(t, nil)
	win := &fakeWindow{failFullScreen: true, failBars: true, failProps: true}
	stage := &fakeStage{win: win}

	c.OnWindowStageCreate(context.Background(), stage)
	c.Wait()

	assert.EqualValues(t, 1, win.fullScreen.Load())
	assert.EqualValues(t, 1, win.bars.Load(), "bar visibility still attempted after full-screen failure")
	assert.EqualValues(t, 1, win.props.Load(), "bar colors still attempted after earlier failures")
	assert.Len(t, s.errorsFor(StepSetFullScreen), 1)
	assert.Len(t, s.errorsFor(StepSetSystemBars), 1)
	assert.Len(t, s.errorsFor(StepSetBarProperties), 1)
	assert.Equal(t, 1, s.count("Succeeded in loading the content"))
}

func TestWindowPanic_IsContained(t *testing.T) {
	c, s := newCoordinator(t, nil)
	win := &fakeWindow{panicFullScreen: true}
	stage := &fakeStage{win: win}

	require.NotPanics(t, func() {
		c.OnWindowStageCreate(context.Background(), stage)
		c.Wait()
	})

	assert.EqualValues(t, 1, win.props.Load())
	errs := s.errorsFor(StepSetFullScreen)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Attrs["err"].(error).Error(), "layout service crashed")
}

func TestLoadAndWindowChain_RunConcurrently(t *testing.T) {
	c, _ := newCoordinator(t, nil)
	propsDone := make(chan struct{})
	stage := &fakeStage{
		win:      &fakeWindow{propsDone: propsDone},
		loadGate: propsDone,
	}

	done := make(chan struct{})
	go func() {
		c.OnWindowStageCreate(context.Background(), stage)
		c.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("page load waited on a chain that waits on nothing; chains must be independent")
	}
	assert.EqualValues(t, 1, stage.loads.Load())
}

func TestOnWindowStageCreate_ReturnsBeforeAsyncWork(t *testing.T) {
	c, _ := newCoordinator(t, nil)
	gate := make(chan struct{})
	stage := &fakeStage{win: &fakeWindow{}, loadGate: gate}

	returned := make(chan struct{})
	go func() {
		c.OnWindowStageCreate(context.Background(), stage)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("OnWindowStageCreate blocked on page load")
	}
	close(gate)
	c.Wait()
}

func TestPermissionRejection_IsContained(t *testing.T) {
	perms := &fakePermissions{err: &ability.HostError{Code: 201, Msg: "denied"}}
	c, s := newCoordinator(t, perms)
	stage := &fakeStage{win: &fakeWindow{}}
	before := testutil.ToFloat64(monitor.PermissionRequests.WithLabelValues("failed"))

	c.OnCreate(testApp{id: "ctx-6"}, nil)
	require.NotPanics(t, func() {
		c.OnWindowStageCreate(context.Background(), stage)
	})
	c.Wait()

	errs := s.errorsFor(StepRequestPermissions)
	require.Len(t, errs, 1)
	assert.Equal(t, 201, errs[0].Attrs["code"])
	assert.Equal(t, 1, s.count("Succeeded in loading the content"), "page still loads")
	assert.EqualValues(t, 1, stage.win.props.Load())

	after := testutil.ToFloat64(monitor.PermissionRequests.WithLabelValues("failed"))
	assert.Equal(t, 1.0, after-before)
}

func TestPermission_WithoutContext(t *testing.T) {
	perms := &fakePermissions{}
	c, s := newCoordinator(t, perms)

	c.OnWindowStageCreate(context.Background(), &fakeStage{win: &fakeWindow{}})
	c.Wait()

	assert.EqualValues(t, 0, perms.calls.Load())
	errs := s.errorsFor(StepRequestPermissions)
	require.Len(t, errs, 1)
	assert.Equal(t, int(errors.ErrCodeContextMissing), errs[0].Attrs["code"])
}

func TestOnWindowStageCreate_NilStage(t *testing.T) {
	c, s := newCoordinator(t, nil)
	require.NotPanics(t, func() {
		c.OnWindowStageCreate(context.Background(), nil)
		c.Wait()
	})
	assert.Len(t, s.errorsFor(StepLoadContent), 1)
}

func TestCancelledContext_DoesNotCancelChains(t *testing.T) {
	c, s := newCoordinator(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stage := &ctxStage{fakeStage: fakeStage{win: &fakeWindow{}}}
	c.OnWindowStageCreate(ctx, stage)
	c.Wait()

	assert.NoError(t, stage.seenErr.Load().(ctxErr).err)
	assert.Equal(t, 1, s.count("Succeeded in loading the content"))
}

type ctxErr struct{ err error }

type ctxStage struct {
	fakeStage
	seenErr atomic.Value
}

func (s *ctxStage) LoadContent(ctx context.Context, page string) (ability.LoadResult, error) {
	s.seenErr.Store(ctxErr{err: ctx.Err()})
	return s.fakeStage.LoadContent(ctx, page)
}

func TestOnDestroy_ClearsRegistry(t *testing.T) {
	reg := registry.New()
	s, l := newSink()
	c := New(Options{Registry: reg, Logger: l})

	c.OnCreate(testApp{id: "ctx-7"}, nil)
	_, ok := reg.Get()
	require.True(t, ok)

	c.OnWindowStageDestroy()
	c.OnDestroy()

	_, ok = reg.Get()
	assert.False(t, ok)
	assert.Equal(t, consts.StateDestroyed, c.State())
	assert.Equal(t, 1, s.count("Ability onWindowStageDestroy"))
	assert.Equal(t, 1, s.count("Ability onDestroy"))
}

func TestLogsCarryTag(t *testing.T) {
	c, s := newCoordinator(t, nil)
	c.OnForeground()

	entries := s.all()
	require.NotEmpty(t, entries)
	assert.Equal(t, consts.DefaultAbilityName, entries[0].Attrs["tag"])
}

// Personal.AI order the ending
