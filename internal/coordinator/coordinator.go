package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"github.com/turtacn/CameraShell/internal/monitor"
	"github.com/turtacn/CameraShell/internal/registry"
	"github.com/turtacn/CameraShell/pkg/ability"
	"github.com/turtacn/CameraShell/pkg/consts"
	"github.com/turtacn/CameraShell/pkg/errors"
	"github.com/turtacn/CameraShell/pkg/logger"
	"github.com/turtacn/CameraShell/pkg/protocol"
)

// Async step names, used as log attributes and metric labels.
const (
	StepRequestPermissions = "request_permissions"
	StepGetMainWindow      = "get_main_window"
	StepSetFullScreen      = "set_full_screen"
	StepSetSystemBars      = "set_system_bar_enable"
	StepSetBarProperties   = "set_system_bar_properties"
	StepLoadContent        = "load_content"
)

// Options configures a Coordinator.
type Options struct {
	AbilityName        string
	InitialPage        string
	RequestPermissions bool
	WindowChrome       bool
	SystemBars         []string
	BarProperties      ability.SystemBarProperties

	Permissions ability.PermissionManager
	Registry    ability.ContextRegistry
	Logger      logger.Logger
}

// OptionsFromConfig maps the ability section of the config onto Options.
// Capabilities (permissions, registry, logger) are left for the caller.
func OptionsFromConfig(cfg protocol.AbilityConfig) Options {
	return Options{
		AbilityName:        cfg.Name,
		InitialPage:        cfg.InitialPage,
		RequestPermissions: cfg.RequestPermissions,
		WindowChrome:       cfg.WindowChrome,
		SystemBars:         cfg.SystemBars,
		BarProperties: ability.SystemBarProperties{
			NavigationBarColor:        cfg.NavigationBarColor,
			NavigationBarContentColor: cfg.NavigationBarContentColor,
		},
	}
}

// Coordinator reacts to host lifecycle callbacks: it publishes the
// application context, configures the primary window, loads the initial page
// and requests camera permissions. No failure escapes a callback.
type Coordinator struct {
	opts Options
	log  logger.Logger

	mu    sync.Mutex
	state consts.LifecycleState

	pending conc.WaitGroup
}

// New creates a Coordinator, filling unset options with defaults.
func New(opts Options) *Coordinator {
	if opts.AbilityName == "" {
		opts.AbilityName = consts.DefaultAbilityName
	}
	if opts.InitialPage == "" {
		opts.InitialPage = consts.DefaultInitialPage
	}
	if len(opts.SystemBars) == 0 {
		opts.SystemBars = []string{consts.SystemBarNavigation}
	}
	if opts.Registry == nil {
		opts.Registry = registry.New()
	}
	return &Coordinator{
		opts:  opts,
		log:   logger.Tagged(opts.Logger, opts.AbilityName),
		state: consts.StateInitial,
	}
}

var _ ability.LifecycleCallbacks = (*Coordinator)(nil)

// State returns the last lifecycle state observed. It is diagnostic only.
func (c *Coordinator) State() consts.LifecycleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Registry returns the registry the application context is published to.
func (c *Coordinator) Registry() ability.ContextRegistry {
	return c.opts.Registry
}

// Wait blocks until every pending asynchronous step has finished.
func (c *Coordinator) Wait() {
	c.pending.Wait()
}

func (c *Coordinator) observe(event consts.LifecycleEvent, state consts.LifecycleState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	monitor.LifecycleEvents.WithLabelValues(string(event)).Inc()
}

// OnCreate publishes app to the registry and logs the launch diagnostics.
func (c *Coordinator) OnCreate(app ability.ApplicationContext, params ability.LaunchParams) {
	c.log.Info("Ability onCreate")
	c.observe(consts.EventCreate, consts.StateCreated)

	if app == nil {
		c.logError("OnCreate", errors.New(errors.ErrCodeContextMissing, "OnCreate", "host supplied no application context", nil))
	} else {
		c.opts.Registry.Set(app)
	}

	c.logPayload("want param", app)
	c.logPayload("launchParam", params)
}

// OnWindowStageCreate starts the permission request, the window chrome chain
// and the initial page load. The three run independently and are not awaited.
func (c *Coordinator) OnWindowStageCreate(ctx context.Context, stage ability.WindowStage) {
	c.log.Info("Ability onWindowStageCreate")
	c.observe(consts.EventWindowStageCreate, consts.StateWindowStageAttached)

	if ctx == nil {
		ctx = context.Background()
	}
	// Host calls made from these chains are not cancellable.
	ctx = context.WithoutCancel(ctx)

	if c.opts.RequestPermissions {
		c.spawn(StepRequestPermissions, func() { c.requestPermissions(ctx) })
	}

	if stage == nil {
		c.logError(StepLoadContent, errors.New(errors.ErrCodeContentLoad, "OnWindowStageCreate", "host supplied no window stage", nil))
		return
	}

	if c.opts.WindowChrome {
		c.spawn(StepGetMainWindow, func() { c.configureWindow(ctx, stage) })
	}
	c.spawn(StepLoadContent, func() { c.loadContent(ctx, stage, c.opts.InitialPage) })
}

// OnWindowStageDestroy logs the transition. Window-owned resources belong to the host.
func (c *Coordinator) OnWindowStageDestroy() {
	c.log.Info("Ability onWindowStageDestroy")
	c.observe(consts.EventWindowStageDestroy, consts.StateWindowStageDetached)
}

// OnForeground logs the transition.
func (c *Coordinator) OnForeground() {
	c.log.Info("Ability onForeground")
	c.observe(consts.EventForeground, consts.StateForeground)
}

// OnBackground logs the transition.
func (c *Coordinator) OnBackground() {
	c.log.Info("Ability onBackground")
	c.observe(consts.EventBackground, consts.StateBackground)
}

// OnDestroy logs the transition and clears the published application context.
// Pending chains keep running; they find the registry empty.
func (c *Coordinator) OnDestroy() {
	c.log.Info("Ability onDestroy")
	c.opts.Registry.Clear()
	c.observe(consts.EventDestroy, consts.StateDestroyed)
}

// spawn runs fn as a tracked asynchronous step. A panic inside fn is
// recovered and logged against step.
func (c *Coordinator) spawn(step string, fn func()) {
	c.pending.Go(func() {
		var pc panics.Catcher
		pc.Try(fn)
		if r := pc.Recovered(); r != nil {
			monitor.AsyncStepFailures.WithLabelValues(step).Inc()
			c.logError(step, errors.New(errors.ErrCodePanic, step, "host capability panicked", r.AsError()))
		}
	})
}

func (c *Coordinator) requestPermissions(ctx context.Context) {
	app, ok := c.opts.Registry.Get()
	if !ok {
		monitor.PermissionRequests.WithLabelValues("skipped").Inc()
		c.logError(StepRequestPermissions, errors.New(errors.ErrCodeContextMissing, StepRequestPermissions, "no application context published", nil))
		return
	}
	if c.opts.Permissions == nil {
		monitor.PermissionRequests.WithLabelValues("skipped").Inc()
		c.log.Warn("No permission manager configured, skipping request")
		return
	}

	perms := consts.CameraPermissions()
	c.log.Debug("Requesting permissions", "permissions", perms)
	if err := c.opts.Permissions.RequestPermissions(ctx, app, perms); err != nil {
		monitor.PermissionRequests.WithLabelValues("failed").Inc()
		c.logError(StepRequestPermissions, errors.New(errors.ErrCodePermission, StepRequestPermissions, "permission request failed", err))
		return
	}
	monitor.PermissionRequests.WithLabelValues("granted").Inc()
	c.log.Info("Permission request succeeded", "permissions", perms)
}

// configureWindow resolves the primary window and applies full-screen layout,
// system bar visibility and bar colors in order. A failed step is logged and
// the next step still runs.
func (c *Coordinator) configureWindow(ctx context.Context, stage ability.WindowStage) {
	win, err := stage.GetMainWindow(ctx)
	if err == nil && win == nil {
		err = fmt.Errorf("host returned no main window")
	}
	if err != nil {
		c.stepFailed(StepGetMainWindow, err)
		return
	}

	c.runStep(StepSetFullScreen, func() error {
		return win.SetLayoutFullScreen(ctx, true)
	})
	c.runStep(StepSetSystemBars, func() error {
		return win.SetSystemBarEnable(ctx, c.opts.SystemBars)
	})
	c.runStep(StepSetBarProperties, func() error {
		return win.SetSystemBarProperties(ctx, c.opts.BarProperties)
	})
}

func (c *Coordinator) runStep(step string, fn func() error) {
	var err error
	var pc panics.Catcher
	pc.Try(func() { err = fn() })
	if r := pc.Recovered(); r != nil {
		err = errors.New(errors.ErrCodePanic, step, "host capability panicked", r.AsError())
	}
	if err != nil {
		c.stepFailed(step, err)
		return
	}
	c.log.Debug("Window step succeeded", "step", step)
}

func (c *Coordinator) stepFailed(step string, err error) {
	monitor.AsyncStepFailures.WithLabelValues(step).Inc()
	c.logError(step, errors.New(errors.ErrCodeWindowConfig, step, "window configuration failed", err))
}

func (c *Coordinator) loadContent(ctx context.Context, stage ability.WindowStage, page string) {
	start := time.Now()
	res, err := stage.LoadContent(ctx, page)
	monitor.ContentLoadDuration.Observe(time.Since(start).Seconds())

	if err == nil && res.Failed() {
		err = &ability.HostError{Code: res.Code, Msg: res.Message}
	}
	if err != nil {
		monitor.AsyncStepFailures.WithLabelValues(StepLoadContent).Inc()
		c.logError(StepLoadContent, errors.New(errors.ErrCodeContentLoad, StepLoadContent, "Failed to load the content", err),
			"page", page, "cause", c.marshal(res))
		return
	}
	c.log.Info("Succeeded in loading the content", "page", page, "data", c.marshal(res.Data))
}

// logError records err at error level with its numeric code.
func (c *Coordinator) logError(op string, err error, args ...any) {
	attrs := append([]any{"op", op, "code", errors.CodeOf(err), "err", err}, args...)
	c.log.Error("Lifecycle step failed", attrs...)
}

func (c *Coordinator) logPayload(label string, v any) {
	c.log.Info(label, "payload", c.marshal(v))
}

// marshal renders v as JSON for diagnostics. Failures, including panicking
// MarshalJSON implementations, are logged and yield an empty string.
func (c *Coordinator) marshal(v any) string {
	b, err := marshalJSON(v)
	if err != nil {
		c.logError("Marshal", errors.New(errors.ErrCodeSerialization, "Marshal", "cannot serialize diagnostic payload", err))
		return ""
	}
	return string(b)
}

func marshalJSON(v any) (b []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("marshal panicked: %v", r)
		}
	}()
	return json.Marshal(v)
}

// Personal.AI order the ending
