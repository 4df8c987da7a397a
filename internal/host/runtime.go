package host

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/CameraShell/pkg/ability"
	"github.com/turtacn/CameraShell/pkg/consts"
	"github.com/turtacn/CameraShell/pkg/datetime"
	"github.com/turtacn/CameraShell/pkg/errors"
	"github.com/turtacn/CameraShell/pkg/fsm"
	"github.com/turtacn/CameraShell/pkg/logger"
	"github.com/turtacn/CameraShell/pkg/protocol"
)

// Waiter is implemented by abilities that track asynchronous work.
type Waiter interface {
	Wait()
}

// Runtime is a simulated host: it owns the lifecycle state machine, issues
// callbacks to the ability in the guaranteed order and provides the window
// stage and permission capabilities.
type Runtime struct {
	cfg     *protocol.Config
	fsm     *fsm.StateMachine
	ability ability.LifecycleCallbacks
	stage   *Stage
	perms   *Permissions
	calls   *Calls
	clock   datetime.Formatter
	log     logger.Logger
	dwell   time.Duration
	tick    time.Duration
}

// NewRuntime creates a host runtime for cfg. The permission manager it
// provides is available through Permissions before the ability is attached.
func NewRuntime(cfg *protocol.Config) *Runtime {
	dwell, _ := cfg.DwellDuration()
	latency, _ := cfg.StepLatencyDuration()
	calls := &Calls{}

	r := &Runtime{
		cfg:   cfg,
		fsm:   fsm.New(fsm.State(consts.StateInitial)),
		stage: NewStage(cfg.Host.Faults, latency, calls),
		perms: NewPermissions(cfg.Host.Permissions, latency, calls),
		calls: calls,
		log:   logger.Tagged(logger.Log, "HostRuntime"),
		dwell: dwell,
		tick:  consts.DefaultRecordingTickPeriod,
	}
	r.setupFSM()
	return r
}

// Attach sets the ability that receives lifecycle callbacks.
func (r *Runtime) Attach(a ability.LifecycleCallbacks) { r.ability = a }

// Permissions returns the host permission manager.
func (r *Runtime) Permissions() *Permissions { return r.perms }

// Stage returns the host window stage.
func (r *Runtime) Stage() *Stage { return r.stage }

// Calls returns the capability invocation counters.
func (r *Runtime) Calls() *Calls { return r.calls }

// State returns the host-side lifecycle state.
func (r *Runtime) State() consts.LifecycleState {
	return consts.LifecycleState(r.fsm.Current())
}

func (r *Runtime) setupFSM() {
	s := func(st consts.LifecycleState) fsm.State { return fsm.State(st) }
	e := func(ev consts.LifecycleEvent) fsm.Event { return fsm.Event(ev) }

	r.fsm.AddTransition(s(consts.StateInitial), s(consts.StateCreated), e(consts.EventCreate), r.onCreate)
	r.fsm.AddTransition(s(consts.StateCreated), s(consts.StateWindowStageAttached), e(consts.EventWindowStageCreate), r.onWindowStageCreate)
	r.fsm.AddTransition(s(consts.StateCreated), s(consts.StateDestroyed), e(consts.EventDestroy), r.onDestroy)

	// Foreground and background alternate once the window stage is attached
	r.fsm.AddTransition(s(consts.StateWindowStageAttached), s(consts.StateForeground), e(consts.EventForeground), r.onForeground)
	r.fsm.AddTransition(s(consts.StateForeground), s(consts.StateBackground), e(consts.EventBackground), r.onBackground)
	r.fsm.AddTransition(s(consts.StateBackground), s(consts.StateForeground), e(consts.EventForeground), r.onForeground)

	r.fsm.AddTransition(s(consts.StateWindowStageAttached), s(consts.StateWindowStageDetached), e(consts.EventWindowStageDestroy), r.onWindowStageDestroy)
	r.fsm.AddTransition(s(consts.StateBackground), s(consts.StateWindowStageDetached), e(consts.EventWindowStageDestroy), r.onWindowStageDestroy)
	r.fsm.AddTransition(s(consts.StateWindowStageDetached), s(consts.StateDestroyed), e(consts.EventDestroy), r.onDestroy)
	r.fsm.SetTerminal(s(consts.StateDestroyed))

	r.fsm.Observe(func(from, to fsm.State, event fsm.Event) {
		r.log.Debug("Lifecycle transition", "from", from, "to", to, "event", event)
	})
}

// Fire delivers a single lifecycle event. Events the current state does not
// accept are rejected with ErrCodeInvalidTransition and never reach the ability.
func (r *Runtime) Fire(ctx context.Context, event consts.LifecycleEvent) error {
	if err := r.fsm.Fire(fsm.Event(event), ctx); err != nil {
		return errors.New(errors.ErrCodeInvalidTransition, string(event), "lifecycle event rejected", err)
	}
	return nil
}

// Start runs the lifecycle until completion, cutting the foreground phase
// short on SIGINT or SIGTERM.
func (r *Runtime) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.Run(ctx)
}

// Run drives the full lifecycle: create, window stage create, the configured
// number of foreground/background cycles, window stage destroy and destroy.
// Cancelling ctx skips remaining cycles; teardown always runs.
func (r *Runtime) Run(ctx context.Context) error {
	if r.ability == nil {
		return errors.New(errors.ErrCodeUnknown, "Run", "no ability attached", nil)
	}
	r.log.Info("Host runtime starting", "ability", r.cfg.Ability.Name, "cycles", r.cfg.Host.ForegroundCycles)

	if err := r.Fire(ctx, consts.EventCreate); err != nil {
		return err
	}
	if err := r.Fire(ctx, consts.EventWindowStageCreate); err != nil {
		return err
	}
	if r.cfg.Host.SettleAsync {
		if w, ok := r.ability.(Waiter); ok {
			w.Wait()
		}
	}

	for i := 0; i < r.cfg.Host.ForegroundCycles && ctx.Err() == nil; i++ {
		if err := r.Fire(ctx, consts.EventForeground); err != nil {
			return err
		}
		r.record(ctx)
		if err := r.Fire(ctx, consts.EventBackground); err != nil {
			return err
		}
	}

	if err := r.Fire(ctx, consts.EventWindowStageDestroy); err != nil {
		return err
	}
	if err := r.Fire(ctx, consts.EventDestroy); err != nil {
		return err
	}

	if w, ok := r.ability.(Waiter); ok {
		w.Wait()
	}
	r.log.Info("Host runtime finished", "state", r.State())
	return nil
}

// record stands in for the camera page: while in foreground it renders the
// recording timer until the dwell time has passed or ctx is cancelled.
func (r *Runtime) record(ctx context.Context) {
	if r.dwell <= 0 {
		return
	}
	start := time.Now()
	deadline := time.NewTimer(r.dwell)
	defer deadline.Stop()
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	r.log.Info("Recording started", "date", r.clock.DateStamp(), "time", r.clock.ClockTime())
	for {
		select {
		case <-ticker.C:
			r.log.Debug("Recording", "elapsed", r.clock.Elapsed(start))
		case <-deadline.C:
			r.log.Info("Recording stopped", "elapsed", r.clock.Elapsed(start))
			return
		case <-ctx.Done():
			r.log.Info("Recording interrupted", "elapsed", r.clock.Elapsed(start))
			return
		}
	}
}

func (r *Runtime) onCreate(event fsm.Event, args ...interface{}) error {
	app := NewAppContext(r.cfg.Ability.Name, r.cfg.Host.BundleName)
	params := ability.LaunchParams{"launchReason": "START_ABILITY", "lastExitReason": "NORMAL"}
	for k, v := range r.cfg.Host.LaunchParams {
		params[k] = v
	}
	r.ability.OnCreate(app, params)
	return nil
}

func (r *Runtime) onWindowStageCreate(event fsm.Event, args ...interface{}) error {
	ctx := context.Background()
	if len(args) > 0 {
		if c, ok := args[0].(context.Context); ok && c != nil {
			ctx = c
		}
	}
	r.ability.OnWindowStageCreate(ctx, r.stage)
	return nil
}

func (r *Runtime) onForeground(event fsm.Event, args ...interface{}) error {
	r.ability.OnForeground()
	return nil
}

func (r *Runtime) onBackground(event fsm.Event, args ...interface{}) error {
	r.ability.OnBackground()
	return nil
}

func (r *Runtime) onWindowStageDestroy(event fsm.Event, args ...interface{}) error {
	r.ability.OnWindowStageDestroy()
	r.stage.Detach()
	return nil
}

func (r *Runtime) onDestroy(event fsm.Event, args ...interface{}) error {
	r.ability.OnDestroy()
	return nil
}

// Personal.AI order the ending
