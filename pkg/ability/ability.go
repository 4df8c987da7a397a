// Package ability declares the contracts between the host runtime and the
// camera shell: the lifecycle callbacks the host drives, and the window,
// permission and context capabilities the host provides.
package ability

import (
	"context"
	"fmt"
)

// LifecycleCallbacks is implemented by an ability and invoked by the host in
// the order create, window stage create, foreground/background (repeating),
// window stage destroy, destroy. None of the callbacks return an error:
// every failure is handled and logged inside the ability.
type LifecycleCallbacks interface {
	OnCreate(app ApplicationContext, params LaunchParams)
	OnWindowStageCreate(ctx context.Context, stage WindowStage)
	OnForeground()
	OnBackground()
	OnWindowStageDestroy()
	OnDestroy()
}

// ApplicationContext is the opaque handle the host supplies at creation.
type ApplicationContext interface {
	// AbilityName identifies the ability the context was created for.
	AbilityName() string
	// InstanceID is unique per created ability instance.
	InstanceID() string
}

// LaunchParams carries host launch parameters, logged for diagnostics only.
type LaunchParams map[string]any

// ContextRegistry publishes the application context to collaborators that
// are not handed it directly.
type ContextRegistry interface {
	Set(app ApplicationContext)
	Get() (ApplicationContext, bool)
	Clear()
}

// WindowStage is the host's top-level window surface. It is only valid
// between window stage create and destroy; calls on a stale stage must fail
// with an error rather than panic.
type WindowStage interface {
	GetMainWindow(ctx context.Context) (Window, error)
	LoadContent(ctx context.Context, page string) (LoadResult, error)
}

// Window is the primary window of a stage.
type Window interface {
	SetLayoutFullScreen(ctx context.Context, enabled bool) error
	SetSystemBarEnable(ctx context.Context, bars []string) error
	SetSystemBarProperties(ctx context.Context, props SystemBarProperties) error
}

// SystemBarProperties holds the navigation bar colors.
type SystemBarProperties struct {
	NavigationBarColor        string `json:"navigationBarColor"`
	NavigationBarContentColor string `json:"navigationBarContentColor"`
}

// LoadResult is the host's answer to LoadContent. A non-zero Code is a failure.
type LoadResult struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Failed reports whether the host rejected the page load.
func (r LoadResult) Failed() bool { return r.Code != 0 }

// PermissionManager runs the user consent flow for sensitive capabilities.
// A denial or failure is reported as an error carrying a numeric code.
type PermissionManager interface {
	RequestPermissions(ctx context.Context, app ApplicationContext, permissions []string) error
}

// HostError is an error reported by the host with a numeric result code.
type HostError struct {
	Code int    `json:"code"`
	Msg  string `json:"message"`
}

func (e *HostError) Error() string {
	return fmt.Sprintf("host error %d: %s", e.Code, e.Msg)
}

// HostCode returns the host result code.
func (e *HostError) HostCode() int { return e.Code }

// Personal.AI order the ending
