package consts

import "time"

// LifecycleState is the lifecycle phase of an ability as delivered by the host.
type LifecycleState string

const (
	StateInitial             LifecycleState = "INITIAL"
	StateCreated             LifecycleState = "CREATED"
	StateWindowStageAttached LifecycleState = "WINDOW_STAGE_ATTACHED"
	StateForeground          LifecycleState = "FOREGROUND"
	StateBackground          LifecycleState = "BACKGROUND"
	StateWindowStageDetached LifecycleState = "WINDOW_STAGE_DETACHED"
	StateDestroyed           LifecycleState = "DESTROYED" // Terminal
)

// LifecycleEvent names a host lifecycle callback.
type LifecycleEvent string

const (
	EventCreate             LifecycleEvent = "create"
	EventWindowStageCreate  LifecycleEvent = "window_stage_create"
	EventForeground         LifecycleEvent = "foreground"
	EventBackground         LifecycleEvent = "background"
	EventWindowStageDestroy LifecycleEvent = "window_stage_destroy"
	EventDestroy            LifecycleEvent = "destroy"
)

// Permissions requested when the window stage attaches. Fixed, not configurable.
const (
	PermissionCamera     = "ohos.permission.CAMERA"
	PermissionMicrophone = "ohos.permission.MICROPHONE"
	PermissionReadMedia  = "ohos.permission.READ_MEDIA"
	PermissionWriteMedia = "ohos.permission.WRITE_MEDIA"
)

// CameraPermissions returns a fresh copy of the requested permission set.
func CameraPermissions() []string {
	return []string{PermissionCamera, PermissionMicrophone, PermissionReadMedia, PermissionWriteMedia}
}

// Ability defaults
const (
	DefaultAbilityName         = "MainAbility"
	DefaultInitialPage         = "pages/Index"
	EntryInitialPage           = "pages/TableIndex"
	SystemBarNavigation        = "navigation"
	SystemBarStatus            = "status"
	DefaultNavigationBarColor  = "#00000000"
	DefaultNavigationBarText   = "#B3B3B3"
	DefaultForegroundCycles    = 1
	DefaultDwell               = 500 * time.Millisecond
	DefaultRecordingTickPeriod = 100 * time.Millisecond
)

// Personal.AI order the ending
