package protocol

// Config represents the root configuration of the camera shell.
type Config struct {
	Version       string              `yaml:"version" toml:"version"`
	Ability       AbilityConfig       `yaml:"ability" toml:"ability"`
	Host          HostConfig          `yaml:"host" toml:"host"`
	Observability ObservabilityConfig `yaml:"observability" toml:"observability"`
}

// AbilityConfig selects the ability variant.
type AbilityConfig struct {
	Name                      string   `yaml:"name" toml:"name"`
	InitialPage               string   `yaml:"initial_page" toml:"initial_page"`
	RequestPermissions        bool     `yaml:"request_permissions" toml:"request_permissions"`
	WindowChrome              bool     `yaml:"window_chrome" toml:"window_chrome"` // full screen + system bars
	SystemBars                []string `yaml:"system_bars" toml:"system_bars"`
	NavigationBarColor        string   `yaml:"navigation_bar_color" toml:"navigation_bar_color"`
	NavigationBarContentColor string   `yaml:"navigation_bar_content_color" toml:"navigation_bar_content_color"`
}

// HostConfig drives the simulated host runtime.
type HostConfig struct {
	BundleName       string          `yaml:"bundle_name" toml:"bundle_name"`
	ForegroundCycles int             `yaml:"foreground_cycles" toml:"foreground_cycles"`
	Dwell            string          `yaml:"dwell" toml:"dwell"`               // time in foreground per cycle
	StepLatency      string          `yaml:"step_latency" toml:"step_latency"` // delay of every async host call
	SettleAsync      bool            `yaml:"settle_async" toml:"settle_async"` // wait for pending ability work before foreground
	LaunchParams     map[string]any  `yaml:"launch_params" toml:"launch_params"`
	Faults           FaultConfig     `yaml:"faults" toml:"faults"`
	Permissions      PermissionFault `yaml:"permissions" toml:"permissions"`
}

// FaultConfig injects failures into simulated window calls.
type FaultConfig struct {
	GetMainWindow          bool `yaml:"get_main_window" toml:"get_main_window"`
	SetFullScreen          bool `yaml:"set_full_screen" toml:"set_full_screen"`
	SetSystemBarEnable     bool `yaml:"set_system_bar_enable" toml:"set_system_bar_enable"`
	SetSystemBarProperties bool `yaml:"set_system_bar_properties" toml:"set_system_bar_properties"`
	LoadContentCode        int  `yaml:"load_content_code" toml:"load_content_code"` // non-zero fails the load
}

// PermissionFault controls the simulated consent outcome.
type PermissionFault struct {
	DenyCode int `yaml:"deny_code" toml:"deny_code"` // non-zero rejects the request
}

type ObservabilityConfig struct {
	MetricsPort string `yaml:"metrics_port" toml:"metrics_port"`
	LogLevel    string `yaml:"log_level" toml:"log_level"`
	LogFormat   string `yaml:"log_format" toml:"log_format"`
}

// Personal.AI order the ending
