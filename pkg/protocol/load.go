package protocol

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/turtacn/CameraShell/pkg/consts"
	"github.com/turtacn/CameraShell/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads a YAML (.yaml, .yml) or TOML (.toml) config file, applies
// defaults and validates it.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "LoadConfig", "cannot read config file", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return nil, errors.New(errors.ErrCodeConfigInvalid, "LoadConfig", "unsupported config extension "+filepath.Ext(path), nil)
	}
	if err != nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "LoadConfig", "cannot parse config file", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the MainAbility variant with defaults applied.
func Default() *Config {
	cfg := &Config{
		Ability: AbilityConfig{
			RequestPermissions: true,
			WindowChrome:       true,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Ability.Name == "" {
		c.Ability.Name = consts.DefaultAbilityName
	}
	if c.Ability.InitialPage == "" {
		c.Ability.InitialPage = consts.DefaultInitialPage
	}
	if len(c.Ability.SystemBars) == 0 {
		c.Ability.SystemBars = []string{consts.SystemBarNavigation}
	}
	if c.Ability.NavigationBarColor == "" {
		c.Ability.NavigationBarColor = consts.DefaultNavigationBarColor
	}
	if c.Ability.NavigationBarContentColor == "" {
		c.Ability.NavigationBarContentColor = consts.DefaultNavigationBarText
	}
	if c.Host.BundleName == "" {
		c.Host.BundleName = "com.example.camera"
	}
	if c.Host.ForegroundCycles == 0 {
		c.Host.ForegroundCycles = consts.DefaultForegroundCycles
	}
	if c.Host.Dwell == "" {
		c.Host.Dwell = consts.DefaultDwell.String()
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = "info"
	}
	if c.Observability.LogFormat == "" {
		c.Observability.LogFormat = "json"
	}
}

// Validate checks field values that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Host.ForegroundCycles < 0 {
		return invalid("host.foreground_cycles must not be negative")
	}
	if _, err := c.DwellDuration(); err != nil {
		return errors.New(errors.ErrCodeConfigInvalid, "Validate", "host.dwell", err)
	}
	if _, err := c.StepLatencyDuration(); err != nil {
		return errors.New(errors.ErrCodeConfigInvalid, "Validate", "host.step_latency", err)
	}
	for _, bar := range c.Ability.SystemBars {
		if bar != consts.SystemBarNavigation && bar != consts.SystemBarStatus {
			return invalid(fmt.Sprintf("unknown system bar %q", bar))
		}
	}
	switch c.Observability.LogFormat {
	case "json", "text":
	default:
		return invalid(fmt.Sprintf("unknown log format %q", c.Observability.LogFormat))
	}
	return nil
}

// DwellDuration parses host.dwell.
func (c *Config) DwellDuration() (time.Duration, error) {
	return parseDuration(c.Host.Dwell)
}

// StepLatencyDuration parses host.step_latency.
func (c *Config) StepLatencyDuration() (time.Duration, error) {
	return parseDuration(c.Host.StepLatency)
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

func invalid(msg string) error {
	return errors.New(errors.ErrCodeConfigInvalid, "Validate", msg, nil)
}

// Personal.AI order the ending
