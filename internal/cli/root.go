package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/turtacn/CameraShell/internal/coordinator"
	"github.com/turtacn/CameraShell/internal/host"
	"github.com/turtacn/CameraShell/internal/monitor"
	"github.com/turtacn/CameraShell/internal/registry"
	"github.com/turtacn/CameraShell/pkg/datetime"
	"github.com/turtacn/CameraShell/pkg/logger"
	"github.com/turtacn/CameraShell/pkg/protocol"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "camerashell",
	Short: "CameraShell: camera demo ability shell with a simulated host runtime",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive the ability through a full simulated lifecycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load Config
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		// 2. Init Logger & Metrics
		logger.Log = logger.New(os.Stdout, cfg.Observability.LogLevel, cfg.Observability.LogFormat)
		monitor.InitMetrics(cfg.Observability.MetricsPort)

		logger.Log.Info("Booting CameraShell host runtime...", "ability", cfg.Ability.Name)

		// 3. Wire ability into the host and run
		rt := host.NewRuntime(cfg)
		opts := coordinator.OptionsFromConfig(cfg.Ability)
		opts.Permissions = rt.Permissions()
		opts.Registry = registry.New()
		opts.Logger = logger.Log
		rt.Attach(coordinator.New(opts))

		if err := rt.Start(); err != nil {
			logger.Log.Error("Host runtime fatal error", "err", err)
			return err
		}
		return nil
	},
}

// loadConfig reads the config file, falling back to the built-in defaults
// when the default path does not exist.
func loadConfig(cmd *cobra.Command) (*protocol.Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) && !cmd.Flags().Changed("config") {
		return protocol.Default(), nil
	}
	return protocol.LoadConfig(cfgFile)
}

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Render clock, date and recording-duration stamps",
}

var clockCmd = &cobra.Command{
	Use:   "clock",
	Short: "Print the current time as HHMMSS",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), datetime.Formatter{}.ClockTime())
	},
}

var dateCmd = &cobra.Command{
	Use:   "date",
	Short: "Print the current date as YYYYMMDD",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), datetime.Formatter{}.DateStamp())
	},
}

var elapsedCmd = &cobra.Command{
	Use:   "elapsed <milliseconds>",
	Short: "Print a recording duration as \"MM : SS\"",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ms, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || ms < 0 {
			return fmt.Errorf("milliseconds must be a non-negative integer, got %q", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), datetime.FormatElapsed(ms))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "camerashell.yaml", "config file path (.yaml or .toml)")
	timeCmd.AddCommand(clockCmd, dateCmd, elapsedCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(timeCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// Personal.AI order the ending
