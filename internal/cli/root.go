// internal/cli/root.go
package termbench

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/mwiater/termbench/internal/appconfig"
	"github.com/mwiater/termbench/internal/logging"
	"github.com/mwiater/termbench/internal/pattern"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

var boolFlags = []string{"debug", "jsonMode", "tui", "metrics"}
var stringFlags = []string{"logFile"}

var rootCmd = &cobra.Command{
	Use:   "termbench",
	Short: "termbench: xterm rendering throughput benchmark",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 1) Load config (file or defaults)
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		// 2) If user did NOT set a flag, copy the config value into the flag so
		//    both pflags and viper reflect the same, final value.
		for _, name := range boolFlags {
			if flag := cmd.Flags().Lookup(name); flag != nil && !flag.Changed {
				_ = cmd.Flags().Set(name, strconv.FormatBool(viper.GetBool(name)))
			}
		}
		for _, name := range stringFlags {
			if flag := cmd.Flags().Lookup(name); flag != nil && !flag.Changed {
				_ = cmd.Flags().Set(name, viper.GetString(name))
			}
		}

		// 3) Materialize the merged configuration (flags > config > defaults).
		var cfg appconfig.Config
		if err := viper.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = viper.ConfigFileUsed()
		if cfg.Variant != "" {
			v, err := pattern.ParseVariant(cfg.Variant)
			if err != nil {
				return err
			}
			cfg.Variant = v.String()
		}
		cfg.Sink = cfg.SinkKind()
		if err := cfg.Validate(); err != nil {
			return err
		}
		currentConfig = &cfg

		// Benchmark output and JSON own stdout in these modes.
		if cfg.JSONMode || cfg.TUI || cfg.Sink == appconfig.SinkStdout {
			if err := logging.InitFileOnly(cfg.LogFilePath()); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		}
		if err := logging.Init(cfg.LogFilePath()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", appconfig.DefaultConfigPath, "config file (e.g., config/config.json)")

	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("jsonMode", false, "print results as JSON")
	rootCmd.PersistentFlags().Bool("tui", false, "show live progress while the benchmark runs")
	rootCmd.PersistentFlags().Bool("metrics", false, "print collected run metrics after the report")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file")

	for _, name := range append(append([]string{}, boolFlags...), stringFlags...) {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}
}

// initConfig points viper at the selected config file.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded validates the config file against the schema and reads it
// into viper. A missing file means defaults and flags only. When the default
// path is absent but the legacy file exists, viper reads the legacy file.
func ensureConfigLoaded() error {
	if cfgFile != "" {
		cfg, err := appconfig.Load(cfgFile)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if cfg.ConfigPath != cfgFile {
			viper.SetConfigFile(cfg.ConfigPath)
		}
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// JSONModeEnabled returns true if JSON mode is enabled.
func JSONModeEnabled() bool { return viper.GetBool("jsonMode") }

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
