package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/socstudy-cli/internal/config"
	"github.com/KaramelBytes/socstudy-cli/internal/logging"
)

var (
	// Global flags
	cfgFile  string
	debug    bool
	logLevel string

	// Loaded configuration
	cfg    *cfgpkg.Global
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "socstudy",
	Short: "socstudy: normalize and chart preclinical tumor studies",
	Long: `socstudy loads preclinical oncology studies from SQL databases or local data files,
normalizes groups, animals and tumor measurements, and renders summaries, chart data and exports.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Initialize configuration before every command run
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.socstudy/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	if debug {
		level = "debug"
	}
	l, err := logging.New(os.Stderr, level, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", err)
		l, _ = logging.New(os.Stderr, "", true)
	}
	logger = l
}

// globalConfig returns the loaded configuration, loading it on first use.
func globalConfig() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}
