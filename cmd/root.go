package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/stevehiehn/theaterdash/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Version is set at build time.
var Version = "dev"

const defaultConfigPath = "config.yaml"

var (
	configPath string
	jsonOutput bool
	verbose    bool
	logFormat  string

	logger = zap.NewNop()

	newLogger = func(cfg zap.Config) (*zap.Logger, error) { return cfg.Build() }
)

var rootCmd = &cobra.Command{
	Use:           "theaterdash",
	Short:         "Run the theater analysis steps and build the dashboard",
	Long:          "theaterdash runs each analysis step in isolation, collects the charts, maps and tables they produce, and renders a self-contained HTML dashboard.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		switch logFormat {
		case "json":
		case "console":
			cfg.Encoding = "console"
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		default:
			return fmt.Errorf("unknown log format %q (use json or console)", logFormat)
		}
		l, err := newLogger(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to the configuration file")
	pf.BoolVar(&jsonOutput, "json", false, "Output raw JSON")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	pf.StringVar(&logFormat, "log-format", "json", "Log encoding: json or console")
}

// exitError carries a process exit code out of a command.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Execute runs the root command and returns the process exit code. The
// logger is flushed whether or not the command failed.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	_ = logger.Sync()
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}

// loadConfig reads --config. Only a missing default config.yaml falls back
// to built-in defaults rooted at the current directory.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		if !cmd.Flags().Changed("config") && errors.Is(err, fs.ErrNotExist) {
			logger.Debug("no config file, using defaults", zap.String("path", configPath))
			wd, werr := os.Getwd()
			if werr != nil {
				return nil, werr
			}
			return config.Default(wd), nil
		}
		return nil, err
	}
	return cfg, nil
}

// loadValidConfig loads and validates --config.
func loadValidConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
