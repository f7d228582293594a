// Package main provides the vibe-mutsim command-line tool.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile string
	verbose bool

	logger = zap.NewNop()
)

// usageError marks errors caused by bad invocation rather than bad data.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// usageArgs wraps a cobra argument validator so its failures exit with
// ExitUsage.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{err}
		}
		return nil
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	_ = logger.Sync()
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var ue *usageError
	if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
		return ExitUsage
	}
	return ExitError
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vibe-mutsim",
		Short: "vibe-mutsim - Nucleotide sequence mutation simulator",
		Long: `Simulate stochastic substitutions, insertions and deletions in a nucleotide
sequence over discrete generations, and compare sequences position by position.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(); err != nil {
				return err
			}
			l, err := newLogger(verbose, viper.GetString("log.level"))
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			logger = l
			return nil
		},
	}
	cmd.SetVersionTemplate("vibe-mutsim version {{.Version}}\n")
	cmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err}
	})

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.vibe-mutsim.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
	cmd.PersistentFlags().String("store", "", "Run store path (default ~/.vibe-mutsim/runs.duckdb)")
	viper.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("store.path", cmd.PersistentFlags().Lookup("store"))

	cmd.AddCommand(newSimulateCmd())
	cmd.AddCommand(newEvolveCmd())
	cmd.AddCommand(newDiffCmd())
	cmd.AddCommand(newParseCmd())
	cmd.AddCommand(newRunsCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// initConfig reads ~/.vibe-mutsim.yaml (or --config) and VIBE_MUTSIM_*
// environment variables. A missing config file is not an error.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".vibe-mutsim")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("VIBE_MUTSIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// newLogger builds a production logger writing JSON to stderr, or a
// development logger when verbose is set.
func newLogger(verbose bool, level string) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	lvl := zapcore.WarnLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, &usageError{fmt.Errorf("invalid log level %q", level)}
		}
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.OutputPaths = []string{"stderr"}
	return config.Build()
}

// defaultStorePath is where persisted runs live unless store.path is set.
func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".vibe-mutsim", "runs.duckdb")
	}
	return filepath.Join(home, ".vibe-mutsim", "runs.duckdb")
}
