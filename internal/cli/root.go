// Package cli builds the aqframes command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/okian/aqframes/internal/config"
	"github.com/okian/aqframes/pkg/logger"
)

// globals holds persistent flag values and the loaded configuration.
type globals struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
}

// NewRootCmd returns the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "aqframes",
		Short:         "Animated air-quality charts",
		Long:          `aqframes loads an air-quality table, aggregates it per period and plays the periods as frames of enter/update/exit changes, served over HTTP or printed on the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.load(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&g.configPath, "config", "", "YAML config file (default $"+config.EnvConfigPath+")")
	f.StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	f.StringVar(&g.logFormat, "log-format", "", "text or json (overrides config)")

	root.AddCommand(
		newServeCmd(g),
		newPlayCmd(g),
		newSampleCmd(g),
		newChartsCmd(g),
	)
	return root
}

// load reads the configuration and initializes logging on stderr.
func (g *globals) load(cmd *cobra.Command) error {
	path := g.configPath
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(cmd.Context(), path)
	} else {
		cfg, err = config.Load(cmd.Context())
	}
	if err != nil {
		return err
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	if g.logFormat != "" {
		cfg.LogFormat = g.logFormat
	}
	g.cfg = cfg

	if err := logger.Init(
		logger.WithWriter(cmd.ErrOrStderr()),
		logger.WithJSON(cfg.LogFormat == "json"),
	); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	root := NewRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		root.PrintErrln("Error:", err)
		return 1
	}
	return 0
}
