package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	service "github.com/okian/aqframes/internal/app"
	"github.com/okian/aqframes/pkg/logger"
)

// ErrTicks is returned for a non-positive --ticks.
var ErrTicks = errors.New("ticks must be positive")

type playFlags struct {
	chart  string
	ticks  int
	format string
	period string
	rows   int
}

func newPlayCmd(g *globals) *cobra.Command {
	var fl playFlags
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Print the frames of one chart without a server",
		Long:  `play loads the configured source, shows the chart's first period (or --period) and steps through the following periods, printing one frame per tick.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("rows") {
				g.cfg.SampleRows = fl.rows
			}
			return runPlay(cmd, g, fl)
		},
	}
	f := cmd.Flags()
	f.StringVar(&fl.chart, "chart", "pollutants-by-month", "chart id")
	f.IntVar(&fl.ticks, "ticks", 12, "number of frames to print")
	f.StringVar(&fl.format, "format", formatJSON, "output format: json or yaml")
	f.StringVar(&fl.period, "period", "", "period key to start from, e.g. 3 or 2024-03")
	f.IntVar(&fl.rows, "rows", 0, "rows generated by the sample source (overrides config)")
	return cmd
}

func runPlay(cmd *cobra.Command, g *globals, fl playFlags) error {
	if fl.ticks <= 0 {
		return ErrTicks
	}
	enc, err := newEncoder(cmd.OutOrStdout(), fl.format)
	if err != nil {
		return err
	}
	defer enc.Close()

	ctx := cmd.Context()
	svc := service.New(service.WithConfig(g.cfg), service.WithLogger(logger.Get()))
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = svc.Shutdown(context.WithoutCancel(ctx)) }()

	if _, err := svc.Chart(fl.chart); err != nil {
		return err
	}
	if fl.period != "" {
		if err := svc.Jump(ctx, fl.chart, fl.period); err != nil {
			return err
		}
	}

	for i := 0; i < fl.ticks; i++ {
		if i > 0 {
			if err := svc.Step(ctx, fl.chart); err != nil {
				return err
			}
		}
		f, err := svc.Frame(ctx, fl.chart)
		if err != nil {
			return fmt.Errorf("chart %s: %w", fl.chart, err)
		}
		if err := enc.Encode(f); err != nil {
			return err
		}
	}
	return nil
}
