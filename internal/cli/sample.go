package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/aqframes/internal/sampledata"
	"github.com/okian/aqframes/pkg/logger"
)

func newSampleCmd(g *globals) *cobra.Command {
	var (
		rows int
		seed int64
		out  string
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a generated air-quality table as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("rows") {
				rows = g.cfg.SampleRows
			}
			if !cmd.Flags().Changed("seed") {
				seed = g.cfg.SampleSeed
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			if err := sampledata.WriteCSV(w, sampledata.Columns, sampledata.Generate(rows, seed)); err != nil {
				return err
			}
			logger.Get().Info(cmd.Context(), "sample written",
				logger.Int("rows", rows),
				logger.String("out", out),
			)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&rows, "rows", 0, "number of rows (default from config)")
	f.Int64Var(&seed, "seed", 0, "generator seed (default from config)")
	f.StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	return cmd
}
