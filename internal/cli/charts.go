package cli

import (
	"github.com/spf13/cobra"
)

func newChartsCmd(g *globals) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "charts",
		Short: "Print the configured chart definitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enc, err := newEncoder(cmd.OutOrStdout(), format)
			if err != nil {
				return err
			}
			defer enc.Close()
			return enc.Encode(g.cfg.Charts)
		},
	}
	cmd.Flags().StringVar(&format, "format", formatYAML, "output format: json or yaml")
	return cmd
}
