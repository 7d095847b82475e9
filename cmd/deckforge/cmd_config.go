package main

import (
	"io"

	"github.com/spf13/cobra"
)

func (a *app) configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after loading --config (or $DECKFORGE_CONFIG) over
the defaults. The output is valid input for --config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.jsonOut {
				return a.emit(cmd, a.cfg, nil)
			}
			data, err := a.cfg.Marshal()
			if err != nil {
				return err
			}
			return a.emit(cmd, nil, func(w io.Writer) {
				_, _ = w.Write(data)
			})
		},
	}
}
