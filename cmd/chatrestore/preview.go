package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chat-restore/internal/index"
	"github.com/Zuo-Peng/chat-restore/internal/render"
)

func previewCmd() *cobra.Command {
	var hitIndex int
	var context int
	var width int
	var query string

	cmd := &cobra.Command{
		Use:   "preview <export>",
		Short: "Show records of an export around a given index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			out, _, err := render.RenderRecords(db, index.ExportKey(args[0]), render.Options{
				HitIndex: hitIndex,
				Context:  context,
				Width:    width,
				Query:    query,
			})
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&hitIndex, "index", -1, "Record index to highlight")
	cmd.Flags().IntVar(&context, "context", 10, "Records before/after the index to show")
	cmd.Flags().IntVar(&width, "width", 0, "Wrap width (0 = no wrap)")
	cmd.Flags().StringVar(&query, "query", "", "Search query for keyword highlighting")

	return cmd
}
