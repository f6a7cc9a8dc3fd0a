package main

import (
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chat-restore/internal/index"
	"github.com/Zuo-Peng/chat-restore/internal/search"
	"github.com/Zuo-Peng/chat-restore/internal/tui"
)

func listCmd() *cobra.Command {
	var role string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Browse all restored records",
		Long:  `Opens a TUI panel listing every indexed record, newest export first. Type to filter by text.`,
		Args:  cobra.NoArgs,
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

			refreshIndex(db, cfg.InputPath)

			return tui.RunList(db, search.Options{Role: role, Limit: limit})
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Filter by role (user/assistant/<tag>)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max records (0 = default)")

	return cmd
}
