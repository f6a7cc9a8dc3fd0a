package main

import (
	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chat-restore/internal/index"
	"github.com/Zuo-Peng/chat-restore/internal/open"
)

func openCmd() *cobra.Command {
	var idx int

	cmd := &cobra.Command{
		Use:   "open <export>",
		Short: "Open a record's restored transcript (or the consolidated dump) in $EDITOR",
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

			return open.OpenRecord(db, cfg.OutputDir, index.ExportKey(args[0]), idx)
		},
	}

	cmd.Flags().IntVar(&idx, "index", 0, "Record index to open")

	return cmd
}
