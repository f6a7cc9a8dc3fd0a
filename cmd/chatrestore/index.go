package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chat-restore/internal/index"
)

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index [export.json...]",
		Short: "Index chat exports into the searchable record archive",
		Long:  `Loads and classifies each export and stores its records in the archive. The configured input file is always included.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			db, err := index.OpenDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer db.Close()

			paths := append([]string{cfg.InputPath}, args...)
			fmt.Fprintf(os.Stderr, "Indexing %d export(s) into %s\n", len(paths), cfg.DBPath)

			stats, err := index.IndexExports(db, paths...)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			fmt.Fprintf(os.Stderr, "Done. %s\n", stats)
			return nil
		},
	}
}
