package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chat-restore/internal/config"
	"github.com/Zuo-Peng/chat-restore/internal/index"
	"github.com/Zuo-Peng/chat-restore/internal/parse"
	"github.com/Zuo-Peng/chat-restore/internal/scan"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify input, output artifacts, DB and FTS5",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			fmt.Fprintln(w, "=== Input ===")
			checkInput(w, cfg.InputPath)

			fmt.Fprintln(w, "\n=== Output ===")
			checkOutputs(w, cfg.OutputDir)

			fmt.Fprintln(w, "\n=== Database ===")
			return checkDB(w, cfg)
		},
	}
}

func checkInput(w io.Writer, path string) {
	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(w, "  %s (NOT FOUND)\n", path)
		return
	}
	raw, err := parse.LoadExport(path)
	if err != nil {
		fmt.Fprintf(w, "  %s (MALFORMED: %v)\n", path, err)
		return
	}
	c := parse.Classify(raw)
	fmt.Fprintf(w, "  %s (OK, %d bytes)\n", path, info.Size())
	fmt.Fprintf(w, "  Elements: %d  Records: %d  user=%d assistant=%d unknown=%d\n",
		c.TotalRaw, len(c.Records), c.UserCount, c.AssistantCount, c.UnknownCount)
}

func checkOutputs(w io.Writer, dir string) {
	arts, err := scan.ScanOutputs(dir)
	if err != nil {
		fmt.Fprintf(w, "  %s (ERROR: %v)\n", dir, err)
		return
	}
	if arts == nil {
		fmt.Fprintf(w, "  %s (NOT FOUND, run 'chatrestore' first)\n", dir)
		return
	}
	counts := scan.Count(arts)
	fmt.Fprintf(w, "  Dir: %s\n", dir)
	fmt.Fprintf(w, "  Summary:     %d\n", counts[scan.KindSummary])
	fmt.Fprintf(w, "  Transcripts: %d\n", counts[scan.KindTranscript])
	fmt.Fprintf(w, "  Dump:        %d\n", counts[scan.KindDump])
	if n := counts[scan.KindOther]; n > 0 {
		fmt.Fprintf(w, "  Other files: %d\n", n)
	}
}

func checkDB(w io.Writer, cfg *config.Config) error {
	fmt.Fprintf(w, "  Path: %s\n", cfg.DBPath)
	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		fmt.Fprintln(w, "  Status: NOT FOUND (run 'chatrestore index' first)")
		return nil
	}

	db, err := index.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	exports, err := db.ExportCount()
	if err != nil {
		return fmt.Errorf("count exports: %w", err)
	}
	records, err := db.RecordCount()
	if err != nil {
		return fmt.Errorf("count records: %w", err)
	}
	fmt.Fprintf(w, "  Exports: %d\n", exports)
	fmt.Fprintf(w, "  Records: %d\n", records)

	fts, err := db.FTSCount()
	switch {
	case err != nil:
		fmt.Fprintf(w, "  FTS5 error: %v\n", err)
	case fts == records:
		fmt.Fprintf(w, "  FTS5: %d entries (synced)\n", fts)
	default:
		fmt.Fprintf(w, "  FTS5: MISMATCH (records=%d, fts=%d)\n", records, fts)
	}

	if info, err := os.Stat(cfg.DBPath); err == nil {
		fmt.Fprintf(w, "  Size: %.1f MB\n", float64(info.Size())/1024/1024)
	}
	return nil
}
