package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Zuo-Peng/chat-restore/internal/restore"
)

func restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Classify the chat export and write summary, transcripts and dump",
		Args:  cobra.NoArgs,
		RunE:  runRestore,
	}
}

func runRestore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	res, err := restore.Run(restore.Options{
		InputPath: cfg.InputPath,
		OutputDir: cfg.OutputDir,
	})
	if err != nil {
		return fmt.Errorf("restore: %w", err)
	}

	printReport(cmd.OutOrStdout(), res)
	return nil
}

func printReport(w io.Writer, res *restore.Result) {
	fmt.Fprintln(w, "Restore complete.")
	fmt.Fprintf(w, "  Total raw elements:  %d\n", res.TotalRaw)
	fmt.Fprintf(w, "  Records restored:    %d\n", res.Restored)
	fmt.Fprintf(w, "  User messages:       %d\n", res.UserCount)
	fmt.Fprintf(w, "  Assistant messages:  %d\n", res.AssistantCount)
	if res.UnknownCount > 0 {
		fmt.Fprintf(w, "  Unrecognized role:   %d\n", res.UnknownCount)
	}
	fmt.Fprintf(w, "  Transcripts written: %d\n", len(res.Report.Transcripts))
	if n := len(res.Report.Failed); n > 0 {
		fmt.Fprintf(w, "  Transcripts failed:  %d\n", n)
	}
	fmt.Fprintf(w, "  Summary: %s\n", res.Report.SummaryPath)
	fmt.Fprintf(w, "  Dump:    %s\n", res.Report.DumpPath)
}
