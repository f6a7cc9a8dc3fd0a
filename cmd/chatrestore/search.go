package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Zuo-Peng/chat-restore/internal/index"
	"github.com/Zuo-Peng/chat-restore/internal/search"
	"github.com/Zuo-Peng/chat-restore/internal/tui"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorGreen   = "\033[1;32m"
	sColorDim     = "\033[2m"
)

func colorizeRole(role string) string {
	switch role {
	case "user":
		return sColorBlue + role + sColorReset
	case "assistant":
		return sColorGreen + role + sColorReset
	default:
		return sColorDim + role + sColorReset
	}
}

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	return strings.ReplaceAll(snippet, "<<<", sColorReset)
}

func tsvField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

// writeTSV prints one result per line; the first two fields stay plain so
// fzf can pass them back as {1} {2}.
func writeTSV(w io.Writer, results []search.Result) {
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s%d%s\t%s\n",
			r.ExportKey,
			r.Index,
			colorizeRole(r.Role),
			sColorDim, r.Length, sColorReset,
			colorizeSnippet(tsvField(r.Snippet)),
		)
	}
}

// refreshIndex brings the archive up to date with the configured export
// before a query; failures only cost freshness.
func refreshIndex(db *index.DB, inputPath string) {
	if stats, err := index.IndexExports(db, inputPath); err != nil {
		slog.Warn("refresh index", "error", err)
	} else {
		slog.Debug("index refreshed", "stats", stats.String())
	}
}

func searchCmd() *cobra.Command {
	var role string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Full-text search across restored chat records",
		Long: `Search indexed records using FTS5. On a terminal an interactive browser opens;
otherwise output is TSV for fzf integration:
  exportKey, index, role, length, snippet

Example:
  chatrestore search "$*" | fzf --ansi --delimiter='\t' --with-nth=3.. \
    --preview 'chatrestore preview {1} --index {2} --context 3' \
    --bind 'enter:execute(chatrestore open {1} --index {2})'`,
		Args: cobra.ExactArgs(1),
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

			opts := search.Options{Role: role, Limit: limit}

			// interactive TUI when stdout is a terminal; TSV output for pipes
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Run(db, args[0], opts)
			}

			opts.Query = args[0]
			results, err := search.Search(db, opts)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}
			writeTSV(cmd.OutOrStdout(), results)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "", "Filter by role (user/assistant/<tag>)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")

	return cmd
}
