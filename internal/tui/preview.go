package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/chat-restore/internal/index"
	"github.com/Zuo-Peng/chat-restore/internal/render"
	"github.com/Zuo-Peng/chat-restore/internal/search"
)

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	key     string
	content string
	hitLine int
	err     error
}

// loadPreviewCmd renders the whole export around the selected record.
func loadPreviewCmd(db *index.DB, r search.Result, query string, width int) tea.Cmd {
	return func() tea.Msg {
		content, hitLine, err := render.RenderRecords(db, r.ExportKey, render.Options{
			HitIndex: r.Index,
			Context:  -1,
			Width:    width,
			Query:    query,
		})
		return previewRenderedMsg{
			key:     previewKey(r),
			content: content,
			hitLine: hitLine,
			err:     err,
		}
	}
}
