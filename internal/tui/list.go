package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/chat-restore/internal/search"
)

// linesPerItem is the number of terminal lines each result occupies.
const linesPerItem = 2

func (m model) renderList(width, height int) string {
	if len(m.results) == 0 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No records")
	}

	var lines []string
	for i := m.listOffset; i < len(m.results); i++ {
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatResult(m.results[i], width, i == m.cursor)...)
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func flatten(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, ">>>", "")
	return strings.ReplaceAll(s, "<<<", "")
}

func clip(s string, max int) string {
	if max < 0 {
		max = 0
	}
	if runewidth.StringWidth(s) > max {
		return runewidth.Truncate(s, max, "")
	}
	return s
}

// formatResult renders one record as two lines:
//
//	line 1: [>] role #index (length) export-file
//	line 2:    snippet (dimmed)
func formatResult(r search.Result, width int, selected bool) []string {
	head := fmt.Sprintf("#%d (%d) %s", r.Index, r.Length, filepath.Base(r.ExportKey))
	head = clip(head, width-2-len(r.Role)-1)
	line1 := roleBadge(r.Role) + " " + head
	if selected {
		line1 = styleListSelected.Render("> ") + line1
	} else {
		line1 = "  " + line1
	}

	snippet := r.Snippet
	if snippet == "" {
		snippet = r.Preview
	}
	line2 := "    " + styleSnippet.Render(clip(flatten(snippet), width-4))

	return []string{line1, line2}
}

// adjustListScroll keeps the cursor visible within the list viewport.
func (m *model) adjustListScroll(listHeight int) {
	visible := listHeight / linesPerItem
	if visible < 1 {
		visible = 1
	}
	if m.cursor < m.listOffset {
		m.listOffset = m.cursor
	}
	if m.cursor >= m.listOffset+visible {
		m.listOffset = m.cursor - visible + 1
	}
}
