package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Zuo-Peng/chat-restore/internal/search"
)

func sampleResults() []search.Result {
	return []search.Result{
		{ExportKey: "/tmp/chat.json", Index: 0, Role: "user", Length: 5, Preview: "hello"},
		{ExportKey: "/tmp/chat.json", Index: 2, Role: "assistant", Length: 9, Snippet: "hi >>>there<<<"},
		{ExportKey: "/tmp/chat.json", Index: 5, Role: "type_99", Length: 1, Preview: "x"},
	}
}

func TestNextRole(t *testing.T) {
	got := []string{nextRole(""), nextRole("user"), nextRole("assistant"), nextRole("bogus")}
	want := []string{"user", "assistant", "", ""}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFormatResult(t *testing.T) {
	lines := formatResult(sampleResults()[1], 60, true)
	if len(lines) != linesPerItem {
		t.Fatalf("expected %d lines, got %d", linesPerItem, len(lines))
	}
	if !strings.Contains(lines[0], "#2 (9) chat.json") {
		t.Errorf("line 1 = %q", lines[0])
	}
	if strings.Contains(lines[1], ">>>") || !strings.Contains(lines[1], "hi there") {
		t.Errorf("line 2 = %q", lines[1])
	}

	// preview is the fallback when there is no snippet
	lines = formatResult(sampleResults()[0], 60, false)
	if !strings.Contains(lines[1], "hello") {
		t.Errorf("line 2 = %q", lines[1])
	}
}

func TestUpdate_IgnoresStaleResults(t *testing.T) {
	m := newModel(nil, modeSearch, "deploy", search.Options{})

	next, _ := m.Update(resultsMsg{query: "depl", results: sampleResults()})
	if len(next.(model).results) != 0 {
		t.Error("stale results should be dropped")
	}

	next, _ = m.Update(resultsMsg{query: "deploy", results: sampleResults()})
	if len(next.(model).results) != 3 {
		t.Error("current results should be applied")
	}
}

func TestUpdate_NavigationAndCopy(t *testing.T) {
	m := newModel(nil, modeList, "", search.Options{})
	m.results = sampleResults()
	m.previewKey = previewKey(m.results[1]) // avoid preview loads touching the db

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(model)
	if m.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", m.cursor)
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(model)
	if m.selected == nil || m.selected.Index != 2 || !m.quitting {
		t.Errorf("enter should select record 2 and quit, got %+v", m.selected)
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
}

func TestUpdate_RoleCycleRefetches(t *testing.T) {
	m := newModel(nil, modeList, "", search.Options{})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = next.(model)
	if m.opts.Role != "user" {
		t.Errorf("role = %q, want user", m.opts.Role)
	}
	if cmd == nil {
		t.Error("expected a fetch command")
	}

	// results fetched for the previous role are stale
	next, _ = m.Update(resultsMsg{query: "", role: "", results: sampleResults()})
	if len(next.(model).results) != 0 {
		t.Error("results for another role should be dropped")
	}
}

func TestHitTest(t *testing.T) {
	m := newModel(nil, modeList, "", search.Options{})
	m.width, m.height = 100, 30
	m.results = sampleResults()

	if region, item := m.hitTest(5, 2); region != regionList || item != 0 {
		t.Errorf("top of list = %v %d", region, item)
	}
	if region, item := m.hitTest(5, 4); region != regionList || item != 1 {
		t.Errorf("second item = %v %d", region, item)
	}
	if region, _ := m.hitTest(90, 10); region != regionPreview {
		t.Errorf("preview region = %v", region)
	}
	if region, _ := m.hitTest(5, 0); region != regionNone {
		t.Errorf("input row = %v", region)
	}
}
