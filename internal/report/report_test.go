package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Zuo-Peng/chat-restore/internal/parse"
)

var fixedNow = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }

func quietOpts(dir string) Options {
	return Options{
		OutputDir: dir,
		Now:       fixedNow,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func longClassification(n, length int) parse.Classification {
	var raw []parse.RawRecord
	for i := 0; i < n; i++ {
		text, _ := json.Marshal(strings.Repeat("a", length))
		code := "3"
		if i%2 == 1 {
			code = "4"
		}
		raw = append(raw, parse.RawRecord{"commandType": json.RawMessage(code), "text": text})
	}
	return parse.Classify(raw)
}

func TestRenderSummary(t *testing.T) {
	c := parse.Classification{
		TotalRaw:       3,
		UserCount:      1,
		AssistantCount: 1,
		UnknownCount:   0,
		Records: []parse.ClassifiedRecord{
			{Index: 0, Role: parse.Assistant, Text: "hi", Length: 2, Preview: "hi"},
			{Index: 2, Role: parse.User, Text: "a\nb", Length: 3, Preview: "a\nb"},
		},
	}

	out := RenderSummary(c, fixedNow())

	for _, want := range []string{
		"Generated: 2026-03-01 09:30:00",
		"- Total raw elements: 3",
		"- User messages: 1",
		"- Assistant messages: 1",
		"- Records restored: 2",
		"1. [0] 🤖 ASSISTANT (2 chars): hi\n",
		"2. [2] 👤 USER (3 chars): a b\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q\n%s", want, out)
		}
	}
}

func TestRoleLabel(t *testing.T) {
	tests := []struct {
		role parse.Role
		want string
	}{
		{parse.User, "👤 USER"},
		{parse.Assistant, "🤖 ASSISTANT"},
		{parse.Unknown("type_99"), "❓ type_99"},
		{parse.Unknown("sys\r\ntem"), "❓ sys tem"},
		{parse.Unknown(""), "❓ unknown"},
		{parse.Unknown("\n"), "❓ unknown"},
	}
	for _, tt := range tests {
		if got := RoleLabel(tt.role); got != tt.want {
			t.Errorf("RoleLabel(%q) = %q, want %q", tt.role.Tag, got, tt.want)
		}
	}
}

func TestTranscriptName(t *testing.T) {
	if got := TranscriptName(parse.ClassifiedRecord{Index: 7, Role: parse.User}); got != "conversation_0007_user.md" {
		t.Errorf("got %q", got)
	}
	if got := TranscriptName(parse.ClassifiedRecord{Index: 12, Role: parse.Unknown("type_99")}); got != "conversation_0012_type_99.md" {
		t.Errorf("got %q", got)
	}
}

func TestWrite_LongRecordTranscriptIsExact(t *testing.T) {
	dir := t.TempDir()
	text := strings.Repeat("ü<&>", 375) // 1500 characters
	raw, _ := json.Marshal(text)
	c := parse.Classify([]parse.RawRecord{
		{"commandType": json.RawMessage("4"), "text": raw},
	})

	rep, err := Write(c, quietOpts(dir))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Transcripts) != 1 {
		t.Fatalf("expected 1 transcript, got %d", len(rep.Transcripts))
	}

	data, err := os.ReadFile(filepath.Join(dir, "conversation_0000_assistant.md"))
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	_, body, ok := strings.Cut(string(data), TranscriptSeparator)
	if !ok {
		t.Fatalf("transcript has no separator")
	}
	if body != text {
		t.Errorf("transcript body differs from source text (len %d vs %d)", len(body), len(text))
	}
	if !strings.Contains(string(data), "- Length: 1500 chars") {
		t.Errorf("transcript header missing length")
	}
}

func TestWrite_TranscriptCap(t *testing.T) {
	dir := t.TempDir()
	c := longClassification(15, 1200)

	rep, err := Write(c, quietOpts(dir))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Transcripts) != MaxTranscripts {
		t.Fatalf("expected %d transcripts, got %d", MaxTranscripts, len(rep.Transcripts))
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "conversation_*.md"))
	if len(matches) != MaxTranscripts {
		t.Errorf("expected %d transcript files, got %d", MaxTranscripts, len(matches))
	}
	if _, err := os.Stat(filepath.Join(dir, "conversation_0010_user.md")); !os.IsNotExist(err) {
		t.Errorf("record 10 should not have a transcript")
	}

	summary, _ := os.ReadFile(rep.SummaryPath)
	if !strings.Contains(string(summary), "15. [14]") {
		t.Errorf("summary should index all 15 records")
	}
}

func TestWrite_EmptyInput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	rep, err := Write(parse.Classify(nil), quietOpts(dir))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary, err := os.ReadFile(rep.SummaryPath)
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	if !strings.Contains(string(summary), "- Records restored: 0") {
		t.Errorf("summary should show zero counts")
	}

	dump, err := os.ReadFile(rep.DumpPath)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	if strings.TrimSpace(string(dump)) != "[]" {
		t.Errorf("dump = %q, want []", dump)
	}
}

func TestWrite_Idempotent(t *testing.T) {
	dir := t.TempDir()
	c := longClassification(3, 1100)

	first, err := Write(c, quietOpts(dir))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	s1, _ := os.ReadFile(first.SummaryPath)
	d1, _ := os.ReadFile(first.DumpPath)

	second, err := Write(c, quietOpts(dir))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	s2, _ := os.ReadFile(second.SummaryPath)
	d2, _ := os.ReadFile(second.DumpPath)

	if !bytes.Equal(s1, s2) {
		t.Errorf("summary changed between runs")
	}
	if !bytes.Equal(d1, d2) {
		t.Errorf("dump changed between runs")
	}
}

func TestWrite_TranscriptFailureIsRecovered(t *testing.T) {
	dir := t.TempDir()
	c := longClassification(2, 1100)

	// a directory in the way makes the file create fail
	blocked := filepath.Join(dir, "conversation_0000_user.md")
	if err := os.MkdirAll(blocked, 0o755); err != nil {
		t.Fatal(err)
	}

	rep, err := Write(c, quietOpts(dir))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rep.Failed) != 1 || rep.Failed[0].Path != blocked {
		t.Fatalf("expected one failure for %s, got %+v", blocked, rep.Failed)
	}
	if len(rep.Transcripts) != 1 {
		t.Errorf("expected 1 transcript written, got %d", len(rep.Transcripts))
	}
	if _, err := os.Stat(rep.DumpPath); err != nil {
		t.Errorf("dump should still be written: %v", err)
	}
}

func TestWrite_SummaryFailureAborts(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, SummaryFile), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := Write(parse.Classify(nil), quietOpts(dir))

	var werr *OutputWriteError
	if !errors.As(err, &werr) {
		t.Fatalf("expected OutputWriteError, got %v", err)
	}
	if werr.Artifact != "summary" {
		t.Errorf("artifact = %q, want summary", werr.Artifact)
	}
	if _, err := os.Stat(filepath.Join(dir, DumpFile)); !os.IsNotExist(err) {
		t.Errorf("dump should not be written after summary failure")
	}
}

func TestWrite_DumpFailureAborts(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, DumpFile), 0o755); err != nil {
		t.Fatal(err)
	}

	rep, err := Write(longClassification(1, 1100), quietOpts(dir))

	var werr *OutputWriteError
	if !errors.As(err, &werr) {
		t.Fatalf("expected OutputWriteError, got %v", err)
	}
	if werr.Artifact != "consolidated dump" {
		t.Errorf("artifact = %q, want consolidated dump", werr.Artifact)
	}
	if rep != nil {
		t.Errorf("expected no report, got %+v", rep)
	}
	// earlier artifacts are already on disk
	if _, err := os.Stat(filepath.Join(dir, SummaryFile)); err != nil {
		t.Errorf("summary should be written before the dump: %v", err)
	}
}

func TestEncodeDump_PreservesText(t *testing.T) {
	var buf bytes.Buffer
	recs := []parse.ClassifiedRecord{
		{Index: 0, Role: parse.User, Text: "<b>こんにちは</b> & 😀", Length: 17, Preview: "<b>こんにちは</b> & 😀"},
	}
	if err := EncodeDump(&buf, recs); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(buf.String(), `"<b>こんにちは</b> & 😀"`) {
		t.Errorf("text was escaped or altered:\n%s", buf.String())
	}

	var back []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("dump is not valid JSON: %v", err)
	}
	if back[0]["role"] != "user" || back[0]["text"] != recs[0].Text {
		t.Errorf("unexpected round trip: %+v", back[0])
	}
}
