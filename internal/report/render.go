package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Zuo-Peng/chat-restore/internal/parse"
)

const timeLayout = "2006-01-02 15:04:05"

// TranscriptSeparator divides the transcript header from the message text.
const TranscriptSeparator = "\n---\n\n"

// RoleLabel is the glyph and tag shown for a role in the summary.
func RoleLabel(r parse.Role) string {
	switch r.Kind {
	case parse.RoleUser:
		return "👤 USER"
	case parse.RoleAssistant:
		return "🤖 ASSISTANT"
	default:
		tag := singleLine(r.Tag)
		if strings.TrimSpace(tag) == "" {
			tag = "unknown"
		}
		return "❓ " + tag
	}
}

// singleLine folds line breaks so a value fits on one summary line.
func singleLine(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", " ")
}

// TranscriptName is the file name of a record's individual transcript.
func TranscriptName(r parse.ClassifiedRecord) string {
	return fmt.Sprintf("conversation_%04d_%s.md", r.Index, r.Role.Slug())
}

// RenderSummary builds the index document: statistics followed by one
// numbered line per record.
func RenderSummary(c parse.Classification, generated time.Time) string {
	var b strings.Builder

	b.WriteString("# Chat History Summary\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", generated.Format(timeLayout))

	b.WriteString("## Statistics\n\n")
	fmt.Fprintf(&b, "- Total raw elements: %d\n", c.TotalRaw)
	fmt.Fprintf(&b, "- User messages: %d\n", c.UserCount)
	fmt.Fprintf(&b, "- Assistant messages: %d\n", c.AssistantCount)
	fmt.Fprintf(&b, "- Unrecognized role: %d\n", c.UnknownCount)
	fmt.Fprintf(&b, "- Records restored: %d\n\n", len(c.Records))

	b.WriteString("## Records\n\n")
	if len(c.Records) == 0 {
		b.WriteString("_No records._\n")
		return b.String()
	}
	for i, r := range c.Records {
		fmt.Fprintf(&b, "%d. [%d] %s (%d chars): %s\n", i+1, r.Index, RoleLabel(r.Role), r.Length, singleLine(r.Preview))
	}
	return b.String()
}

// RenderTranscript builds a long record's file: a short header, then the
// full text exactly as exported.
func RenderTranscript(r parse.ClassifiedRecord, generated time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Conversation %d\n\n", r.Index)
	fmt.Fprintf(&b, "- Role: %s\n", r.Role)
	fmt.Fprintf(&b, "- Length: %d chars\n", r.Length)
	fmt.Fprintf(&b, "- Generated: %s\n", generated.Format(timeLayout))
	b.WriteString(TranscriptSeparator)
	b.WriteString(r.Text)
	return b.String()
}

// EncodeDump writes every record as an indented JSON array. HTML escaping is
// off so text round-trips byte for byte.
func EncodeDump(w io.Writer, records []parse.ClassifiedRecord) error {
	if records == nil {
		records = []parse.ClassifiedRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
