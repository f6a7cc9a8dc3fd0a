package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/Zuo-Peng/chat-restore/internal/index"
)

const (
	colorReset   = "\033[0m"
	colorUser    = "\033[1;34m" // bold blue
	colorAssist  = "\033[1;32m" // bold green
	colorOther   = "\033[1;35m" // bold magenta
	colorDim     = "\033[2m"
	colorHit     = "\033[43m"   // yellow background
	colorBoldRed = "\033[1;31m" // keyword highlights
)

type Options struct {
	HitIndex int    // record index to highlight, -1 for none
	Context  int    // records before/after hit to show, <0 for all
	Width    int    // wrap width (0 = no wrap)
	Query    string // search query for keyword highlighting
}

// queryOperators are FTS5 operators that should not be highlighted as keywords.
var queryOperators = map[string]bool{
	"AND": true, "OR": true, "NOT": true, "NEAR": true,
}

func queryTerms(query string) []string {
	var terms []string
	for _, t := range strings.Fields(query) {
		t = strings.Trim(t, `"*()`)
		if t == "" || queryOperators[strings.ToUpper(t)] {
			continue
		}
		terms = append(terms, t)
	}
	return terms
}

// highlightKeywords wraps case-insensitive matches of the query terms in
// bold red. Matching walks the original text rune by rune so that byte
// offsets never come from a case-folded copy.
func highlightKeywords(text, query string) string {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return text
	}

	var b strings.Builder
	for i := 0; i < len(text); {
		matched := ""
		for _, term := range terms {
			if n := foldPrefix(text[i:], term); n > 0 {
				matched = text[i : i+n]
				break
			}
		}
		if matched != "" {
			b.WriteString(colorBoldRed)
			b.WriteString(matched)
			b.WriteString(colorReset)
			i += len(matched)
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		b.WriteString(text[i : i+size])
		i += size
	}
	return b.String()
}

// foldPrefix reports the byte length of the prefix of s that equals term
// under Unicode case folding, or 0.
func foldPrefix(s, term string) int {
	n := 0
	for _, tr := range term {
		if n >= len(s) {
			return 0
		}
		sr, size := utf8.DecodeRuneInString(s[n:])
		if !strings.EqualFold(string(sr), string(tr)) {
			return 0
		}
		n += size
	}
	return n
}

func indent(text, prefix string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return lines
}

// wrapLine breaks line into pieces of at most maxWidth terminal columns.
// ANSI escape sequences are copied through without counting toward width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var out []string
	var cur strings.Builder
	width := 0

	for i := 0; i < len(line); {
		if line[i] == '\033' && i+1 < len(line) && line[i+1] == '[' {
			end := strings.IndexByte(line[i:], 'm')
			if end < 0 {
				end = len(line) - i - 1
			}
			cur.WriteString(line[i : i+end+1])
			i += end + 1
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)
		if width+rw > maxWidth && width > 0 {
			out = append(out, cur.String())
			cur.Reset()
			width = 0
		}
		cur.WriteRune(r)
		width += rw
		i += size
	}

	if cur.Len() > 0 || len(out) == 0 {
		out = append(out, cur.String())
	}
	return out
}

func roleStyle(role string) (color, label string) {
	switch role {
	case "user":
		return colorUser, "USER"
	case "assistant":
		return colorAssist, "ASST"
	default:
		return colorOther, strings.ToUpper(role)
	}
}

// RenderRecords renders the records of an export around opts.HitIndex and
// returns the text together with the 0-based line of the hit header
// (-1 without a hit).
func RenderRecords(db *index.DB, exportKey string, opts Options) (string, int, error) {
	if opts.Context == 0 {
		opts.Context = 10
	}
	if opts.Context < 0 {
		opts.Context = 1 << 30
	}

	export, err := db.GetExport(exportKey)
	if err != nil {
		return "", -1, fmt.Errorf("get export: %w", err)
	}
	if export == nil {
		return "", -1, fmt.Errorf("export not found: %s", exportKey)
	}

	recs, hitPos, startPos, total, err := db.GetRecordsWindow(exportKey, opts.HitIndex, opts.Context)
	if err != nil {
		return "", -1, fmt.Errorf("get records: %w", err)
	}
	if total == 0 {
		return "(no records)", -1, nil
	}

	var b strings.Builder
	lines := 0
	hitLine := -1
	emit := func(s string) {
		for _, wl := range wrapLine(s, opts.Width) {
			b.WriteString(wl)
			b.WriteByte('\n')
			lines++
		}
	}

	emit(fmt.Sprintf("%s--- %s (user=%d assistant=%d) ---%s",
		colorDim, export.FilePath, export.UserCount, export.AssistantCount, colorReset))
	if startPos > 0 {
		emit(fmt.Sprintf("%s... (%d records before) ...%s", colorDim, startPos, colorReset))
	}

	for i, r := range recs {
		if i > 0 {
			emit(colorDim + strings.Repeat("-", 50) + colorReset)
		}

		color, label := roleStyle(r.Role)
		if i == hitPos {
			hitLine = lines
			emit(fmt.Sprintf("%s>> #%d %s (%d chars) <<%s", colorHit, r.Index, label, r.Length, colorReset))
		} else {
			emit(fmt.Sprintf("%s#%d %s%s %s(%d chars)%s", color, r.Index, label, colorReset, colorDim, r.Length, colorReset))
		}

		for _, l := range indent(highlightKeywords(r.Text, opts.Query), "  ") {
			emit(l)
		}
		emit("")
	}

	if after := total - startPos - len(recs); after > 0 {
		emit(fmt.Sprintf("%s... (%d records after) ...%s", colorDim, after, colorReset))
	}

	return b.String(), hitLine, nil
}
