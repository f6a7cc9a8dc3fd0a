package search

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	"github.com/Zuo-Peng/chat-restore/internal/index"
)

type Result struct {
	ExportKey string
	Index     int
	Role      string
	Length    int
	IndexedAt string
	Preview   string
	Snippet   string
	Rank      float64
}

type Options struct {
	Query string
	Role  string // "" = all, "user", "assistant" or an unknown tag
	Limit int
}

const defaultLimit = 100

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	runes := []rune(text)
	lower := strings.ToLower(text)
	idx := strings.Index(lower, strings.ToLower(query))
	if idx < 0 || query == "" {
		if len(runes) > contextChars*2 {
			return string(runes[:contextChars*2]) + "..."
		}
		return text
	}

	qLen := len([]rune(query))
	runePos := len([]rune(lower[:idx]))
	if runePos+qLen > len(runes) {
		// lowercasing changed the length; fall back to the head
		runePos = 0
		qLen = 0
	}
	start := runePos - contextChars
	if start < 0 {
		start = 0
	}
	end := runePos + qLen + contextChars
	if end > len(runes) {
		end = len(runes)
	}
	prefix, suffix := "", ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+qLen]) + "<<<" +
		string(runes[runePos+qLen:end])
	return prefix + snippet + suffix
}

// Search finds records matching opts.Query, best match first.
func Search(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	if strings.TrimSpace(opts.Query) == "" {
		return nil, nil
	}
	if containsCJK(opts.Query) {
		return searchLike(db, opts)
	}
	return searchFTS(db, opts)
}

func filters(opts Options, conditions []string, args []interface{}) ([]string, []interface{}) {
	if opts.Role != "" {
		conditions = append(conditions, "r.role = ?")
		args = append(args, opts.Role)
	}
	return conditions, args
}

// matchExpr quotes each whitespace-separated term as an FTS5 string so
// punctuation such as '-', '.' or '"' is matched as text, not parsed as
// query syntax. Terms are ANDed.
func matchExpr(query string) string {
	terms := strings.Fields(query)
	for i, t := range terms {
		terms[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(terms, " ")
}

func searchFTS(db *index.DB, opts Options) ([]Result, error) {
	conditions, args := filters(opts,
		[]string{"records_fts MATCH ?"},
		[]interface{}{matchExpr(opts.Query)},
	)

	query := fmt.Sprintf(`
		SELECT
			r.export_key,
			r.idx,
			r.role,
			r.length,
			e.indexed_at,
			r.preview,
			snippet(records_fts, 0, '>>>','<<<', '...', 40) as snip,
			bm25(records_fts, 1.0) as rank
		FROM records_fts
		JOIN records r ON records_fts.rowid = r.rowid
		JOIN exports e ON r.export_key = e.export_key
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ExportKey, &r.Index, &r.Role, &r.Length, &r.IndexedAt, &r.Preview, &r.Snippet, &r.Rank); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// searchLike handles CJK text, which the unicode61 tokenizer does not split
// into words.
func searchLike(db *index.DB, opts Options) ([]Result, error) {
	conditions, args := filters(opts,
		[]string{"r.text LIKE ?"},
		[]interface{}{"%" + opts.Query + "%"},
	)
	return queryRecords(db, conditions, args, opts)
}

// ListAll returns records of the most recently indexed exports first, in
// index order. A non-empty Query narrows to records containing it.
func ListAll(db *index.DB, opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 1000
	}
	conditions, args := filters(opts, []string{"1 = 1"}, nil)
	if opts.Query != "" {
		conditions = append(conditions, "r.text LIKE ?")
		args = append(args, "%"+opts.Query+"%")
	}
	return queryRecords(db, conditions, args, opts)
}

func queryRecords(db *index.DB, conditions []string, args []interface{}, opts Options) ([]Result, error) {
	query := fmt.Sprintf(`
		SELECT
			r.export_key,
			r.idx,
			r.role,
			r.length,
			e.indexed_at,
			r.preview,
			r.text
		FROM records r
		JOIN exports e ON r.export_key = e.export_key
		WHERE %s
		ORDER BY e.indexed_at DESC, r.export_key, r.idx
		LIMIT ?
	`, strings.Join(conditions, " AND "))
	args = append(args, opts.Limit)

	rows, err := db.Raw().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	return scanWithSnippet(rows, opts.Query)
}

func scanWithSnippet(rows *sql.Rows, query string) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		var fullText string
		if err := rows.Scan(&r.ExportKey, &r.Index, &r.Role, &r.Length, &r.IndexedAt, &r.Preview, &fullText); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(fullText, query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}
