package search

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Zuo-Peng/chat-restore/internal/index"
)

func seedDB(t *testing.T) *index.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := index.OpenDB(filepath.Join(dir, "records.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	path := filepath.Join(dir, "chat.json")
	body := `[
		{"commandType":3,"text":"How do I rotate the database password?"},
		{"commandType":4,"text":"Rotate the password with the vault CLI, then restart."},
		{"commandType":3,"text":"数据库密码在哪里"},
		{"commandType":"system","text":"password policy loaded"},
		{"commandType":4,"text":"Files land in the restored-chats folder next to c.json"}
	]`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := index.IndexExports(db, path); err != nil {
		t.Fatalf("index: %v", err)
	}
	return db
}

func TestSearch_FTS(t *testing.T) {
	db := seedDB(t)

	results, err := Search(db, Options{Query: "password"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if !strings.Contains(strings.ToLower(r.Snippet), ">>>password<<<") {
			t.Errorf("snippet missing marker: %q", r.Snippet)
		}
	}
}

func TestSearch_RoleFilter(t *testing.T) {
	db := seedDB(t)

	results, err := Search(db, Options{Query: "password", Role: "assistant"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Index != 1 {
		t.Fatalf("expected the assistant record, got %+v", results)
	}
}

func TestSearch_CJK(t *testing.T) {
	db := seedDB(t)

	results, err := Search(db, Options{Query: "密码"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Index != 2 {
		t.Fatalf("expected record 2, got %+v", results)
	}
	if !strings.Contains(results[0].Snippet, ">>>密码<<<") {
		t.Errorf("snippet = %q", results[0].Snippet)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	db := seedDB(t)
	results, err := Search(db, Options{Query: "  "})
	if err != nil || results != nil {
		t.Errorf("empty query = %v, %v", results, err)
	}
}

func TestListAll(t *testing.T) {
	db := seedDB(t)

	results, err := ListAll(db, Options{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("results[%d].Index = %d", i, r.Index)
		}
	}

	results, err = ListAll(db, Options{Query: "vault"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(results) != 1 || results[0].Role != "assistant" {
		t.Errorf("filtered list = %+v", results)
	}
}

func TestMakeSnippet(t *testing.T) {
	text := strings.Repeat("a", 50) + "Needle" + strings.Repeat("b", 50)
	got := makeSnippet(text, "needle", 5)
	want := "..." + "aaaaa>>>Needle<<<bbbbb" + "..."
	if got != want {
		t.Errorf("makeSnippet = %q, want %q", got, want)
	}

	if got := makeSnippet("short", "zzz", 10); got != "short" {
		t.Errorf("no-match short = %q", got)
	}
	if got := makeSnippet(strings.Repeat("x", 30), "zzz", 5); got != strings.Repeat("x", 10)+"..." {
		t.Errorf("no-match long = %q", got)
	}
}

func TestMatchExpr(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"password", `"password"`},
		{"restored-chats  folder", `"restored-chats" "folder"`},
		{`folder"`, `"folder"""`},
	}
	for _, tt := range tests {
		if got := matchExpr(tt.query); got != tt.want {
			t.Errorf("matchExpr(%q) = %s, want %s", tt.query, got, tt.want)
		}
	}
}

func TestSearch_Punctuation(t *testing.T) {
	db := seedDB(t)

	for _, q := range []string{"restored-chats", "c.json", `folder"`} {
		results, err := Search(db, Options{Query: q})
		if err != nil {
			t.Fatalf("search %q: %v", q, err)
		}
		if len(results) != 1 || results[0].Index != 4 {
			t.Errorf("search %q: expected record 4, got %+v", q, results)
		}
	}
}
