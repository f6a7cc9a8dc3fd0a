package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS exports (
    export_key      TEXT PRIMARY KEY,
    file_path       TEXT NOT NULL,
    total_raw       INTEGER NOT NULL DEFAULT 0,
    user_count      INTEGER NOT NULL DEFAULT 0,
    assistant_count INTEGER NOT NULL DEFAULT 0,
    indexed_at      TEXT NOT NULL DEFAULT '',
    mtime           INTEGER NOT NULL DEFAULT 0,
    size            INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS records (
    export_key TEXT NOT NULL,
    idx        INTEGER NOT NULL,
    role       TEXT NOT NULL,
    text       TEXT NOT NULL,
    length     INTEGER NOT NULL,
    preview    TEXT NOT NULL,
    PRIMARY KEY (export_key, idx)
);

CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
    text,
    content=records,
    content_rowid=rowid,
    tokenize='unicode61'
);

CREATE TRIGGER IF NOT EXISTS records_ai AFTER INSERT ON records BEGIN
    INSERT INTO records_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TRIGGER IF NOT EXISTS records_ad AFTER DELETE ON records BEGIN
    INSERT INTO records_fts(records_fts, rowid, text) VALUES('delete', old.rowid, old.text);
END;

CREATE TRIGGER IF NOT EXISTS records_au AFTER UPDATE ON records BEGIN
    INSERT INTO records_fts(records_fts, rowid, text) VALUES('delete', old.rowid, old.text);
    INSERT INTO records_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);
`

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	d := &DB{db: db}
	if err := d.migrateSchemaVersion(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

// schemaVersion should be bumped whenever classification changes so that
// every export is re-indexed on the next run.
const schemaVersion = "1"

func (d *DB) migrateSchemaVersion() error {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err != nil && err != sql.ErrNoRows {
		return err
	}
	if ver == schemaVersion {
		return nil
	}
	// zero mtime/size so needsUpdate reports every export as changed
	if _, err := d.db.Exec("UPDATE exports SET mtime = 0, size = 0"); err != nil {
		return err
	}
	_, err = d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	return err
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

type FileInfo struct {
	Mtime int64
	Size  int64
}

func (d *DB) GetFileInfo(exportKey string) (*FileInfo, error) {
	var info FileInfo
	err := d.db.QueryRow(
		"SELECT mtime, size FROM exports WHERE export_key = ?",
		exportKey,
	).Scan(&info.Mtime, &info.Size)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (d *DB) AllExportKeys() (map[string]struct{}, error) {
	rows, err := d.db.Query("SELECT export_key FROM exports")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

func (d *DB) DeleteExport(exportKey string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM records WHERE export_key = ?", exportKey); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM exports WHERE export_key = ?", exportKey); err != nil {
		return err
	}
	return tx.Commit()
}

func (d *DB) ExportCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM exports").Scan(&n)
	return n, err
}

func (d *DB) RecordCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM records").Scan(&n)
	return n, err
}

// FTSCount is the number of rows in the full-text index; it matches
// RecordCount while the triggers keep the two in sync.
func (d *DB) FTSCount() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM records_fts").Scan(&n)
	return n, err
}

type ExportRow struct {
	ExportKey      string
	FilePath       string
	TotalRaw       int
	UserCount      int
	AssistantCount int
	IndexedAt      string
}

func (d *DB) GetExport(exportKey string) (*ExportRow, error) {
	var e ExportRow
	err := d.db.QueryRow(
		"SELECT export_key, file_path, total_raw, user_count, assistant_count, indexed_at FROM exports WHERE export_key = ?",
		exportKey,
	).Scan(&e.ExportKey, &e.FilePath, &e.TotalRaw, &e.UserCount, &e.AssistantCount, &e.IndexedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

type RecordRow struct {
	ExportKey string
	Index     int
	Role      string
	Text      string
	Length    int
	Preview   string
}

const recordColumns = "export_key, idx, role, text, length, preview"

func scanRecords(rows *sql.Rows) ([]RecordRow, error) {
	var recs []RecordRow
	for rows.Next() {
		var r RecordRow
		if err := rows.Scan(&r.ExportKey, &r.Index, &r.Role, &r.Text, &r.Length, &r.Preview); err != nil {
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func (d *DB) GetRecords(exportKey string) ([]RecordRow, error) {
	rows, err := d.db.Query(
		"SELECT "+recordColumns+" FROM records WHERE export_key = ? ORDER BY idx",
		exportKey,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (d *DB) GetRecord(exportKey string, idx int) (*RecordRow, error) {
	rows, err := d.db.Query(
		"SELECT "+recordColumns+" FROM records WHERE export_key = ? AND idx = ?",
		exportKey, idx,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	recs, err := scanRecords(rows)
	if err != nil || len(recs) == 0 {
		return nil, err
	}
	return &recs[0], nil
}

// GetRecordsWindow returns up to context records on each side of the record
// at hitIndex. startPos is the number of records before the window and
// totalCount the number in the export. Without a hit the whole export is
// returned.
func (d *DB) GetRecordsWindow(exportKey string, hitIndex, context int) (recs []RecordRow, hitPos int, startPos int, totalCount int, err error) {
	err = d.db.QueryRow(
		"SELECT COUNT(*) FROM records WHERE export_key = ?", exportKey,
	).Scan(&totalCount)
	if err != nil {
		return nil, -1, 0, 0, err
	}

	// record indices have gaps, so locate the hit by its rank
	rank := -1
	if hitIndex >= 0 {
		err = d.db.QueryRow(
			"SELECT COUNT(*) FROM records WHERE export_key = ? AND idx < ?",
			exportKey, hitIndex,
		).Scan(&rank)
		if err != nil {
			return nil, -1, 0, 0, err
		}
	}

	startPos = 0
	limit := totalCount
	if rank >= 0 {
		startPos = rank - context
		if startPos < 0 {
			startPos = 0
		}
		endPos := rank + context + 1
		if endPos > totalCount {
			endPos = totalCount
		}
		limit = endPos - startPos
	}

	rows, err := d.db.Query(
		"SELECT "+recordColumns+" FROM records WHERE export_key = ? ORDER BY idx LIMIT ? OFFSET ?",
		exportKey, limit, startPos,
	)
	if err != nil {
		return nil, -1, 0, 0, err
	}
	defer rows.Close()

	recs, err = scanRecords(rows)
	if err != nil {
		return nil, -1, 0, 0, err
	}

	hitPos = -1
	for i, r := range recs {
		if r.Index == hitIndex {
			hitPos = i
			break
		}
	}
	return recs, hitPos, startPos, totalCount, nil
}
