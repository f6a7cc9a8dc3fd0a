package index

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Zuo-Peng/chat-restore/internal/parse"
)

type Stats struct {
	Scanned int
	Updated int
	Skipped int
	Pruned  int
	Errors  int
}

func (s Stats) String() string {
	return fmt.Sprintf("scanned=%d updated=%d skipped=%d pruned=%d errors=%d",
		s.Scanned, s.Updated, s.Skipped, s.Pruned, s.Errors)
}

// ExportKey is the key an export file is stored under.
func ExportKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// IndexExports loads and classifies each export file and stores its records.
// Unchanged files (same mtime and size) are skipped; exports whose file has
// disappeared are pruned.
func IndexExports(db *DB, paths ...string) (Stats, error) {
	var stats Stats

	for _, p := range paths {
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			stats.Errors++
			slog.Warn("stat export", "path", p, "error", err)
			continue
		}
		stats.Scanned++

		key := ExportKey(p)
		needs, err := needsUpdate(db, key, info.ModTime().Unix(), info.Size())
		if err != nil {
			stats.Errors++
			continue
		}
		if !needs {
			stats.Skipped++
			continue
		}

		raw, err := parse.LoadExport(p)
		if err != nil {
			stats.Errors++
			slog.Warn("parse export", "path", p, "error", err)
			continue
		}

		if err := indexExport(db, key, info, parse.Classify(raw)); err != nil {
			stats.Errors++
			slog.Warn("index export", "path", p, "error", err)
			continue
		}
		stats.Updated++
	}

	pruned, err := pruneExports(db)
	if err != nil {
		return stats, fmt.Errorf("prune: %w", err)
	}
	stats.Pruned = pruned

	return stats, nil
}

func needsUpdate(db *DB, exportKey string, mtime, size int64) (bool, error) {
	info, err := db.GetFileInfo(exportKey)
	if err != nil {
		return false, err
	}
	if info == nil {
		return true, nil // new export
	}
	return info.Mtime != mtime || info.Size != size, nil
}

func indexExport(db *DB, key string, info os.FileInfo, c parse.Classification) error {
	tx, err := db.Raw().Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM records WHERE export_key = ?", key); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM exports WHERE export_key = ?", key); err != nil {
		return err
	}

	_, err = tx.Exec(
		`INSERT INTO exports (export_key, file_path, total_raw, user_count, assistant_count, indexed_at, mtime, size)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		key,
		key,
		c.TotalRaw,
		c.UserCount,
		c.AssistantCount,
		time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		info.ModTime().Unix(),
		info.Size(),
	)
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		`INSERT INTO records (export_key, idx, role, text, length, preview)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range c.Records {
		if _, err := stmt.Exec(key, r.Index, r.Role.String(), r.Text, r.Length, r.Preview); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func pruneExports(db *DB) (int, error) {
	keys, err := db.AllExportKeys()
	if err != nil {
		return 0, err
	}

	pruned := 0
	for key := range keys {
		e, err := db.GetExport(key)
		if err != nil {
			return pruned, err
		}
		if e == nil {
			continue
		}
		if _, err := os.Stat(e.FilePath); !os.IsNotExist(err) {
			continue
		}
		if err := db.DeleteExport(key); err != nil {
			return pruned, err
		}
		pruned++
	}
	return pruned, nil
}
