// Package manifest tracks which files this tool installed into a managed
// root, so uninstall can remove exactly those and nothing the user
// changed by hand.
package manifest

import (
	"crypto/sha1"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/overviewer/bg3-modsync/pkg/models"
)

// FileName is the manifest database stored inside each managed root.
const FileName = ".modsync.db"

const schemaVersion = 1

// DirHash marks directory entries, which have no content hash.
const DirHash = "dir"

// Entry is one tracked path, relative to the managed root.
type Entry struct {
	Path string
	Kind string // "file" or "dir"
	Hash string // "sha1:<hex>" for files, DirHash for directories
	Size int64
}

// DB is a manifest database for one managed root.
type DB struct {
	*sql.DB
	root string
	path string
}

// Exists reports whether a manifest database is present under root.
func Exists(root string) bool {
	info, err := os.Stat(filepath.Join(root, FileName))
	return err == nil && !info.IsDir()
}

// Open opens (creating if needed) the manifest for root.
func Open(root string) (*DB, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(root, FileName)
	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db := &DB{sqlDB, root, path}
	if err := db.initialize(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// initialize creates the schema and enforces the version check. A
// manifest written by a newer tool is refused rather than misread.
func (db *DB) initialize() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value INTEGER
		);
		CREATE TABLE IF NOT EXISTS entries (
			path TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			hash TEXT NOT NULL,
			size INTEGER NOT NULL,
			installed_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_entries_kind ON entries(kind);
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
	`)
	if err != nil {
		return err
	}

	var version int
	err = db.QueryRow(`SELECT value FROM meta WHERE key = 'version'`).Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		_, err = db.Exec(`INSERT INTO meta (key, value) VALUES ('version', ?)`, schemaVersion)
		return err
	case err != nil:
		return err
	case version > schemaVersion:
		return fmt.Errorf("manifest at %s has version %d, written by a newer modsync; use that version to uninstall first", db.path, version)
	}
	return nil
}

// Root returns the managed root directory.
func (db *DB) Root() string { return db.root }

// Path returns the database file location.
func (db *DB) Path() string { return db.path }

// Record inserts or replaces one tracked entry.
func (db *DB) Record(entry Entry) error {
	_, err := db.Exec(`
		INSERT OR REPLACE INTO entries (path, kind, hash, size)
		VALUES (?, ?, ?, ?)
	`, entry.Path, entry.Kind, entry.Hash, entry.Size)
	return err
}

// RecordBatch inserts or replaces entries in a single transaction.
func (db *DB) RecordBatch(entries []Entry) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO entries (path, kind, hash, size)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.Exec(entry.Path, entry.Kind, entry.Hash, entry.Size); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Forget drops one tracked entry.
func (db *DB) Forget(path string) error {
	_, err := db.Exec(`DELETE FROM entries WHERE path = ?`, path)
	return err
}

// Entries returns all tracked entries ordered by path.
func (db *DB) Entries() ([]Entry, error) {
	rows, err := db.Query(`SELECT path, kind, hash, size FROM entries ORDER BY path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.Path, &entry.Kind, &entry.Hash, &entry.Size); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Empty reports whether nothing is tracked.
func (db *DB) Empty() (bool, error) {
	var count int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM entries`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

// Unmodified returns the tracked files whose on-disk content still
// matches the hash recorded at install time, keyed by relative path.
func (db *DB) Unmodified() (map[string]string, error) {
	entries, err := db.Entries()
	if err != nil {
		return nil, err
	}

	unmodified := make(map[string]string)
	for _, entry := range entries {
		if entry.Kind != "file" {
			continue
		}
		hash, err := HashFile(filepath.Join(db.root, filepath.FromSlash(entry.Path)))
		if err != nil {
			continue // missing or unreadable: treat as modified
		}
		if hash == entry.Hash {
			unmodified[entry.Path] = hash
		}
	}
	return unmodified, nil
}

// Stats summarizes the tracked state against the current disk contents.
func (db *DB) Stats() (*models.Stats, error) {
	entries, err := db.Entries()
	if err != nil {
		return nil, err
	}

	var stats models.Stats
	for _, entry := range entries {
		if entry.Kind == "dir" {
			stats.TrackedDirs++
			continue
		}
		stats.TrackedFiles++
		stats.TrackedSize += entry.Size

		full := filepath.Join(db.root, filepath.FromSlash(entry.Path))
		if _, err := os.Stat(full); err != nil {
			stats.MissingFiles++
			continue
		}
		hash, err := HashFile(full)
		if err == nil && hash == entry.Hash {
			stats.UnmodifiedFiles++
			stats.UnmodifiedSize += entry.Size
		} else {
			stats.ModifiedFiles++
			stats.ModifiedSize += entry.Size
		}
	}
	return &stats, nil
}

// HashFile returns the content hash of a file in "sha1:<hex>" form.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := sha1.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha1:%x", hasher.Sum(nil)), nil
}
