package history

import (
	"database/sql"
	"fmt"

	"github.com/shanehull/mikecast/internal/types"

	_ "modernc.org/sqlite"
)

const historySchema = `CREATE TABLE IF NOT EXISTS history (
	key         TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	url         TEXT NOT NULL DEFAULT '',
	source      TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	fingerprint TEXT NOT NULL DEFAULT '',
	first_seen  TEXT NOT NULL,
	last_seen   TEXT NOT NULL
)`

// SQLite persists the history in an embedded SQLite database. Save replaces
// the whole table in one transaction.
type SQLite struct {
	db   *sql.DB
	path string
}

func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history table: %w", err)
	}
	return &SQLite{db: db, path: path}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Location() string {
	return s.path
}

func (s *SQLite) Load() (map[string]*Entry, error) {
	rows, err := s.db.Query(`SELECT key, title, url, source, description, fingerprint, first_seen, last_seen FROM history`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]*Entry)
	for rows.Next() {
		var (
			e                   Entry
			firstSeen, lastSeen string
		)
		if err := rows.Scan(&e.Key, &e.Title, &e.URL, &e.Source, &e.Description, &e.Fingerprint, &firstSeen, &lastSeen); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		// Unparseable dates stay zero; Store.Load repairs or drops the row.
		e.FirstSeen, _ = types.ParseDate(firstSeen)
		e.LastSeen, _ = types.ParseDate(lastSeen)
		entries[e.Key] = &e
	}
	return entries, rows.Err()
}

func (s *SQLite) Save(entries map[string]*Entry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM history`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO history (key, title, url, source, description, fingerprint, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for key, e := range entries {
		if _, err := stmt.Exec(key, e.Title, e.URL, e.Source, e.Description, e.Fingerprint, e.FirstSeen.String(), e.LastSeen.String()); err != nil {
			return fmt.Errorf("insert %s: %w", key, err)
		}
	}
	return tx.Commit()
}
