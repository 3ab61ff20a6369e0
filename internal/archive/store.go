// Package archive is the interpreter's library-archive reader/writer: a
// restricted, read-mostly store of named compiled units. Spec §6 places
// the archive *format* out of scope as an external collaborator, but the
// interpreter needs something concrete to load named units from; this
// plays the teacher's never-wired modernc.org/sqlite transitive
// dependency against that need (internal/vm/vm_test.go's sibling fixtures
// load units from in-memory literals — we give the same idea a durable,
// indexed home instead of a hand-rolled binary format).
package archive

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS units (
	name       TEXT PRIMARY KEY,
	entry      INTEGER NOT NULL,
	build_id   TEXT NOT NULL,
	blob       BLOB NOT NULL,
	created_at TEXT NOT NULL
);`

// Store is a sqlite-backed table of named unit blobs. The blob itself is
// opaque to this package — whatever encoding the loader that produced it
// uses (spec §6's compiler is out of scope here; this is scaffolding for
// that format, not a reimplementation of it).
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a sqlite archive file at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying sqlite connection.
func (s *Store) Close() error { return s.db.Close() }

// Record is one archived unit's metadata plus its opaque blob.
type Record struct {
	Name      string
	Entry     int
	BuildID   string
	Blob      []byte
	CreatedAt time.Time
}

// Put stores or replaces a unit's blob under name, stamping a fresh
// build-id (spec's archive is out of scope on exact versioning semantics;
// a UUID per Put gives stll-style build identity for free, per
// SPEC_FULL.md's domain-stack wiring for github.com/google/uuid).
func (s *Store) Put(name string, entry int, blob []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO units(name, entry, build_id, blob, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			entry=excluded.entry, build_id=excluded.build_id,
			blob=excluded.blob, created_at=excluded.created_at`,
		name, entry, uuid.New().String(), blob, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("archive: put %s: %w", name, err)
	}
	return nil
}

// Get fetches a named unit's record, ok=false if no such unit is archived.
func (s *Store) Get(name string) (rec Record, ok bool, err error) {
	row := s.db.QueryRow(`SELECT name, entry, build_id, blob, created_at FROM units WHERE name = ?`, name)
	var created string
	if err := row.Scan(&rec.Name, &rec.Entry, &rec.BuildID, &rec.Blob, &created); err != nil {
		if err == sql.ErrNoRows {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("archive: get %s: %w", name, err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return rec, true, nil
}

// List returns every archived unit's metadata (no blob), for stll-style
// `stll -list` directory listings.
func (s *Store) List() ([]Record, error) {
	rows, err := s.db.Query(`SELECT name, entry, build_id, created_at FROM units ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("archive: list: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var created string
		if err := rows.Scan(&rec.Name, &rec.Entry, &rec.BuildID, &created); err != nil {
			return nil, fmt.Errorf("archive: list: %w", err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}
