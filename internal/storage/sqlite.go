// Package storage keeps a host-side record of every boot and the serial
// output it produced. Uses the pure-Go modernc.org/sqlite driver to avoid
// CGO dependencies. The kernel never reads any of it back.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrBootNotFound is returned when a boot ID has no record.
var ErrBootNotFound = errors.New("storage: boot not found")

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// BootRecord describes one power-on of the machine.
type BootRecord struct {
	ID          int64
	Display     string // e.g. "640x480 bgr/4"
	Difficulty  string
	Opponent    string
	StartedAt   time.Time
	EndedAt     time.Time // Zero while running or after a crash
	ExitReason  string    // "poweroff", a fatal fault, or empty
	SerialLines int
}

// SerialLine is one line captured from the serial port.
type SerialLine struct {
	BootID    int64
	Seq       int
	Text      string
	CreatedAt time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	// Open database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	// Run migrations
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS boots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			display TEXT NOT NULL,
			difficulty TEXT NOT NULL DEFAULT '',
			opponent TEXT NOT NULL DEFAULT '',
			started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			ended_at DATETIME,
			exit_reason TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS serial_lines (
			boot_id INTEGER NOT NULL REFERENCES boots(id),
			seq INTEGER NOT NULL,
			line TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (boot_id, seq)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// BeginBoot records a new boot and returns its ID.
func (s *Store) BeginBoot(rec BootRecord) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO boots (display, difficulty, opponent) VALUES (?, ?, ?)",
		rec.Display, rec.Difficulty, rec.Opponent,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot record boot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// EndBoot marks a boot as finished with the given reason.
func (s *Store) EndBoot(bootID int64, reason string) error {
	res, err := s.db.Exec(
		"UPDATE boots SET ended_at = CURRENT_TIMESTAMP, exit_reason = ? WHERE id = ?",
		reason, bootID,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot end boot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %d", ErrBootNotFound, bootID)
	}
	return nil
}

// AppendSerialLine stores one serial line for a boot.
func (s *Store) AppendSerialLine(bootID int64, seq int, line string) error {
	_, err := s.db.Exec(
		"INSERT INTO serial_lines (boot_id, seq, line) VALUES (?, ?, ?)",
		bootID, seq, line,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot append serial line: %w", err)
	}
	return nil
}

// SerialLines returns up to limit lines of a boot in order.
// A limit of zero or less returns every line.
func (s *Store) SerialLines(bootID int64, limit int) ([]SerialLine, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.Query(
		`SELECT boot_id, seq, line, created_at
		 FROM serial_lines
		 WHERE boot_id = ?
		 ORDER BY seq
		 LIMIT ?`,
		bootID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query serial lines: %w", err)
	}
	defer rows.Close()

	var lines []SerialLine
	for rows.Next() {
		var l SerialLine
		var createdAt any
		if err := rows.Scan(&l.BootID, &l.Seq, &l.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		l.CreatedAt = parseTime(createdAt)
		lines = append(lines, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return lines, nil
}

// Boot returns a single boot record.
func (s *Store) Boot(bootID int64) (*BootRecord, error) {
	row := s.db.QueryRow(bootQuery+" WHERE b.id = ? GROUP BY b.id", bootID)
	rec, err := scanBoot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrBootNotFound, bootID)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query boot: %w", err)
	}
	return rec, nil
}

// RecentBoots returns the most recent boots, newest first.
func (s *Store) RecentBoots(limit int) ([]BootRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(bootQuery+" GROUP BY b.id ORDER BY b.id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query boots: %w", err)
	}
	defer rows.Close()

	var boots []BootRecord
	for rows.Next() {
		rec, err := scanBoot(rows)
		if err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		boots = append(boots, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return boots, nil
}

// LatestBootID returns the ID of the most recent boot, or ErrBootNotFound
// when nothing has booted yet.
func (s *Store) LatestBootID() (int64, error) {
	var id sql.NullInt64
	if err := s.db.QueryRow("SELECT MAX(id) FROM boots").Scan(&id); err != nil {
		return 0, fmt.Errorf("storage: cannot query latest boot: %w", err)
	}
	if !id.Valid {
		return 0, ErrBootNotFound
	}
	return id.Int64, nil
}

// BootSink streams serial lines of one boot into the store.
type BootSink struct {
	store  *Store
	bootID int64
}

// Sink returns a line sink for bootID.
func (s *Store) Sink(bootID int64) *BootSink {
	return &BootSink{store: s, bootID: bootID}
}

// WriteLine stores the line.
func (b *BootSink) WriteLine(seq int, line string) error {
	return b.store.AppendSerialLine(b.bootID, seq, line)
}

const bootQuery = `
	SELECT b.id, b.display, b.difficulty, b.opponent, b.started_at, b.ended_at,
	       b.exit_reason, COUNT(l.seq)
	FROM boots b
	LEFT JOIN serial_lines l ON l.boot_id = b.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBoot(row rowScanner) (*BootRecord, error) {
	var rec BootRecord
	var startedAt, endedAt any
	if err := row.Scan(&rec.ID, &rec.Display, &rec.Difficulty, &rec.Opponent,
		&startedAt, &endedAt, &rec.ExitReason, &rec.SerialLines); err != nil {
		return nil, err
	}
	rec.StartedAt = parseTime(startedAt)
	rec.EndedAt = parseTime(endedAt)
	return &rec, nil
}

// parseTime handles both time.Time and string datetimes from the driver.
func parseTime(v any) time.Time {
	switch v := v.(type) {
	case time.Time:
		return v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
