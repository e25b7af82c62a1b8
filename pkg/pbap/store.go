package pbap

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/bthost-project/bthost-go/pkg/device"
)

// Contact is one downloaded phonebook entry.
type Contact struct {
	Handle string
	Name   string
	Number string
}

// Store provides SQLite persistence for downloaded phonebooks.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewStore creates a store with the given database path.
// Use ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`
		PRAGMA foreign_keys = ON;
		PRAGMA journal_mode = WAL;
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	s := &Store{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return s, nil
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS contacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		device TEXT NOT NULL,
		handle TEXT NOT NULL,
		name TEXT,
		number TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(device, handle)
	);

	CREATE INDEX IF NOT EXISTS idx_contacts_device ON contacts(device);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveBatch stores one page of contacts for a device. Re-downloaded
// handles overwrite the previous entry.
func (s *Store) SaveBatch(addr device.Address, contacts []Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO contacts (device, handle, name, number)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(device, handle) DO UPDATE SET name = excluded.name, number = excluded.number
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range contacts {
		if _, err := stmt.Exec(addr.String(), c.Handle, c.Name, c.Number); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ContactCount returns the number of stored contacts for a device.
func (s *Store) ContactCount(addr device.Address) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM contacts WHERE device = ?
	`, addr.String()).Scan(&count)
	return count, err
}

// Contacts returns all stored contacts for a device, ordered by handle.
func (s *Store) Contacts(addr device.Address) ([]Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT handle, name, number FROM contacts
		WHERE device = ? ORDER BY handle
	`, addr.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []Contact
	for rows.Next() {
		var c Contact
		var name, number sql.NullString
		if err := rows.Scan(&c.Handle, &name, &number); err != nil {
			return nil, err
		}
		c.Name = name.String
		c.Number = number.String
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// DeleteDevice removes all stored contacts for a device.
func (s *Store) DeleteDevice(addr device.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM contacts WHERE device = ?`, addr.String())
	return err
}
