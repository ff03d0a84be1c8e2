package db

import (
	"beatrender/types"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-sqlite3"
)

type SQLiteClient struct {
	db *sql.DB
}

func NewSQLiteClient(dbPath string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	err = createTables(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating tables: %w", err)
	}
	return &SQLiteClient{db: db}, nil
}

func (db *SQLiteClient) Close() error {
	if db.db != nil {
		return db.db.Close()
	}
	return nil
}

// createTables creates the required tables if they don't exist
func createTables(db *sql.DB) error {
	createRendersTable := `
    CREATE TABLE IF NOT EXISTS renders (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        title TEXT NOT NULL,
        owner TEXT NOT NULL,
        path TEXT NOT NULL UNIQUE,
        bytes INTEGER NOT NULL,
        bpm INTEGER NOT NULL,
        steps INTEGER NOT NULL,
        createdAt INTEGER NOT NULL
    );
    `

	createOwnerIndex := `
    CREATE INDEX IF NOT EXISTS idx_renders_owner ON renders (owner, createdAt);
    `

	_, err := db.Exec(createRendersTable)
	if err != nil {
		return fmt.Errorf("error creating renders table: %w", err)
	}

	_, err = db.Exec(createOwnerIndex)
	if err != nil {
		return fmt.Errorf("error creating owner index: %w", err)
	}

	return nil
}

func (db *SQLiteClient) AddRender(rec types.RenderRecord) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	result, err := db.db.Exec(
		"INSERT INTO renders (title, owner, path, bytes, bpm, steps, createdAt) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rec.Title, rec.Owner, rec.Path, rec.Bytes, rec.BPM, rec.Steps, rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return 0, fmt.Errorf("render at %s already catalogued: %w", rec.Path, err)
		}
		return 0, fmt.Errorf("error adding render: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("error getting render ID: %w", err)
	}
	return id, nil
}

// ListRenders returns renders newest first. An empty owner lists everyone's.
func (db *SQLiteClient) ListRenders(owner string) ([]types.RenderRecord, error) {
	query := "SELECT id, title, owner, path, bytes, bpm, steps, createdAt FROM renders"
	var args []any
	if owner != "" {
		query += " WHERE owner = ?"
		args = append(args, owner)
	}
	query += " ORDER BY createdAt DESC, id DESC"

	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying renders: %w", err)
	}
	defer rows.Close()

	var records []types.RenderRecord
	for rows.Next() {
		rec, err := scanRender(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (db *SQLiteClient) GetRender(id int64) (types.RenderRecord, bool, error) {
	row := db.db.QueryRow("SELECT id, title, owner, path, bytes, bpm, steps, createdAt FROM renders WHERE id = ?", id)
	rec, err := scanRender(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.RenderRecord{}, false, nil
		}
		return types.RenderRecord{}, false, err
	}
	return rec, true, nil
}

func (db *SQLiteClient) DeleteRender(id int64) error {
	_, err := db.db.Exec("DELETE FROM renders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("error deleting render: %w", err)
	}
	return nil
}

// CleanupMissingFiles drops catalogue rows whose file no longer exists.
func (db *SQLiteClient) CleanupMissingFiles() (int64, error) {
	records, err := db.ListRenders("")
	if err != nil {
		return 0, err
	}

	tx, err := db.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("error starting transaction: %w", err)
	}
	stmt, err := tx.Prepare("DELETE FROM renders WHERE id = ?")
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close()

	var removed int64
	for _, rec := range records {
		if _, err := os.Stat(rec.Path); !os.IsNotExist(err) {
			continue
		}
		if _, err := stmt.Exec(rec.ID); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("error executing statement: %w", err)
		}
		removed++
	}

	return removed, tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRender(s scanner) (types.RenderRecord, error) {
	var rec types.RenderRecord
	var createdMs int64
	if err := s.Scan(&rec.ID, &rec.Title, &rec.Owner, &rec.Path, &rec.Bytes, &rec.BPM, &rec.Steps, &createdMs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("error scanning render: %w", err)
	}
	rec.CreatedAt = time.UnixMilli(createdMs)
	return rec, nil
}
