// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kertas/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversions (
		id TEXT PRIMARY KEY,
		source_id TEXT NOT NULL,
		source_name TEXT NOT NULL,
		media_type TEXT,
		title TEXT,
		paragraphs INTEGER NOT NULL DEFAULT 0,
		pages INTEGER NOT NULL DEFAULT 0,
		extracted_text TEXT,
		paragraph_texts TEXT,
		output_path TEXT,
		state TEXT NOT NULL,
		failure_kind TEXT,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_conversions_created_at ON conversions(created_at);
	CREATE INDEX IF NOT EXISTS idx_conversions_source_state ON conversions(source_id, state);
	`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	return addMissingColumns(db, "conversions", map[string]string{
		"paragraph_texts": "TEXT",
	})
}

// addMissingColumns brings databases created by older builds up to the current schema.
func addMissingColumns(db *sql.DB, table string, columns map[string]string) error {
	rows, err := db.Query(`SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return err
	}
	have := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return err
		}
		have[name] = true
	}
	if err := rows.Close(); err != nil {
		return err
	}
	for name, typ := range columns {
		if have[name] {
			continue
		}
		if _, err := db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, name, typ)); err != nil {
			return fmt.Errorf("add column %s: %w", name, err)
		}
	}
	return nil
}

func encodeParagraphs(ps []string) (sql.NullString, error) {
	if ps == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(ps)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode paragraphs: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

const conversionColumns = `id, source_id, source_name, media_type, title, paragraphs, pages,
	extracted_text, paragraph_texts, output_path, state, failure_kind, error, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversion(row rowScanner) (*models.ConversionRecord, error) {
	var rec models.ConversionRecord
	var mediaType, title, text, paragraphs, outputPath, failureKind, errMsg sql.NullString
	if err := row.Scan(
		&rec.ID, &rec.SourceID, &rec.SourceName, &mediaType, &title, &rec.Paragraphs, &rec.Pages,
		&text, &paragraphs, &outputPath, &rec.State, &failureKind, &errMsg, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if paragraphs.Valid {
		if err := json.Unmarshal([]byte(paragraphs.String), &rec.ParagraphTexts); err != nil {
			return nil, fmt.Errorf("decode paragraphs of %s: %w", rec.ID, err)
		}
	}
	rec.MediaType = mediaType.String
	rec.Title = title.String
	rec.ExtractedText = text.String
	rec.OutputPath = outputPath.String
	rec.FailureKind = models.FailureKind(failureKind.String)
	rec.Error = errMsg.String
	return &rec, nil
}

// CreateConversion inserts a conversion record.
func (s *SQLiteStorage) CreateConversion(ctx context.Context, rec *models.ConversionRecord) error {
	paragraphs, err := encodeParagraphs(rec.ParagraphTexts)
	if err != nil {
		return err
	}
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversions (`+conversionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SourceID, rec.SourceName, rec.MediaType, rec.Title, rec.Paragraphs, rec.Pages,
		rec.ExtractedText, paragraphs, rec.OutputPath, rec.State, string(rec.FailureKind), rec.Error,
		rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

// GetConversion returns a conversion record by ID.
func (s *SQLiteStorage) GetConversion(ctx context.Context, id string) (*models.ConversionRecord, error) {
	rec, err := scanConversion(s.db.QueryRowContext(ctx,
		`SELECT `+conversionColumns+` FROM conversions WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateConversion updates an existing conversion record.
func (s *SQLiteStorage) UpdateConversion(ctx context.Context, rec *models.ConversionRecord) error {
	paragraphs, err := encodeParagraphs(rec.ParagraphTexts)
	if err != nil {
		return err
	}
	rec.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx,
		`UPDATE conversions SET source_id = ?, source_name = ?, media_type = ?, title = ?,
		 paragraphs = ?, pages = ?, extracted_text = ?, paragraph_texts = ?, output_path = ?, state = ?,
		 failure_kind = ?, error = ?, updated_at = ?
		 WHERE id = ?`,
		rec.SourceID, rec.SourceName, rec.MediaType, rec.Title,
		rec.Paragraphs, rec.Pages, rec.ExtractedText, paragraphs, rec.OutputPath, rec.State,
		string(rec.FailureKind), rec.Error, rec.UpdatedAt, rec.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, rec.ID)
	}
	return nil
}

// DeleteConversion removes a conversion record by ID. Deleting a missing record is not an error.
func (s *SQLiteStorage) DeleteConversion(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM conversions WHERE id = ?`, id)
	return err
}

// ListConversions returns conversion records, newest first, with offset and limit.
func (s *SQLiteStorage) ListConversions(ctx context.Context, offset, limit int) ([]*models.ConversionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+conversionColumns+`
		 FROM conversions ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.ConversionRecord
	for rows.Next() {
		rec, err := scanConversion(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// FindReadyBySourceID returns the newest ready conversion of sourceID.
func (s *SQLiteStorage) FindReadyBySourceID(ctx context.Context, sourceID string) (*models.ConversionRecord, error) {
	rec, err := scanConversion(s.db.QueryRowContext(ctx,
		`SELECT `+conversionColumns+`
		 FROM conversions WHERE source_id = ? AND state = ?
		 ORDER BY updated_at DESC LIMIT 1`,
		sourceID, models.StateReady,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: source %s", ErrNotFound, sourceID)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// CountConversions returns the total number of conversion records.
func (s *SQLiteStorage) CountConversions(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversions`).Scan(&count)
	return count, err
}

// CountByState returns the number of conversion records in each state.
func (s *SQLiteStorage) CountByState(ctx context.Context) (map[models.ConversionState]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(*) FROM conversions GROUP BY state`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.ConversionState]int64)
	for rows.Next() {
		var state models.ConversionState
		var n int64
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[state] = n
	}
	return counts, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
