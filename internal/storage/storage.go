// Package storage keeps batch conversion results in SQLite. The same
// database holds the source tables whose HTML columns are converted.
package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cast"
)

var (
	ErrNotFound          = errors.New("conversion not found")
	ErrInvalidIdentifier = errors.New("invalid SQL identifier")
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Source is one row of HTML waiting to be converted. HTML is invalid when
// the column is NULL.
type Source struct {
	ID   string
	HTML sql.NullString
}

// SourceQuery names the table and columns to read sources from.
type SourceQuery struct {
	Table      string
	IDColumn   string
	HTMLColumn string
	// Limit caps the number of rows; 0 reads them all.
	Limit int
}

// Conversion is the stored Markdown for one source row and engine.
type Conversion struct {
	SourceTable string    `json:"source_table"`
	SourceID    string    `json:"source_id"`
	Engine      string    `json:"engine"`
	Markdown    string    `json:"markdown"`
	Checksum    string    `json:"checksum"`
	ConvertedAt time.Time `json:"converted_at"`
}

// Storage manages the SQLite database.
type Storage struct {
	db *sql.DB
}

// Open creates or opens the database at path and migrates the schema.
func Open(path string) (*Storage, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Storage{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle, mainly for seeding source tables.
func (s *Storage) DB() *sql.DB {
	return s.db
}

func (s *Storage) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS markdown_conversions (
		source_table TEXT NOT NULL,
		source_id TEXT NOT NULL,
		engine TEXT NOT NULL,
		markdown TEXT NOT NULL,
		checksum TEXT NOT NULL,
		converted_at TEXT NOT NULL,
		PRIMARY KEY (source_table, source_id, engine)
	);`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func quoteIdentifier(name string) (string, error) {
	if !identifierRe.MatchString(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return `"` + name + `"`, nil
}

// ListSources reads the id and HTML columns of q.Table in rowid order.
func (s *Storage) ListSources(ctx context.Context, q SourceQuery) ([]Source, error) {
	table, err := quoteIdentifier(q.Table)
	if err != nil {
		return nil, err
	}
	idCol, err := quoteIdentifier(q.IDColumn)
	if err != nil {
		return nil, err
	}
	htmlCol, err := quoteIdentifier(q.HTMLColumn)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s, %s FROM %s ORDER BY rowid", idCol, htmlCol, table)
	args := []any{}
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var id any
		var src Source
		if err := rows.Scan(&id, &src.HTML); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		src.ID = cast.ToString(id)
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	return sources, nil
}

// UpsertConversion stores c, replacing any previous result for the same
// source row and engine. An empty checksum is computed from the Markdown
// and a zero ConvertedAt is set to now.
func (s *Storage) UpsertConversion(ctx context.Context, c *Conversion) error {
	if c.Checksum == "" {
		c.Checksum = Checksum(c.Markdown)
	}
	if c.ConvertedAt.IsZero() {
		c.ConvertedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO markdown_conversions (source_table, source_id, engine, markdown, checksum, converted_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_table, source_id, engine) DO UPDATE SET
			markdown = excluded.markdown,
			checksum = excluded.checksum,
			converted_at = excluded.converted_at`,
		c.SourceTable, c.SourceID, c.Engine, c.Markdown, c.Checksum, c.ConvertedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to upsert conversion: %w", err)
	}
	return nil
}

// GetConversion returns the stored result for one source row and engine.
func (s *Storage) GetConversion(ctx context.Context, table, id, engine string) (*Conversion, error) {
	c := &Conversion{SourceTable: table, SourceID: id, Engine: engine}
	var convertedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT markdown, checksum, converted_at FROM markdown_conversions
		WHERE source_table = ? AND source_id = ? AND engine = ?`,
		table, id, engine).Scan(&c.Markdown, &c.Checksum, &convertedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversion: %w", err)
	}

	c.ConvertedAt, err = time.Parse(time.RFC3339Nano, convertedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid converted_at %q: %w", convertedAt, err)
	}
	return c, nil
}

// CountConversions returns how many results are stored for table.
func (s *Storage) CountConversions(ctx context.Context, table string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM markdown_conversions WHERE source_table = ?`, table).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count conversions: %w", err)
	}
	return n, nil
}

// Checksum returns the hex SHA-256 of markdown.
func Checksum(markdown string) string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(markdown)))
}
