// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/hyperjump/parts/internal/models"
)

const partColumns = `id, name, sku, description, weight_ounces, is_active, created_at, updated_at`

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
	CREATE TABLE IF NOT EXISTS parts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		sku TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		weight_ounces INTEGER NOT NULL DEFAULT 0 CHECK (weight_ounces >= 0),
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_parts_name_created ON parts(name, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_parts_is_active ON parts(is_active);
	`
	_, err := db.Exec(schema)
	return err
}

// CreatePart inserts a part. CreatedAt is set when zero; UpdatedAt is left unset.
func (s *SQLiteStorage) CreatePart(ctx context.Context, part *models.Part) error {
	if part.CreatedAt.IsZero() {
		part.CreatedAt = time.Now().UTC()
	}
	part.UpdatedAt = nil

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO parts (id, name, sku, description, weight_ounces, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		part.ID, part.Name, part.SKU, part.Description, part.WeightOunces, part.IsActive, part.CreatedAt,
	)
	return translateError(err)
}

// GetPart returns a part by ID.
func (s *SQLiteStorage) GetPart(ctx context.Context, id string) (*models.Part, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+partColumns+` FROM parts WHERE id = ?`, id)
	part, err := scanPart(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	return part, err
}

// GetPartBySKU returns a part by its SKU.
func (s *SQLiteStorage) GetPartBySKU(ctx context.Context, sku string) (*models.Part, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+partColumns+` FROM parts WHERE sku = ?`, sku)
	part, err := scanPart(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: sku %s", ErrNotFound, sku)
	}
	return part, err
}

// UpdatePart replaces the mutable fields of an existing part and sets UpdatedAt to now.
// CreatedAt is reloaded from the database so callers see the stored value.
func (s *SQLiteStorage) UpdatePart(ctx context.Context, part *models.Part) error {
	now := time.Now().UTC()

	result, err := s.db.ExecContext(ctx,
		`UPDATE parts SET name = ?, sku = ?, description = ?, weight_ounces = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		part.Name, part.SKU, part.Description, part.WeightOunces, part.IsActive, now, part.ID,
	)
	if err != nil {
		return translateError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %s", ErrNotFound, part.ID)
	}
	part.UpdatedAt = &now

	var created time.Time
	if err := s.db.QueryRowContext(ctx, `SELECT created_at FROM parts WHERE id = ?`, part.ID).Scan(&created); err != nil {
		return fmt.Errorf("reload created_at: %w", err)
	}
	part.CreatedAt = created
	return nil
}

// DeletePart removes a part by ID.
func (s *SQLiteStorage) DeletePart(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM parts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %s", ErrNotFound, id)
	}
	return nil
}

// ListParts returns parts matching filter with offset and limit.
func (s *SQLiteStorage) ListParts(ctx context.Context, filter *models.ListFilter, offset, limit int) ([]*models.Part, error) {
	where, args := buildWhere(filter)
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit, offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+partColumns+` FROM parts`+where+`
		 ORDER BY name ASC, created_at DESC LIMIT ? OFFSET ?`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parts := make([]*models.Part, 0)
	for rows.Next() {
		part, err := scanPart(rows)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	return parts, rows.Err()
}

// CountParts returns the number of parts matching filter.
func (s *SQLiteStorage) CountParts(ctx context.Context, filter *models.ListFilter) (int64, error) {
	where, args := buildWhere(filter)
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parts`+where, args...).Scan(&count)
	return count, err
}

// Descriptions returns the descriptions of parts matching filter.
func (s *SQLiteStorage) Descriptions(ctx context.Context, filter *models.ListFilter) ([]string, error) {
	where, args := buildWhere(filter)
	rows, err := s.db.QueryContext(ctx,
		`SELECT description FROM parts`+where+` ORDER BY name ASC, created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPart(row rowScanner) (*models.Part, error) {
	var part models.Part
	var updated sql.NullTime
	if err := row.Scan(&part.ID, &part.Name, &part.SKU, &part.Description,
		&part.WeightOunces, &part.IsActive, &part.CreatedAt, &updated); err != nil {
		return nil, err
	}
	if updated.Valid {
		t := updated.Time
		part.UpdatedAt = &t
	}
	return &part, nil
}

// buildWhere renders filter as a WHERE clause (with leading space) and its arguments.
func buildWhere(filter *models.ListFilter) (string, []any) {
	if filter == nil {
		return "", nil
	}
	var conds []string
	var args []any
	if filter.Name != "" {
		conds = append(conds, `name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(filter.Name)+"%")
	}
	if filter.SKU != "" {
		conds = append(conds, `sku LIKE ? ESCAPE '\'`)
		args = append(args, escapeLike(filter.SKU)+"%")
	}
	if filter.IsActive != nil {
		conds = append(conds, `is_active = ?`)
		args = append(args, *filter.IsActive)
	}
	if filter.MinWeight != nil {
		conds = append(conds, `weight_ounces >= ?`)
		args = append(args, *filter.MinWeight)
	}
	if filter.MaxWeight != nil {
		conds = append(conds, `weight_ounces <= ?`)
		args = append(args, *filter.MaxWeight)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// translateError maps SQLite constraint errors to storage sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%w: %v", ErrDuplicateSKU, err)
	}
	return err
}
