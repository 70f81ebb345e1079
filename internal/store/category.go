// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"taxonomy/internal/catalog"
	"taxonomy/internal/models"
)

// hierarchyLockKey is the advisory lock taken by every hierarchy
// transaction, so concurrent moves of overlapping subtrees run one at a time.
const hierarchyLockKey int64 = 0x74617861 // "taxa"

// querier is the subset of *sql.DB and *sql.Tx the store needs.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
	q  querier
}

var _ catalog.Store = (*CategoryStore)(nil)

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db, q: db}
}

const categoryColumns = `id, name, status, level, parent_id, thumbnail_key, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(
		&c.ID, &c.Name, &c.Status, &c.Level,
		&c.ParentID, &c.ThumbnailKey, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// FindAll returns every category in one query, siblings ordered by name.
func (s *CategoryStore) FindAll(ctx context.Context) ([]models.Category, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// Save inserts c or updates the existing row with the same ID, then
// refreshes the timestamps on c.
func (s *CategoryStore) Save(ctx context.Context, c *models.Category) error {
	row := s.q.QueryRowContext(ctx, `
		INSERT INTO categories (id, name, status, level, parent_id, thumbnail_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			status = EXCLUDED.status,
			level = EXCLUDED.level,
			parent_id = EXCLUDED.parent_id,
			thumbnail_key = EXCLUDED.thumbnail_key,
			updated_at = NOW()
		RETURNING created_at, updated_at`,
		c.ID, c.Name, string(c.Status), c.Level, c.ParentID, c.ThumbnailKey,
	)
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return fmt.Errorf("save category %s: %w", c.ID, err)
	}
	return nil
}

// Count returns the number of stored categories.
func (s *CategoryStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

// InTx runs fn inside a transaction holding the hierarchy advisory lock.
// The transaction commits only if fn returns nil.
func (s *CategoryStore) InTx(ctx context.Context, fn func(repo catalog.Repository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, hierarchyLockKey); err != nil {
		return fmt.Errorf("lock hierarchy: %w", err)
	}

	if err := fn(&CategoryStore{db: s.db, q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
