package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// seedNode is one category of the development taxonomy.
type seedNode struct {
	name     string
	status   string
	children []seedNode
}

// devTaxonomy is inserted into an empty database in development mode.
var devTaxonomy = []seedNode{
	{name: "Electronics", status: "active", children: []seedNode{
		{name: "Phones", status: "active", children: []seedNode{
			{name: "Smartphones", status: "active"},
			{name: "Feature Phones", status: "inactive"},
		}},
		{name: "Televisions", status: "active"},
		{name: "Wearables", status: "draft", children: []seedNode{
			{name: "Smartwatches", status: "active"},
		}},
	}},
	{name: "Home & Garden", status: "active", children: []seedNode{
		{name: "Furniture", status: "active"},
	}},
	{name: "Seasonal", status: "draft"},
}

// Seed populates an empty categories table with a small development
// taxonomy. It is a no-op when any category already exists.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin tx: %w", err)
	}
	defer tx.Rollback()

	inserted := 0
	var insert func(nodes []seedNode, parentID *uuid.UUID, level int) error
	insert = func(nodes []seedNode, parentID *uuid.UUID, level int) error {
		for _, n := range nodes {
			id := uuid.New()
			_, err := tx.Exec(`
				INSERT INTO categories (id, name, status, level, parent_id)
				VALUES ($1, $2, $3, $4, $5)
			`, id, n.name, n.status, level, parentID)
			if err != nil {
				return fmt.Errorf("seed insert %q: %w", n.name, err)
			}
			inserted++
			if err := insert(n.children, &id, level+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := insert(devTaxonomy, nil, 1); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with development taxonomy", "categories", inserted)
	return nil
}
