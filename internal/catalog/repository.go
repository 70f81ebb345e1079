// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"

	"github.com/google/uuid"

	"taxonomy/internal/models"
)

// Repository is the storage contract the hierarchy engine consumes. It holds
// no hierarchy logic of its own.
type Repository interface {
	// FindByID returns the category or (nil, nil) if it does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)

	// FindAll returns every category in a single bulk read.
	FindAll(ctx context.Context) ([]models.Category, error)

	// Save inserts or updates c and refreshes its timestamps.
	Save(ctx context.Context, c *models.Category) error
}

// TxRunner runs fn against a Repository bound to one transaction. A non-nil
// error from fn rolls everything back.
type TxRunner interface {
	InTx(ctx context.Context, fn func(repo Repository) error) error
}

// Store is a Repository that can also open transactions.
type Store interface {
	Repository
	TxRunner
}
