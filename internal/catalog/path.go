// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"taxonomy/internal/models"
)

// PathSeparator joins category names in a breadcrumb path.
const PathSeparator = "/"

// FindFunc looks up a single category, returning (nil, nil) when absent.
type FindFunc func(ctx context.Context, id uuid.UUID) (*models.Category, error)

// DerivePath returns the root-to-node names of c joined by "/". A nil
// category yields "" and a root yields its own name.
func DerivePath(ctx context.Context, find FindFunc, c *models.Category) (string, error) {
	names, err := Lineage(ctx, find, c)
	if err != nil {
		return "", err
	}
	return strings.Join(names, PathSeparator), nil
}

// Lineage returns the names from the root down to c. Each ancestor costs
// one find call, so at most MaxLevel-1 lookups are made.
func Lineage(ctx context.Context, find FindFunc, c *models.Category) ([]string, error) {
	if c == nil {
		return nil, nil
	}
	names := []string{c.Name}
	for c.ParentID != nil {
		if len(names) >= models.MaxLevel {
			return nil, newError(KindOther, "derive path", MsgCorruptHierarchy)
		}
		parent, err := find(ctx, *c.ParentID)
		if err != nil {
			return nil, fmt.Errorf("derive path: find parent %s: %w", *c.ParentID, err)
		}
		if parent == nil {
			return nil, newError(KindNotFound, "derive path", MsgParentNotFound)
		}
		names = append(names, parent.Name)
		c = parent
	}
	slices.Reverse(names)
	return names, nil
}
