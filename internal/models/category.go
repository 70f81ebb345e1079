// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxLevel is the deepest level a category may occupy. Roots are level 1.
const MaxLevel = 3

// CategoryStatus controls whether a category shows up in catalogue listings.
type CategoryStatus string

const (
	CategoryStatusDraft    CategoryStatus = "draft"
	CategoryStatusActive   CategoryStatus = "active"
	CategoryStatusInactive CategoryStatus = "inactive"
)

// AllCategoryStatuses lists every known status in display order.
var AllCategoryStatuses = []CategoryStatus{
	CategoryStatusDraft,
	CategoryStatusActive,
	CategoryStatusInactive,
}

// ParseCategoryStatus converts a case-insensitive string into a CategoryStatus.
func ParseCategoryStatus(s string) (CategoryStatus, error) {
	st := CategoryStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllCategoryStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown category status %q", s)
}

// Category is a node in the product taxonomy. Only the parent edge is
// stored; children are derived per read from the flat set.
type Category struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Status       CategoryStatus `json:"status"`
	Level        int            `json:"level"`
	ParentID     *uuid.UUID     `json:"parent_id"`
	ThumbnailKey *string        `json:"thumbnail_key,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

// HasParent reports whether id is the category's current parent.
func (c *Category) HasParent(id uuid.UUID) bool {
	return c.ParentID != nil && *c.ParentID == id
}

// Summary returns the short form handed back after mutations.
func (c *Category) Summary() CategorySummary {
	return CategorySummary{
		ID:     c.ID,
		Name:   c.Name,
		Status: c.Status,
		Level:  c.Level,
	}
}

// CategorySummary is the compact view of a category.
type CategorySummary struct {
	ID     uuid.UUID      `json:"id"`
	Name   string         `json:"name"`
	Status CategoryStatus `json:"status"`
	Level  int            `json:"level"`
}

// CategoryDetail is one rendered node of the catalogue forest.
type CategoryDetail struct {
	ID           uuid.UUID        `json:"id"`
	Name         string           `json:"name"`
	Status       CategoryStatus   `json:"status"`
	Level        int              `json:"level"`
	ThumbnailKey *string          `json:"thumbnail_key,omitempty"`
	ThumbnailURL string           `json:"thumbnail_url,omitempty"`
	Children     []CategoryDetail `json:"children"`
}
