// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// tree.go composes the category forest from the flat result of a single
// bulk read. The parent -> children index replaces a live bidirectional
// object graph; only the parent edge is ever stored.
package catalog

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"taxonomy/internal/models"
)

// StatusSet is the set of statuses a listing is allowed to show.
type StatusSet map[models.CategoryStatus]struct{}

// NewStatusSet builds a StatusSet from the given statuses.
func NewStatusSet(statuses ...models.CategoryStatus) StatusSet {
	set := make(StatusSet, len(statuses))
	for _, st := range statuses {
		set[st] = struct{}{}
	}
	return set
}

// Has reports whether st is allowed.
func (s StatusSet) Has(st models.CategoryStatus) bool {
	_, ok := s[st]
	return ok
}

// Key returns a stable string for the set, used as a cache key.
func (s StatusSet) Key() string {
	keys := make([]string, 0, len(s))
	for st := range s {
		keys = append(keys, string(st))
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

// Index is an in-memory view of the hierarchy built once per read.
type Index struct {
	byID     map[uuid.UUID]*models.Category
	children map[uuid.UUID][]*models.Category
	roots    []*models.Category
}

// BuildIndex groups a flat category list by parent. Input order is kept
// for roots and for each sibling list. Categories whose parent is not in
// the list are indexed by ID but never reached from a root.
func BuildIndex(flat []models.Category) *Index {
	ix := &Index{
		byID:     make(map[uuid.UUID]*models.Category, len(flat)),
		children: make(map[uuid.UUID][]*models.Category),
	}
	for i := range flat {
		c := &flat[i]
		ix.byID[c.ID] = c
		if c.ParentID == nil {
			ix.roots = append(ix.roots, c)
			continue
		}
		ix.children[*c.ParentID] = append(ix.children[*c.ParentID], c)
	}
	return ix
}

// Len returns the number of indexed categories.
func (ix *Index) Len() int {
	return len(ix.byID)
}

// Get returns the category with the given ID, or nil.
func (ix *Index) Get(id uuid.UUID) *models.Category {
	return ix.byID[id]
}

// Roots returns the parentless categories.
func (ix *Index) Roots() []*models.Category {
	return ix.roots
}

// Children returns the immediate children of id.
func (ix *Index) Children(id uuid.UUID) []*models.Category {
	return ix.children[id]
}

// Height returns how many levels the subtree rooted at id spans, counting
// id itself. An unknown or childless id has height 1. Counting stops once
// the result exceeds MaxLevel, which also bounds the walk on corrupt data.
func (ix *Index) Height(id uuid.UUID) int {
	return ix.height(id, 1)
}

func (ix *Index) height(id uuid.UUID, depth int) int {
	best := 1
	if depth > models.MaxLevel {
		return best
	}
	for _, child := range ix.children[id] {
		if h := 1 + ix.height(child.ID, depth+1); h > best {
			best = h
		}
	}
	return best
}

// Render returns the forest of categories whose whole root-to-node path is
// in allowed. A disallowed node is dropped together with its subtree; its
// children are never inspected.
func (ix *Index) Render(allowed StatusSet) []models.CategoryDetail {
	forest := make([]models.CategoryDetail, 0, len(ix.roots))
	for _, root := range ix.roots {
		if d, ok := ix.render(root, allowed); ok {
			forest = append(forest, d)
		}
	}
	return forest
}

func (ix *Index) render(c *models.Category, allowed StatusSet) (models.CategoryDetail, bool) {
	if !allowed.Has(c.Status) {
		return models.CategoryDetail{}, false
	}
	kids := ix.children[c.ID]
	d := models.CategoryDetail{
		ID:           c.ID,
		Name:         c.Name,
		Status:       c.Status,
		Level:        c.Level,
		ThumbnailKey: c.ThumbnailKey,
		Children:     make([]models.CategoryDetail, 0, len(kids)),
	}
	for _, child := range kids {
		if cd, ok := ix.render(child, allowed); ok {
			d.Children = append(d.Children, cd)
		}
	}
	return d, true
}
