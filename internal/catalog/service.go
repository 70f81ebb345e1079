// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalog keeps the product category hierarchy consistent. It
// creates and reparents categories under the depth, cycle and level rules,
// renders the catalogue forest from one bulk read and derives breadcrumb
// paths. Storage is reached only through the Repository contract.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"taxonomy/internal/models"
)

// MaxNameLen is the longest category name accepted, in runes.
const MaxNameLen = 200

// CatalogueCache stores rendered forests keyed by generation and status set.
// Invalidate moves to a new generation; entries of older generations are
// never returned again.
type CatalogueCache interface {
	// Generation returns the current generation, or ok=false when the
	// cache is unavailable.
	Generation(ctx context.Context) (gen int64, ok bool)
	Get(ctx context.Context, gen int64, key string) ([]models.CategoryDetail, bool)
	Set(ctx context.Context, gen int64, key string, forest []models.CategoryDetail)
	Invalidate(ctx context.Context)
}

// ThumbnailResolver turns an opaque thumbnail key into a URL.
type ThumbnailResolver interface {
	ThumbnailURL(ctx context.Context, key string) (string, error)
}

// Service is the entry point for every hierarchy operation.
type Service struct {
	store  Store
	cache  CatalogueCache
	thumbs ThumbnailResolver
}

// NewService creates a Service. cache and thumbs may be nil.
func NewService(store Store, cache CatalogueCache, thumbs ThumbnailResolver) *Service {
	return &Service{store: store, cache: cache, thumbs: thumbs}
}

// Create adds a category named name, as a root or under parentID, and
// returns its new ID. New categories start as drafts.
func (s *Service) Create(ctx context.Context, name string, parentID *uuid.UUID) (uuid.UUID, error) {
	const op = "create category"

	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, newError(KindInvalid, op, MsgNameRequired)
	}
	if utf8.RuneCountInString(name) > MaxNameLen {
		return uuid.Nil, newError(KindInvalid, op, fmt.Sprintf("category name is too long (max %d characters)", MaxNameLen))
	}

	c := &models.Category{
		ID:     uuid.New(),
		Name:   name,
		Status: models.CategoryStatusDraft,
		Level:  1,
	}

	err := s.store.InTx(ctx, func(repo Repository) error {
		if parentID != nil {
			parent, err := repo.FindByID(ctx, *parentID)
			if err != nil {
				return fmt.Errorf("%s: find parent: %w", op, err)
			}
			if parent == nil {
				return newError(KindNotFound, op, MsgParentNotFound)
			}
			// A new category has no subtree, so an empty index is enough.
			changed, err := assignParent(op, BuildIndex(nil), parent, c)
			if err != nil {
				return err
			}
			c = changed[0]
		}
		if err := repo.Save(ctx, c); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.invalidate(ctx)
	slog.Info("category created", "id", c.ID, "name", c.Name, "level", c.Level, "parent_id", c.ParentID)
	return c.ID, nil
}

// Reparent moves categoryID under newParentID, renumbering the levels of
// the moved subtree. Every check runs before the first write and all writes
// share one transaction. Moving a category to its current parent is a no-op.
func (s *Service) Reparent(ctx context.Context, categoryID, newParentID uuid.UUID) (models.CategorySummary, error) {
	const op = "reparent category"

	if categoryID == newParentID {
		return models.CategorySummary{}, newError(KindCyclicMapping, op, MsgSelfParent)
	}

	var (
		summary models.CategorySummary
		written int
	)
	err := s.store.InTx(ctx, func(repo Repository) error {
		cat, err := repo.FindByID(ctx, categoryID)
		if err != nil {
			return fmt.Errorf("%s: find category: %w", op, err)
		}
		if cat == nil {
			return newError(KindNotFound, op, MsgCategoryNotFound)
		}
		if cat.HasParent(newParentID) {
			summary = cat.Summary()
			return nil
		}

		parent, err := repo.FindByID(ctx, newParentID)
		if err != nil {
			return fmt.Errorf("%s: find parent: %w", op, err)
		}
		if parent == nil {
			return newError(KindNotFound, op, MsgParentNotFound)
		}

		all, err := repo.FindAll(ctx)
		if err != nil {
			return fmt.Errorf("%s: load hierarchy: %w", op, err)
		}
		ix := BuildIndex(all)

		if err := checkCycle(op, ix, categoryID, newParentID); err != nil {
			return err
		}

		// Prefer the indexed copies so cascade and checks see one snapshot.
		if c := ix.Get(categoryID); c != nil {
			cat = c
		}
		if p := ix.Get(newParentID); p != nil {
			parent = p
		}

		changed, err := assignParent(op, ix, parent, cat)
		if err != nil {
			return err
		}
		for _, c := range changed {
			if err := repo.Save(ctx, c); err != nil {
				return fmt.Errorf("%s: save %s: %w", op, c.ID, err)
			}
		}
		written = len(changed)
		summary = changed[0].Summary()
		return nil
	})
	if err != nil {
		return models.CategorySummary{}, err
	}

	if written == 0 {
		slog.Debug("category already under requested parent", "id", categoryID, "parent_id", newParentID)
		return summary, nil
	}

	s.invalidate(ctx)
	slog.Info("category reparented",
		"id", categoryID,
		"parent_id", newParentID,
		"level", summary.Level,
		"updated", written,
	)
	return summary, nil
}

// ListCatalogue renders the forest of categories reachable from a root
// through allowed statuses only. At most one bulk read hits the store.
func (s *Service) ListCatalogue(ctx context.Context, allowed StatusSet) ([]models.CategoryDetail, error) {
	key := allowed.Key()

	// The generation is read before the bulk read, so a forest built from
	// data that a concurrent mutation has since replaced is filed under the
	// superseded generation.
	var (
		gen    int64
		cached bool
	)
	if s.cache != nil {
		gen, cached = s.cache.Generation(ctx)
	}
	if cached {
		if forest, ok := s.cache.Get(ctx, gen, key); ok {
			return forest, nil
		}
	}

	all, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalogue: %w", err)
	}
	forest := BuildIndex(all).Render(allowed)
	s.resolveThumbnails(ctx, forest)

	if cached {
		s.cache.Set(ctx, gen, key, forest)
	}
	return forest, nil
}

// Get returns the summary of a single category.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (models.CategorySummary, error) {
	c, err := s.find(ctx, "get category", id)
	if err != nil {
		return models.CategorySummary{}, err
	}
	return c.Summary(), nil
}

// DerivePath returns the "/"-joined names from the root down to id.
func (s *Service) DerivePath(ctx context.Context, id uuid.UUID) (string, error) {
	c, err := s.find(ctx, "derive path", id)
	if err != nil {
		return "", err
	}
	return DerivePath(ctx, s.store.FindByID, c)
}

// Lineage returns the names from the root down to id.
func (s *Service) Lineage(ctx context.Context, id uuid.UUID) ([]string, error) {
	c, err := s.find(ctx, "derive path", id)
	if err != nil {
		return nil, err
	}
	return Lineage(ctx, s.store.FindByID, c)
}

func (s *Service) find(ctx context.Context, op string, id uuid.UUID) (*models.Category, error) {
	c, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if c == nil {
		return nil, newError(KindNotFound, op, MsgCategoryNotFound)
	}
	return c, nil
}

// resolveThumbnails fills ThumbnailURL in place. Failures are logged and
// leave the URL empty.
func (s *Service) resolveThumbnails(ctx context.Context, forest []models.CategoryDetail) {
	if s.thumbs == nil {
		return
	}
	for i := range forest {
		d := &forest[i]
		if d.ThumbnailKey != nil && *d.ThumbnailKey != "" {
			url, err := s.thumbs.ThumbnailURL(ctx, *d.ThumbnailKey)
			if err != nil {
				slog.Warn("thumbnail url failed", "id", d.ID, "key", *d.ThumbnailKey, "error", err)
			} else {
				d.ThumbnailURL = url
			}
		}
		s.resolveThumbnails(ctx, d.Children)
	}
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
