// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxonomy/internal/catalog"
	"taxonomy/internal/catalog/catalogtest"
	"taxonomy/internal/models"
)

// fakeCache records catalogue cache traffic in memory. Like the Valkey
// cache, invalidation only moves to a new generation.
type fakeCache struct {
	gen         int64
	entries     map[string][]models.CategoryDetail
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string][]models.CategoryDetail)}
}

func (c *fakeCache) Generation(context.Context) (int64, bool) {
	return c.gen, true
}

func (c *fakeCache) Get(_ context.Context, gen int64, key string) ([]models.CategoryDetail, bool) {
	f, ok := c.entries[fmt.Sprintf("%d:%s", gen, key)]
	return f, ok
}

func (c *fakeCache) Set(_ context.Context, gen int64, key string, forest []models.CategoryDetail) {
	c.entries[fmt.Sprintf("%d:%s", gen, key)] = forest
}

func (c *fakeCache) Invalidate(context.Context) {
	c.gen++
	c.invalidated++
}

// hookRepo runs onFindAll once, right after the first bulk read returns,
// to interleave a mutation with an in-flight listing.
type hookRepo struct {
	*catalogtest.Repo
	onFindAll func()
}

func (r *hookRepo) FindAll(ctx context.Context) ([]models.Category, error) {
	all, err := r.Repo.FindAll(ctx)
	if hook := r.onFindAll; hook != nil {
		r.onFindAll = nil
		hook()
	}
	return all, err
}

// fakeThumbs resolves keys to a fixed CDN prefix.
type fakeThumbs struct{}

func (fakeThumbs) ThumbnailURL(_ context.Context, key string) (string, error) {
	if strings.HasPrefix(key, "broken/") {
		return "", errors.New("presign failed")
	}
	return "https://cdn.example.test/" + key, nil
}

// assertInvariants checks level correctness, the depth bound and acyclicity
// over everything stored in repo.
func assertInvariants(t *testing.T, repo *catalogtest.Repo) {
	t.Helper()
	all := repo.All()
	byID := make(map[uuid.UUID]models.Category, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	for _, c := range all {
		assert.LessOrEqual(t, c.Level, models.MaxLevel, "level bound for %s", c.Name)
		if c.ParentID == nil {
			assert.Equal(t, 1, c.Level, "root %s must be level 1", c.Name)
			continue
		}
		parent, ok := byID[*c.ParentID]
		if assert.True(t, ok, "parent of %s must exist", c.Name) {
			assert.Equal(t, parent.Level+1, c.Level, "level of %s", c.Name)
		}

		seen := map[uuid.UUID]bool{c.ID: true}
		cur := c
		for cur.ParentID != nil {
			next, ok := byID[*cur.ParentID]
			if !ok {
				break
			}
			if !assert.False(t, seen[next.ID], "cycle through %s", c.Name) {
				break
			}
			seen[next.ID] = true
			cur = next
		}
	}
}

func TestCreateRoot(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	svc := catalog.NewService(repo, nil, nil)

	id, err := svc.Create(ctx, "  Electronics ", nil)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	c, ok := repo.Get(id)
	require.True(t, ok)
	assert.Equal(t, "Electronics", c.Name)
	assert.Equal(t, models.CategoryStatusDraft, c.Status)
	assert.Equal(t, 1, c.Level)
	assert.Nil(t, c.ParentID)
	assert.False(t, c.CreatedAt.IsZero())
}

func TestCreateUnderParent(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	svc := catalog.NewService(repo, nil, nil)

	root := repo.Seed("Electronics", models.CategoryStatusActive, nil)
	mid := repo.Seed("Phones", models.CategoryStatusActive, &root)

	id, err := svc.Create(ctx, "Smartphones", &mid.ID)
	require.NoError(t, err)

	c, _ := repo.Get(id)
	assert.Equal(t, 3, c.Level)
	require.NotNil(t, c.ParentID)
	assert.Equal(t, mid.ID, *c.ParentID)
	assertInvariants(t, repo)
}

func TestCreateRejections(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	svc := catalog.NewService(repo, nil, nil)

	root := repo.Seed("A", models.CategoryStatusActive, nil)
	mid := repo.Seed("B", models.CategoryStatusActive, &root)
	leaf := repo.Seed("C", models.CategoryStatusActive, &mid)
	missing := uuid.New()

	tests := []struct {
		name     string
		catName  string
		parentID *uuid.UUID
		kind     catalog.Kind
	}{
		{name: "empty name", catName: "   ", kind: catalog.KindInvalid},
		{name: "name too long", catName: strings.Repeat("x", catalog.MaxNameLen+1), kind: catalog.KindInvalid},
		{name: "missing parent", catName: "X", parentID: &missing, kind: catalog.KindNotFound},
		{name: "level three parent", catName: "X", parentID: &leaf.ID, kind: catalog.KindLevelOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(repo.All())
			_, err := svc.Create(ctx, tt.catName, tt.parentID)
			require.Error(t, err)
			assert.Equal(t, tt.kind, catalog.KindOf(err))
			assert.Len(t, repo.All(), before)
		})
	}

	_, err := svc.Create(ctx, "X", &missing)
	assert.True(t, errors.Is(err, catalog.ErrParentNotFound))
}

func TestReparentCascadesLevels(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	cache := newFakeCache()
	svc := catalog.NewService(repo, cache, nil)

	a := repo.Seed("A", models.CategoryStatusActive, nil)
	b := repo.Seed("B", models.CategoryStatusActive, &a)
	d := repo.Seed("D", models.CategoryStatusActive, nil)

	summary, err := svc.Reparent(ctx, a.ID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CategorySummary{ID: a.ID, Name: "A", Status: models.CategoryStatusActive, Level: 2}, summary)

	gotA, _ := repo.Get(a.ID)
	gotB, _ := repo.Get(b.ID)
	assert.Equal(t, 2, gotA.Level)
	require.NotNil(t, gotA.ParentID)
	assert.Equal(t, d.ID, *gotA.ParentID)
	assert.Equal(t, 3, gotB.Level)
	assert.Equal(t, 1, cache.invalidated)
	assertInvariants(t, repo)
}

func TestReparentRejectsGrandchildOverflow(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	svc := catalog.NewService(repo, nil, nil)

	a := repo.Seed("A", models.CategoryStatusActive, nil)
	b := repo.Seed("B", models.CategoryStatusActive, &a)
	repo.Seed("C", models.CategoryStatusActive, &b)
	d := repo.Seed("D", models.CategoryStatusActive, nil)
	before := repo.All()
	repo.ResetCounts()

	_, err := svc.Reparent(ctx, a.ID, d.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrLevelOutOfRange))
	assert.Contains(t, err.Error(), catalog.MsgSubtreeTooDeep)

	assert.Equal(t, before, repo.All())
	assert.Zero(t, repo.Counts().Save)
}

func TestReparentNonRootSubtreeOverflow(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	svc := catalog.NewService(repo, nil, nil)

	a := repo.Seed("A", models.CategoryStatusActive, nil)
	b := repo.Seed("B", models.CategoryStatusActive, &a)
	repo.Seed("C", models.CategoryStatusActive, &b)
	x := repo.Seed("X", models.CategoryStatusActive, nil)
	y := repo.Seed("Y", models.CategoryStatusActive, &x)

	// B sits at level 2 with a child; under Y (level 2) the child would be level 4.
	_, err := svc.Reparent(ctx, b.ID, y.ID)
	require.Error(t, err)
	assert.Equal(t, catalog.KindLevelOutOfRange, catalog.KindOf(err))

	// Under X (level 1) it fits.
	summary, err := svc.Reparent(ctx, b.ID, x.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Level)
	assertInvariants(t, repo)
}

func TestReparentRejectsLevelThreeParent(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	svc := catalog.NewService(repo, nil, nil)

	a := repo.Seed("A", models.CategoryStatusActive, nil)
	b := repo.Seed("B", models.CategoryStatusActive, &a)
	c := repo.Seed("C", models.CategoryStatusActive, &b)
	x := repo.Seed("X", models.CategoryStatusActive, nil)

	_, err := svc.Reparent(ctx, x.ID, c.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, catalog.ErrLevelOutOfRange))
	assert.Contains(t, err.Error(), catalog.MsgParentAtMaxLevel)
}

func TestReparentSelfIsCyclic(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	svc := catalog.NewService(repo, nil, nil)

	a := repo.Seed("A", models.CategoryStatusActive, nil)
	b := repo.Seed("B", models.CategoryStatusActive, &a)

	for _, id := range []uuid.UUID{a.ID, b.ID, uuid.New()} {
		_, err := svc.Reparent(ctx, id, id)
		require.Error(t, err)
		assert.True(t, errors.Is(err, catalog.ErrCyclicMapping))
		assert.Contains(t, err.Error(), catalog.MsgSelfParent)
	}
	assert.Zero(t, repo.Counts().Save)
}

func TestReparentUnderDescendantIsCyclic(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	svc := catalog.NewService(repo, nil, nil)

	a := repo.Seed("A", models.CategoryStatusActive, nil)
	b := repo.Seed("B", models.CategoryStatusActive, &a)
	c := repo.Seed("C", models.CategoryStatusActive, &b)

	for _, target := range []uuid.UUID{b.ID, c.ID} {
		_, err := svc.Reparent(ctx, a.ID, target)
		require.Error(t, err)
		assert.True(t, errors.Is(err, catalog.ErrCyclicMapping))
		assert.Contains(t, err.Error(), catalog.MsgDescendantParent)
	}
	assert.Zero(t, repo.Counts().Save)
}

func TestReparentToCurrentParentIsNoop(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	cache := newFakeCache()
	svc := catalog.NewService(repo, cache, nil)

	a := repo.Seed("A", models.CategoryStatusActive, nil)
	b := repo.Seed("B", models.CategoryStatusDraft, &a)
	repo.ResetCounts()

	summary, err := svc.Reparent(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Summary(), summary)
	assert.Zero(t, repo.Counts().Save)
	assert.Zero(t, repo.Counts().FindAll)
	assert.Zero(t, cache.invalidated)
}

func TestReparentNotFound(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	svc := catalog.NewService(repo, nil, nil)

	a := repo.Seed("A", models.CategoryStatusActive, nil)

	_, err := svc.Reparent(ctx, uuid.New(), a.ID)
	assert.True(t, errors.Is(err, catalog.ErrCategoryNotFound))

	_, err = svc.Reparent(ctx, a.ID, uuid.New())
	assert.True(t, errors.Is(err, catalog.ErrParentNotFound))
	assert.True(t, errors.Is(err, catalog.ErrNotFound))
}

func TestReparentRollsBackOnSaveFailure(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	cache := newFakeCache()
	svc := catalog.NewService(repo, cache, nil)

	a := repo.Seed("A", models.CategoryStatusActive, nil)
	repo.Seed("B", models.CategoryStatusActive, &a)
	d := repo.Seed("D", models.CategoryStatusActive, nil)
	before := repo.All()

	boom := errors.New("disk full")
	repo.FailSave(2, boom)

	_, err := svc.Reparent(ctx, a.ID, d.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, before, repo.All(), "first save must be rolled back")
	assert.Zero(t, cache.invalidated)
}

func TestListCatalogueSingleBulkRead(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	svc := catalog.NewService(repo, nil, nil)

	for i := 0; i < 5; i++ {
		root := repo.Seed("root", models.CategoryStatusActive, nil)
		for j := 0; j < 4; j++ {
			mid := repo.Seed("mid", models.CategoryStatusActive, &root)
			for k := 0; k < 3; k++ {
				repo.Seed("leaf", models.CategoryStatusActive, &mid)
			}
		}
	}
	repo.ResetCounts()

	forest, err := svc.ListCatalogue(ctx, catalog.NewStatusSet(models.CategoryStatusActive))
	require.NoError(t, err)
	assert.Len(t, forest, 5)
	assert.Equal(t, catalogtest.Counts{FindAll: 1}, repo.Counts())
}

func TestListCataloguePruning(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	svc := catalog.NewService(repo, nil, nil)

	a := repo.Seed("A", models.CategoryStatusActive, nil)
	b := repo.Seed("B", models.CategoryStatusDraft, &a)
	repo.Seed("C", models.CategoryStatusActive, &b)

	forest, err := svc.ListCatalogue(ctx, catalog.NewStatusSet(models.CategoryStatusActive))
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, "A", forest[0].Name)
	assert.Empty(t, forest[0].Children)
}

func TestListCatalogueUsesCache(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	cache := newFakeCache()
	svc := catalog.NewService(repo, cache, nil)

	repo.Seed("A", models.CategoryStatusActive, nil)
	active := catalog.NewStatusSet(models.CategoryStatusActive)

	_, err := svc.ListCatalogue(ctx, active)
	require.NoError(t, err)
	_, err = svc.ListCatalogue(ctx, active)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Counts().FindAll)

	_, err = svc.Create(ctx, "B", nil)
	require.NoError(t, err)

	_, err = svc.ListCatalogue(ctx, active)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.Counts().FindAll)
}

func TestListCatalogueRacingReparentIsNotCached(t *testing.T) {
	ctx := context.Background()
	repo := &hookRepo{Repo: catalogtest.New()}
	cache := newFakeCache()
	svc := catalog.NewService(repo, cache, nil)

	a := repo.Seed("A", models.CategoryStatusActive, nil)
	d := repo.Seed("D", models.CategoryStatusActive, nil)
	active := catalog.NewStatusSet(models.CategoryStatusActive)

	// The reparent commits while the listing holds the old snapshot.
	repo.onFindAll = func() {
		_, err := svc.Reparent(ctx, a.ID, d.ID)
		require.NoError(t, err)
	}
	stale, err := svc.ListCatalogue(ctx, active)
	require.NoError(t, err)
	assert.Len(t, stale, 2, "the in-flight listing still sees its own snapshot")

	stored, _ := repo.Get(a.ID)
	require.Equal(t, 2, stored.Level)

	forest, err := svc.ListCatalogue(ctx, active)
	require.NoError(t, err)
	require.Len(t, forest, 1, "a listing after the commit must not see the pre-reparent forest")
	assert.Equal(t, "D", forest[0].Name)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "A", forest[0].Children[0].Name)
	assert.Equal(t, 2, forest[0].Children[0].Level)
}

func TestListCatalogueResolvesThumbnails(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	svc := catalog.NewService(repo, nil, fakeThumbs{})

	good := "categories/a.webp"
	bad := "broken/b.webp"
	a := repo.Seed("A", models.CategoryStatusActive, nil)
	a.ThumbnailKey = &good
	repo.Put(a)
	b := repo.Seed("B", models.CategoryStatusActive, &a)
	b.ThumbnailKey = &bad
	repo.Put(b)

	forest, err := svc.ListCatalogue(ctx, catalog.NewStatusSet(models.CategoryStatusActive))
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, "https://cdn.example.test/categories/a.webp", forest[0].ThumbnailURL)
	require.Len(t, forest[0].Children, 1)
	assert.Empty(t, forest[0].Children[0].ThumbnailURL)
}

func TestDerivePath(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	svc := catalog.NewService(repo, nil, nil)

	el := repo.Seed("Electronics", models.CategoryStatusActive, nil)
	ph := repo.Seed("Phones", models.CategoryStatusActive, &el)
	sp := repo.Seed("Smartphones", models.CategoryStatusActive, &ph)

	path, err := svc.DerivePath(ctx, sp.ID)
	require.NoError(t, err)
	assert.Equal(t, "Electronics/Phones/Smartphones", path)

	path, err = svc.DerivePath(ctx, el.ID)
	require.NoError(t, err)
	assert.Equal(t, "Electronics", path)

	_, err = svc.DerivePath(ctx, uuid.New())
	assert.True(t, errors.Is(err, catalog.ErrNotFound))

	path, err = catalog.DerivePath(ctx, repo.FindByID, nil)
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestLineage(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	svc := catalog.NewService(repo, nil, nil)

	el := repo.Seed("Electronics", models.CategoryStatusActive, nil)
	ph := repo.Seed("Phones", models.CategoryStatusActive, &el)

	repo.ResetCounts()
	names, err := svc.Lineage(ctx, ph.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Electronics", "Phones"}, names)
	assert.Equal(t, 2, repo.Counts().FindByID, "one lookup for the node and one per ancestor")

	// A dangling parent reference is reported, not silently truncated.
	orphanParent := uuid.New()
	orphan := models.Category{ID: uuid.New(), Name: "Orphan", Status: models.CategoryStatusActive, Level: 2, ParentID: &orphanParent}
	repo.Put(orphan)
	_, err = svc.Lineage(ctx, orphan.ID)
	assert.True(t, errors.Is(err, catalog.ErrParentNotFound))

	// A chain deeper than MaxLevel is corrupt.
	a := repo.Seed("a", models.CategoryStatusActive, nil)
	b := repo.Seed("b", models.CategoryStatusActive, &a)
	c := repo.Seed("c", models.CategoryStatusActive, &b)
	d := repo.Seed("d", models.CategoryStatusActive, &c)
	_, err = svc.DerivePath(ctx, d.ID)
	require.Error(t, err)
	assert.Equal(t, catalog.KindOther, catalog.KindOf(err))
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	svc := catalog.NewService(repo, nil, nil)

	a := repo.Seed("A", models.CategoryStatusInactive, nil)

	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Summary(), got)

	_, err = svc.Get(ctx, uuid.New())
	assert.Equal(t, catalog.KindNotFound, catalog.KindOf(err))
}

// TestRandomOperationsPreserveInvariants drives a random mix of creates and
// reparents and checks the hierarchy rules after every step.
func TestRandomOperationsPreserveInvariants(t *testing.T) {
	ctx := context.Background()
	repo := catalogtest.New()
	svc := catalog.NewService(repo, nil, nil)
	rng := rand.New(rand.NewSource(42))

	var ids []uuid.UUID
	for step := 0; step < 400; step++ {
		switch {
		case len(ids) < 3 || rng.Intn(3) == 0:
			var parent *uuid.UUID
			if len(ids) > 0 && rng.Intn(2) == 0 {
				p := ids[rng.Intn(len(ids))]
				parent = &p
			}
			id, err := svc.Create(ctx, "node", parent)
			if err == nil {
				ids = append(ids, id)
			} else {
				require.Equal(t, catalog.KindLevelOutOfRange, catalog.KindOf(err), "step %d: %v", step, err)
			}
		default:
			cat := ids[rng.Intn(len(ids))]
			parent := ids[rng.Intn(len(ids))]
			_, err := svc.Reparent(ctx, cat, parent)
			if err != nil {
				kind := catalog.KindOf(err)
				require.Contains(t, []catalog.Kind{catalog.KindCyclicMapping, catalog.KindLevelOutOfRange}, kind, "step %d: %v", step, err)
			}
		}
		assertInvariants(t, repo)
	}
}
