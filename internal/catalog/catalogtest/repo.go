// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package catalogtest provides an in-memory catalog.Store for tests. It
// counts storage calls so tests can assert how often the store was hit.
package catalogtest

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"taxonomy/internal/catalog"
	"taxonomy/internal/models"
)

// Counts records how many times each storage method was called.
type Counts struct {
	FindByID int
	FindAll  int
	Save     int
}

// Repo is an in-memory catalog.Store. Transactions snapshot the data and
// restore it when the callback fails.
type Repo struct {
	mu     sync.Mutex
	items  map[uuid.UUID]models.Category
	order  []uuid.UUID
	counts Counts

	failSaveAt int // 1-based Save call that fails; 0 disables
	failErr    error
}

var _ catalog.Store = (*Repo)(nil)

// New returns an empty Repo.
func New() *Repo {
	return &Repo{items: make(map[uuid.UUID]models.Category)}
}

// Seed stores a category named name under parent (nil for a root) with the
// level derived from parent, bypassing all hierarchy checks and counters.
func (r *Repo) Seed(name string, status models.CategoryStatus, parent *models.Category) models.Category {
	c := models.Category{
		ID:     uuid.New(),
		Name:   name,
		Status: status,
		Level:  1,
	}
	if parent != nil {
		pid := parent.ID
		c.ParentID = &pid
		c.Level = parent.Level + 1
	}
	r.Put(c)
	return c
}

// Put stores c as-is, bypassing counters.
func (r *Repo) Put(c models.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(c)
}

// Get returns the stored copy of id.
func (r *Repo) Get(id uuid.UUID) (models.Category, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	return c, ok
}

// All returns every stored category in insertion order, bypassing counters.
func (r *Repo) All() []models.Category {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.all()
}

// Counts returns the storage calls made so far.
func (r *Repo) Counts() Counts {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts
}

// ResetCounts zeroes the call counters.
func (r *Repo) ResetCounts() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = Counts{}
}

// FailSave makes the n-th Save call from now on return err.
func (r *Repo) FailSave(n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failSaveAt = r.counts.Save + n
	r.failErr = err
}

// FindByID implements catalog.Repository.
func (r *Repo) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts.FindByID++
	c, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// FindAll implements catalog.Repository.
func (r *Repo) FindAll(_ context.Context) ([]models.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts.FindAll++
	return r.all(), nil
}

// Save implements catalog.Repository.
func (r *Repo) Save(_ context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts.Save++
	if r.failSaveAt != 0 && r.counts.Save == r.failSaveAt {
		r.failSaveAt = 0
		return r.failErr
	}

	now := time.Now()
	if prev, ok := r.items[c.ID]; ok {
		c.CreatedAt = prev.CreatedAt
	} else {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	r.put(*c)
	return nil
}

// InTx implements catalog.TxRunner.
func (r *Repo) InTx(_ context.Context, fn func(repo catalog.Repository) error) error {
	r.mu.Lock()
	items := make(map[uuid.UUID]models.Category, len(r.items))
	for id, c := range r.items {
		items[id] = c
	}
	order := append([]uuid.UUID(nil), r.order...)
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.items = items
		r.order = order
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *Repo) put(c models.Category) {
	if _, ok := r.items[c.ID]; !ok {
		r.order = append(r.order, c.ID)
	}
	r.items[c.ID] = c
}

func (r *Repo) all() []models.Category {
	out := make([]models.Category, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out
}
