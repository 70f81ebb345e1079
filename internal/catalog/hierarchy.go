// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import (
	"github.com/google/uuid"

	"taxonomy/internal/models"
)

// move is one pending parent assignment on the cascade worklist.
type move struct {
	cat    *models.Category
	parent *models.Category
}

// assignParent computes the result of placing cat (and its subtree, as known
// to ix) under parent. Nothing in ix is modified: the returned slice holds
// fresh copies of every category whose parent or level changes, with cat
// itself first. Depth checks run before any copy is produced.
func assignParent(op string, ix *Index, parent, cat *models.Category) ([]*models.Category, error) {
	if parent.Level >= models.MaxLevel {
		return nil, newError(KindLevelOutOfRange, op, MsgParentAtMaxLevel)
	}
	if !canHaveParent(ix, parent, cat) {
		return nil, newError(KindLevelOutOfRange, op, MsgSubtreeTooDeep)
	}

	var changed []*models.Category
	stack := []move{{cat: cat, parent: parent}}
	for len(stack) > 0 {
		m := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if m.parent.Level >= models.MaxLevel {
			return nil, newError(KindLevelOutOfRange, op, MsgParentAtMaxLevel)
		}

		updated := *m.cat
		parentID := m.parent.ID
		updated.ParentID = &parentID
		updated.Level = m.parent.Level + 1

		if m.cat == cat || updated.Level != m.cat.Level {
			changed = append(changed, &updated)
		}

		kids := ix.Children(m.cat.ID)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, move{cat: kids[i], parent: &updated})
		}
	}
	return changed, nil
}

// canHaveParent reports whether cat's subtree still fits under parent.
//
// For a root moved under another root this is the "no grandchildren" rule:
// the root drops to level 2, its children to level 3, and any grandchild
// would land on level 4. The same height check is applied to non-root
// categories, so moving a level-2 category with children under another
// level-2 category is rejected here instead of slipping through.
func canHaveParent(ix *Index, parent, cat *models.Category) bool {
	return parent.Level+ix.Height(cat.ID) <= models.MaxLevel
}

// checkCycle walks up from parentID and fails if catID is one of its
// ancestors (or parentID itself). The walk is bounded by MaxLevel hops.
func checkCycle(op string, ix *Index, catID, parentID uuid.UUID) error {
	cur := ix.Get(parentID)
	for hops := 0; cur != nil; hops++ {
		if cur.ID == catID {
			return newError(KindCyclicMapping, op, MsgDescendantParent)
		}
		if hops >= models.MaxLevel {
			return newError(KindOther, op, MsgCorruptHierarchy)
		}
		if cur.ParentID == nil {
			return nil
		}
		cur = ix.Get(*cur.ParentID)
	}
	return nil
}
