// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package catalog

import "errors"

// Kind classifies a hierarchy error so callers can map it to a response.
type Kind int

const (
	KindOther Kind = iota
	KindNotFound
	KindCyclicMapping
	KindLevelOutOfRange
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindCyclicMapping:
		return "cyclic_mapping"
	case KindLevelOutOfRange:
		return "level_out_of_range"
	case KindInvalid:
		return "invalid"
	default:
		return "other"
	}
}

// Messages returned with hierarchy rejections.
const (
	MsgSelfParent       = "a category cannot be its own parent"
	MsgDescendantParent = "the requested parent is a descendant of the category being moved"
	MsgParentAtMaxLevel = "a level-3 category cannot have descendants"
	MsgSubtreeTooDeep   = "category already has two levels of descendants and cannot be reparented"
	MsgCategoryNotFound = "category not found"
	MsgParentNotFound   = "parent category not found"
	MsgNameRequired     = "category name is required"
	MsgUnknownStatus    = "unknown category status"
	MsgCorruptHierarchy = "stored hierarchy exceeds the maximum depth"
)

// Error is a named hierarchy failure. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Msg
	}
	return e.Op + ": " + e.Msg
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// holds for every not-found failure regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Msg == "" || t.Msg == e.Msg
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound        = &Error{Kind: KindNotFound}
	ErrCyclicMapping   = &Error{Kind: KindCyclicMapping}
	ErrLevelOutOfRange = &Error{Kind: KindLevelOutOfRange}
	ErrInvalid         = &Error{Kind: KindInvalid}

	ErrCategoryNotFound = &Error{Kind: KindNotFound, Msg: MsgCategoryNotFound}
	ErrParentNotFound   = &Error{Kind: KindNotFound, Msg: MsgParentNotFound}
)

// KindOf returns the Kind of err, or KindOther when err is not a hierarchy error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

func newError(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}
