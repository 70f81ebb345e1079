// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers exposes the category hierarchy over a JSON HTTP API.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"taxonomy/internal/catalog"
	"taxonomy/internal/models"
	"taxonomy/internal/slug"
)

// maxBodyBytes caps request bodies on write endpoints.
const maxBodyBytes = 1 << 20

// Categories groups the category API handlers.
type Categories struct {
	svc *catalog.Service
}

// NewCategories creates the Categories handler group.
func NewCategories(svc *catalog.Service) *Categories {
	return &Categories{svc: svc}
}

type createCategoryRequest struct {
	Name     string  `json:"name" validate:"required,max=200"`
	ParentID *string `json:"parent_id" validate:"omitempty,uuid_any"`
}

type reparentRequest struct {
	ParentID string `json:"parent_id" validate:"required,uuid_any"`
}

type idResponse struct {
	ID uuid.UUID `json:"id"`
}

type pathResponse struct {
	ID   uuid.UUID `json:"id"`
	Path string    `json:"path"`
	Slug string    `json:"slug"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// Create handles POST /api/categories.
func (h *Categories) Create(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	var parentID *uuid.UUID
	if req.ParentID != nil {
		id := uuid.MustParse(*req.ParentID) // already checked by the uuid_any tag
		parentID = &id
	}

	id, err := h.svc.Create(r.Context(), req.Name, parentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, idResponse{ID: id})
}

// Reparent handles PUT /api/categories/{id}/parent.
func (h *Categories) Reparent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req reparentRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	summary, err := h.svc.Reparent(r.Context(), id, uuid.MustParse(req.ParentID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// List handles GET /api/categories. The status query parameter is a
// comma-separated list of statuses to include and defaults to active.
func (h *Categories) List(w http.ResponseWriter, r *http.Request) {
	allowed, err := parseStatuses(r.URL.Query().Get("status"))
	if err != nil {
		writeInvalid(w, err.Error())
		return
	}

	forest, err := h.svc.ListCatalogue(r.Context(), allowed)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if forest == nil {
		forest = []models.CategoryDetail{}
	}
	writeJSON(w, http.StatusOK, forest)
}

// Get handles GET /api/categories/{id}.
func (h *Categories) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	summary, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Path handles GET /api/categories/{id}/path. The response carries the
// display path and its URL slug form.
func (h *Categories) Path(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	names, err := h.svc.Lineage(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pathResponse{
		ID:   id,
		Path: strings.Join(names, catalog.PathSeparator),
		Slug: slug.Path(names),
	})
}

// parseStatuses turns "active,draft" into a status set. Blank entries are
// ignored and an empty value selects active categories only.
func parseStatuses(raw string) (catalog.StatusSet, error) {
	var statuses []models.CategoryStatus
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		st, err := models.ParseCategoryStatus(part)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	if len(statuses) == 0 {
		statuses = append(statuses, models.CategoryStatusActive)
	}
	return catalog.NewStatusSet(statuses...), nil
}

// parseID reads the {id} URL parameter, answering 400 when it is not a UUID.
func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeInvalid(w, "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// decodeRequest reads a JSON body into dst and validates it. On failure it
// writes a 400 response and returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		writeInvalid(w, "request body must be valid JSON")
		return false
	}
	if msg := validateRequest(dst); msg != "" {
		writeInvalid(w, msg)
		return false
	}
	return true
}

// statusFor maps a hierarchy error kind to an HTTP status code.
func statusFor(kind catalog.Kind) int {
	switch kind {
	case catalog.KindNotFound:
		return http.StatusNotFound
	case catalog.KindCyclicMapping:
		return http.StatusConflict
	case catalog.KindLevelOutOfRange:
		return http.StatusUnprocessableEntity
	case catalog.KindInvalid:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the status matching err. Hierarchy rejections
// carry their message; anything else is logged and hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := catalog.KindOf(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		slog.Error("category request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimw.GetReqID(r.Context()),
			"error", err,
		)
		writeJSON(w, status, errorResponse{Error: "internal server error", Kind: kind.String()})
		return
	}

	msg := err.Error()
	var herr *catalog.Error
	if errors.As(err, &herr) {
		msg = herr.Msg
	}
	writeJSON(w, status, errorResponse{Error: msg, Kind: kind.String()})
}

func writeInvalid(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg, Kind: catalog.KindInvalid.String()})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
