// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"

	"github.com/meshwork/meshwork/internal/observability"
	"github.com/meshwork/meshwork/internal/social"
)

// ResourceService is the slice of the generic resource service the HTTP
// layer consumes, one instance per kind.
type ResourceService interface {
	Kind() social.Kind
	Create(ctx context.Context, ownerID ulid.ULID, parentID *ulid.ULID, fields social.Fields) (*social.Resource, error)
	Get(ctx context.Context, id ulid.ULID) (*social.Resource, error)
	ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]*social.Resource, error)
	ListByParent(ctx context.Context, parentID ulid.ULID, page, pageSize int) (*social.Page, error)
	Update(ctx context.Context, id ulid.ULID, patch social.Fields, principalID ulid.ULID) (*social.Resource, error)
	Remove(ctx context.Context, id ulid.ULID, principalID ulid.ULID) (*social.Resource, error)
}

// Reactor is the reaction upsert surface.
type Reactor interface {
	React(ctx context.Context, principalID, postID ulid.ULID, status string) (*social.Resource, error)
	ForPost(ctx context.Context, principalID, postID ulid.ULID) (*social.Resource, error)
}

// resourceBody is the public JSON shape of a resource.
type resourceBody struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	OwnerID   string        `json:"owner_id"`
	ParentID  string        `json:"parent_id,omitempty"`
	Fields    social.Fields `json:"fields"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func newResourceBody(res *social.Resource) resourceBody {
	body := resourceBody{
		ID:        res.ID.String(),
		Kind:      string(res.Kind),
		OwnerID:   res.OwnerID.String(),
		Fields:    res.Fields,
		CreatedAt: res.CreatedAt,
		UpdatedAt: res.UpdatedAt,
	}
	if res.ParentID != nil {
		body.ParentID = res.ParentID.String()
	}
	return body
}

func newResourceBodies(items []*social.Resource) []resourceBody {
	bodies := make([]resourceBody, 0, len(items))
	for _, res := range items {
		bodies = append(bodies, newResourceBody(res))
	}
	return bodies
}

// pageBody is one page of resources plus pagination metadata.
type pageBody struct {
	Data []resourceBody `json:"data"`
	Meta metaBody       `json:"meta"`
}

type metaBody struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

// resourceHandlers serves one resource kind. parentVar names the route
// variable carrying the parent ID for kinds created under a parent route
// (comments under posts); parentField names the optional body field
// carrying it instead (skills referencing an experience).
type resourceHandlers struct {
	svc         ResourceService
	logger      *slog.Logger
	metrics     *observability.Metrics
	parentVar   string
	parentField string
}

func (h *resourceHandlers) create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := PrincipalID(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}

	var fields social.Fields
	if !decodeBody(w, r, &fields) {
		return
	}
	if fields == nil {
		fields = social.Fields{}
	}

	var parentID *ulid.ULID
	if h.parentVar != "" {
		id, ok := pathULID(w, mux.Vars(r)[h.parentVar])
		if !ok {
			return
		}
		parentID = &id
	} else if h.parentField != "" {
		if raw, present := fields[h.parentField]; present {
			str, _ := raw.(string)
			id, err := ulid.Parse(str)
			if err != nil {
				respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id", Field: h.parentField})
				return
			}
			delete(fields, h.parentField)
			parentID = &id
		}
	}

	res, err := h.svc.Create(r.Context(), ownerID, parentID, fields)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ResourcesCreatedTotal.WithLabelValues(string(h.svc.Kind())).Inc()
	}
	respondJSON(w, http.StatusCreated, newResourceBody(res))
}

func (h *resourceHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathULID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	res, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(w, http.StatusOK, newResourceBody(res))
}

func (h *resourceHandlers) listByOwner(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := pathULID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	items, err := h.svc.ListByOwner(r.Context(), ownerID)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(w, http.StatusOK, newResourceBodies(items))
}

func (h *resourceHandlers) listByParent(w http.ResponseWriter, r *http.Request) {
	parentID, ok := pathULID(w, mux.Vars(r)[h.parentVar])
	if !ok {
		return
	}

	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "page_size", social.DefaultPageSize)

	result, err := h.svc.ListByParent(r.Context(), parentID, page, pageSize)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(w, http.StatusOK, pageBody{
		Data: newResourceBodies(result.Data),
		Meta: metaBody{
			Total:    result.Meta.Total,
			Page:     result.Meta.Page,
			PageSize: result.Meta.PageSize,
		},
	})
}

func (h *resourceHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathULID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	principalID, ok := PrincipalID(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}

	var patch social.Fields
	if !decodeBody(w, r, &patch) {
		return
	}

	res, err := h.svc.Update(r.Context(), id, patch, principalID)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(w, http.StatusOK, newResourceBody(res))
}

func (h *resourceHandlers) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathULID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	principalID, ok := PrincipalID(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}

	res, err := h.svc.Remove(r.Context(), id, principalID)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(w, http.StatusOK, newResourceBody(res))
}

// reactionHandlers serves the reaction upsert and lookup endpoints.
type reactionHandlers struct {
	reactions Reactor
	logger    *slog.Logger
	metrics   *observability.Metrics
}

func (h *reactionHandlers) react(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathULID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	principalID, ok := PrincipalID(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	res, err := h.reactions.React(r.Context(), principalID, postID, body.Status)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ResourcesCreatedTotal.WithLabelValues(string(social.KindReaction)).Inc()
	}
	respondJSON(w, http.StatusOK, newResourceBody(res))
}

func (h *reactionHandlers) forPost(w http.ResponseWriter, r *http.Request) {
	postID, ok := pathULID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	principalID, ok := PrincipalID(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}

	res, err := h.reactions.ForPost(r.Context(), principalID, postID)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(w, http.StatusOK, newResourceBody(res))
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
