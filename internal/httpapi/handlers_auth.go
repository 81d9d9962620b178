// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/oklog/ulid/v2"

	"github.com/meshwork/meshwork/internal/auth"
	"github.com/meshwork/meshwork/internal/observability"
)

// AccountService is the slice of the auth service the HTTP layer consumes.
type AccountService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.Principal, error)
	Login(ctx context.Context, login, password string) (*auth.Principal, string, error)
	Refresh(ctx context.Context, token string) (string, error)
	Get(ctx context.Context, id ulid.ULID) (*auth.Principal, error)
	Update(ctx context.Context, id ulid.ULID, patch auth.PrincipalPatch, actingID ulid.ULID) (*auth.Principal, error)
	Remove(ctx context.Context, id ulid.ULID, actingID ulid.ULID) (*auth.Principal, error)
	ChangePassword(ctx context.Context, id ulid.ULID, current, next string) error
}

// principalBody is the public JSON shape of a principal. The password hash
// is never serialized.
type principalBody struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Name       string    `json:"name,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	PictureURL string    `json:"picture_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func newPrincipalBody(p *auth.Principal) principalBody {
	return principalBody{
		ID:         p.ID.String(),
		Username:   p.Username,
		Email:      p.Email,
		Name:       p.Name,
		Bio:        p.Bio,
		PictureURL: p.PictureURL,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

type accountHandlers struct {
	accounts AccountService
	logger   *slog.Logger
	metrics  *observability.Metrics
}

func (h *accountHandlers) register(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
		Bio      string `json:"bio"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	principal, err := h.accounts.Register(r.Context(), auth.RegisterInput{
		Username: body.Username,
		Email:    body.Email,
		Password: body.Password,
		Name:     body.Name,
		Bio:      body.Bio,
	})
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newPrincipalBody(principal))
}

func (h *accountHandlers) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	principal, token, err := h.accounts.Login(r.Context(), body.Login, body.Password)
	if err != nil {
		if h.metrics != nil {
			h.metrics.LoginsTotal.WithLabelValues("failure").Inc()
		}
		respondError(h.logger, w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.LoginsTotal.WithLabelValues("success").Inc()
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  newPrincipalBody(principal),
	})
}

func (h *accountHandlers) refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	token, err := h.accounts.Refresh(r.Context(), body.Token)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *accountHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathULID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}

	principal, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(w, http.StatusOK, newPrincipalBody(principal))
}

func (h *accountHandlers) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathULID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	actingID, ok := PrincipalID(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}

	var patch auth.PrincipalPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	principal, err := h.accounts.Update(r.Context(), id, patch, actingID)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(w, http.StatusOK, newPrincipalBody(principal))
}

func (h *accountHandlers) remove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathULID(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	actingID, ok := PrincipalID(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}

	principal, err := h.accounts.Remove(r.Context(), id, actingID)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(w, http.StatusOK, newPrincipalBody(principal))
}

func (h *accountHandlers) changePassword(w http.ResponseWriter, r *http.Request) {
	actingID, ok := PrincipalID(r.Context())
	if !ok {
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}

	var body struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if !decodeBody(w, r, &body) {
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), actingID, body.CurrentPassword, body.NewPassword); err != nil {
		respondError(h.logger, w, err)
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
