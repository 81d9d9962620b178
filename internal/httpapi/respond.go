// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/meshwork/meshwork/internal/auth"
	"github.com/meshwork/meshwork/internal/social"
	"github.com/meshwork/meshwork/pkg/errutil"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	//nolint:errcheck // response write error means client disconnected
	json.NewEncoder(w).Encode(v)
}

// respondError maps domain errors to HTTP statuses. Sentinel errors carry
// the outcome; anything unrecognized is an internal fault and yields an
// opaque 500 so store details never leak to clients.
func respondError(logger *slog.Logger, w http.ResponseWriter, err error) {
	var vErr *social.ValidationError
	switch {
	case errors.As(err, &vErr):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: vErr.Message, Field: vErr.Field})
	case errors.Is(err, auth.ErrInvalidInput):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials):
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
	case errors.Is(err, auth.ErrInvalidToken):
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid token"})
	case errors.Is(err, auth.ErrUnauthorized), errors.Is(err, social.ErrUnauthorized):
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	case errors.Is(err, social.ErrParentNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: "parent not found"})
	case errors.Is(err, auth.ErrNotFound), errors.Is(err, social.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, auth.ErrAlreadyExists):
		respondJSON(w, http.StatusConflict, errorBody{Error: "username or email already taken"})
	default:
		errutil.LogError(logger, "request failed", err)
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// decodeBody decodes a JSON request body into v, rejecting unknown and
// oversized payloads.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return false
	}
	return true
}

// pathULID parses a route variable as a ULID.
func pathULID(w http.ResponseWriter, raw string) (ulid.ULID, bool) {
	id, err := ulid.Parse(raw)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id"})
		return ulid.ULID{}, false
	}
	return id, true
}
