// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

// Package httpapi exposes the Meshwork services over HTTP. Routing is
// gorilla/mux; mutations require a bearer token, reads are public.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/samber/oops"

	"github.com/meshwork/meshwork/internal/observability"
	"github.com/meshwork/meshwork/internal/social"
)

// Config holds the dependencies of the API router.
type Config struct {
	Accounts    AccountService
	Posts       ResourceService
	Comments    ResourceService
	Skills      ResourceService
	Experiences ResourceService
	Reactions   Reactor
	Verifier    TokenVerifier
	Logger      *slog.Logger
	// Metrics is optional; nil disables request metrics.
	Metrics *observability.Metrics
}

// New builds the API handler.
func New(cfg Config) (http.Handler, error) {
	if cfg.Accounts == nil {
		return nil, oops.Errorf("account service is required")
	}
	if cfg.Posts == nil || cfg.Comments == nil || cfg.Skills == nil || cfg.Experiences == nil {
		return nil, oops.Errorf("all resource services are required")
	}
	if cfg.Reactions == nil {
		return nil, oops.Errorf("reaction service is required")
	}
	if cfg.Verifier == nil {
		return nil, oops.Errorf("token verifier is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	accounts := &accountHandlers{accounts: cfg.Accounts, logger: logger, metrics: cfg.Metrics}
	posts := &resourceHandlers{svc: cfg.Posts, logger: logger, metrics: cfg.Metrics}
	comments := &resourceHandlers{svc: cfg.Comments, logger: logger, metrics: cfg.Metrics, parentVar: "id"}
	skills := &resourceHandlers{svc: cfg.Skills, logger: logger, metrics: cfg.Metrics, parentField: "experience_id"}
	experiences := &resourceHandlers{svc: cfg.Experiences, logger: logger, metrics: cfg.Metrics}
	reactions := &reactionHandlers{reactions: cfg.Reactions, logger: logger, metrics: cfg.Metrics}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(recordMetrics(cfg.Metrics))

	// Public routes.
	api.HandleFunc("/users", accounts.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", accounts.login).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", accounts.refresh).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", accounts.get).Methods(http.MethodGet)

	api.HandleFunc("/posts/{id}", posts.get).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/posts", posts.listByOwner).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id}/comments", comments.listByParent).Methods(http.MethodGet)
	api.HandleFunc("/comments/{id}", comments.get).Methods(http.MethodGet)
	api.HandleFunc("/experiences/{id}", experiences.get).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/experiences", experiences.listByOwner).Methods(http.MethodGet)
	api.HandleFunc("/skills/{id}", skills.get).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/skills", skills.listByOwner).Methods(http.MethodGet)

	// Authenticated routes.
	authed := api.NewRoute().Subrouter()
	authed.Use(requireAuth(cfg.Verifier))

	authed.HandleFunc("/auth/password", accounts.changePassword).Methods(http.MethodPost)
	authed.HandleFunc("/users/{id}", accounts.update).Methods(http.MethodPatch)
	authed.HandleFunc("/users/{id}", accounts.remove).Methods(http.MethodDelete)

	authed.HandleFunc("/posts", posts.create).Methods(http.MethodPost)
	authed.HandleFunc("/posts/{id}", posts.update).Methods(http.MethodPatch)
	authed.HandleFunc("/posts/{id}", posts.remove).Methods(http.MethodDelete)

	authed.HandleFunc("/posts/{id}/comments", comments.create).Methods(http.MethodPost)
	authed.HandleFunc("/comments/{id}", comments.update).Methods(http.MethodPatch)
	authed.HandleFunc("/comments/{id}", comments.remove).Methods(http.MethodDelete)

	authed.HandleFunc("/posts/{id}/reaction", reactions.react).Methods(http.MethodPut)
	authed.HandleFunc("/posts/{id}/reaction", reactions.forPost).Methods(http.MethodGet)

	authed.HandleFunc("/experiences", experiences.create).Methods(http.MethodPost)
	authed.HandleFunc("/experiences/{id}", experiences.update).Methods(http.MethodPatch)
	authed.HandleFunc("/experiences/{id}", experiences.remove).Methods(http.MethodDelete)

	authed.HandleFunc("/skills", skills.create).Methods(http.MethodPost)
	authed.HandleFunc("/skills/{id}", skills.update).Methods(http.MethodPatch)
	authed.HandleFunc("/skills/{id}", skills.remove).Methods(http.MethodDelete)

	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(&recoveryLogger{logger: logger}),
	)(r), nil
}

// recoveryLogger adapts slog to gorilla's recovery handler.
type recoveryLogger struct {
	logger *slog.Logger
}

func (l *recoveryLogger) Println(v ...any) {
	l.logger.Error("panic recovered in http handler", "detail", v)
}

// KindServices builds the per-kind resource services used by the router:
// one generic service per descriptor, all over the same store.
func KindServices(store social.ResourceStore, logger *slog.Logger) (posts, comments, skills, experiences *social.Service, err error) {
	if posts, err = social.NewService(social.PostSpec, store, logger); err != nil {
		return nil, nil, nil, nil, err
	}
	if comments, err = social.NewService(social.CommentSpec, store, logger); err != nil {
		return nil, nil, nil, nil, err
	}
	if skills, err = social.NewService(social.SkillSpec, store, logger); err != nil {
		return nil, nil, nil, nil, err
	}
	if experiences, err = social.NewService(social.ExperienceSpec, store, logger); err != nil {
		return nil, nil, nil, nil, err
	}
	return posts, comments, skills, experiences, nil
}
