// Package v1 provides the v1 API routes.
package v1

import (
	"github.com/go-chi/chi/v5"

	"github.com/vitae-dev/vitae"
	"github.com/vitae-dev/vitae/infrastructure/api/middleware"
)

// Mount attaches every v1 route group under /api/v1 on the given router.
// User provisioning sits behind the admin keys; everything else behind
// per-user API key authentication.
func Mount(router chi.Router, client *vitae.Client) {
	router.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.AdminOnly(client.Config().AdminAPIKeys())).
			Mount("/users", NewUsersRouter(client).Routes())

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(client.Users))
			r.Mount("/projects", NewProjectsRouter(client).Routes())
			r.Mount("/runs", NewRunsRouter(client).Routes())
			r.Mount("/resume", NewResumeRouter(client).Routes())
		})
	})
}
