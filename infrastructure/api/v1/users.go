package v1

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vitae-dev/vitae"
	"github.com/vitae-dev/vitae/infrastructure/api/jsonapi"
	"github.com/vitae-dev/vitae/infrastructure/api/middleware"
	"github.com/vitae-dev/vitae/infrastructure/api/v1/dto"
	"github.com/vitae-dev/vitae/internal/log"
)

// UsersRouter handles the admin-guarded user provisioning endpoint.
type UsersRouter struct {
	client *vitae.Client
	logger *log.Logger
}

// NewUsersRouter creates a UsersRouter.
func NewUsersRouter(client *vitae.Client) *UsersRouter {
	return &UsersRouter{client: client, logger: client.Logger()}
}

// Routes returns the chi router for user endpoints.
func (u *UsersRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", u.Provision)
	return router
}

// Provision handles POST /api/v1/users.
func (u *UsersRouter) Provision(w http.ResponseWriter, req *http.Request) {
	var body dto.ProvisionUserRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(body.Username) == "" {
		middleware.RespondError(w, http.StatusBadRequest, "invalid request body", "username is required")
		return
	}

	created, err := u.client.Users.Provision(req.Context(), body.Username, body.AccessToken)
	if err != nil {
		u.logger.Error("failed to provision user", "login", body.Username, "error", err)
		middleware.RespondError(w, http.StatusInternalServerError, "failed to provision user", err.Error())
		return
	}

	resource := jsonapi.NewResource("user", strconv.FormatInt(created.ID(), 10), dto.UserAttributes{
		Login:     created.Login(),
		APIKey:    created.APIKey(),
		CreatedAt: jsonapi.NewDateTime(created.CreatedAt()),
	})
	middleware.RespondJSON(w, http.StatusCreated, jsonapi.NewSingleResponse(resource))
}
