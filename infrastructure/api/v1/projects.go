package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vitae-dev/vitae"
	"github.com/vitae-dev/vitae/application/service"
	"github.com/vitae-dev/vitae/infrastructure/api/jsonapi"
	"github.com/vitae-dev/vitae/infrastructure/api/middleware"
	"github.com/vitae-dev/vitae/infrastructure/api/v1/dto"
	"github.com/vitae-dev/vitae/internal/log"
)

// ProjectsRouter handles project listing, syncing, rambles, and processing
// triggers.
type ProjectsRouter struct {
	client *vitae.Client
	logger *log.Logger
}

// NewProjectsRouter creates a ProjectsRouter.
func NewProjectsRouter(client *vitae.Client) *ProjectsRouter {
	return &ProjectsRouter{client: client, logger: client.Logger()}
}

// Routes returns the chi router for project endpoints.
func (p *ProjectsRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", p.List)
	router.Post("/sync", p.Sync)
	router.Put("/{id}/ramble", p.SetRamble)
	router.Post("/process", p.Process)
	return router
}

// List handles GET /api/v1/projects.
func (p *ProjectsRouter) List(w http.ResponseWriter, req *http.Request) {
	u, _ := middleware.UserFrom(req.Context())

	infos, err := p.client.Projects.List(req.Context(), u.ID())
	if err != nil {
		p.logger.Error("failed to list projects", "user_id", u.ID(), "error", err)
		middleware.RespondError(w, http.StatusInternalServerError, "failed to list projects", err.Error())
		return
	}

	resources := make([]*jsonapi.Resource, len(infos))
	for i, info := range infos {
		resources[i] = projectResource(info)
	}
	middleware.RespondJSON(w, http.StatusOK, jsonapi.NewListResponse(resources))
}

// Sync handles POST /api/v1/projects/sync.
func (p *ProjectsRouter) Sync(w http.ResponseWriter, req *http.Request) {
	u, _ := middleware.UserFrom(req.Context())

	if _, err := p.client.Projects.Sync(req.Context(), u); err != nil {
		p.logger.Error("failed to sync projects", "user_id", u.ID(), "error", err)
		middleware.RespondError(w, http.StatusBadGateway, "failed to sync projects", err.Error())
		return
	}

	infos, err := p.client.Projects.List(req.Context(), u.ID())
	if err != nil {
		middleware.RespondError(w, http.StatusInternalServerError, "failed to list projects", err.Error())
		return
	}
	resources := make([]*jsonapi.Resource, len(infos))
	for i, info := range infos {
		resources[i] = projectResource(info)
	}
	middleware.RespondJSON(w, http.StatusOK, jsonapi.NewListResponse(resources))
}

// SetRamble handles PUT /api/v1/projects/{id}/ramble.
func (p *ProjectsRouter) SetRamble(w http.ResponseWriter, req *http.Request) {
	u, _ := middleware.UserFrom(req.Context())

	projectID, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
	if err != nil {
		middleware.RespondError(w, http.StatusBadRequest, "invalid project id", err.Error())
		return
	}

	var body dto.SetRambleRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	updated, err := p.client.Projects.SetRamble(req.Context(), u.ID(), projectID, body.Ramble)
	if errors.Is(err, service.ErrProjectNotFound) {
		middleware.RespondError(w, http.StatusNotFound, "project not found", "")
		return
	}
	if err != nil {
		p.logger.Error("failed to set ramble", "project_id", projectID, "error", err)
		middleware.RespondError(w, http.StatusInternalServerError, "failed to set ramble", err.Error())
		return
	}

	middleware.RespondJSON(w, http.StatusOK, jsonapi.NewSingleResponse(
		projectResource(service.ProjectInfo{Project: updated}),
	))
}

// Process handles POST /api/v1/projects/process. The given projects become
// the selected set; a pending run is created and picked up asynchronously.
func (p *ProjectsRouter) Process(w http.ResponseWriter, req *http.Request) {
	u, _ := middleware.UserFrom(req.Context())

	var body dto.ProcessRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(body.ProjectIDs) == 0 {
		middleware.RespondError(w, http.StatusBadRequest, "invalid request body", "project_ids is required")
		return
	}

	selected, err := p.client.Projects.Select(req.Context(), u.ID(), body.ProjectIDs)
	if errors.Is(err, service.ErrProjectNotFound) {
		middleware.RespondError(w, http.StatusNotFound, "project not found", err.Error())
		return
	}
	if err != nil {
		middleware.RespondError(w, http.StatusInternalServerError, "failed to select projects", err.Error())
		return
	}

	ids := make([]int64, len(selected))
	for i, proj := range selected {
		ids[i] = proj.ID()
	}
	r, err := p.client.Runs.Trigger(req.Context(), u.ID(), ids)
	if errors.Is(err, service.ErrRunActive) {
		middleware.RespondError(w, http.StatusConflict, "run already active", err.Error())
		return
	}
	if err != nil {
		p.logger.Error("failed to trigger run", "user_id", u.ID(), "error", err)
		middleware.RespondError(w, http.StatusInternalServerError, "failed to trigger run", err.Error())
		return
	}

	middleware.RespondJSON(w, http.StatusAccepted, map[string]string{"run_id": r.Reference()})
}

func projectResource(info service.ProjectInfo) *jsonapi.Resource {
	proj := info.Project
	return jsonapi.NewResource("project", strconv.FormatInt(proj.ID(), 10), dto.ProjectAttributes{
		FullName:        proj.FullName(),
		Title:           proj.Title(),
		RepoURL:         proj.RepoURL(),
		Description:     proj.Description(),
		Ramble:          proj.Ramble(),
		Summary:         proj.Summary(),
		Selected:        proj.Selected(),
		FileCount:       info.FileCount,
		ChunkCount:      info.ChunkCount,
		LastProcessedAt: jsonapi.NewDateTime(proj.LastProcessedAt()),
	})
}
