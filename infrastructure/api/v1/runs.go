package v1

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vitae-dev/vitae"
	"github.com/vitae-dev/vitae/application/service"
	"github.com/vitae-dev/vitae/domain/run"
	"github.com/vitae-dev/vitae/infrastructure/api/jsonapi"
	"github.com/vitae-dev/vitae/infrastructure/api/middleware"
	"github.com/vitae-dev/vitae/infrastructure/api/v1/dto"
	"github.com/vitae-dev/vitae/internal/log"
)

// RunsRouter handles processing-run status polling.
type RunsRouter struct {
	client *vitae.Client
	logger *log.Logger
}

// NewRunsRouter creates a RunsRouter.
func NewRunsRouter(client *vitae.Client) *RunsRouter {
	return &RunsRouter{client: client, logger: client.Logger()}
}

// Routes returns the chi router for run endpoints.
func (rr *RunsRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/{id}", rr.Get)
	return router
}

// Get handles GET /api/v1/runs/{id}.
func (rr *RunsRouter) Get(w http.ResponseWriter, req *http.Request) {
	u, _ := middleware.UserFrom(req.Context())

	r, err := rr.client.Runs.Get(req.Context(), u.ID(), chi.URLParam(req, "id"))
	if errors.Is(err, service.ErrRunNotFound) {
		middleware.RespondError(w, http.StatusNotFound, "run not found", "")
		return
	}
	if err != nil {
		rr.logger.Error("failed to get run", "error", err)
		middleware.RespondError(w, http.StatusInternalServerError, "failed to get run", err.Error())
		return
	}

	middleware.RespondJSON(w, http.StatusOK, jsonapi.NewSingleResponse(runResource(r)))
}

func runResource(r run.ProcessingRun) *jsonapi.Resource {
	return jsonapi.NewResource("processing_run", r.Reference(), dto.RunAttributes{
		Status:            string(r.State()),
		Message:           r.Message(),
		Error:             r.Error(),
		ProjectsTotal:     r.ProjectsTotal(),
		ProjectsProcessed: r.ProjectsProcessed(),
		ProjectsFailed:    r.ProjectsFailed(),
		FilesSkipped:      r.FilesSkipped(),
		ChunksEmbedded:    r.ChunksEmbedded(),
		StartedAt:         jsonapi.NewDateTime(r.StartedAt()),
		FinishedAt:        jsonapi.NewDateTime(r.FinishedAt()),
	})
}
