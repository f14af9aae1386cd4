package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vitae-dev/vitae"
	"github.com/vitae-dev/vitae/domain/resume"
	"github.com/vitae-dev/vitae/infrastructure/api/jsonapi"
	"github.com/vitae-dev/vitae/infrastructure/api/middleware"
	"github.com/vitae-dev/vitae/infrastructure/api/v1/dto"
	"github.com/vitae-dev/vitae/internal/log"
)

const defaultResumeProjects = 3

// ResumeRouter handles resume generation.
type ResumeRouter struct {
	client *vitae.Client
	logger *log.Logger
}

// NewResumeRouter creates a ResumeRouter.
func NewResumeRouter(client *vitae.Client) *ResumeRouter {
	return &ResumeRouter{client: client, logger: client.Logger()}
}

// Routes returns the chi router for resume endpoints.
func (rr *ResumeRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/", rr.Generate)
	return router
}

// Generate handles POST /api/v1/resume.
func (rr *ResumeRouter) Generate(w http.ResponseWriter, req *http.Request) {
	u, _ := middleware.UserFrom(req.Context())

	var body dto.ResumeRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if body.NProjects == 0 {
		body.NProjects = defaultResumeProjects
	}

	request, err := resume.NewRequest(body.JobDescription, body.NProjects)
	if err != nil {
		middleware.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entries, err := rr.client.Resume.Generate(req.Context(), u.ID(), request)
	if errors.Is(err, resume.ErrNoCandidates) {
		middleware.RespondError(w, http.StatusNotFound, "no candidate projects",
			"no processed projects matched the job description")
		return
	}
	if err != nil {
		rr.logger.Error("failed to generate resume", "user_id", u.ID(), "error", err)
		middleware.RespondError(w, http.StatusInternalServerError, "failed to generate resume", err.Error())
		return
	}

	resources := make([]*jsonapi.Resource, len(entries))
	for i, entry := range entries {
		resources[i] = jsonapi.NewResource(
			"resume_entry", strconv.FormatInt(entry.ProjectID(), 10),
			dto.ResumeEntryAttributes{
				Title:          entry.Title(),
				RepoURL:        entry.RepoURL(),
				Bullets:        entry.Bullets(),
				Technologies:   entry.Technologies(),
				AlignmentScore: entry.Score(),
			})
	}
	middleware.RespondJSON(w, http.StatusOK, jsonapi.NewListResponse(resources))
}
