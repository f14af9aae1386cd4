package service

import (
	"context"
	"fmt"

	"github.com/vitae-dev/vitae/domain/repository"
	"github.com/vitae-dev/vitae/domain/resume"
	"github.com/vitae-dev/vitae/domain/search"
	"github.com/vitae-dev/vitae/infrastructure/enricher"
	"github.com/vitae-dev/vitae/internal/config"
	"github.com/vitae-dev/vitae/internal/log"

	projectdomain "github.com/vitae-dev/vitae/domain/project"
)

// EntryWriter generates one resume entry from retrieved evidence.
type EntryWriter interface {
	Write(ctx context.Context, jobDescription, summary string, chunks []string) (enricher.EntryDraft, error)
}

// ResumeService runs the two-stage retrieval and generation pipeline.
type ResumeService struct {
	projects projectdomain.Store
	chunks   projectdomain.ChunkStore
	vectors  search.VectorStore
	embedder search.Embedder
	writer   EntryWriter
	cfg      config.ResumeConfig
	logger   *log.Logger
}

// NewResumeService creates a ResumeService.
func NewResumeService(
	projects projectdomain.Store,
	chunks projectdomain.ChunkStore,
	vectors search.VectorStore,
	embedder search.Embedder,
	writer EntryWriter,
	cfg config.ResumeConfig,
	logger *log.Logger,
) *ResumeService {
	return &ResumeService{
		projects: projects,
		chunks:   chunks,
		vectors:  vectors,
		embedder: embedder,
		writer:   writer,
		cfg:      cfg,
		logger:   logger,
	}
}

// Generate produces ranked resume entries for a job description. Stage 1
// retrieves the user's closest selected projects by summary similarity;
// stage 2
// retrieves the closest chunks inside each project; one generation call per
// project turns the evidence into an entry. A project whose generation
// fails is omitted rather than failing the request.
func (s *ResumeService) Generate(ctx context.Context, userID int64, req resume.Request) ([]resume.Entry, error) {
	selected, err := s.projects.FindSelected(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load selected projects: %w", err)
	}
	if len(selected) == 0 {
		return nil, resume.ErrNoCandidates
	}
	selectedByID := make(map[int64]projectdomain.Project, len(selected))
	for _, p := range selected {
		selectedByID[p.ID()] = p
	}

	vectors, err := s.embedder.Embed(ctx, []string{req.JobDescription()})
	if err != nil {
		return nil, fmt.Errorf("failed to embed job description: %w", err)
	}
	query := vectors[0]

	// Deselected projects keep their summary vectors, so widen the search
	// enough that they cannot crowd selected candidates out of the top N.
	total, err := s.projects.Count(ctx, repository.WithUserID(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}
	topK := req.ProjectCount() + int(total) - len(selected)

	results, err := s.vectors.Search(ctx, search.CollectionProjects, query, userID, 0, topK)
	if err != nil {
		return nil, fmt.Errorf("stage-1 search failed: %w", err)
	}

	entries := make([]resume.Entry, 0, req.ProjectCount())
	rank := 0
	for _, res := range results {
		p, ok := selectedByID[res.ProjectID()]
		if !ok {
			continue
		}
		if rank >= req.ProjectCount() {
			break
		}
		entry, err := s.generateEntry(ctx, userID, p, query, res, rank, req.JobDescription())
		rank++
		if err != nil {
			s.logger.Warn("skipping project in resume",
				"project_id", res.ProjectID(), "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	if len(entries) == 0 {
		return nil, resume.ErrNoCandidates
	}

	return resume.Rank(entries), nil
}

func (s *ResumeService) generateEntry(
	ctx context.Context,
	userID int64,
	p projectdomain.Project,
	query []float64,
	res search.Result,
	rank int,
	jobDescription string,
) (resume.Entry, error) {
	match := resume.NewMatch(p.ID(), rank, res.Score(), p.Summary())

	chunkResults, err := s.vectors.Search(ctx,
		search.CollectionChunks, query, userID, p.ID(), s.cfg.TopChunks())
	if err != nil {
		return resume.Entry{}, fmt.Errorf("stage-2 search failed: %w", err)
	}
	if len(chunkResults) > 0 {
		texts, scores, err := s.loadChunkEvidence(ctx, chunkResults)
		if err != nil {
			return resume.Entry{}, err
		}
		match = match.WithChunks(texts, scores)
	}

	draft, err := s.writer.Write(ctx, jobDescription, match.Summary(), match.ChunkTexts())
	if err != nil {
		return resume.Entry{}, fmt.Errorf("generation failed: %w", err)
	}

	score := match.AlignmentScore(s.cfg.Stage1Weight(), s.cfg.Stage2Weight())
	return resume.NewEntry(
		p.ID(),
		draft.Title(),
		p.RepoURL(),
		draft.Bullets(),
		draft.Technologies(),
		score,
		rank,
	), nil
}

// loadChunkEvidence resolves stage-2 results to chunk contents, keeping the
// retrieval order and dropping IDs whose rows have since been replaced.
func (s *ResumeService) loadChunkEvidence(ctx context.Context, results []search.Result) ([]string, []float64, error) {
	ids := make([]int64, len(results))
	for i, r := range results {
		ids[i] = r.ID()
	}
	rows, err := s.chunks.Find(ctx, repository.WithIDIn(ids))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load chunks: %w", err)
	}
	byID := make(map[int64]projectdomain.Chunk, len(rows))
	for _, c := range rows {
		byID[c.ID()] = c
	}

	texts := make([]string, 0, len(results))
	scores := make([]float64, 0, len(results))
	for _, r := range results {
		c, ok := byID[r.ID()]
		if !ok {
			continue
		}
		texts = append(texts, c.Content())
		scores = append(scores, r.Score())
	}
	return texts, scores, nil
}
