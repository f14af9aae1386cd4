// Package handler implements the task queue handlers: the ingestion
// pipeline behind processing runs and the background project sync.
package handler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vitae-dev/vitae/domain/project"
	"github.com/vitae-dev/vitae/domain/repository"
	"github.com/vitae-dev/vitae/domain/run"
	"github.com/vitae-dev/vitae/domain/search"
	"github.com/vitae-dev/vitae/domain/task"
	"github.com/vitae-dev/vitae/domain/user"
	"github.com/vitae-dev/vitae/infrastructure/chunking"
	"github.com/vitae-dev/vitae/internal/log"
)

// Summarizer produces a project summary from classified content parts.
type Summarizer interface {
	Summarize(ctx context.Context, parts []string) (string, error)
}

// userLocks serializes processing per user. Holding the lock for the whole
// run keeps two runs for one user from interleaving chunk replacement.
type userLocks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[int64]*sync.Mutex)}
}

func (l *userLocks) lock(userID int64) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// projectResult accumulates per-project pipeline outcomes for run counters.
type projectResult struct {
	failed         bool
	filesSkipped   int
	chunksEmbedded int
	contentChanged bool
}

// ProcessRun executes one processing run: fetch, change-detect, chunk,
// embed, and summarize every project the run covers, updating the run row
// as it goes so status polls see progress.
type ProcessRun struct {
	runs       run.Store
	users      user.Store
	projects   project.Store
	files      project.FileStore
	chunks     project.ChunkStore
	fetcher    project.Fetcher
	chunker    chunking.Chunker
	embedder   search.Embedder
	vectors    search.VectorStore
	summarizer Summarizer
	logger     *log.Logger
	locks      *userLocks
}

// NewProcessRun creates the processing-run handler.
func NewProcessRun(
	runs run.Store,
	users user.Store,
	projects project.Store,
	files project.FileStore,
	chunks project.ChunkStore,
	fetcher project.Fetcher,
	chunker chunking.Chunker,
	embedder search.Embedder,
	vectors search.VectorStore,
	summarizer Summarizer,
	logger *log.Logger,
) *ProcessRun {
	return &ProcessRun{
		runs:       runs,
		users:      users,
		projects:   projects,
		files:      files,
		chunks:     chunks,
		fetcher:    fetcher,
		chunker:    chunker,
		embedder:   embedder,
		vectors:    vectors,
		summarizer: summarizer,
		logger:     logger,
		locks:      newUserLocks(),
	}
}

// Execute implements the task handler for run processing.
func (h *ProcessRun) Execute(ctx context.Context, payload map[string]any) error {
	reference, _ := payload[task.PayloadRunReference].(string)
	if reference == "" {
		return errors.New("payload is missing the run reference")
	}

	r, err := h.runs.GetByReference(ctx, reference)
	if err != nil {
		return fmt.Errorf("failed to load run %s: %w", reference, err)
	}
	if r.State().IsTerminal() {
		h.logger.Info("run already finished", "run_reference", reference, "state", string(r.State()))
		return nil
	}

	u, err := h.users.FindOne(ctx, repository.WithID(r.UserID()))
	if err != nil {
		return fmt.Errorf("failed to load user for run %s: %w", reference, err)
	}

	unlock := h.locks.lock(u.ID())
	defer unlock()

	// A duplicate delivery may have waited on the lock while the first
	// finished the run; re-read so a terminal run is never restarted.
	r, err = h.runs.GetByReference(ctx, reference)
	if err != nil {
		return fmt.Errorf("failed to reload run %s: %w", reference, err)
	}
	if r.State().IsTerminal() {
		h.logger.Info("run already finished", "run_reference", reference, "state", string(r.State()))
		return nil
	}

	r, err = r.Start()
	if err != nil {
		return err
	}
	if r, err = h.runs.Save(ctx, r); err != nil {
		return fmt.Errorf("failed to mark run running: %w", err)
	}

	for _, projectID := range r.ProjectIDs() {
		result := h.processProject(ctx, u, projectID)
		r = r.RecordProject(result.failed, result.filesSkipped, result.chunksEmbedded)
		r = r.WithProgress(fmt.Sprintf("processed %d/%d projects",
			r.ProjectsProcessed()+r.ProjectsFailed(), r.ProjectsTotal()))
		if r, err = h.runs.Save(ctx, r); err != nil {
			return fmt.Errorf("failed to record run progress: %w", err)
		}
	}

	return h.finish(ctx, r)
}

// finish flips the run to its terminal state. Partial failures still end in
// done; error is reserved for runs where nothing made progress.
func (h *ProcessRun) finish(ctx context.Context, r run.ProcessingRun) error {
	var err error
	if r.ProjectsProcessed() == 0 && r.ProjectsTotal() > 0 {
		r, err = r.Fail("no project could be processed")
	} else {
		message := fmt.Sprintf("processed %d projects, %d failed, %d files unchanged, %d chunks embedded",
			r.ProjectsProcessed(), r.ProjectsFailed(), r.FilesSkipped(), r.ChunksEmbedded())
		r, err = r.Complete(message)
	}
	if err != nil {
		return err
	}
	if _, err := h.runs.Save(ctx, r); err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	h.logger.Info("run finished",
		"run_reference", r.Reference(),
		"state", string(r.State()),
		"processed", r.ProjectsProcessed(),
		"failed", r.ProjectsFailed(),
		"files_skipped", r.FilesSkipped(),
		"chunks_embedded", r.ChunksEmbedded())
	return nil
}

func (h *ProcessRun) processProject(ctx context.Context, u user.User, projectID int64) projectResult {
	var result projectResult

	p, err := h.projects.FindOne(ctx,
		repository.WithID(projectID),
		repository.WithUserID(u.ID()),
	)
	if err != nil {
		h.logger.Error("project not found for run", "project_id", projectID, "error", err)
		result.failed = true
		return result
	}

	remoteFiles, err := h.fetcher.FetchFiles(ctx, u.GitHubToken(), p.FullName())
	if err != nil {
		h.logger.Error("failed to fetch repository files",
			"project", p.FullName(), "error", err)
		result.failed = true
		return result
	}

	for _, rf := range remoteFiles {
		skipped, embedded, err := h.processFile(ctx, u.ID(), p, rf)
		if err != nil {
			h.logger.Warn("failed to process file",
				"project", p.FullName(), "path", rf.Path(), "error", err)
			continue
		}
		if skipped {
			result.filesSkipped++
		} else {
			result.contentChanged = true
			result.chunksEmbedded += embedded
		}
	}

	rambleChanged, embedded, err := h.processRamble(ctx, u.ID(), &p)
	if err != nil {
		h.logger.Warn("failed to process ramble", "project", p.FullName(), "error", err)
	}
	result.chunksEmbedded += embedded

	if result.contentChanged || rambleChanged || !p.HasSummary() {
		if err := h.summarizeProject(ctx, u.ID(), &p); err != nil {
			h.logger.Warn("failed to summarize project", "project", p.FullName(), "error", err)
		}
	}

	p = p.WithLastProcessedAt(time.Now().UTC())
	if _, err := h.projects.Save(ctx, p); err != nil {
		h.logger.Error("failed to save project", "project", p.FullName(), "error", err)
		result.failed = true
	}
	return result
}

// processFile runs change detection for one fetched file and, when the
// content is new or modified, replaces its chunk rows and vectors. Returns
// whether the file was skipped as unchanged and how many chunks were
// embedded.
func (h *ProcessRun) processFile(ctx context.Context, userID int64, p project.Project, rf project.RemoteFile) (bool, int, error) {
	var stored project.Fingerprint
	if existing, err := h.files.GetByPath(ctx, p.ID(), rf.Path()); err == nil {
		stored = existing.Fingerprint()
	}

	if project.Detect(stored, rf.Content()) == project.ChangeUnchanged {
		return true, 0, nil
	}

	f, err := project.NewRepositoryFile(p.ID(), rf.Path(), rf.Content())
	if err != nil {
		return false, 0, err
	}

	// Embed before any row changes. When every chunk fails nothing is
	// written and the previous generation stays intact; a partial failure
	// keeps the stored fingerprint so the next run re-detects the change
	// and retries instead of skipping the file forever.
	texts := h.chunker.ChunkFile(f)
	vecs, embedErr := h.embedder.Embed(ctx, texts)
	keptTexts, keptVecs := dropUnembedded(texts, vecs)
	if embedErr != nil {
		if len(keptTexts) == 0 && len(texts) > 0 {
			return false, 0, fmt.Errorf("failed to embed chunks: %w", embedErr)
		}
		h.logger.Warn("some chunks failed to embed",
			"project", p.FullName(), "path", rf.Path(),
			"failed", len(texts)-len(keptTexts), "error", embedErr)
		f = f.WithFingerprint(stored)
	}

	f, err = h.files.Upsert(ctx, f)
	if err != nil {
		return false, 0, fmt.Errorf("failed to upsert file: %w", err)
	}

	chunks := make([]project.Chunk, 0, len(keptTexts))
	for i, text := range keptTexts {
		c, err := project.NewFileChunk(p.ID(), f.ID(), i, f.Class(), text)
		if err != nil {
			return false, 0, err
		}
		chunks = append(chunks, c)
	}

	// Old vectors go first so a replaced chunk never survives in the index
	// under a stale ID.
	if err := h.dropFileVectors(ctx, f.ID()); err != nil {
		return false, 0, err
	}

	saved, err := h.chunks.ReplaceForFile(ctx, f.ID(), chunks)
	if err != nil {
		return false, 0, fmt.Errorf("failed to replace chunks: %w", err)
	}
	if len(saved) == 0 {
		return false, 0, nil
	}

	docs := make([]search.Document, len(saved))
	for i, c := range saved {
		docs[i] = search.NewDocument(c.ID(), userID, c.ProjectID(), c.Content())
	}
	if err := h.vectors.Index(ctx, search.CollectionChunks, docs, keptVecs); err != nil {
		return false, 0, fmt.Errorf("failed to index chunks: %w", err)
	}
	return false, len(saved), nil
}

// dropUnembedded filters out texts whose embedding failed, keeping texts
// and vectors aligned.
func dropUnembedded(texts []string, vecs [][]float64) ([]string, [][]float64) {
	keptTexts := make([]string, 0, len(texts))
	keptVecs := make([][]float64, 0, len(texts))
	for i, t := range texts {
		if i >= len(vecs) || vecs[i] == nil {
			continue
		}
		keptTexts = append(keptTexts, t)
		keptVecs = append(keptVecs, vecs[i])
	}
	return keptTexts, keptVecs
}

func (h *ProcessRun) dropFileVectors(ctx context.Context, fileID int64) error {
	old, err := h.chunks.Find(ctx, project.WithFileID(fileID))
	if err != nil {
		return fmt.Errorf("failed to load existing chunks: %w", err)
	}
	if len(old) == 0 {
		return nil
	}
	ids := make([]int64, len(old))
	for i, c := range old {
		ids[i] = c.ID()
	}
	if err := h.vectors.Delete(ctx, search.CollectionChunks, ids); err != nil {
		return fmt.Errorf("failed to delete stale vectors: %w", err)
	}
	return nil
}

// processRamble re-chunks and re-embeds the ramble when its text changed
// since the last run, updating the stored fingerprint on success. Reports
// whether the ramble changed.
func (h *ProcessRun) processRamble(ctx context.Context, userID int64, p *project.Project) (bool, int, error) {
	if !p.HasRamble() {
		return false, 0, nil
	}
	if !p.RambleChanged() && !p.RambleFingerprint().IsZero() {
		return false, 0, nil
	}

	c, err := project.NewRambleChunk(p.ID(), p.Ramble())
	if err != nil {
		return false, 0, err
	}

	// Embed before touching the row so a failed embedding leaves the
	// previous ramble chunk and vector in place for the next attempt.
	vecs, err := h.embedder.Embed(ctx, []string{c.Content()})
	if err != nil {
		return false, 0, fmt.Errorf("failed to embed ramble: %w", err)
	}

	old, err := h.chunks.Find(ctx,
		repository.WithProjectID(p.ID()),
		project.WithClass(project.ClassRamble),
	)
	if err != nil {
		return false, 0, fmt.Errorf("failed to load ramble chunk: %w", err)
	}
	if len(old) > 0 {
		ids := make([]int64, len(old))
		for i, oc := range old {
			ids[i] = oc.ID()
		}
		if err := h.vectors.Delete(ctx, search.CollectionChunks, ids); err != nil {
			return false, 0, fmt.Errorf("failed to delete stale ramble vector: %w", err)
		}
	}

	saved, err := h.chunks.ReplaceRamble(ctx, p.ID(), c)
	if err != nil {
		return false, 0, fmt.Errorf("failed to replace ramble chunk: %w", err)
	}

	doc := search.NewDocument(saved.ID(), userID, saved.ProjectID(), saved.Content())
	if err := h.vectors.Index(ctx, search.CollectionChunks, []search.Document{doc}, vecs); err != nil {
		return true, 0, fmt.Errorf("failed to index ramble: %w", err)
	}

	*p = p.WithRambleFingerprint(project.NewFingerprint(p.Ramble()))
	return true, 1, nil
}

// summarizeProject regenerates the project summary from its stored chunks,
// ramble and informational content ahead of code, then replaces the
// project's vector in the stage-1 collection.
func (h *ProcessRun) summarizeProject(ctx context.Context, userID int64, p *project.Project) error {
	chunks, err := h.chunks.Find(ctx,
		repository.WithProjectID(p.ID()),
		repository.WithOrderAsc("file_id"),
		repository.WithOrderAsc("chunk_index"),
	)
	if err != nil {
		return fmt.Errorf("failed to load chunks for summary: %w", err)
	}

	parts := make([]string, 0, len(chunks)+1)
	if p.HasRamble() {
		parts = append(parts, p.Ramble())
	}
	for _, c := range chunks {
		if c.Class() == project.ClassInformational {
			parts = append(parts, c.Content())
		}
	}
	for _, c := range chunks {
		if c.Class() == project.ClassCode {
			parts = append(parts, c.Content())
		}
	}
	if len(parts) == 0 {
		return nil
	}

	summary, err := h.summarizer.Summarize(ctx, parts)
	if err != nil {
		return fmt.Errorf("failed to generate summary: %w", err)
	}

	vecs, err := h.embedder.Embed(ctx, []string{summary})
	if err != nil {
		return fmt.Errorf("failed to embed summary: %w", err)
	}
	doc := search.NewDocument(p.ID(), userID, p.ID(), summary)
	if err := h.vectors.Index(ctx, search.CollectionProjects, []search.Document{doc}, vecs); err != nil {
		return fmt.Errorf("failed to index summary: %w", err)
	}

	*p = p.WithSummary(summary)
	return nil
}
