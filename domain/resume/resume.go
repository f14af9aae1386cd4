// Package resume provides the domain types for the two-stage retrieval and
// generation pipeline: requests, candidate matches, alignment scoring, and
// ranked resume entries.
package resume

import (
	"errors"
	"math"
	"sort"
	"strings"
)

// Default scoring weights: stage-1 project similarity dominates, the mean
// stage-2 chunk similarity refines.
const (
	DefaultStage1Weight = 0.7
	DefaultStage2Weight = 0.3
)

// ErrNoCandidates indicates stage-1 retrieval returned nothing; with no
// candidate projects there is nothing to generate from.
var ErrNoCandidates = errors.New("no candidate projects for job description")

// Request is one resume-generation call.
type Request struct {
	jobDescription string
	projectCount   int
}

// NewRequest validates and creates a Request.
func NewRequest(jobDescription string, projectCount int) (Request, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return Request{}, errors.New("job description is required")
	}
	if projectCount < 1 {
		return Request{}, errors.New("project count must be positive")
	}
	return Request{jobDescription: jobDescription, projectCount: projectCount}, nil
}

// JobDescription returns the job description text.
func (r Request) JobDescription() string { return r.jobDescription }

// ProjectCount returns how many ranked entries the caller wants.
func (r Request) ProjectCount() int { return r.projectCount }

// Match is one stage-1 candidate with its stage-2 evidence.
type Match struct {
	projectID    int64
	stage1Rank   int
	stage1Score  float64
	chunkScores  []float64
	chunkTexts   []string
	summary      string
}

// NewMatch creates a Match from stage-1 results; chunk evidence is attached
// after stage-2 retrieval.
func NewMatch(projectID int64, stage1Rank int, stage1Score float64, summary string) Match {
	return Match{
		projectID:   projectID,
		stage1Rank:  stage1Rank,
		stage1Score: stage1Score,
		summary:     summary,
	}
}

// ProjectID returns the candidate project's ID.
func (m Match) ProjectID() int64 { return m.projectID }

// Stage1Rank returns the position in the stage-1 result list (0-based).
func (m Match) Stage1Rank() int { return m.stage1Rank }

// Stage1Score returns the project-summary similarity.
func (m Match) Stage1Score() float64 { return m.stage1Score }

// ChunkScores returns the stage-2 chunk similarities.
func (m Match) ChunkScores() []float64 {
	cp := make([]float64, len(m.chunkScores))
	copy(cp, m.chunkScores)
	return cp
}

// ChunkTexts returns the retrieved chunk contents, the only material the
// generator may draw bullets from.
func (m Match) ChunkTexts() []string {
	cp := make([]string, len(m.chunkTexts))
	copy(cp, m.chunkTexts)
	return cp
}

// Summary returns the project's stored summary.
func (m Match) Summary() string { return m.summary }

// WithChunks returns a copy carrying stage-2 evidence.
func (m Match) WithChunks(texts []string, scores []float64) Match {
	m.chunkTexts = make([]string, len(texts))
	copy(m.chunkTexts, texts)
	m.chunkScores = make([]float64, len(scores))
	copy(m.chunkScores, scores)
	return m
}

// AlignmentScore blends the stage-1 similarity with the mean stage-2
// similarity, maps the cosine range [-1, 1] to [0, 100], and rounds.
// Without chunk evidence the stage-1 score stands alone.
func (m Match) AlignmentScore(stage1Weight, stage2Weight float64) int {
	blended := m.stage1Score
	if len(m.chunkScores) > 0 {
		var sum float64
		for _, s := range m.chunkScores {
			sum += s
		}
		mean := sum / float64(len(m.chunkScores))
		blended = stage1Weight*m.stage1Score + stage2Weight*mean
	}

	score := math.Round((blended + 1) / 2 * 100)
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(score)
}

// Entry is one ranked project in the generated resume.
type Entry struct {
	projectID    int64
	title        string
	repoURL      string
	bullets      []string
	technologies []string
	score        int
	stage1Rank   int
}

// NewEntry creates an Entry from generation output and scoring.
func NewEntry(projectID int64, title, repoURL string, bullets, technologies []string, score, stage1Rank int) Entry {
	b := make([]string, len(bullets))
	copy(b, bullets)
	tech := make([]string, len(technologies))
	copy(tech, technologies)
	return Entry{
		projectID:    projectID,
		title:        title,
		repoURL:      repoURL,
		bullets:      b,
		technologies: tech,
		score:        score,
		stage1Rank:   stage1Rank,
	}
}

// ProjectID returns the project's ID.
func (e Entry) ProjectID() int64 { return e.projectID }

// Title returns the generated resume title for the project.
func (e Entry) Title() string { return e.title }

// RepoURL returns the project's repository URL.
func (e Entry) RepoURL() string { return e.repoURL }

// Bullets returns the generated bullet points.
func (e Entry) Bullets() []string {
	cp := make([]string, len(e.bullets))
	copy(cp, e.bullets)
	return cp
}

// Technologies returns the generated technology list.
func (e Entry) Technologies() []string {
	cp := make([]string, len(e.technologies))
	copy(cp, e.technologies)
	return cp
}

// Score returns the alignment score in [0, 100].
func (e Entry) Score() int { return e.score }

// Stage1Rank returns the original stage-1 rank, the tie-breaker.
func (e Entry) Stage1Rank() int { return e.stage1Rank }

// Rank orders entries by descending alignment score, breaking ties by the
// original stage-1 rank so a stable ordering survives equal scores.
func Rank(entries []Entry) []Entry {
	ranked := make([]Entry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].stage1Rank < ranked[j].stage1Rank
	})
	return ranked
}
