package recommend

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/talent-flow/talent-flow/internal/models"
	"github.com/talent-flow/talent-flow/internal/observability"
	"github.com/talent-flow/talent-flow/internal/ranking"
)

// VectorStore is the vector access the read path needs.
type VectorStore interface {
	GetEmployeeVector(ctx context.Context, employeeID int64) ([]float64, error)
	GetAllJobPostVectors(ctx context.Context) (map[int64][]float64, error)
}

// RecordStore is the record access the read path needs.
type RecordStore interface {
	GetEmployeeProfile(ctx context.Context, employeeID int64) (*models.EmployeeProfile, error)
	GetJobPostsByIDs(ctx context.Context, ids []int64) (map[int64]models.JobPost, error)
}

// Recommendation is the read-path result: the ranked jobs and the
// generated narrative.
type Recommendation struct {
	EmployeeID int64       `json:"employee_id"`
	RankedJobs []RankedJob `json:"top_jobs"`
	Narrative  string      `json:"recommendations"`
}

// Service runs the recommendation read path.
type Service struct {
	vectors  VectorStore
	records  RecordStore
	composer *Composer
	topN     int
	logger   observability.Logger
}

// NewService creates the read-path service. topN <= 0 falls back to
// the ranking default.
func NewService(vectors VectorStore, records RecordStore, composer *Composer, topN int, logger observability.Logger) *Service {
	return &Service{
		vectors:  vectors,
		records:  records,
		composer: composer,
		topN:     topN,
		logger:   logger.WithPrefix("recommend"),
	}
}

// Recommend ranks all job postings against the employee's stored
// vector and composes the recommendation text. A missing employee
// vector surfaces as a repository.VectorNotFoundError.
func (s *Service) Recommend(ctx context.Context, employeeID int64) (*Recommendation, error) {
	var (
		employeeVector []float64
		jobVectors     map[int64][]float64
		profile        *models.EmployeeProfile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		employeeVector, err = s.vectors.GetEmployeeVector(gctx, employeeID)
		return err
	})
	g.Go(func() error {
		var err error
		jobVectors, err = s.vectors.GetAllJobPostVectors(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		profile, err = s.records.GetEmployeeProfile(gctx, employeeID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matches, err := ranking.Rank(employeeVector, jobVectors, ranking.Options{
		TopN:         s.topN,
		AsPercentage: true,
	})
	if err != nil {
		return nil, fmt.Errorf("ranking failed for employee %d: %w", employeeID, err)
	}

	rankedJobs, err := s.resolveJobs(ctx, matches)
	if err != nil {
		return nil, err
	}

	narrative, err := s.composer.Compose(ctx, profile.Facts(), rankedJobs, employeeVector)
	if err != nil {
		return nil, err
	}

	s.logger.Info("recommendation composed", map[string]interface{}{
		"employee_id": employeeID,
		"matches":     len(rankedJobs),
	})

	return &Recommendation{
		EmployeeID: employeeID,
		RankedJobs: rankedJobs,
		Narrative:  narrative,
	}, nil
}

// resolveJobs joins match scores with job posting rows, preserving
// rank order. A match whose posting row has been deleted since the
// vector was written is skipped.
func (s *Service) resolveJobs(ctx context.Context, matches []ranking.Match) ([]RankedJob, error) {
	ids := make([]int64, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}

	posts, err := s.records.GetJobPostsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	jobs := make([]RankedJob, 0, len(matches))
	for _, m := range matches {
		post, ok := posts[m.ID]
		if !ok {
			s.logger.Warn("ranked job post no longer exists", map[string]interface{}{
				"job_post_id": m.ID,
			})
			continue
		}
		jobs = append(jobs, RankedJob{
			JobPostID:  post.ID,
			JobTitle:   post.JobTitle,
			JobDetail:  post.JobDetail,
			Similarity: m.Score,
		})
	}
	return jobs, nil
}
