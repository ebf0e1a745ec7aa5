package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/talent-flow/talent-flow/internal/embedding"
	"github.com/talent-flow/talent-flow/internal/extraction"
	"github.com/talent-flow/talent-flow/internal/models"
	"github.com/talent-flow/talent-flow/internal/observability"
	"github.com/talent-flow/talent-flow/internal/summarizer"
)

// VectorWriter is the vector access the write path needs.
type VectorWriter interface {
	UpsertEmployeeVector(ctx context.Context, employeeID int64, vector []float64) error
	UpsertJobPostVector(ctx context.Context, jobPostID int64, vector []float64) error
}

// ProfileSource is the record access the write path needs for bulk
// reindexing.
type ProfileSource interface {
	GetEmployeeProfile(ctx context.Context, employeeID int64) (*models.EmployeeProfile, error)
	ListEmployeeIDs(ctx context.Context) ([]int64, error)
	ListJobPosts(ctx context.Context) ([]models.JobPost, error)
}

// Indexer runs the write path: document or record in, stored vector
// out.
type Indexer struct {
	summarizer *summarizer.Summarizer
	embedder   embedding.Client
	vectors    VectorWriter
	records    ProfileSource
	logger     observability.Logger
}

// NewIndexer creates the write-path indexer.
func NewIndexer(s *summarizer.Summarizer, embedder embedding.Client, vectors VectorWriter, records ProfileSource, logger observability.Logger) *Indexer {
	return &Indexer{
		summarizer: s,
		embedder:   embedder,
		vectors:    vectors,
		records:    records,
		logger:     logger.WithPrefix("indexer"),
	}
}

// DocumentResult is what indexing one uploaded document produces: the
// narrative that was embedded and, for resumes, the labeled fields
// parsed out of it for registration-form prefill.
type DocumentResult struct {
	Narrative string            `json:"narrative"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// IndexEmployeeDocument extracts text from an uploaded document,
// summarizes it, embeds the narrative, and stores the employee vector.
func (i *Indexer) IndexEmployeeDocument(ctx context.Context, employeeID int64, data []byte, contentType string, kind summarizer.DocumentKind) (*DocumentResult, error) {
	text, err := extraction.Extract(data, contentType)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("document for employee %d contains no extractable text", employeeID)
	}

	narrative, err := i.summarizer.Summarize(ctx, text, kind)
	if err != nil {
		return nil, err
	}

	if err := i.embedAndStoreEmployee(ctx, employeeID, narrative); err != nil {
		return nil, err
	}

	result := &DocumentResult{Narrative: narrative}
	if kind == summarizer.KindResume {
		result.Fields = summarizer.ParseLabeledFields(narrative)
	}
	return result, nil
}

// IndexEmployeeProfile builds profile text from the employee's stored
// records and refreshes the employee vector.
func (i *Indexer) IndexEmployeeProfile(ctx context.Context, employeeID int64) error {
	profile, err := i.records.GetEmployeeProfile(ctx, employeeID)
	if err != nil {
		return err
	}
	return i.embedAndStoreEmployee(ctx, employeeID, profileText(profile))
}

func (i *Indexer) embedAndStoreEmployee(ctx context.Context, employeeID int64, text string) error {
	vector, err := i.embedder.Embed(ctx, text)
	if err != nil {
		return err
	}
	if err := i.vectors.UpsertEmployeeVector(ctx, employeeID, vector); err != nil {
		return err
	}

	i.logger.Info("employee vector indexed", map[string]interface{}{
		"employee_id": employeeID,
		"model":       i.embedder.Model(),
		"dimensions":  len(vector),
	})
	return nil
}

// IndexJobPost embeds the posting's title and detail and stores the
// job post vector.
func (i *Indexer) IndexJobPost(ctx context.Context, post models.JobPost) error {
	text := fmt.Sprintf("%s\n%s", post.JobTitle, post.JobDetail)
	vector, err := i.embedder.Embed(ctx, text)
	if err != nil {
		return err
	}
	if err := i.vectors.UpsertJobPostVector(ctx, post.ID, vector); err != nil {
		return err
	}

	i.logger.Info("job post vector indexed", map[string]interface{}{
		"job_post_id": post.ID,
		"model":       i.embedder.Model(),
	})
	return nil
}

// ReindexAllEmployees rebuilds every employee vector from stored
// records. Failures are logged and skipped so one bad profile does not
// abort the run; the count of successfully indexed employees is
// returned.
func (i *Indexer) ReindexAllEmployees(ctx context.Context) (int, error) {
	ids, err := i.records.ListEmployeeIDs(ctx)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		if err := i.IndexEmployeeProfile(ctx, id); err != nil {
			i.logger.Error("employee reindex failed", map[string]interface{}{
				"employee_id": id,
				"error":       err.Error(),
			})
			continue
		}
		indexed++
	}
	return indexed, nil
}

// ReindexAllJobPosts rebuilds every job post vector.
func (i *Indexer) ReindexAllJobPosts(ctx context.Context) (int, error) {
	posts, err := i.records.ListJobPosts(ctx)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, post := range posts {
		if err := ctx.Err(); err != nil {
			return indexed, err
		}
		if err := i.IndexJobPost(ctx, post); err != nil {
			i.logger.Error("job post reindex failed", map[string]interface{}{
				"job_post_id": post.ID,
				"error":       err.Error(),
			})
			continue
		}
		indexed++
	}
	return indexed, nil
}

// profileText flattens an employee's records into the text that gets
// embedded. Field order is fixed so reindexing without record changes
// produces the same input text.
func profileText(p *models.EmployeeProfile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Name: %s\n", p.Employee.Name)
	fmt.Fprintf(&b, "Academic background: %s\n", p.Employee.AcademicBackground)
	fmt.Fprintf(&b, "Recruitment type: %s\n", p.Employee.RecruitmentType)

	if skills := p.SkillNames(); len(skills) > 0 {
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(skills, ", "))
	}
	for _, g := range p.Grades {
		fmt.Fprintf(&b, "Grade: %s\n", g.Name)
	}
	for _, d := range p.Departments {
		fmt.Fprintf(&b, "Department: %s\n", d.Name)
	}
	if p.Spi != nil {
		fmt.Fprintf(&b, "Personality scores: extraversion %d, agreeableness %d, conscientiousness %d, neuroticism %d, openness %d\n",
			p.Spi.Extraversion, p.Spi.Agreeableness, p.Spi.Conscientiousness, p.Spi.Neuroticism, p.Spi.Openness)
	}
	for _, e := range p.Evaluations {
		fmt.Fprintf(&b, "Evaluation %d: %s. %s\n", e.Year, e.Evaluation, e.Comment)
	}

	return b.String()
}
