// Package recommend implements the recommendation pipeline: the read
// path that ranks job postings against an employee vector and composes
// a generative recommendation, and the write path that turns documents
// and records into stored vectors.
package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/talent-flow/talent-flow/internal/completion"
	"github.com/talent-flow/talent-flow/internal/models"
	"github.com/talent-flow/talent-flow/internal/observability"
)

// RankedJob is one job posting with its similarity percentage, ordered
// as ranked.
type RankedJob struct {
	JobPostID  int64   `json:"job_post_id"`
	JobTitle   string  `json:"job_title"`
	JobDetail  string  `json:"job_detail"`
	Similarity float64 `json:"similarity"`
}

// CompositionError indicates the generative service failed while
// writing the recommendation text.
type CompositionError struct {
	EmployeeID int64
	Err        error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("recommendation composition failed for employee %d: %v", e.EmployeeID, e.Err)
}

func (e *CompositionError) Unwrap() error { return e.Err }

const composerSystem = "You are an internal mobility advisor. You recommend job postings to " +
	"employees based on their profile and the similarity scores computed by the matching system."

// Composer turns a ranked job list and employee facts into the
// recommendation narrative.
type Composer struct {
	client    completion.Client
	maxTokens int
	logger    observability.Logger
}

// NewComposer creates a Composer with the given output-length budget.
func NewComposer(client completion.Client, maxTokens int, logger observability.Logger) *Composer {
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	return &Composer{
		client:    client,
		maxTokens: maxTokens,
		logger:    logger.WithPrefix("composer"),
	}
}

// Compose writes the recommendation text for an employee given the
// ranked jobs and the employee's query vector. With no ranked jobs the
// prompt instructs the model to state that no suitable posting exists
// instead of inventing one.
func (c *Composer) Compose(ctx context.Context, facts models.ProfileFacts, jobs []RankedJob, queryVector []float64) (string, error) {
	prompt, err := buildPrompt(facts, jobs, queryVector)
	if err != nil {
		return "", &CompositionError{EmployeeID: facts.EmployeeID, Err: err}
	}

	text, err := c.client.Complete(ctx, completion.Request{
		System:    composerSystem,
		Prompt:    prompt,
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		c.logger.Error("composition call failed", map[string]interface{}{
			"employee_id": facts.EmployeeID,
			"error":       err.Error(),
		})
		return "", &CompositionError{EmployeeID: facts.EmployeeID, Err: err}
	}

	return text, nil
}

func buildPrompt(facts models.ProfileFacts, jobs []RankedJob, queryVector []float64) (string, error) {
	factsJSON, err := json.Marshal(facts)
	if err != nil {
		return "", fmt.Errorf("failed to serialize profile facts: %w", err)
	}

	var b strings.Builder
	b.WriteString("Employee profile:\n")
	b.Write(factsJSON)
	b.WriteString("\n\n")

	if len(queryVector) > 0 {
		vectorJSON, err := json.Marshal(queryVector)
		if err != nil {
			return "", fmt.Errorf("failed to serialize query vector: %w", err)
		}
		b.WriteString("Employee profile embedding:\n")
		b.Write(vectorJSON)
		b.WriteString("\n\n")
	}

	if len(jobs) == 0 {
		b.WriteString("No job postings matched this employee. State clearly that no suitable " +
			"posting exists right now and do not invent any posting.")
		return b.String(), nil
	}

	jobsJSON, err := json.Marshal(jobs)
	if err != nil {
		return "", fmt.Errorf("failed to serialize ranked jobs: %w", err)
	}

	b.WriteString("Candidate job postings with similarity percentages, best match first:\n")
	b.Write(jobsJSON)
	b.WriteString("\n\n")
	b.WriteString("Recommend exactly 3 postings for this employee as a numbered list. For " +
		"each, reference its job_post_id and job title, cite its similarity percentage, and " +
		"explain in two or three sentences why it fits the employee's skills and background. " +
		"Recommend only postings from the list.")
	return b.String(), nil
}
