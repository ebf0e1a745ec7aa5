// Package summarizer turns extracted document text into profile
// narratives through the generative text service, one instruction
// prompt per document kind.
package summarizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/talent-flow/talent-flow/internal/completion"
	"github.com/talent-flow/talent-flow/internal/observability"
)

// DocumentKind identifies the kind of uploaded document.
type DocumentKind string

const (
	KindResume          DocumentKind = "resume"
	KindWorkHistory     DocumentKind = "work_history"
	KindPersonalityTest DocumentKind = "personality_test"
)

// Error indicates the generative service failed while summarizing a
// document.
type Error struct {
	Kind DocumentKind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("summarization failed for %s document: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

const systemInstruction = "You are an HR analyst. You read employee documents and produce " +
	"concise, factual analyses for internal talent matching."

var kindPrompts = map[DocumentKind]string{
	KindResume: "Extract the following fields from the resume below and return them " +
		"one per line in the exact form 'label: value' using the labels " +
		"name, birthdate, gender, academic background, career. " +
		"The career value is a short narrative of the person's work history.\n\nResume:\n%s",
	KindWorkHistory: "Analyze the work history below and write a categorized strengths " +
		"narrative: for each major skill area, name the area and describe the " +
		"evidence of strength in one or two sentences.\n\nWork history:\n%s",
	KindPersonalityTest: "Analyze the personality test report below and write a categorized " +
		"trait narrative: for each major trait, name the trait and describe how it " +
		"shows up in the workplace in one or two sentences.\n\nReport:\n%s",
}

// Summarizer produces narratives from document text. It is a pure
// function of (text, kind) modulo model nondeterminism, so tests
// substitute a deterministic completion client.
type Summarizer struct {
	client    completion.Client
	maxTokens int
	logger    observability.Logger
}

// New creates a Summarizer with the given output-length budget.
func New(client completion.Client, maxTokens int, logger observability.Logger) *Summarizer {
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	return &Summarizer{
		client:    client,
		maxTokens: maxTokens,
		logger:    logger.WithPrefix("summarizer"),
	}
}

// Summarize sends the kind-specific prompt for the text and returns the
// narrative.
func (s *Summarizer) Summarize(ctx context.Context, text string, kind DocumentKind) (string, error) {
	promptTemplate, ok := kindPrompts[kind]
	if !ok {
		return "", &Error{Kind: kind, Err: fmt.Errorf("unknown document kind")}
	}

	narrative, err := s.client.Complete(ctx, completion.Request{
		System:    systemInstruction,
		Prompt:    fmt.Sprintf(promptTemplate, text),
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		s.logger.Error("summarization call failed", map[string]interface{}{
			"kind":  string(kind),
			"error": err.Error(),
		})
		return "", &Error{Kind: kind, Err: err}
	}

	return narrative, nil
}

// ParseLabeledFields parses 'label: value' lines into a mapping from
// normalized label to value. Lines that do not match are dropped
// silently.
func ParseLabeledFields(narrative string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(narrative, "\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		label := normalizeLabel(parts[0])
		value := strings.TrimSpace(parts[1])
		if label == "" || value == "" {
			continue
		}
		fields[label] = value
	}
	return fields
}

func normalizeLabel(raw string) string {
	label := strings.ToLower(strings.TrimSpace(raw))
	label = strings.Trim(label, "-* ")
	return strings.ReplaceAll(label, " ", "_")
}
