// Package ranking computes cosine-similarity rankings of candidate
// vectors against a query vector. The corpus is one vector per entity,
// so brute-force comparison is sufficient; callers depend only on Rank,
// not on the scan strategy.
package ranking

import (
	"fmt"
	"math"
	"sort"
)

// DefaultTopN is the number of matches returned when Options.TopN is
// unset.
const DefaultTopN = 5

// Match pairs a candidate id with its similarity score.
type Match struct {
	ID    int64
	Score float64
}

// Options controls a ranking pass.
type Options struct {
	// TopN limits the number of returned matches. Zero means
	// DefaultTopN.
	TopN int
	// AsPercentage rescales cosine values to [-100, 100], rounded to
	// two decimal places.
	AsPercentage bool
}

// DimensionMismatchError reports a candidate vector whose length does
// not match the query. Vectors of different lengths come from different
// embedding models and must never be compared.
type DimensionMismatchError struct {
	CandidateID  int64
	QueryDim     int
	CandidateDim int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: candidate %d has %d dimensions, query has %d",
		e.CandidateID, e.CandidateDim, e.QueryDim)
}

// Rank scores every candidate against the query by cosine similarity
// and returns the top entries, highest first. Ties are broken by id
// ascending so repeated calls are deterministic. A short candidate set
// returns all candidates without error.
func Rank(query []float64, candidates map[int64][]float64, opts Options) ([]Match, error) {
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	for id, candidate := range candidates {
		if len(candidate) != len(query) {
			return nil, &DimensionMismatchError{
				CandidateID:  id,
				QueryDim:     len(query),
				CandidateDim: len(candidate),
			}
		}
	}

	matches := make([]Match, 0, len(candidates))
	for id, candidate := range candidates {
		score := cosineSimilarity(query, candidate)
		if opts.AsPercentage {
			score = roundTo2(score * 100)
		}
		matches = append(matches, Match{ID: id, Score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})

	if len(matches) > topN {
		matches = matches[:topN]
	}
	return matches, nil
}

// cosineSimilarity computes the normalized dot product of two vectors
// of equal length. A zero-norm vector scores 0 rather than dividing by
// zero.
func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
