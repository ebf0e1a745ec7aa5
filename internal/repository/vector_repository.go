// Package repository implements data access for the talent-flow
// backend: vector records and the employee/job-post record store.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/talent-flow/talent-flow/internal/observability"
)

// VectorNotFoundError reports that no vector record exists for an
// entity. It is an expected condition (an employee that was never
// embedded) and must not be conflated with storage errors.
type VectorNotFoundError struct {
	EntityKind string
	EntityID   int64
}

func (e *VectorNotFoundError) Error() string {
	return fmt.Sprintf("no vector record for %s %d", e.EntityKind, e.EntityID)
}

// IsVectorNotFound reports whether err wraps a VectorNotFoundError.
func IsVectorNotFound(err error) bool {
	var nf *VectorNotFoundError
	return errors.As(err, &nf)
}

// VectorRepository owns the vector records: one JSON-serialized float
// array per employee and per job posting.
type VectorRepository struct {
	db     *sqlx.DB
	logger observability.Logger
}

// NewVectorRepository creates a new vector repository.
func NewVectorRepository(db *sqlx.DB, logger observability.Logger) *VectorRepository {
	return &VectorRepository{
		db:     db,
		logger: logger.WithPrefix("vector_repository"),
	}
}

// UpsertEmployeeVector replaces the vector record for an employee, or
// inserts one if none exists. Concurrent upserts for the same employee
// serialize in the database; last writer wins.
func (r *VectorRepository) UpsertEmployeeVector(ctx context.Context, employeeID int64, vector []float64) error {
	return r.upsert(ctx, "employee_vectors", "employee_id", employeeID, vector)
}

// UpsertJobPostVector replaces the vector record for a job posting, or
// inserts one if none exists.
func (r *VectorRepository) UpsertJobPostVector(ctx context.Context, jobPostID int64, vector []float64) error {
	return r.upsert(ctx, "job_post_vectors", "job_post_id", jobPostID, vector)
}

func (r *VectorRepository) upsert(ctx context.Context, table, idColumn string, entityID int64, vector []float64) error {
	serialized, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to serialize vector: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (%s, vector) VALUES ($1, $2)
		ON CONFLICT (%s) DO UPDATE SET vector = EXCLUDED.vector`,
		table, idColumn, idColumn)

	if _, err := r.db.ExecContext(ctx, query, entityID, string(serialized)); err != nil {
		return fmt.Errorf("failed to upsert vector for %s %d: %w", idColumn, entityID, err)
	}

	r.logger.Debug("vector upserted", map[string]interface{}{
		"table":      table,
		"entity_id":  entityID,
		"dimensions": len(vector),
	})
	return nil
}

// GetEmployeeVector returns the vector record for an employee, or a
// VectorNotFoundError when none exists.
func (r *VectorRepository) GetEmployeeVector(ctx context.Context, employeeID int64) ([]float64, error) {
	var serialized string
	query := `SELECT vector FROM employee_vectors WHERE employee_id = $1`

	err := r.db.GetContext(ctx, &serialized, query, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &VectorNotFoundError{EntityKind: "employee", EntityID: employeeID}
		}
		return nil, fmt.Errorf("failed to get employee vector: %w", err)
	}

	return deserializeVector(serialized)
}

// GetAllJobPostVectors returns every job posting's vector keyed by job
// post id. Used once per recommendation request.
func (r *VectorRepository) GetAllJobPostVectors(ctx context.Context) (map[int64][]float64, error) {
	rows := []struct {
		JobPostID int64  `db:"job_post_id"`
		Vector    string `db:"vector"`
	}{}

	query := `SELECT job_post_id, vector FROM job_post_vectors`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list job post vectors: %w", err)
	}

	vectors := make(map[int64][]float64, len(rows))
	for _, row := range rows {
		vector, err := deserializeVector(row.Vector)
		if err != nil {
			return nil, fmt.Errorf("job post %d: %w", row.JobPostID, err)
		}
		vectors[row.JobPostID] = vector
	}
	return vectors, nil
}

func deserializeVector(serialized string) ([]float64, error) {
	var vector []float64
	if err := json.Unmarshal([]byte(serialized), &vector); err != nil {
		return nil, fmt.Errorf("corrupt vector record: %w", err)
	}
	return vector, nil
}
