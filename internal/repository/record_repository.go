package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/talent-flow/talent-flow/internal/models"
	"github.com/talent-flow/talent-flow/internal/observability"
)

// NotFoundError reports a missing record by table and id.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// CreateEmployeeParams carries the writable employee columns.
type CreateEmployeeParams struct {
	Name               string    `json:"name"`
	PasswordHash       string    `json:"-"`
	Birthdate          time.Time `json:"birthdate"`
	Gender             string    `json:"gender"`
	AcademicBackground string    `json:"academic_background"`
	HireDate           time.Time `json:"hire_date"`
	RecruitmentType    string    `json:"recruitment_type"`
}

// CreateJobPostParams carries the writable job posting columns.
type CreateJobPostParams struct {
	DepartmentID int64  `json:"department_id"`
	JobTitle     string `json:"job_title"`
	JobDetail    string `json:"job_detail"`
}

// RecordRepository owns the employee and job posting records and their
// reference tables.
type RecordRepository struct {
	db     *sqlx.DB
	logger observability.Logger
}

// NewRecordRepository creates a new record repository.
func NewRecordRepository(db *sqlx.DB, logger observability.Logger) *RecordRepository {
	return &RecordRepository{
		db:     db,
		logger: logger.WithPrefix("record_repository"),
	}
}

// CreateEmployee inserts an employee and returns the stored row.
func (r *RecordRepository) CreateEmployee(ctx context.Context, params CreateEmployeeParams) (*models.Employee, error) {
	var employee models.Employee
	query := `
		INSERT INTO employee (name, password, birthdate, gender, academic_background, hire_date, recruitment_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING employee_id, name, password, birthdate, gender, academic_background, hire_date, recruitment_type`

	err := r.db.GetContext(ctx, &employee, query,
		params.Name, params.PasswordHash, params.Birthdate, params.Gender,
		params.AcademicBackground, params.HireDate, params.RecruitmentType)
	if err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}

	r.logger.Info("employee created", map[string]interface{}{"employee_id": employee.ID})
	return &employee, nil
}

// GetEmployee returns one employee row.
func (r *RecordRepository) GetEmployee(ctx context.Context, employeeID int64) (*models.Employee, error) {
	var employee models.Employee
	query := `SELECT * FROM employee WHERE employee_id = $1`

	err := r.db.GetContext(ctx, &employee, query, employeeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Entity: "employee", ID: employeeID}
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &employee, nil
}

// GetEmployeeByName returns the employee row matching a login name.
func (r *RecordRepository) GetEmployeeByName(ctx context.Context, name string) (*models.Employee, error) {
	var employee models.Employee
	query := `SELECT * FROM employee WHERE name = $1`

	err := r.db.GetContext(ctx, &employee, query, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Entity: "employee"}
		}
		return nil, fmt.Errorf("failed to get employee by name: %w", err)
	}
	return &employee, nil
}

// ListEmployees returns all employee rows.
func (r *RecordRepository) ListEmployees(ctx context.Context) ([]models.Employee, error) {
	employees := []models.Employee{}
	if err := r.db.SelectContext(ctx, &employees, `SELECT * FROM employee ORDER BY employee_id`); err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

// ListEmployeeIDs returns every employee id, for bulk reindexing.
func (r *RecordRepository) ListEmployeeIDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT employee_id FROM employee ORDER BY employee_id`); err != nil {
		return nil, fmt.Errorf("failed to list employee ids: %w", err)
	}
	return ids, nil
}

// GetEmployeeProfile loads an employee with every related record.
func (r *RecordRepository) GetEmployeeProfile(ctx context.Context, employeeID int64) (*models.EmployeeProfile, error) {
	employee, err := r.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	profile := &models.EmployeeProfile{Employee: *employee}

	gradeQuery := `
		SELECT g.grade_id, g.grade_name
		FROM grade g
		JOIN employee_grade eg ON eg.grade_id = g.grade_id
		WHERE eg.employee_id = $1
		ORDER BY g.grade_id`
	if err := r.db.SelectContext(ctx, &profile.Grades, gradeQuery, employeeID); err != nil {
		return nil, fmt.Errorf("failed to load grades: %w", err)
	}

	skillQuery := `
		SELECT s.skill_id, s.skill_category, s.skill_name
		FROM skill_list s
		JOIN employee_skill es ON es.skill_id = s.skill_id
		WHERE es.employee_id = $1
		ORDER BY s.skill_id`
	if err := r.db.SelectContext(ctx, &profile.Skills, skillQuery, employeeID); err != nil {
		return nil, fmt.Errorf("failed to load skills: %w", err)
	}

	var spi models.SpiScores
	err = r.db.GetContext(ctx, &spi, `SELECT * FROM spi WHERE employee_id = $1`, employeeID)
	switch {
	case err == nil:
		profile.Spi = &spi
	case errors.Is(err, sql.ErrNoRows):
		// Not every employee has taken the test.
	default:
		return nil, fmt.Errorf("failed to load spi scores: %w", err)
	}

	evalQuery := `SELECT * FROM evaluation_history WHERE employee_id = $1 ORDER BY evaluation_year`
	if err := r.db.SelectContext(ctx, &profile.Evaluations, evalQuery, employeeID); err != nil {
		return nil, fmt.Errorf("failed to load evaluations: %w", err)
	}

	deptQuery := `
		SELECT d.department_id, d.department_name, d.department_detail
		FROM department d
		JOIN department_member dm ON dm.department_id = d.department_id
		WHERE dm.employee_id = $1
		ORDER BY d.department_id`
	if err := r.db.SelectContext(ctx, &profile.Departments, deptQuery, employeeID); err != nil {
		return nil, fmt.Errorf("failed to load departments: %w", err)
	}

	return profile, nil
}

// CreateJobPost inserts a job posting and returns the stored row.
func (r *RecordRepository) CreateJobPost(ctx context.Context, params CreateJobPostParams) (*models.JobPost, error) {
	var post models.JobPost
	query := `
		INSERT INTO job_post (department_id, job_title, job_detail)
		VALUES ($1, $2, $3)
		RETURNING job_post_id, department_id, job_title, job_detail`

	err := r.db.GetContext(ctx, &post, query, params.DepartmentID, params.JobTitle, params.JobDetail)
	if err != nil {
		return nil, fmt.Errorf("failed to create job post: %w", err)
	}

	r.logger.Info("job post created", map[string]interface{}{"job_post_id": post.ID})
	return &post, nil
}

// GetJobPost returns one job posting row.
func (r *RecordRepository) GetJobPost(ctx context.Context, jobPostID int64) (*models.JobPost, error) {
	var post models.JobPost
	err := r.db.GetContext(ctx, &post, `SELECT * FROM job_post WHERE job_post_id = $1`, jobPostID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Entity: "job_post", ID: jobPostID}
		}
		return nil, fmt.Errorf("failed to get job post: %w", err)
	}
	return &post, nil
}

// ListJobPosts returns all job posting rows.
func (r *RecordRepository) ListJobPosts(ctx context.Context) ([]models.JobPost, error) {
	posts := []models.JobPost{}
	if err := r.db.SelectContext(ctx, &posts, `SELECT * FROM job_post ORDER BY job_post_id`); err != nil {
		return nil, fmt.Errorf("failed to list job posts: %w", err)
	}
	return posts, nil
}

// GetJobPostsByIDs returns the job postings for the given ids, keyed by
// id so callers can preserve their own ordering.
func (r *RecordRepository) GetJobPostsByIDs(ctx context.Context, ids []int64) (map[int64]models.JobPost, error) {
	if len(ids) == 0 {
		return map[int64]models.JobPost{}, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM job_post WHERE job_post_id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build job post query: %w", err)
	}
	query = r.db.Rebind(query)

	posts := []models.JobPost{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get job posts: %w", err)
	}

	byID := make(map[int64]models.JobPost, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	return byID, nil
}
