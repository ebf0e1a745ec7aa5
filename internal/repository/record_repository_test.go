package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talent-flow/talent-flow/internal/observability"
)

var employeeColumns = []string{
	"employee_id", "name", "password", "birthdate", "gender",
	"academic_background", "hire_date", "recruitment_type",
}

func employeeRow(id int64, name string) []driver.Value {
	return []driver.Value{
		id, name, "$2a$10$hash", time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC),
		"male", "Computer Science", time.Date(2015, 4, 1, 0, 0, 0, 0, time.UTC), "new_graduate",
	}
}

func TestRecordRepository_CreateEmployee(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecordRepository(db, observability.NewNoopLogger())

	mock.ExpectQuery(`INSERT INTO employee .+ RETURNING`).
		WithArgs("Taro Yamada", "$2a$10$hash", sqlmock.AnyArg(), "male",
			"Computer Science", sqlmock.AnyArg(), "new_graduate").
		WillReturnRows(sqlmock.NewRows(employeeColumns).AddRow(employeeRow(1, "Taro Yamada")...))

	employee, err := repo.CreateEmployee(context.Background(), CreateEmployeeParams{
		Name:               "Taro Yamada",
		PasswordHash:       "$2a$10$hash",
		Birthdate:          time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC),
		Gender:             "male",
		AcademicBackground: "Computer Science",
		HireDate:           time.Date(2015, 4, 1, 0, 0, 0, 0, time.UTC),
		RecruitmentType:    "new_graduate",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), employee.ID)
	assert.Equal(t, "Taro Yamada", employee.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_GetEmployee_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecordRepository(db, observability.NewNoopLogger())

	mock.ExpectQuery(`SELECT \* FROM employee WHERE employee_id = \$1`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(employeeColumns))

	_, err := repo.GetEmployee(context.Background(), 42)
	require.Error(t, err)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "employee", nf.Entity)
	assert.Equal(t, int64(42), nf.ID)
}

func TestRecordRepository_GetEmployeeByName(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecordRepository(db, observability.NewNoopLogger())

	mock.ExpectQuery(`SELECT \* FROM employee WHERE name = \$1`).
		WithArgs("Taro Yamada").
		WillReturnRows(sqlmock.NewRows(employeeColumns).AddRow(employeeRow(1, "Taro Yamada")...))

	employee, err := repo.GetEmployeeByName(context.Background(), "Taro Yamada")
	require.NoError(t, err)
	assert.Equal(t, int64(1), employee.ID)
	assert.NotEmpty(t, employee.PasswordHash)
}

func TestRecordRepository_GetEmployeeProfile(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecordRepository(db, observability.NewNoopLogger())

	mock.ExpectQuery(`SELECT \* FROM employee WHERE employee_id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(employeeColumns).AddRow(employeeRow(1, "Taro Yamada")...))

	mock.ExpectQuery(`FROM grade g`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"grade_id", "grade_name"}).AddRow(int64(2), "senior"))

	mock.ExpectQuery(`FROM skill_list s`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"skill_id", "skill_category", "skill_name"}).
			AddRow(int64(10), "language", "Go").
			AddRow(int64(11), "infra", "PostgreSQL"))

	mock.ExpectQuery(`SELECT \* FROM spi WHERE employee_id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"spi_id", "employee_id", "extraversion", "agreebleness",
			"conscientiousness", "neuroticism", "openness",
		}).AddRow(int64(5), int64(1), 60, 70, 80, 30, 90))

	mock.ExpectQuery(`SELECT \* FROM evaluation_history`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{
			"evaluation_id", "employee_id", "evaluation_year", "evaluation", "evaluation_comment",
		}).AddRow(int64(3), int64(1), 2024, "A", "strong delivery"))

	mock.ExpectQuery(`FROM department d`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"department_id", "department_name", "department_detail"}).
			AddRow(int64(4), "Platform", "internal tooling"))

	profile, err := repo.GetEmployeeProfile(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "Taro Yamada", profile.Employee.Name)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, profile.SkillNames())
	require.NotNil(t, profile.Spi)
	assert.Equal(t, 70, profile.Spi.Agreeableness)
	require.Len(t, profile.Evaluations, 1)
	assert.Equal(t, 2024, profile.Evaluations[0].Year)
	require.Len(t, profile.Departments, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_GetEmployeeProfile_NoSpi(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecordRepository(db, observability.NewNoopLogger())

	mock.ExpectQuery(`SELECT \* FROM employee WHERE employee_id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(employeeColumns).AddRow(employeeRow(1, "Taro Yamada")...))
	mock.ExpectQuery(`FROM grade g`).
		WillReturnRows(sqlmock.NewRows([]string{"grade_id", "grade_name"}))
	mock.ExpectQuery(`FROM skill_list s`).
		WillReturnRows(sqlmock.NewRows([]string{"skill_id", "skill_category", "skill_name"}))
	mock.ExpectQuery(`SELECT \* FROM spi`).
		WillReturnRows(sqlmock.NewRows([]string{"spi_id"}))
	mock.ExpectQuery(`SELECT \* FROM evaluation_history`).
		WillReturnRows(sqlmock.NewRows([]string{"evaluation_id", "employee_id", "evaluation_year", "evaluation", "evaluation_comment"}))
	mock.ExpectQuery(`FROM department d`).
		WillReturnRows(sqlmock.NewRows([]string{"department_id", "department_name", "department_detail"}))

	profile, err := repo.GetEmployeeProfile(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, profile.Spi)
	assert.Empty(t, profile.Skills)
}

func TestRecordRepository_CreateJobPost(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRecordRepository(db, observability.NewNoopLogger())

	mock.ExpectQuery(`INSERT INTO job_post .+ RETURNING`).
		WithArgs(int64(4), "Backend Engineer", "Build the matching service").
		WillReturnRows(sqlmock.NewRows([]string{"job_post_id", "department_id", "job_title", "job_detail"}).
			AddRow(int64(9), int64(4), "Backend Engineer", "Build the matching service"))

	post, err := repo.CreateJobPost(context.Background(), CreateJobPostParams{
		DepartmentID: 4,
		JobTitle:     "Backend Engineer",
		JobDetail:    "Build the matching service",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), post.ID)
}

func TestRecordRepository_GetJobPostsByIDs(t *testing.T) {
	t.Run("maps rows by id", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRecordRepository(db, observability.NewNoopLogger())

		mock.ExpectQuery(`SELECT \* FROM job_post WHERE job_post_id IN`).
			WithArgs(int64(2), int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"job_post_id", "department_id", "job_title", "job_detail"}).
				AddRow(int64(5), int64(1), "Data Engineer", "pipelines").
				AddRow(int64(2), int64(1), "SRE", "reliability"))

		posts, err := repo.GetJobPostsByIDs(context.Background(), []int64{2, 5})
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, "SRE", posts[2].JobTitle)
		assert.Equal(t, "Data Engineer", posts[5].JobTitle)
	})

	t.Run("empty id list hits no query", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewRecordRepository(db, observability.NewNoopLogger())

		posts, err := repo.GetJobPostsByIDs(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, posts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
