package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talent-flow/talent-flow/internal/completion"
	"github.com/talent-flow/talent-flow/internal/models"
	"github.com/talent-flow/talent-flow/internal/observability"
	"github.com/talent-flow/talent-flow/internal/repository"
)

type fakeVectorStore struct {
	employeeVectors map[int64][]float64
	jobVectors      map[int64][]float64
	err             error
}

func (f *fakeVectorStore) GetEmployeeVector(_ context.Context, employeeID int64) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.employeeVectors[employeeID]
	if !ok {
		return nil, &repository.VectorNotFoundError{EntityKind: "employee", EntityID: employeeID}
	}
	return v, nil
}

func (f *fakeVectorStore) GetAllJobPostVectors(context.Context) (map[int64][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.jobVectors, nil
}

type fakeRecordStore struct {
	profiles map[int64]*models.EmployeeProfile
	posts    map[int64]models.JobPost
}

func (f *fakeRecordStore) GetEmployeeProfile(_ context.Context, employeeID int64) (*models.EmployeeProfile, error) {
	p, ok := f.profiles[employeeID]
	if !ok {
		return nil, &repository.NotFoundError{Entity: "employee", ID: employeeID}
	}
	return p, nil
}

func (f *fakeRecordStore) GetJobPostsByIDs(_ context.Context, ids []int64) (map[int64]models.JobPost, error) {
	out := map[int64]models.JobPost{}
	for _, id := range ids {
		if p, ok := f.posts[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func testProfile(id int64) *models.EmployeeProfile {
	return &models.EmployeeProfile{
		Employee: models.Employee{ID: id, Name: "Taro Yamada", AcademicBackground: "CS", RecruitmentType: "new_graduate"},
		Skills:   []models.Skill{{ID: 1, Category: "language", Name: "Go"}},
	}
}

func TestService_Recommend(t *testing.T) {
	vectors := &fakeVectorStore{
		employeeVectors: map[int64][]float64{1: {1, 0, 0}},
		jobVectors: map[int64][]float64{
			10: {1, 0, 0},
			20: {0.5, 0.5, 0},
			30: {0, 1, 0},
		},
	}
	records := &fakeRecordStore{
		profiles: map[int64]*models.EmployeeProfile{1: testProfile(1)},
		posts: map[int64]models.JobPost{
			10: {ID: 10, JobTitle: "Backend Engineer", JobDetail: "services"},
			20: {ID: 20, JobTitle: "Data Engineer", JobDetail: "pipelines"},
			30: {ID: 30, JobTitle: "Designer", JobDetail: "ui"},
		},
	}
	mock := &completion.Mock{Response: "recommendation text"}
	svc := NewService(vectors, records, NewComposer(mock, 0, observability.NewNoopLogger()), 2, observability.NewNoopLogger())

	rec, err := svc.Recommend(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, int64(1), rec.EmployeeID)
	assert.Equal(t, "recommendation text", rec.Narrative)

	require.Len(t, rec.RankedJobs, 2)
	assert.Equal(t, int64(10), rec.RankedJobs[0].JobPostID)
	assert.Equal(t, 100.0, rec.RankedJobs[0].Similarity)
	assert.Equal(t, int64(20), rec.RankedJobs[1].JobPostID)
	assert.Equal(t, 70.71, rec.RankedJobs[1].Similarity)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "Backend Engineer")
	assert.Contains(t, calls[0].Prompt, "Taro Yamada")
}

func TestService_Recommend_MissingEmployeeVector(t *testing.T) {
	vectors := &fakeVectorStore{jobVectors: map[int64][]float64{}}
	records := &fakeRecordStore{profiles: map[int64]*models.EmployeeProfile{9: testProfile(9)}}
	mock := &completion.Mock{Response: "unused"}
	svc := NewService(vectors, records, NewComposer(mock, 0, observability.NewNoopLogger()), 5, observability.NewNoopLogger())

	_, err := svc.Recommend(context.Background(), 9)
	require.Error(t, err)

	var nf *repository.VectorNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, int64(9), nf.EntityID)
	assert.Empty(t, mock.Calls())
}

func TestService_Recommend_NoJobVectors(t *testing.T) {
	vectors := &fakeVectorStore{
		employeeVectors: map[int64][]float64{1: {1, 0}},
		jobVectors:      map[int64][]float64{},
	}
	records := &fakeRecordStore{profiles: map[int64]*models.EmployeeProfile{1: testProfile(1)}}
	mock := &completion.Mock{Response: "no suitable posting exists right now"}
	svc := NewService(vectors, records, NewComposer(mock, 0, observability.NewNoopLogger()), 5, observability.NewNoopLogger())

	rec, err := svc.Recommend(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, rec.RankedJobs)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "No job postings matched")
}

func TestService_Recommend_DeletedJobPostSkipped(t *testing.T) {
	vectors := &fakeVectorStore{
		employeeVectors: map[int64][]float64{1: {1, 0}},
		jobVectors: map[int64][]float64{
			10: {1, 0},
			20: {0.9, 0.1},
		},
	}
	// Posting 20 has a vector but the row is gone.
	records := &fakeRecordStore{
		profiles: map[int64]*models.EmployeeProfile{1: testProfile(1)},
		posts:    map[int64]models.JobPost{10: {ID: 10, JobTitle: "Backend Engineer"}},
	}
	mock := &completion.Mock{Response: "text"}
	svc := NewService(vectors, records, NewComposer(mock, 0, observability.NewNoopLogger()), 5, observability.NewNoopLogger())

	rec, err := svc.Recommend(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rec.RankedJobs, 1)
	assert.Equal(t, int64(10), rec.RankedJobs[0].JobPostID)
}

func TestService_Recommend_StoreError(t *testing.T) {
	vectors := &fakeVectorStore{err: errors.New("connection reset")}
	records := &fakeRecordStore{profiles: map[int64]*models.EmployeeProfile{1: testProfile(1)}}
	mock := &completion.Mock{Response: "unused"}
	svc := NewService(vectors, records, NewComposer(mock, 0, observability.NewNoopLogger()), 5, observability.NewNoopLogger())

	_, err := svc.Recommend(context.Background(), 1)
	require.Error(t, err)
	assert.False(t, repository.IsVectorNotFound(err))
}
