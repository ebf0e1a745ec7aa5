// Package api exposes the HTTP surface: auth, employee and job posting
// records, document uploads, and the recommendation endpoint.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/talent-flow/talent-flow/internal/config"
	"github.com/talent-flow/talent-flow/internal/models"
	"github.com/talent-flow/talent-flow/internal/observability"
	"github.com/talent-flow/talent-flow/internal/recommend"
	"github.com/talent-flow/talent-flow/internal/repository"
	"github.com/talent-flow/talent-flow/internal/summarizer"
)

// maxDocumentBytes caps uploaded document size.
const maxDocumentBytes = 20 << 20

// Recommender runs the recommendation read path.
type Recommender interface {
	Recommend(ctx context.Context, employeeID int64) (*recommend.Recommendation, error)
}

// Indexer runs the vector write path for uploads and new postings.
type Indexer interface {
	IndexEmployeeDocument(ctx context.Context, employeeID int64, data []byte, contentType string, kind summarizer.DocumentKind) (*recommend.DocumentResult, error)
	IndexJobPost(ctx context.Context, post models.JobPost) error
}

// Records is the record store surface the handlers need.
type Records interface {
	CreateEmployee(ctx context.Context, params repository.CreateEmployeeParams) (*models.Employee, error)
	GetEmployee(ctx context.Context, employeeID int64) (*models.Employee, error)
	GetEmployeeByName(ctx context.Context, name string) (*models.Employee, error)
	ListEmployees(ctx context.Context) ([]models.Employee, error)
	GetEmployeeProfile(ctx context.Context, employeeID int64) (*models.EmployeeProfile, error)
	CreateJobPost(ctx context.Context, params repository.CreateJobPostParams) (*models.JobPost, error)
	GetJobPost(ctx context.Context, jobPostID int64) (*models.JobPost, error)
	ListJobPosts(ctx context.Context) ([]models.JobPost, error)
}

// Handler wires the HTTP endpoints to the services.
type Handler struct {
	records     Records
	recommender Recommender
	indexer     Indexer
	auth        config.AuthConfig
	logger      observability.Logger
}

// NewHandler creates the API handler.
func NewHandler(records Records, recommender Recommender, indexer Indexer, auth config.AuthConfig, logger observability.Logger) *Handler {
	return &Handler{
		records:     records,
		recommender: recommender,
		indexer:     indexer,
		auth:        auth,
		logger:      logger.WithPrefix("api"),
	}
}

// Register attaches all routes to the router.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.POST("/token", h.login)

	authed := r.Group("/", authMiddleware(h.auth.JWTSecret))
	authed.GET("/users/me", h.currentUser)

	authed.POST("/employees", h.createEmployee)
	authed.GET("/employees", h.listEmployees)
	authed.GET("/employees/:id", h.getEmployeeProfile)
	authed.POST("/employees/:id/documents", h.uploadDocument)

	authed.POST("/job-posts", h.createJobPost)
	authed.GET("/job-posts", h.listJobPosts)
	authed.GET("/job-posts/:id", h.getJobPost)

	authed.POST("/recommendations", h.recommendJobs)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "username and password are required"})
		return
	}

	employee, err := h.records.GetEmployeeByName(c.Request.Context(), username)
	if err != nil {
		if repository.IsNotFound(err) {
			c.JSON(http.StatusUnauthorized, gin.H{"detail": "incorrect username or password"})
			return
		}
		h.serverError(c, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "incorrect username or password"})
		return
	}

	token, err := issueToken(h.auth.JWTSecret, employee.ID, employee.Name, h.auth.TokenTTL)
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func (h *Handler) currentUser(c *gin.Context) {
	employeeID, ok := currentEmployeeID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "not authenticated"})
		return
	}

	employee, err := h.records.GetEmployee(c.Request.Context(), employeeID)
	if err != nil {
		h.recordError(c, err)
		return
	}
	c.JSON(http.StatusOK, employee)
}

type createEmployeeRequest struct {
	Name               string    `json:"name" binding:"required"`
	Password           string    `json:"password" binding:"required"`
	Birthdate          time.Time `json:"birthdate" binding:"required"`
	Gender             string    `json:"gender" binding:"required"`
	AcademicBackground string    `json:"academic_background"`
	HireDate           time.Time `json:"hire_date" binding:"required"`
	RecruitmentType    string    `json:"recruitment_type"`
}

func (h *Handler) createEmployee(c *gin.Context) {
	var req createEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.serverError(c, err)
		return
	}

	employee, err := h.records.CreateEmployee(c.Request.Context(), repository.CreateEmployeeParams{
		Name:               req.Name,
		PasswordHash:       string(hash),
		Birthdate:          req.Birthdate,
		Gender:             req.Gender,
		AcademicBackground: req.AcademicBackground,
		HireDate:           req.HireDate,
		RecruitmentType:    req.RecruitmentType,
	})
	if err != nil {
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusCreated, employee)
}

func (h *Handler) listEmployees(c *gin.Context) {
	employees, err := h.records.ListEmployees(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, employees)
}

func (h *Handler) getEmployeeProfile(c *gin.Context) {
	employeeID, ok := pathID(c)
	if !ok {
		return
	}

	profile, err := h.records.GetEmployeeProfile(c.Request.Context(), employeeID)
	if err != nil {
		h.recordError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) uploadDocument(c *gin.Context) {
	employeeID, ok := pathID(c)
	if !ok {
		return
	}

	kind := summarizer.DocumentKind(c.PostForm("kind"))
	switch kind {
	case summarizer.KindResume, summarizer.KindWorkHistory, summarizer.KindPersonalityTest:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"detail": "kind must be resume, work_history, or personality_test"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "file is required"})
		return
	}
	if fileHeader.Size > maxDocumentBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "document too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.serverError(c, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.serverError(c, err)
		return
	}

	result, err := h.indexer.IndexEmployeeDocument(c.Request.Context(), employeeID, data,
		fileHeader.Header.Get("Content-Type"), kind)
	if err != nil {
		h.logger.Error("document indexing failed", map[string]interface{}{
			"employee_id": employeeID,
			"kind":        string(kind),
			"error":       err.Error(),
		})
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "failed to process document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"employee_id": employeeID,
		"kind":        string(kind),
		"narrative":   result.Narrative,
		"fields":      result.Fields,
	})
}

type createJobPostRequest struct {
	DepartmentID int64  `json:"department_id" binding:"required"`
	JobTitle     string `json:"job_title" binding:"required"`
	JobDetail    string `json:"job_detail" binding:"required"`
}

func (h *Handler) createJobPost(c *gin.Context) {
	var req createJobPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	post, err := h.records.CreateJobPost(c.Request.Context(), repository.CreateJobPostParams{
		DepartmentID: req.DepartmentID,
		JobTitle:     req.JobTitle,
		JobDetail:    req.JobDetail,
	})
	if err != nil {
		h.serverError(c, err)
		return
	}

	// The posting exists either way; a failed embedding is repaired by
	// the reembed tool.
	if err := h.indexer.IndexJobPost(c.Request.Context(), *post); err != nil {
		h.logger.Error("job post indexing failed", map[string]interface{}{
			"job_post_id": post.ID,
			"error":       err.Error(),
		})
	}

	c.JSON(http.StatusCreated, post)
}

func (h *Handler) listJobPosts(c *gin.Context) {
	posts, err := h.records.ListJobPosts(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) getJobPost(c *gin.Context) {
	jobPostID, ok := pathID(c)
	if !ok {
		return
	}

	post, err := h.records.GetJobPost(c.Request.Context(), jobPostID)
	if err != nil {
		h.recordError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// recommendJobs recommends postings for the caller. The target
// employee is always the token identity; callers cannot request
// recommendations for anyone else.
func (h *Handler) recommendJobs(c *gin.Context) {
	employeeID, ok := currentEmployeeID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "not authenticated"})
		return
	}

	rec, err := h.recommender.Recommend(c.Request.Context(), employeeID)
	if err != nil {
		var nf *repository.VectorNotFoundError
		if errors.As(err, &nf) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "employee has no vector yet; upload a document first"})
			return
		}
		if repository.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"detail": "employee not found"})
			return
		}
		h.serverError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (h *Handler) recordError(c *gin.Context, err error) {
	if repository.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return
	}
	h.serverError(c, err)
}

func (h *Handler) serverError(c *gin.Context, err error) {
	h.logger.Error("request failed", map[string]interface{}{
		"path":  c.FullPath(),
		"error": err.Error(),
	})
	c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal server error"})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid id"})
		return 0, false
	}
	return id, true
}
