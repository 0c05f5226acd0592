package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gradelab/examlink/internal/middleware"
	"github.com/gradelab/examlink/internal/model"
	"github.com/gradelab/examlink/internal/repository"
	"github.com/gradelab/examlink/internal/response"
	"github.com/gradelab/examlink/internal/service"
	"github.com/gradelab/examlink/internal/validator"
)

// AnswerKeyHandler handles the teacher-facing answer key surface.
type AnswerKeyHandler struct {
	keys        *service.AnswerKeyStore
	sessionRepo *repository.ExamSessionRepository
}

// NewAnswerKeyHandler creates a new AnswerKeyHandler.
func NewAnswerKeyHandler(keys *service.AnswerKeyStore, sessionRepo *repository.ExamSessionRepository) *AnswerKeyHandler {
	return &AnswerKeyHandler{
		keys:        keys,
		sessionRepo: sessionRepo,
	}
}

// Create godoc
// POST /api/v1/teacher/answer-keys
// Authors a new answer key. Structural validation (binding tags) runs first,
// then domain validation (duplicate numbers, score totals) in the service.
func (h *AnswerKeyHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateAnswerKeyRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	key, err := h.keys.Create(c.Request.Context(), claims.TeacherID, &req)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, ve.Fields)
			return
		}
		response.Internal(c)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"answer_key": key})
}

// List godoc
// GET /api/v1/teacher/answer-keys?page=1&per_page=20
func (h *AnswerKeyHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, perPage := paginationParams(c)

	keys, pagination, err := h.keys.ListByTeacher(c.Request.Context(), claims.TeacherID, page, perPage)
	if err != nil {
		response.Internal(c)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"answer_keys": keys}, pagination)
}

// Get godoc
// GET /api/v1/teacher/answer-keys/:id
func (h *AnswerKeyHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	key, err := h.keys.Get(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrKeyNotFound)
		return
	}

	if key.TeacherID != claims.TeacherID {
		response.Fail(c, http.StatusNotFound, response.ErrKeyNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"answer_key": key})
}

// ListSessions godoc
// GET /api/v1/teacher/answer-keys/:id/sessions?page=1&per_page=20
// Returns all attempts against a key, graded or in progress, for a teacher's
// results dashboard.
func (h *AnswerKeyHandler) ListSessions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	key, err := h.keys.Get(c.Request.Context(), id)
	if err != nil || key.TeacherID != claims.TeacherID {
		response.Fail(c, http.StatusNotFound, response.ErrKeyNotFound)
		return
	}

	page, perPage := paginationParams(c)

	results, total, err := h.sessionRepo.ListByKey(c.Request.Context(), id, page, perPage)
	if err != nil {
		response.Internal(c)
		return
	}

	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"sessions": results}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: totalPages,
	})
}

func paginationParams(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}
