package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gradelab/examlink/internal/middleware"
	"github.com/gradelab/examlink/internal/model"
	"github.com/gradelab/examlink/internal/repository"
	"github.com/gradelab/examlink/internal/response"
	"github.com/gradelab/examlink/internal/service"
	"github.com/gradelab/examlink/internal/validator"
)

// AuthHandler handles teacher authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	teacherRepo *repository.TeacherRepository
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, teacherRepo *repository.TeacherRepository) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		teacherRepo: teacherRepo,
	}
}

// Login godoc
// POST /api/v1/teacher/auth/login
// Validates email + password, returns a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.TeacherLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	teacher, err := h.teacherRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	if err := h.authService.CheckPassword(teacher.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateTeacherToken(teacher.ID)
	if err != nil {
		response.Internal(c)
		return
	}

	response.Success(c, http.StatusOK, model.TeacherLoginResponse{
		Token:   token,
		Teacher: *teacher,
	})
}

// Profile godoc
// GET /api/v1/teacher/auth/me
// Returns the profile of the currently authenticated teacher.
func (h *AuthHandler) Profile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	teacher, err := h.teacherRepo.GetByID(c.Request.Context(), claims.TeacherID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"teacher": teacher})
}
