package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gradelab/examlink/internal/model"
	"github.com/gradelab/examlink/internal/response"
	"github.com/gradelab/examlink/internal/service"
	"github.com/gradelab/examlink/internal/validator"
)

// ExamSessionHandler handles the student-facing exam flow: opening an
// attempt from a shared link, fetching the paper, reloading state,
// submitting, and reading the report. No login; the session token in the
// URL is the only credential.
type ExamSessionHandler struct {
	identity    *service.IdentityVerifier
	sessions    *service.SessionManager
	submissions *service.SubmissionEngine
	reports     *service.ReportAssembler
	keys        service.KeyGetter
	log         zerolog.Logger
}

// NewExamSessionHandler creates a new ExamSessionHandler.
func NewExamSessionHandler(
	identity *service.IdentityVerifier,
	sessions *service.SessionManager,
	submissions *service.SubmissionEngine,
	reports *service.ReportAssembler,
	keys service.KeyGetter,
	log zerolog.Logger,
) *ExamSessionHandler {
	return &ExamSessionHandler{
		identity:    identity,
		sessions:    sessions,
		submissions: submissions,
		reports:     reports,
		keys:        keys,
		log:         log.With().Str("component", "exam_session_handler").Logger(),
	}
}

// Open godoc
// POST /api/v1/exam-sessions
// Verifies the claimed identity against the roster, then opens (or resumes)
// the attempt. Reopening returns the same session token and start time.
func (h *ExamSessionHandler) Open(c *gin.Context) {
	var req model.OpenSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.identity.Verify(c.Request.Context(), req.AnswerKeyID, req.Name, req.Phone)
	if err != nil {
		if errors.Is(err, service.ErrIdentityMismatch) {
			response.Fail(c, http.StatusForbidden, response.ErrIdentityMismatch)
			return
		}
		response.Internal(c)
		return
	}

	sess, err := h.sessions.Open(c.Request.Context(), req.AnswerKeyID, student.ID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrKeyNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrKeyNotFound)
		case errors.Is(err, service.ErrAlreadyCompleted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadyCompleted)
		default:
			h.log.Error().Err(err).Msg("Open session failed")
			response.Internal(c)
		}
		return
	}

	key, err := h.keys.Get(c.Request.Context(), req.AnswerKeyID)
	if err != nil {
		response.Internal(c)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"session_token": sess.SessionToken,
		"started_at":    sess.StartedAt,
		"answer_key":    key.Summary(),
		"student": gin.H{
			"id":   student.ID,
			"name": student.Name,
		},
	})
}

// Paper godoc
// GET /api/v1/exam-sessions/:token/paper
// Returns the questions from the session's frozen snapshot with correct
// answers stripped. Serving from the snapshot means a key edited mid-exam
// still shows every student the paper they started with.
func (h *ExamSessionHandler) Paper(c *gin.Context) {
	sess, ok := h.lookupSession(c)
	if !ok {
		return
	}

	questions := make([]model.QuestionForStudent, 0, len(sess.KeySnapshot))
	for _, q := range sess.KeySnapshot {
		questions = append(questions, model.QuestionForStudent{
			Number:     q.Number,
			Kind:       q.Kind,
			PointValue: q.PointValue,
		})
	}

	response.Success(c, http.StatusOK, gin.H{
		"answer_key_id": sess.AnswerKeyID,
		"questions":     questions,
	})
}

// State godoc
// GET /api/v1/exam-sessions/:token/state
// Returns autosaved drafts and elapsed time so a reloaded page resumes.
func (h *ExamSessionHandler) State(c *gin.Context) {
	state, err := h.sessions.State(c.Request.Context(), c.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		case errors.Is(err, service.ErrAlreadyCompleted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadyCompleted)
		default:
			h.log.Error().Err(err).Msg("Get session state failed")
			response.Internal(c)
		}
		return
	}

	response.Success(c, http.StatusOK, state)
}

// Submit godoc
// POST /api/v1/exam-sessions/:token/submit
// Finalizes the attempt and auto-grades objective answers. At most one
// submission per session ever succeeds; retries get ALREADY_COMPLETED.
func (h *ExamSessionHandler) Submit(c *gin.Context) {
	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sub, err := h.submissions.Submit(c.Request.Context(), c.Param("token"), req.AnswerKeyID, req.StudentID, req.Answers)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		case errors.Is(err, service.ErrSessionMismatch):
			response.Fail(c, http.StatusConflict, response.ErrSessionMismatch)
		case errors.Is(err, service.ErrAlreadyCompleted):
			response.Fail(c, http.StatusConflict, response.ErrAlreadyCompleted)
		default:
			h.log.Error().Err(err).Msg("Submit failed")
			response.Internal(c)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"submission": sub})
}

// Report godoc
// GET /api/v1/exam-sessions/:token/report
// Returns the graded report for a completed attempt.
func (h *ExamSessionHandler) Report(c *gin.Context) {
	report, err := h.reports.Assemble(c.Request.Context(), c.Param("token"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		case errors.Is(err, service.ErrNotCompleted):
			response.Fail(c, http.StatusConflict, response.ErrNotCompleted)
		case errors.Is(err, service.ErrKeyNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrKeyNotFound)
		default:
			h.log.Error().Err(err).Msg("Assemble report failed")
			response.Internal(c)
		}
		return
	}

	response.Success(c, http.StatusOK, report)
}

func (h *ExamSessionHandler) lookupSession(c *gin.Context) (*model.ExamSession, bool) {
	sess, err := h.sessions.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrSessionNotFound)
		} else {
			response.Internal(c)
		}
		return nil, false
	}
	return sess, true
}
