package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/gradelab/examlink/internal/model"
	"github.com/gradelab/examlink/internal/response"
	"github.com/gradelab/examlink/internal/service"
	"github.com/gradelab/examlink/internal/validator"
)

// examFixture backs the exam flow handlers in-memory: one roster entry, one
// answer key, and session/submission storage honoring the repositories'
// pgx.ErrNoRows contracts.
type examFixture struct {
	student  *model.Student
	key      *model.AnswerKey
	sessions map[string]*model.ExamSession
	subs     map[uuid.UUID]*model.ExamSubmission
}

func newExamFixture() *examFixture {
	return &examFixture{
		student: &model.Student{ID: 7, Name: "Ayu Lestari", Phone: "081200001111"},
		key: &model.AnswerKey{
			ID:              uuid.New(),
			Subject:         "Mathematics",
			Title:           "Midterm",
			ExamDate:        time.Now(),
			TotalScore:      10,
			DurationMinutes: 60,
			Questions: []model.Question{
				{Number: 1, Kind: model.QuestionKindObjective, CorrectAnswer: "A", PointValue: 5},
				{Number: 2, Kind: model.QuestionKindObjective, CorrectAnswer: "B", PointValue: 5},
			},
		},
		sessions: make(map[string]*model.ExamSession),
		subs:     make(map[uuid.UUID]*model.ExamSubmission),
	}
}

func (f *examFixture) FindByNameAndPhone(_ context.Context, name, phoneDigits string) (*model.Student, error) {
	if name == f.student.Name && phoneDigits == f.student.Phone {
		return f.student, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *examFixture) GetByID(_ context.Context, id uuid.UUID) (*model.AnswerKey, error) {
	if id == f.key.ID {
		return f.key, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *examFixture) Get(_ context.Context, id uuid.UUID) (*model.AnswerKey, error) {
	return f.GetByID(context.Background(), id)
}

func (f *examFixture) GetByToken(_ context.Context, token string) (*model.ExamSession, error) {
	if s, ok := f.sessions[token]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *examFixture) GetByKeyAndStudent(_ context.Context, keyID uuid.UUID, studentID int) (*model.ExamSession, error) {
	for _, s := range f.sessions {
		if s.AnswerKeyID == keyID && s.StudentID == studentID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *examFixture) Create(_ context.Context, s *model.ExamSession) error {
	if _, err := f.GetByKeyAndStudent(context.Background(), s.AnswerKeyID, s.StudentID); err == nil {
		return pgx.ErrNoRows
	}
	s.ID = uuid.New()
	s.StartedAt = time.Now()
	stored := *s
	f.sessions[s.SessionToken] = &stored
	return nil
}

func (f *examFixture) Finalize(_ context.Context, sessionID uuid.UUID, submittedAt time.Time, durationSeconds int64, sub *model.ExamSubmission) error {
	for _, s := range f.sessions {
		if s.ID == sessionID {
			if s.IsCompleted {
				return pgx.ErrNoRows
			}
			s.IsCompleted = true
			s.SubmittedAt = &submittedAt
			s.DurationSeconds = &durationSeconds
			sub.ID = uuid.New()
			sub.SessionID = sessionID
			sub.CreatedAt = submittedAt
			stored := *sub
			f.subs[sessionID] = &stored
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *examFixture) GetBySession(_ context.Context, sessionID uuid.UUID) (*model.ExamSubmission, error) {
	if sub, ok := f.subs[sessionID]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, pgx.ErrNoRows
}

// examRouter wires the student exam routes against the fixture, without
// Redis or Postgres.
func examRouter(f *examFixture) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator.Setup()

	log := zerolog.Nop()
	mgr := service.NewSessionManager(f, f, nil, log)
	engine := service.NewSubmissionEngine(f, mgr, log)
	reports := service.NewReportAssembler(mgr, f, f)
	identity := service.NewIdentityVerifier(f)
	h := NewExamSessionHandler(identity, mgr, engine, reports, f, log)

	r := gin.New()
	r.POST("/exam-sessions", h.Open)
	r.POST("/exam-sessions/:token/submit", h.Submit)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func errCodeOf(t *testing.T, w *httptest.ResponseRecorder) response.ErrCode {
	t.Helper()
	var envelope struct {
		Error *struct {
			Code response.ErrCode `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.Error == nil {
		t.Fatalf("expected an error body, got %s", w.Body.String())
	}
	return envelope.Error.Code
}

func TestOpenRespondsCreated(t *testing.T) {
	f := newExamFixture()
	r := examRouter(f)

	w := doJSON(t, r, http.MethodPost, "/exam-sessions", gin.H{
		"answer_key_id": f.key.ID,
		"name":          f.student.Name,
		"phone":         f.student.Phone,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var envelope struct {
		Data struct {
			SessionToken string `json:"session_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if len(envelope.Data.SessionToken) != 64 {
		t.Errorf("session_token = %q, want a 64-char token", envelope.Data.SessionToken)
	}

	// Reopening resumes the same session and keeps the same status code.
	w = doJSON(t, r, http.MethodPost, "/exam-sessions", gin.H{
		"answer_key_id": f.key.ID,
		"name":          f.student.Name,
		"phone":         f.student.Phone,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("reopen status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestSubmitMismatchedStudentConflicts(t *testing.T) {
	f := newExamFixture()
	r := examRouter(f)

	w := doJSON(t, r, http.MethodPost, "/exam-sessions", gin.H{
		"answer_key_id": f.key.ID,
		"name":          f.student.Name,
		"phone":         f.student.Phone,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("open status = %d: %s", w.Code, w.Body.String())
	}
	var opened struct {
		Data struct {
			SessionToken string `json:"session_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &opened); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}

	// A token replayed with someone else's claimed identity must conflict,
	// not read as a permissions failure.
	w = doJSON(t, r, http.MethodPost, "/exam-sessions/"+opened.Data.SessionToken+"/submit", gin.H{
		"answer_key_id": f.key.ID,
		"student_id":    f.student.ID + 1,
		"answers": []gin.H{
			{"question_number": 1, "student_answer": "A"},
		},
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusConflict, w.Body.String())
	}
	if code := errCodeOf(t, w); code != response.ErrSessionMismatch {
		t.Errorf("error code = %q, want %q", code, response.ErrSessionMismatch)
	}

	// The matching identity still submits normally afterwards.
	w = doJSON(t, r, http.MethodPost, "/exam-sessions/"+opened.Data.SessionToken+"/submit", gin.H{
		"answer_key_id": f.key.ID,
		"student_id":    f.student.ID,
		"answers": []gin.H{
			{"question_number": 1, "student_answer": "A"},
			{"question_number": 2, "student_answer": "C"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
}
