package model

import (
	"time"

	"github.com/google/uuid"
)

// QuestionKind distinguishes auto-gradable questions from free-form ones.
type QuestionKind string

const (
	QuestionKindObjective  QuestionKind = "objective"
	QuestionKindSubjective QuestionKind = "subjective"
)

// Question is a single entry in an answer key.
type Question struct {
	Number        int          `json:"number"`
	Kind          QuestionKind `json:"kind"`
	CorrectAnswer string       `json:"correct_answer"`
	PointValue    float64      `json:"point_value"`
	Note          string       `json:"note,omitempty"`
}

// AnswerKey is the teacher-authored definition of an exam: questions,
// correct answers, and scoring. Once a session references it, grading reads
// the session's snapshot of Questions, never this row.
type AnswerKey struct {
	ID              uuid.UUID  `json:"id"`
	Subject         string     `json:"subject"`
	Title           string     `json:"title"`
	ExamDate        time.Time  `json:"exam_date"`
	TotalScore      float64    `json:"total_score"`
	TeacherID       int        `json:"teacher_id"`
	GradingGroup    *string    `json:"grading_group,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
	Questions       []Question `json:"questions"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CreateAnswerKeyRequest is the payload for authoring a new answer key.
type CreateAnswerKeyRequest struct {
	Subject         string                  `json:"subject" binding:"required,min=1,max=100"`
	Title           string                  `json:"title" binding:"required,min=1,max=255"`
	ExamDate        time.Time               `json:"exam_date" binding:"required"`
	TotalScore      float64                 `json:"total_score" binding:"required,gt=0"`
	GradingGroup    *string                 `json:"grading_group" binding:"omitempty,max=100"`
	DurationMinutes int                     `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	Questions       []CreateQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}

// CreateQuestionRequest is a single question in an authoring payload.
type CreateQuestionRequest struct {
	Number        int     `json:"number" binding:"required,min=1"`
	Kind          string  `json:"kind" binding:"required,oneof=objective subjective"`
	CorrectAnswer string  `json:"correct_answer" binding:"max=2000"`
	PointValue    float64 `json:"point_value" binding:"required"`
	Note          string  `json:"note" binding:"omitempty,max=500"`
}

// AnswerKeySummary is the key as exposed to students: identifying fields only,
// never correct answers.
type AnswerKeySummary struct {
	ID              uuid.UUID `json:"id"`
	Subject         string    `json:"subject"`
	Title           string    `json:"title"`
	ExamDate        time.Time `json:"exam_date"`
	TotalScore      float64   `json:"total_score"`
	DurationMinutes int       `json:"duration_minutes"`
	TotalQuestions  int       `json:"total_questions"`
}

// Summary strips the key down to what a student may see.
func (k *AnswerKey) Summary() AnswerKeySummary {
	return AnswerKeySummary{
		ID:              k.ID,
		Subject:         k.Subject,
		Title:           k.Title,
		ExamDate:        k.ExamDate,
		TotalScore:      k.TotalScore,
		DurationMinutes: k.DurationMinutes,
		TotalQuestions:  len(k.Questions),
	}
}

// QuestionForStudent is a question with the correct answer stripped, sent to
// students via the paper endpoint.
type QuestionForStudent struct {
	Number     int          `json:"number"`
	Kind       QuestionKind `json:"kind"`
	PointValue float64      `json:"point_value"`
}
