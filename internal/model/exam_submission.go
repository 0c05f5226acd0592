package model

import (
	"time"

	"github.com/google/uuid"
)

// SubmissionAnswer is one graded entry of a finalized answer sheet.
// AwardedScore is nil while a subjective answer waits for manual grading.
type SubmissionAnswer struct {
	QuestionNumber int      `json:"question_number"`
	StudentAnswer  string   `json:"student_answer"`
	AwardedScore   *float64 `json:"awarded_score"`
	AutoGraded     bool     `json:"auto_graded"`
}

// ExamSubmission is the graded answer sheet for a completed session. Exactly
// one exists per completed session; Answers covers every question number in
// the session's key snapshot.
type ExamSubmission struct {
	ID                 uuid.UUID          `json:"id"`
	SessionID          uuid.UUID          `json:"session_id"`
	Answers            []SubmissionAnswer `json:"answers"`
	TotalAutoScore     float64            `json:"total_auto_score"`
	PendingManualCount int                `json:"pending_manual_count"`
	CreatedAt          time.Time          `json:"created_at"`
}

// ExamReport is the completion view composed from session, submission, and
// answer key for display. Read-only.
type ExamReport struct {
	Session        *ExamSession     `json:"session"`
	Submission     *ExamSubmission  `json:"submission"`
	AnswerKey      AnswerKeySummary `json:"answer_key"`
	AnsweredCount  int              `json:"answered_count"`
	TotalQuestions int              `json:"total_questions"`
}
