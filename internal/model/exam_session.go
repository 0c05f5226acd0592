package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamSession is one student's attempt against one answer key. The session
// token is the only client-held credential for the attempt. KeySnapshot is the
// key's question list frozen at open time, so in-place edits to the answer key
// can never change grading for an attempt already underway.
type ExamSession struct {
	ID              uuid.UUID  `json:"id"`
	AnswerKeyID     uuid.UUID  `json:"answer_key_id"`
	StudentID       int        `json:"student_id"`
	SessionToken    string     `json:"session_token"`
	KeySnapshot     []Question `json:"-"`
	StartedAt       time.Time  `json:"started_at"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty"`
	IsCompleted     bool       `json:"is_completed"`
}

// OpenSessionRequest is the payload a student sends when opening an attempt
// from a shared exam link. Identity is claimed explicitly; there is no login.
type OpenSessionRequest struct {
	AnswerKeyID uuid.UUID `json:"answer_key_id" binding:"required"`
	Name        string    `json:"name" binding:"required,min=1,max=100"`
	Phone       string    `json:"phone" binding:"required,min=4,max=32"`
}

// AnswerInput is a single raw answer as supplied by the client at submit time.
// It is validated against the session's key snapshot, never trusted.
type AnswerInput struct {
	QuestionNumber int    `json:"question_number" binding:"required,min=1"`
	StudentAnswer  string `json:"student_answer"`
}

// SubmitRequest is the payload for finalizing an attempt. AnswerKeyID and
// StudentID must match the session's own even though the token is presented.
type SubmitRequest struct {
	AnswerKeyID uuid.UUID     `json:"answer_key_id" binding:"required"`
	StudentID   int           `json:"student_id" binding:"required"`
	Answers     []AnswerInput `json:"answers" binding:"dive"`
}

// SessionState is returned on page reload: autosaved draft answers plus the
// elapsed time, so the client countdown resumes instead of resetting.
type SessionState struct {
	SessionToken   string            `json:"session_token"`
	AnswerKeyID    uuid.UUID         `json:"answer_key_id"`
	DraftAnswers   map[string]string `json:"draft_answers"`
	ElapsedSeconds float64           `json:"elapsed_seconds"`
}
