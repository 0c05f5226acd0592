package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/gradelab/examlink/internal/metrics"
	"github.com/gradelab/examlink/internal/model"
)

// SubmissionStore is the finalization persistence the engine depends on.
// Finalize must be atomic: the completed flip and the submission insert are
// one conditional unit, and a session already completed surfaces as
// pgx.ErrNoRows.
type SubmissionStore interface {
	Finalize(ctx context.Context, sessionID uuid.UUID, submittedAt time.Time, durationSeconds int64, sub *model.ExamSubmission) error
	GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.ExamSubmission, error)
}

// SubmissionEngine accepts a student's final answer set, scores it against the
// session's key snapshot, and persists the submission exactly once. Concurrent
// duplicate submits (double-click, retry) resolve to one winner; losers
// observe ErrAlreadyCompleted.
type SubmissionEngine struct {
	submissionRepo SubmissionStore
	sessions       *SessionManager
	log            zerolog.Logger
	now            func() time.Time
}

// NewSubmissionEngine creates a new SubmissionEngine.
func NewSubmissionEngine(submissionRepo SubmissionStore, sessions *SessionManager, log zerolog.Logger) *SubmissionEngine {
	return &SubmissionEngine{
		submissionRepo: submissionRepo,
		sessions:       sessions,
		log:            log.With().Str("component", "submission_engine").Logger(),
		now:            time.Now,
	}
}

// Submit validates the session, grades the raw answers, and finalizes the
// attempt. The caller-supplied key and student must match the session's own
// even though the token is presented — a stolen token replayed against a
// different claimed identity fails with ErrSessionMismatch.
func (e *SubmissionEngine) Submit(ctx context.Context, token string, keyID uuid.UUID, studentID int, raw []model.AnswerInput) (*model.ExamSubmission, error) {
	sess, err := e.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if sess.AnswerKeyID != keyID || sess.StudentID != studentID {
		e.log.Warn().
			Str("session_id", sess.ID.String()).
			Str("claimed_key", keyID.String()).
			Int("claimed_student", studentID).
			Msg("Session mismatch on submit")
		return nil, ErrSessionMismatch
	}

	if sess.IsCompleted {
		metrics.DuplicateSubmits.Inc()
		return nil, ErrAlreadyCompleted
	}

	answers, totalAuto, pendingManual := scoreAnswers(sess.KeySnapshot, raw)

	submittedAt := e.now()
	durationSeconds := int64(submittedAt.Sub(sess.StartedAt).Seconds())
	if durationSeconds < 0 {
		durationSeconds = 0
	}

	sub := &model.ExamSubmission{
		Answers:            answers,
		TotalAutoScore:     totalAuto,
		PendingManualCount: pendingManual,
	}

	if err := e.submissionRepo.Finalize(ctx, sess.ID, submittedAt, durationSeconds, sub); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost the finalization race: another submit flipped the session
			// between our read and the conditional update.
			metrics.DuplicateSubmits.Inc()
			return nil, ErrAlreadyCompleted
		}
		return nil, fmt.Errorf("finalize submission: %w", err)
	}

	e.sessions.ClearCaches(ctx, token)

	metrics.SubmissionsFinalized.Inc()
	metrics.AutoScoreHistogram.Observe(totalAuto)
	metrics.ExamDurationSeconds.Observe(float64(durationSeconds))

	e.log.Info().
		Str("session_id", sess.ID.String()).
		Float64("total_auto_score", totalAuto).
		Int("pending_manual", pendingManual).
		Int64("duration_seconds", durationSeconds).
		Msg("Submission finalized")

	return sub, nil
}
