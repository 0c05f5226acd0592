package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gradelab/examlink/internal/model"
)

// ExamSubmissionRepository handles exam submission data access. It owns the
// finalization transaction: flipping a session to completed and creating its
// submission are one atomic unit.
type ExamSubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSubmissionRepository creates a new ExamSubmissionRepository.
func NewExamSubmissionRepository(pool *pgxpool.Pool) *ExamSubmissionRepository {
	return &ExamSubmissionRepository{pool: pool}
}

// Finalize marks the session completed and persists the graded submission in
// a single transaction. The UPDATE is conditional on is_completed = false, so
// of N racing submits exactly one commits; the losers get pgx.ErrNoRows here
// and never reach the INSERT. The UNIQUE constraint on session_id backs the
// same guarantee at the storage layer.
func (r *ExamSubmissionRepository) Finalize(ctx context.Context, sessionID uuid.UUID, submittedAt time.Time, durationSeconds int64, sub *model.ExamSubmission) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE exam_sessions
		 SET is_completed = TRUE, submitted_at = $1, duration_seconds = $2
		 WHERE id = $3 AND is_completed = FALSE`,
		submittedAt, durationSeconds, sessionID,
	)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if err := tx.QueryRow(ctx,
		`INSERT INTO exam_submissions (session_id, total_auto_score, pending_manual_count)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		sessionID, sub.TotalAutoScore, sub.PendingManualCount,
	).Scan(&sub.ID, &sub.CreatedAt); err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	sub.SessionID = sessionID

	for _, a := range sub.Answers {
		if _, err := tx.Exec(ctx,
			`INSERT INTO submission_answers (submission_id, question_number, student_answer, awarded_score, auto_graded)
			 VALUES ($1, $2, $3, $4, $5)`,
			sub.ID, a.QuestionNumber, a.StudentAnswer, a.AwardedScore, a.AutoGraded,
		); err != nil {
			return fmt.Errorf("insert answer %d: %w", a.QuestionNumber, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// GetBySession retrieves the submission for a completed session, with its
// answer rows in question order.
func (r *ExamSubmissionRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.ExamSubmission, error) {
	sub := &model.ExamSubmission{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, session_id, total_auto_score, pending_manual_count, created_at
		 FROM exam_submissions WHERE session_id = $1`, sessionID,
	).Scan(&sub.ID, &sub.SessionID, &sub.TotalAutoScore, &sub.PendingManualCount, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT question_number, student_answer, awarded_score, auto_graded
		 FROM submission_answers
		 WHERE submission_id = $1
		 ORDER BY question_number`, sub.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a model.SubmissionAnswer
		if err := rows.Scan(&a.QuestionNumber, &a.StudentAnswer, &a.AwardedScore, &a.AutoGraded); err != nil {
			return nil, err
		}
		sub.Answers = append(sub.Answers, a)
	}
	return sub, rows.Err()
}
