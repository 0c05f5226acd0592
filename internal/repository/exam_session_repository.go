package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gradelab/examlink/internal/model"
)

// SessionResult combines roster data with a session's outcome for the
// teacher-facing results listing.
type SessionResult struct {
	StudentID       int        `json:"student_id"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	StartedAt       time.Time  `json:"started_at"`
	SubmittedAt     *time.Time `json:"submitted_at"`
	DurationSeconds *int64     `json:"duration_seconds"`
	IsCompleted     bool       `json:"is_completed"`
	TotalAutoScore  *float64   `json:"total_auto_score"`
	PendingManual   *int       `json:"pending_manual_count"`
}

// ExamSessionRepository handles exam session data access.
type ExamSessionRepository struct {
	pool *pgxpool.Pool
}

// NewExamSessionRepository creates a new ExamSessionRepository.
func NewExamSessionRepository(pool *pgxpool.Pool) *ExamSessionRepository {
	return &ExamSessionRepository{pool: pool}
}

const sessionColumns = `id, answer_key_id, student_id, session_token, key_snapshot,
	started_at, submitted_at, duration_seconds, is_completed`

func scanSession(row interface{ Scan(...any) error }) (*model.ExamSession, error) {
	s := &model.ExamSession{}
	var snapshot []byte
	err := row.Scan(&s.ID, &s.AnswerKeyID, &s.StudentID, &s.SessionToken, &snapshot,
		&s.StartedAt, &s.SubmittedAt, &s.DurationSeconds, &s.IsCompleted)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(snapshot, &s.KeySnapshot); err != nil {
		return nil, fmt.Errorf("unmarshal key snapshot: %w", err)
	}
	return s, nil
}

// GetByToken retrieves a session by its opaque token.
func (r *ExamSessionRepository) GetByToken(ctx context.Context, token string) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE session_token = $1`, token))
}

// GetByKeyAndStudent retrieves a session for a specific key-student combination.
func (r *ExamSessionRepository) GetByKeyAndStudent(ctx context.Context, keyID uuid.UUID, studentID int) (*model.ExamSession, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions
		 WHERE answer_key_id = $1 AND student_id = $2`, keyID, studentID))
}

// Create inserts a new session. The UNIQUE (answer_key_id, student_id)
// constraint makes concurrent opens for the same pair race safely: the loser
// hits DO NOTHING and gets pgx.ErrNoRows, which the caller resolves by
// refetching the winner's row.
func (r *ExamSessionRepository) Create(ctx context.Context, s *model.ExamSession) error {
	snapshot, err := json.Marshal(s.KeySnapshot)
	if err != nil {
		return fmt.Errorf("marshal key snapshot: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (answer_key_id, student_id, session_token, key_snapshot)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (answer_key_id, student_id) DO NOTHING
		 RETURNING id, started_at`,
		s.AnswerKeyID, s.StudentID, s.SessionToken, snapshot,
	).Scan(&s.ID, &s.StartedAt)
}

// ListByKey retrieves all session results for an answer key, completed or not,
// joined with the roster and any submission totals.
func (r *ExamSessionRepository) ListByKey(ctx context.Context, keyID uuid.UUID, page, perPage int) ([]SessionResult, int64, error) {
	offset := (page - 1) * perPage

	var total int64
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_sessions WHERE answer_key_id = $1`, keyID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT st.id, st.name, st.phone,
		        es.started_at, es.submitted_at, es.duration_seconds, es.is_completed,
		        sub.total_auto_score, sub.pending_manual_count
		 FROM exam_sessions es
		 JOIN students st ON es.student_id = st.id
		 LEFT JOIN exam_submissions sub ON sub.session_id = es.id
		 WHERE es.answer_key_id = $1
		 ORDER BY st.name ASC
		 LIMIT $2 OFFSET $3`, keyID, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []SessionResult
	for rows.Next() {
		var sr SessionResult
		if err := rows.Scan(&sr.StudentID, &sr.Name, &sr.Phone,
			&sr.StartedAt, &sr.SubmittedAt, &sr.DurationSeconds, &sr.IsCompleted,
			&sr.TotalAutoScore, &sr.PendingManual); err != nil {
			return nil, 0, err
		}
		results = append(results, sr)
	}
	return results, total, rows.Err()
}
