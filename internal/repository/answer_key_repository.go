package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gradelab/examlink/internal/model"
)

// AnswerKeyRepository handles answer key data access.
type AnswerKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerKeyRepository creates a new AnswerKeyRepository.
func NewAnswerKeyRepository(pool *pgxpool.Pool) *AnswerKeyRepository {
	return &AnswerKeyRepository{pool: pool}
}

// Create inserts a new answer key with its question list as a JSONB array.
func (r *AnswerKeyRepository) Create(ctx context.Context, k *model.AnswerKey) error {
	questions, err := json.Marshal(k.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO answer_keys (subject, title, exam_date, total_score, teacher_id, grading_group, duration_minutes, questions)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		k.Subject, k.Title, k.ExamDate, k.TotalScore, k.TeacherID, k.GradingGroup, k.DurationMinutes, questions,
	).Scan(&k.ID, &k.CreatedAt, &k.UpdatedAt)
}

// GetByID retrieves an answer key by its UUID.
func (r *AnswerKeyRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AnswerKey, error) {
	k := &model.AnswerKey{}
	var questions []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, subject, title, exam_date, total_score, teacher_id, grading_group, duration_minutes, questions, created_at, updated_at
		 FROM answer_keys WHERE id = $1`, id,
	).Scan(&k.ID, &k.Subject, &k.Title, &k.ExamDate, &k.TotalScore, &k.TeacherID,
		&k.GradingGroup, &k.DurationMinutes, &questions, &k.CreatedAt, &k.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &k.Questions); err != nil {
		return nil, fmt.Errorf("unmarshal questions: %w", err)
	}
	return k, nil
}

// ListByTeacherPaginated retrieves answer keys owned by a teacher, newest first.
func (r *AnswerKeyRepository) ListByTeacherPaginated(ctx context.Context, teacherID, limit, offset int) ([]model.AnswerKey, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM answer_keys WHERE teacher_id = $1`, teacherID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, subject, title, exam_date, total_score, teacher_id, grading_group, duration_minutes, questions, created_at, updated_at
		 FROM answer_keys
		 WHERE teacher_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`, teacherID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var keys []model.AnswerKey
	for rows.Next() {
		var k model.AnswerKey
		var questions []byte
		if err := rows.Scan(&k.ID, &k.Subject, &k.Title, &k.ExamDate, &k.TotalScore, &k.TeacherID,
			&k.GradingGroup, &k.DurationMinutes, &questions, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(questions, &k.Questions); err != nil {
			return nil, 0, fmt.Errorf("unmarshal questions: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, total, rows.Err()
}
