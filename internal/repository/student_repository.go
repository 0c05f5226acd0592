package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gradelab/examlink/internal/model"
)

// StudentRepository reads the academy roster. The roster is owned by the
// surrounding application; this service only matches claimed identities
// against it.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

// FindByNameAndPhone looks up a roster entry. Phone is compared on digits
// only (separators stripped on both sides), name case-insensitively.
func (r *StudentRepository) FindByNameAndPhone(ctx context.Context, name, phoneDigits string) (*model.Student, error) {
	s := &model.Student{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, phone, created_at, updated_at
		 FROM students
		 WHERE regexp_replace(phone, '\D', '', 'g') = $1
		   AND LOWER(name) = LOWER($2)`, phoneDigits, name,
	).Scan(&s.ID, &s.Name, &s.Phone, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts a roster entry. Used by the seeding CLI only.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO students (name, phone)
		 VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		s.Name, s.Phone,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}
