package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/gradelab/examlink/internal/model"
	"github.com/gradelab/examlink/internal/repository"
	"github.com/gradelab/examlink/internal/response"
)

// scoreEpsilon tolerates float accumulation noise when comparing the declared
// total against the summed point values.
const scoreEpsilon = 1e-9

// AnswerKeyStore validates and persists teacher-authored answer keys.
type AnswerKeyStore struct {
	keyRepo *repository.AnswerKeyRepository
	log     zerolog.Logger
}

// NewAnswerKeyStore creates a new AnswerKeyStore.
func NewAnswerKeyStore(keyRepo *repository.AnswerKeyRepository, log zerolog.Logger) *AnswerKeyStore {
	return &AnswerKeyStore{
		keyRepo: keyRepo,
		log:     log.With().Str("component", "answer_key_store").Logger(),
	}
}

// Create validates the authoring payload and inserts the key. Rejection is
// preferred over silent correction so teachers catch authoring mistakes
// immediately: a mismatched total is an error, never recomputed.
func (s *AnswerKeyStore) Create(ctx context.Context, teacherID int, req *model.CreateAnswerKeyRequest) (*model.AnswerKey, error) {
	questions := make([]model.Question, 0, len(req.Questions))
	for _, q := range req.Questions {
		questions = append(questions, model.Question{
			Number:        q.Number,
			Kind:          model.QuestionKind(q.Kind),
			CorrectAnswer: q.CorrectAnswer,
			PointValue:    q.PointValue,
			Note:          q.Note,
		})
	}

	if verr := validateKey(req.TotalScore, questions); verr != nil {
		return nil, verr
	}

	key := &model.AnswerKey{
		Subject:         req.Subject,
		Title:           req.Title,
		ExamDate:        req.ExamDate,
		TotalScore:      req.TotalScore,
		TeacherID:       teacherID,
		GradingGroup:    req.GradingGroup,
		DurationMinutes: req.DurationMinutes,
		Questions:       questions,
	}

	if err := s.keyRepo.Create(ctx, key); err != nil {
		return nil, fmt.Errorf("create answer key: %w", err)
	}

	s.log.Info().
		Str("key_id", key.ID.String()).
		Int("teacher_id", teacherID).
		Int("questions", len(questions)).
		Msg("Answer key created")

	return key, nil
}

// Get retrieves an answer key by id.
func (s *AnswerKeyStore) Get(ctx context.Context, id uuid.UUID) (*model.AnswerKey, error) {
	key, err := s.keyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("get answer key: %w", err)
	}
	return key, nil
}

// ListByTeacher retrieves a teacher's keys, paginated.
func (s *AnswerKeyStore) ListByTeacher(ctx context.Context, teacherID, page, perPage int) ([]model.AnswerKey, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	keys, total, err := s.keyRepo.ListByTeacherPaginated(ctx, teacherID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, fmt.Errorf("list answer keys: %w", err)
	}
	if keys == nil {
		keys = []model.AnswerKey{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return keys, pagination, nil
}

// validateKey enforces the authoring invariants: unique question numbers,
// positive point values, a non-empty correct answer on every objective
// question, and sum(point values) == declared total.
func validateKey(totalScore float64, questions []model.Question) *ValidationError {
	fields := make(map[string]string)
	seen := make(map[int]bool, len(questions))
	var sum float64

	for i, q := range questions {
		path := fmt.Sprintf("questions[%d]", i)
		if seen[q.Number] {
			fields[path+".number"] = fmt.Sprintf("question number %d repeats", q.Number)
		}
		seen[q.Number] = true

		if q.PointValue <= 0 {
			fields[path+".point_value"] = "point value must be positive"
		}
		if q.Kind == model.QuestionKindObjective && q.CorrectAnswer == "" {
			fields[path+".correct_answer"] = "objective questions require a correct answer"
		}
		sum += q.PointValue
	}

	if math.Abs(sum-totalScore) > scoreEpsilon {
		fields["total_score"] = fmt.Sprintf("declared total %.2f does not equal question sum %.2f", totalScore, sum)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
