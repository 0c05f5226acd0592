package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gradelab/examlink/internal/config"
	"github.com/gradelab/examlink/internal/metrics"
	"github.com/gradelab/examlink/internal/model"
)

// KeyStore is the answer key lookup the session manager depends on.
type KeyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.AnswerKey, error)
}

// SessionStore is the session persistence the manager depends on. The Create
// implementation must enforce uniqueness on (answer_key_id, student_id) and
// signal a lost creation race with pgx.ErrNoRows.
type SessionStore interface {
	GetByToken(ctx context.Context, token string) (*model.ExamSession, error)
	GetByKeyAndStudent(ctx context.Context, keyID uuid.UUID, studentID int) (*model.ExamSession, error)
	Create(ctx context.Context, s *model.ExamSession) error
}

// SessionManager issues and tracks one exam attempt per student per answer
// key. The timer must survive reloads without granting a fresher attempt, so
// re-opening an in-progress session resumes it instead of creating a new one.
type SessionManager struct {
	sessionRepo SessionStore
	keyRepo     KeyStore
	rdb         *redis.Client
	log         zerolog.Logger
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(sessionRepo SessionStore, keyRepo KeyStore, rdb *redis.Client, log zerolog.Logger) *SessionManager {
	return &SessionManager{
		sessionRepo: sessionRepo,
		keyRepo:     keyRepo,
		rdb:         rdb,
		log:         log.With().Str("component", "session_manager").Logger(),
	}
}

// Open starts or resumes the student's attempt against the answer key.
// Exactly one session may ever complete per (key, student): a completed
// session fails with ErrAlreadyCompleted, an open one is returned as-is with
// its original token and start time, and only when none exists is a new
// session created with a fresh unguessable token and a snapshot of the key's
// questions.
func (s *SessionManager) Open(ctx context.Context, keyID uuid.UUID, studentID int) (*model.ExamSession, error) {
	key, err := s.keyRepo.GetByID(ctx, keyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			metrics.SessionsOpened.WithLabelValues("rejected").Inc()
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("get answer key: %w", err)
	}

	existing, err := s.sessionRepo.GetByKeyAndStudent(ctx, keyID, studentID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing session: %w", err)
	}
	if existing != nil {
		if existing.IsCompleted {
			metrics.SessionsOpened.WithLabelValues("rejected").Inc()
			return nil, ErrAlreadyCompleted
		}
		// Idempotent resume: same token, same timer. Refresh the start-time
		// cache in case it was evicted or the student switched devices.
		s.cacheStartTime(ctx, existing)
		metrics.SessionsOpened.WithLabelValues("resumed").Inc()
		return existing, nil
	}

	token, err := newSessionToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	session := &model.ExamSession{
		AnswerKeyID:  keyID,
		StudentID:    studentID,
		SessionToken: token,
		KeySnapshot:  key.Questions,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost a concurrent open for the same (key, student); the storage
			// uniqueness constraint guarantees a single winner. Resume it.
			winner, fetchErr := s.sessionRepo.GetByKeyAndStudent(ctx, keyID, studentID)
			if fetchErr != nil {
				return nil, fmt.Errorf("concurrent open detected, fetch failed: %w", fetchErr)
			}
			if winner.IsCompleted {
				return nil, ErrAlreadyCompleted
			}
			s.cacheStartTime(ctx, winner)
			metrics.SessionsOpened.WithLabelValues("resumed").Inc()
			return winner, nil
		}
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.cacheStartTime(ctx, session)
	metrics.SessionsOpened.WithLabelValues("created").Inc()

	s.log.Info().
		Str("key_id", keyID.String()).
		Int("student_id", studentID).
		Msg("Exam session opened")

	return session, nil
}

// GetByToken retrieves the session for an opaque token.
func (s *SessionManager) GetByToken(ctx context.Context, token string) (*model.ExamSession, error) {
	sess, err := s.sessionRepo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// State returns the reload view of an open session: autosaved draft answers
// plus elapsed seconds, so the client countdown resumes rather than resets.
func (s *SessionManager) State(ctx context.Context, token string) (*model.SessionState, error) {
	sess, err := s.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess.IsCompleted {
		return nil, ErrAlreadyCompleted
	}

	drafts, err := s.rdb.HGetAll(ctx, config.CacheKey.SessionDraftsKey(token)).Result()
	if err != nil {
		return nil, fmt.Errorf("get drafts: %w", err)
	}

	elapsed, err := s.elapsedSeconds(ctx, sess)
	if err != nil {
		return nil, err
	}

	return &model.SessionState{
		SessionToken:   sess.SessionToken,
		AnswerKeyID:    sess.AnswerKeyID,
		DraftAnswers:   drafts,
		ElapsedSeconds: elapsed,
	}, nil
}

// SaveDraft stores an in-progress answer in the session's draft hash and
// queues it for durable persistence by the draft worker. Drafts never affect
// grading; they only survive reloads.
func (s *SessionManager) SaveDraft(ctx context.Context, sess *model.ExamSession, questionNumber int, answer string) error {
	draftsKey := config.CacheKey.SessionDraftsKey(sess.SessionToken)
	field := strconv.Itoa(questionNumber)

	if err := s.rdb.HSet(ctx, draftsKey, field, answer).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}

	payload, _ := json.Marshal(map[string]interface{}{
		"session_id":      sess.ID.String(),
		"question_number": questionNumber,
		"answer":          answer,
	})
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistDraftsQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Draft queue push failed; draft kept in cache only")
	}
	return nil
}

// ClearCaches drops the session's Redis state after finalization.
func (s *SessionManager) ClearCaches(ctx context.Context, token string) {
	if s.rdb == nil {
		return
	}
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.SessionDraftsKey(token))
	pipe.Del(ctx, config.CacheKey.SessionStartKey(token))
	_, _ = pipe.Exec(ctx)
}

// elapsedSeconds reads the start time from Redis, falling back to the session
// row on a cache miss and self-healing the cache.
func (s *SessionManager) elapsedSeconds(ctx context.Context, sess *model.ExamSession) (float64, error) {
	startKey := config.CacheKey.SessionStartKey(sess.SessionToken)
	startUnix := sess.StartedAt.Unix()

	val, err := s.rdb.Get(ctx, startKey).Result()
	switch {
	case errors.Is(err, redis.Nil):
		_ = s.rdb.Set(ctx, startKey, startUnix, 0)
	case err != nil:
		return 0, fmt.Errorf("get start time: %w", err)
	default:
		if parsed, perr := strconv.ParseInt(val, 10, 64); perr == nil {
			startUnix = parsed
		}
	}

	elapsed := time.Since(time.Unix(startUnix, 0)).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed, nil
}

func (s *SessionManager) cacheStartTime(ctx context.Context, sess *model.ExamSession) {
	if s.rdb == nil {
		return
	}
	key := config.CacheKey.SessionStartKey(sess.SessionToken)
	if err := s.rdb.Set(ctx, key, sess.StartedAt.Unix(), 0).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Failed to cache session start time")
	}
}

// newSessionToken generates the opaque credential for an attempt: 32 random
// bytes, hex-encoded. It is the sole key authorizing a submission, so it must
// be unguessable.
func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
