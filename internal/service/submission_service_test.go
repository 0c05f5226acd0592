package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gradelab/examlink/internal/model"
)

func openedSession(t *testing.T) (*memStore, *SessionManager, *SubmissionEngine, *model.AnswerKey, *model.ExamSession) {
	t.Helper()
	store := newMemStore()
	key := testKey()
	store.addKey(key)
	mgr := newTestManager(store)
	engine := NewSubmissionEngine(store, mgr, zerolog.Nop())

	sess, err := mgr.Open(context.Background(), key.ID, 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return store, mgr, engine, key, sess
}

func TestSubmitFinalizesOnce(t *testing.T) {
	store, _, engine, key, sess := openedSession(t)

	sub, err := engine.Submit(context.Background(), sess.SessionToken, key.ID, 1, []model.AnswerInput{
		{QuestionNumber: 1, StudentAnswer: "a"},
		{QuestionNumber: 2, StudentAnswer: "my reasoning"},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if sub.TotalAutoScore != 5 {
		t.Errorf("TotalAutoScore = %v, want 5", sub.TotalAutoScore)
	}
	if sub.PendingManualCount != 1 {
		t.Errorf("PendingManualCount = %d, want 1", sub.PendingManualCount)
	}
	if store.submissionCount() != 1 {
		t.Errorf("submissions = %d, want 1", store.submissionCount())
	}

	finalized, err := store.GetByToken(context.Background(), sess.SessionToken)
	if err != nil {
		t.Fatalf("GetByToken: %v", err)
	}
	if !finalized.IsCompleted {
		t.Error("session not flipped to completed")
	}
	if finalized.SubmittedAt == nil || finalized.DurationSeconds == nil {
		t.Fatal("submitted_at and duration_seconds must be set on completion")
	}
	wantDur := int64(finalized.SubmittedAt.Sub(finalized.StartedAt).Seconds())
	if *finalized.DurationSeconds != wantDur {
		t.Errorf("duration = %d, want %d", *finalized.DurationSeconds, wantDur)
	}
}

func TestSubmitSessionNotFound(t *testing.T) {
	_, _, engine, key, _ := openedSession(t)

	_, err := engine.Submit(context.Background(), "no-such-token", key.ID, 1, nil)
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestSubmitSessionMismatch(t *testing.T) {
	_, _, engine, key, sess := openedSession(t)

	// Right token, wrong claimed student.
	_, err := engine.Submit(context.Background(), sess.SessionToken, key.ID, 99, nil)
	if !errors.Is(err, ErrSessionMismatch) {
		t.Fatalf("wrong student: error = %v, want ErrSessionMismatch", err)
	}

	// Right token, wrong claimed key.
	_, err = engine.Submit(context.Background(), sess.SessionToken, uuid.New(), 1, nil)
	if !errors.Is(err, ErrSessionMismatch) {
		t.Fatalf("wrong key: error = %v, want ErrSessionMismatch", err)
	}
}

func TestSubmitRejectsSecondAttempt(t *testing.T) {
	_, _, engine, key, sess := openedSession(t)

	if _, err := engine.Submit(context.Background(), sess.SessionToken, key.ID, 1, nil); err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	_, err := engine.Submit(context.Background(), sess.SessionToken, key.ID, 1, nil)
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("second Submit error = %v, want ErrAlreadyCompleted", err)
	}
}

func TestSubmitConcurrentAtMostOnce(t *testing.T) {
	store, _, engine, key, sess := openedSession(t)

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Submit(context.Background(), sess.SessionToken, key.ID, 1, []model.AnswerInput{
				{QuestionNumber: 1, StudentAnswer: "A"},
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	for i, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrAlreadyCompleted):
		default:
			t.Errorf("submit %d: unexpected error %v", i, err)
		}
	}
	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
	if store.submissionCount() != 1 {
		t.Errorf("submissions = %d, want exactly 1", store.submissionCount())
	}
}

func TestSubmitDurationNeverNegative(t *testing.T) {
	_, _, engine, key, sess := openedSession(t)

	// Clock skew: finalize "before" the session started.
	engine.now = func() time.Time { return sess.StartedAt.Add(-time.Minute) }

	if _, err := engine.Submit(context.Background(), sess.SessionToken, key.ID, 1, nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	finalized, _ := engine.sessions.GetByToken(context.Background(), sess.SessionToken)
	if *finalized.DurationSeconds != 0 {
		t.Errorf("duration = %d, want 0 when the clock runs backwards", *finalized.DurationSeconds)
	}
}
