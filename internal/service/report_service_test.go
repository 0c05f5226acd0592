package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/gradelab/examlink/internal/model"
)

// Get satisfies KeyGetter for the in-memory store.
func (m *memStore) Get(ctx context.Context, id uuid.UUID) (*model.AnswerKey, error) {
	k, err := m.GetByID(ctx, id)
	if err != nil {
		return nil, ErrKeyNotFound
	}
	return k, nil
}

func TestAssembleRequiresCompletion(t *testing.T) {
	store, mgr, _, _, sess := openedSession(t)
	assembler := NewReportAssembler(mgr, store, store)

	_, err := assembler.Assemble(context.Background(), sess.SessionToken)
	if !errors.Is(err, ErrNotCompleted) {
		t.Fatalf("error = %v, want ErrNotCompleted for in-progress session", err)
	}

	_, err = assembler.Assemble(context.Background(), "no-such-token")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("error = %v, want ErrSessionNotFound", err)
	}
}

// Full flow: author a key, open, submit, assemble. Mirrors the link flow a
// student actually follows.
func TestAssembleEndToEnd(t *testing.T) {
	store, mgr, engine, key, sess := openedSession(t)
	assembler := NewReportAssembler(mgr, store, store)

	_, err := engine.Submit(context.Background(), sess.SessionToken, key.ID, 1, []model.AnswerInput{
		{QuestionNumber: 1, StudentAnswer: "a"},
		{QuestionNumber: 2, StudentAnswer: "my reasoning"},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	report, err := assembler.Assemble(context.Background(), sess.SessionToken)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if report.Submission.TotalAutoScore != 5 {
		t.Errorf("TotalAutoScore = %v, want 5", report.Submission.TotalAutoScore)
	}
	if report.Submission.PendingManualCount != 1 {
		t.Errorf("PendingManualCount = %d, want 1", report.Submission.PendingManualCount)
	}
	if report.AnsweredCount != 2 {
		t.Errorf("AnsweredCount = %d, want 2", report.AnsweredCount)
	}
	if report.TotalQuestions != 2 {
		t.Errorf("TotalQuestions = %d, want 2", report.TotalQuestions)
	}
	if !report.Session.IsCompleted {
		t.Error("report session must be the completed record")
	}
	if report.AnswerKey.Title != key.Title {
		t.Errorf("AnswerKey.Title = %q, want %q", report.AnswerKey.Title, key.Title)
	}
}

// Editing a key after a session opened must not change that session's report:
// question counts come from the snapshot, not the live row.
func TestAssembleSummaryFollowsSnapshotAfterKeyEdit(t *testing.T) {
	store, mgr, engine, key, sess := openedSession(t)
	assembler := NewReportAssembler(mgr, store, store)

	_, err := engine.Submit(context.Background(), sess.SessionToken, key.ID, 1, []model.AnswerInput{
		{QuestionNumber: 1, StudentAnswer: "a"},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Teacher appends a third question to the stored key.
	store.keys[key.ID].Questions = append(store.keys[key.ID].Questions, model.Question{
		Number:        3,
		Kind:          model.QuestionKindObjective,
		CorrectAnswer: "c",
		PointValue:    5,
	})

	report, err := assembler.Assemble(context.Background(), sess.SessionToken)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if report.TotalQuestions != 2 {
		t.Errorf("TotalQuestions = %d, want 2 from the snapshot", report.TotalQuestions)
	}
	if report.AnswerKey.TotalQuestions != 2 {
		t.Errorf("AnswerKey.TotalQuestions = %d, want 2 from the snapshot", report.AnswerKey.TotalQuestions)
	}
}

func TestAssembleCountsBlankAnswersAsUnanswered(t *testing.T) {
	store, mgr, engine, key, sess := openedSession(t)
	assembler := NewReportAssembler(mgr, store, store)

	// Question 1 answered with whitespace only, question 2 omitted entirely.
	_, err := engine.Submit(context.Background(), sess.SessionToken, key.ID, 1, []model.AnswerInput{
		{QuestionNumber: 1, StudentAnswer: "   "},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	report, err := assembler.Assemble(context.Background(), sess.SessionToken)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if report.AnsweredCount != 0 {
		t.Errorf("AnsweredCount = %d, want 0", report.AnsweredCount)
	}
	if len(report.Submission.Answers) != 2 {
		t.Errorf("submission entries = %d, want one per key question", len(report.Submission.Answers))
	}
}
