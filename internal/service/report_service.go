package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/gradelab/examlink/internal/model"
)

// KeyGetter resolves an answer key id, typically an *AnswerKeyStore.
type KeyGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*model.AnswerKey, error)
}

// ReportAssembler composes the completion view from session, submission, and
// answer key. Read-only; it must never serve an in-progress attempt, so it
// cannot leak partial timing or scoring state.
type ReportAssembler struct {
	sessions       *SessionManager
	submissionRepo SubmissionStore
	keys           KeyGetter
}

// NewReportAssembler creates a new ReportAssembler.
func NewReportAssembler(sessions *SessionManager, submissionRepo SubmissionStore, keys KeyGetter) *ReportAssembler {
	return &ReportAssembler{
		sessions:       sessions,
		submissionRepo: submissionRepo,
		keys:           keys,
	}
}

// Assemble builds the report for a completed session token.
func (a *ReportAssembler) Assemble(ctx context.Context, token string) (*model.ExamReport, error) {
	sess, err := a.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !sess.IsCompleted {
		return nil, ErrNotCompleted
	}

	sub, err := a.submissionRepo.GetBySession(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}

	key, err := a.keys.Get(ctx, sess.AnswerKeyID)
	if err != nil {
		return nil, err
	}

	answered := 0
	for _, ans := range sub.Answers {
		if strings.TrimSpace(ans.StudentAnswer) != "" {
			answered++
		}
	}

	// The key row may have been edited after this session snapshotted it;
	// question counts must come from the snapshot the student actually saw.
	summary := key.Summary()
	summary.TotalQuestions = len(sess.KeySnapshot)

	return &model.ExamReport{
		Session:        sess,
		Submission:     sub,
		AnswerKey:      summary,
		AnsweredCount:  answered,
		TotalQuestions: len(sess.KeySnapshot),
	}, nil
}
