package service

import (
	"strings"

	"github.com/gradelab/examlink/internal/model"
)

// NormalizeAnswer builds the comparison form of an answer: leading/trailing
// whitespace trimmed, internal whitespace runs collapsed to a single space,
// ASCII letters folded to lower case. Numeric and symbolic answers therefore
// compare literally after trimming.
func NormalizeAnswer(s string) string {
	collapsed := strings.Join(strings.Fields(s), " ")
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, collapsed)
}

// scoreAnswers grades a raw answer set against a key snapshot. Every question
// in the snapshot yields exactly one entry, in question order: missing answers
// are recorded as empty strings so completion percentage stays computable, and
// raw entries whose number is not in the snapshot are dropped (client drift is
// tolerated, not an error). Duplicated raw entries resolve to the last one.
func scoreAnswers(questions []model.Question, raw []model.AnswerInput) (answers []model.SubmissionAnswer, totalAuto float64, pendingManual int) {
	byNumber := make(map[int]string, len(raw))
	for _, in := range raw {
		byNumber[in.QuestionNumber] = in.StudentAnswer
	}

	answers = make([]model.SubmissionAnswer, 0, len(questions))
	for _, q := range questions {
		entry := model.SubmissionAnswer{
			QuestionNumber: q.Number,
			StudentAnswer:  byNumber[q.Number],
		}

		switch q.Kind {
		case model.QuestionKindObjective:
			entry.AutoGraded = true
			score := 0.0
			if NormalizeAnswer(entry.StudentAnswer) == NormalizeAnswer(q.CorrectAnswer) {
				score = q.PointValue
			}
			entry.AwardedScore = &score
			totalAuto += score
		case model.QuestionKindSubjective:
			// Left for manual grading; never assign a numeric score here.
			entry.AwardedScore = nil
			entry.AutoGraded = false
			pendingManual++
		}

		answers = append(answers, entry)
	}
	return answers, totalAuto, pendingManual
}
