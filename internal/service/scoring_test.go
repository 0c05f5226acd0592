package service

import (
	"testing"

	"github.com/gradelab/examlink/internal/model"
)

func TestNormalizeAnswer(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"B", "b"},
		{" B ", "b"},
		{"b", "b"},
		{"  photo   synthesis  ", "photo synthesis"},
		{"42", "42"},
		{" 3.14 ", "3.14"},
		{"", ""},
		{"\t\n ", ""},
		{"H2O", "h2o"},
	}
	for _, c := range cases {
		if got := NormalizeAnswer(c.in); got != c.want {
			t.Errorf("NormalizeAnswer(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func objectiveQ(number int, correct string, points float64) model.Question {
	return model.Question{Number: number, Kind: model.QuestionKindObjective, CorrectAnswer: correct, PointValue: points}
}

func subjectiveQ(number int, points float64) model.Question {
	return model.Question{Number: number, Kind: model.QuestionKindSubjective, CorrectAnswer: "(any)", PointValue: points}
}

func TestScoreAnswersObjectiveMatching(t *testing.T) {
	questions := []model.Question{objectiveQ(1, "B", 5)}

	for _, ans := range []string{"b", " B ", "B"} {
		answers, total, pending := scoreAnswers(questions, []model.AnswerInput{{QuestionNumber: 1, StudentAnswer: ans}})
		if total != 5 {
			t.Errorf("answer %q: total = %v, want 5", ans, total)
		}
		if pending != 0 {
			t.Errorf("answer %q: pending = %d, want 0", ans, pending)
		}
		if answers[0].AwardedScore == nil || *answers[0].AwardedScore != 5 {
			t.Errorf("answer %q: awarded = %v, want 5", ans, answers[0].AwardedScore)
		}
		if !answers[0].AutoGraded {
			t.Errorf("answer %q: expected auto_graded", ans)
		}
	}

	answers, total, _ := scoreAnswers(questions, []model.AnswerInput{{QuestionNumber: 1, StudentAnswer: "A"}})
	if total != 0 {
		t.Errorf("wrong answer: total = %v, want 0", total)
	}
	if answers[0].AwardedScore == nil || *answers[0].AwardedScore != 0 {
		t.Errorf("wrong answer: awarded = %v, want 0", answers[0].AwardedScore)
	}
}

func TestScoreAnswersSubjectiveAlwaysPending(t *testing.T) {
	questions := []model.Question{subjectiveQ(1, 10)}

	for _, ans := range []string{"my reasoning", "", "(any)"} {
		answers, total, pending := scoreAnswers(questions, []model.AnswerInput{{QuestionNumber: 1, StudentAnswer: ans}})
		if total != 0 {
			t.Errorf("answer %q: total = %v, want 0", ans, total)
		}
		if pending != 1 {
			t.Errorf("answer %q: pending = %d, want 1", ans, pending)
		}
		if answers[0].AwardedScore != nil {
			t.Errorf("answer %q: awarded = %v, want nil", ans, *answers[0].AwardedScore)
		}
		if answers[0].AutoGraded {
			t.Errorf("answer %q: subjective must not be auto graded", ans)
		}
	}
}

func TestScoreAnswersMissingQuestionRecordedEmpty(t *testing.T) {
	questions := []model.Question{
		objectiveQ(1, "A", 2),
		objectiveQ(2, "B", 3),
		subjectiveQ(3, 5),
	}
	raw := []model.AnswerInput{
		{QuestionNumber: 1, StudentAnswer: "a"},
		{QuestionNumber: 3, StudentAnswer: "essay text"},
	}

	answers, total, pending := scoreAnswers(questions, raw)
	if len(answers) != 3 {
		t.Fatalf("len(answers) = %d, want 3", len(answers))
	}
	if answers[1].QuestionNumber != 2 || answers[1].StudentAnswer != "" {
		t.Errorf("question 2 = %+v, want empty student answer", answers[1])
	}
	if answers[1].AwardedScore == nil || *answers[1].AwardedScore != 0 {
		t.Errorf("missing objective should score 0, got %v", answers[1].AwardedScore)
	}
	if total != 2 {
		t.Errorf("total = %v, want 2", total)
	}
	if pending != 1 {
		t.Errorf("pending = %d, want 1", pending)
	}
}

func TestScoreAnswersUnknownQuestionDropped(t *testing.T) {
	questions := []model.Question{objectiveQ(1, "A", 2)}
	raw := []model.AnswerInput{
		{QuestionNumber: 1, StudentAnswer: "A"},
		{QuestionNumber: 99, StudentAnswer: "ghost"},
	}

	answers, total, _ := scoreAnswers(questions, raw)
	if len(answers) != 1 {
		t.Fatalf("len(answers) = %d, want 1 (unknown number must be dropped)", len(answers))
	}
	if total != 2 {
		t.Errorf("total = %v, want 2", total)
	}
}

func TestScoreAnswersMissingSubjectiveStaysNil(t *testing.T) {
	questions := []model.Question{subjectiveQ(7, 4)}

	answers, _, pending := scoreAnswers(questions, nil)
	if len(answers) != 1 {
		t.Fatalf("len(answers) = %d, want 1", len(answers))
	}
	if answers[0].StudentAnswer != "" || answers[0].AwardedScore != nil {
		t.Errorf("missing subjective = %+v, want empty answer and nil score", answers[0])
	}
	if pending != 1 {
		t.Errorf("pending = %d, want 1", pending)
	}
}
