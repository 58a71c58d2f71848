// Package grading scores a submitted answer set against an assessment's questions.
package grading

import (
	"time"

	"video-quiz-service/internal/domain"
)

// Result is the outcome of scoring one submission.
type Result struct {
	Score   int
	Total   int
	Records []domain.AnswerRecord
}

// Score grades answers (keyed by question position) against questions.
// A missing or empty answer is unanswered and counts as incorrect; a label that is not among
// the question's options is simply incorrect. Keys outside the question range are ignored.
// Score has no side effects and does not read the clock.
func Score(questions []domain.Question, answers map[int]string) Result {
	res := Result{
		Total:   len(questions),
		Records: make([]domain.AnswerRecord, len(questions)),
	}
	for i, q := range questions {
		selected := domain.NormalizeLabel(answers[i])
		correct := selected != "" && selected == q.CorrectLabel
		if correct {
			res.Score++
		}
		res.Records[i] = domain.AnswerRecord{
			QuestionID:    q.ID,
			Position:      i,
			SelectedLabel: selected,
			Correct:       correct,
		}
	}
	return res
}

// Completion converts a result into the write-once completion fields.
func (r Result) Completion(at time.Time) domain.Completion {
	return domain.Completion{
		Score:          r.Score,
		TotalQuestions: r.Total,
		CompletedAt:    at,
		Answers:        r.Records,
	}
}
