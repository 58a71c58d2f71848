package domain

import "time"

// OptionView is an option as shown to the test taker.
type OptionView struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// QuestionView carries no answer key; it is the only question shape used while pending.
type QuestionView struct {
	ID      string       `json:"id"`
	Text    string       `json:"text"`
	Options []OptionView `json:"options"`
}

// QuestionResult is the post-grading detail for one question.
type QuestionResult struct {
	QuestionID    string       `json:"questionId"`
	Position      int          `json:"position"`
	Text          string       `json:"text"`
	Options       []OptionView `json:"options"`
	UserAnswer    *string      `json:"userAnswer"`
	CorrectAnswer string       `json:"correctAnswer"`
	Correct       bool         `json:"correct"`
	Explanation   string       `json:"explanation"`
}

// View is the caller-visible assessment. Questions is set while pending,
// Results (with score fields) once completed.
type View struct {
	ID             string           `json:"id"`
	SourceRef      string           `json:"sourceRef"`
	Model          string           `json:"model,omitempty"`
	Completed      bool             `json:"completed"`
	CreatedAt      time.Time        `json:"createdAt"`
	Questions      []QuestionView   `json:"questions,omitempty"`
	Results        []QuestionResult `json:"results,omitempty"`
	Score          *int             `json:"score,omitempty"`
	TotalQuestions *int             `json:"totalQuestions,omitempty"`
	CompletedAt    *time.Time       `json:"completedAt,omitempty"`
}

// SubmitResult is returned to the caller after grading.
type SubmitResult struct {
	Score   int              `json:"score"`
	Total   int              `json:"total"`
	Details []QuestionResult `json:"details"`
}

// ViewOf renders the assessment for its owner, hiding answers until completion.
func ViewOf(a *Assessment) View {
	v := View{
		ID:        a.id,
		SourceRef: a.sourceRef,
		Model:     a.model,
		Completed: a.Completed(),
		CreatedAt: a.createdAt,
	}
	c, ok := a.Completion()
	if !ok {
		v.Questions = make([]QuestionView, len(a.questions))
		for i, q := range a.questions {
			v.Questions[i] = QuestionView{ID: q.ID, Text: q.Text, Options: optionViews(q.Options)}
		}
		return v
	}
	score, total, at := c.Score, c.TotalQuestions, c.CompletedAt
	v.Score = &score
	v.TotalQuestions = &total
	v.CompletedAt = &at
	v.Results = ResultsOf(a.questions, c.Answers)
	return v
}

// ResultsOf joins questions with their answer records by question id.
func ResultsOf(questions []Question, answers []AnswerRecord) []QuestionResult {
	byID := make(map[string]AnswerRecord, len(answers))
	for _, rec := range answers {
		byID[rec.QuestionID] = rec
	}
	out := make([]QuestionResult, len(questions))
	for i, q := range questions {
		res := QuestionResult{
			QuestionID:    q.ID,
			Position:      i,
			Text:          q.Text,
			Options:       optionViews(q.Options),
			CorrectAnswer: q.CorrectLabel,
			Explanation:   q.Explanation,
		}
		if rec, ok := byID[q.ID]; ok {
			res.Correct = rec.Correct
			if rec.Answered() {
				label := rec.SelectedLabel
				res.UserAnswer = &label
			}
		}
		out[i] = res
	}
	return out
}

func optionViews(opts []Option) []OptionView {
	out := make([]OptionView, len(opts))
	for i, o := range opts {
		out[i] = OptionView{ID: o.ID, Label: o.Label, Text: o.Text}
	}
	return out
}
