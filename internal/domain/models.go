package domain

import "time"

// State is the lifecycle tag of an assessment.
type State string

const (
	StatePending   State = "pending"
	StateCompleted State = "completed"
)

// Option is one labeled candidate answer of a question.
type Option struct {
	ID         string `json:"id"`
	QuestionID string `json:"questionId"`
	Label      string `json:"label"`
	Text       string `json:"text"`
}

// Question models an MCQ question with exactly one correct option label.
type Question struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []Option `json:"options"`
	CorrectLabel string   `json:"correctLabel"`
	Explanation  string   `json:"explanation"`
}

// HasLabel reports whether label belongs to one of the question's options.
func (q Question) HasLabel(label string) bool {
	for _, opt := range q.Options {
		if opt.Label == label {
			return true
		}
	}
	return false
}

// AnswerRecord is the permanent grading outcome for one question.
// SelectedLabel is empty when the question was left unanswered.
type AnswerRecord struct {
	QuestionID    string `json:"questionId"`
	Position      int    `json:"position"`
	SelectedLabel string `json:"selectedLabel,omitempty"`
	Correct       bool   `json:"correct"`
}

// Answered reports whether a label was submitted for the question.
func (r AnswerRecord) Answered() bool {
	return r.SelectedLabel != ""
}

// Completion carries the write-once fields stored when an assessment is graded.
type Completion struct {
	Score          int
	TotalQuestions int
	CompletedAt    time.Time
	Answers        []AnswerRecord
}

// Summary is the list-friendly projection of an assessment.
type Summary struct {
	ID             string     `json:"id"`
	SourceRef      string     `json:"sourceRef"`
	Model          string     `json:"model,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	Completed      bool       `json:"completed"`
	Score          *int       `json:"score,omitempty"`
	TotalQuestions *int       `json:"totalQuestions,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}
