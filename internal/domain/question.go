package domain

import "strings"

// MinOptions is the smallest option set a question may carry.
const MinOptions = 2

// NormalizeLabel trims and upper-cases an option label so "a " and "A" compare equal.
func NormalizeLabel(label string) string {
	return strings.ToUpper(strings.TrimSpace(label))
}

// IsLabel reports whether label is a normalized option label: one letter A-Z.
func IsLabel(label string) bool {
	return len(label) == 1 && label[0] >= 'A' && label[0] <= 'Z'
}

// ValidateQuestion checks a question's structural invariants: non-empty text, at least two
// options with unique single-letter labels, and a correct label matching exactly one option.
func ValidateQuestion(q Question) error {
	if strings.TrimSpace(q.Text) == "" {
		return InvalidInput("question text is empty")
	}
	if len(q.Options) < MinOptions {
		return InvalidInput("question %q has %d options, need at least %d", q.Text, len(q.Options), MinOptions)
	}
	seen := make(map[string]struct{}, len(q.Options))
	for _, opt := range q.Options {
		if opt.Label == "" {
			return InvalidInput("question %q has an option without a label", q.Text)
		}
		if !IsLabel(opt.Label) {
			return InvalidInput("question %q has option label %q, want a single letter", q.Text, opt.Label)
		}
		if _, dup := seen[opt.Label]; dup {
			return InvalidInput("question %q repeats option label %q", q.Text, opt.Label)
		}
		seen[opt.Label] = struct{}{}
	}
	if !q.HasLabel(q.CorrectLabel) {
		return InvalidInput("question %q: correct label %q is not among its options", q.Text, q.CorrectLabel)
	}
	return nil
}

func cloneQuestions(in []Question) []Question {
	out := make([]Question, len(in))
	for i, q := range in {
		out[i] = q
		out[i].Options = append([]Option(nil), q.Options...)
	}
	return out
}
