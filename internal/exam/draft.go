package exam

import "fmt"

// Draft is the answer buffer of a student being registered or edited. The
// caller resizes it whenever the key length changes so it can always be
// handed to Session.Add.
type Draft struct {
	answers []string
}

// NewDraft returns a blank draft of n answers.
func NewDraft(n int) *Draft {
	return &Draft{answers: make([]string, n)}
}

// DraftOf starts a draft from existing answers, e.g. when editing.
func DraftOf(answers []string) *Draft {
	return &Draft{answers: cloneStrings(answers)}
}

// Resize pads with blanks or truncates to n answers.
func (d *Draft) Resize(n int) {
	if n < 0 {
		n = 0
	}
	d.answers = resize(d.answers, n)
}

// Set stores v at index without toggling. Used when answers come from a form.
func (d *Draft) Set(index int, v string) error {
	if index < 0 || index >= len(d.answers) {
		return fmt.Errorf("answer %d: %w", index, ErrIndexOutOfRange)
	}
	if err := ValidateAnswer(v); err != nil {
		return fmt.Errorf("answer %d: %q: %w", index, v, err)
	}
	d.answers[index] = v
	return nil
}

// Toggle selects v at index, or clears it when it is already selected.
func (d *Draft) Toggle(index int, v string) error {
	if index < 0 || index >= len(d.answers) {
		return fmt.Errorf("answer %d: %w", index, ErrIndexOutOfRange)
	}
	if v == "" {
		return fmt.Errorf("answer %d: %w", index, ErrInvalidLetter)
	}
	if err := ValidateAnswer(v); err != nil {
		return fmt.Errorf("answer %d: %q: %w", index, v, err)
	}
	d.answers[index] = toggle(d.answers[index], v)
	return nil
}

// Answers returns a copy of the buffer.
func (d *Draft) Answers() []string {
	return cloneStrings(d.answers)
}

// Len is the number of answers.
func (d *Draft) Len() int {
	return len(d.answers)
}
