package exam

import (
	"errors"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/pavelanni/corretor/internal/model"
)

var (
	keyLetterRule    = validation.In(anyCase(model.Letters)...).Error("must be one of A-E")
	answerLetterRule = validation.In(append(anyCase(model.Letters), model.Unanswered)...).Error("must be one of A-E or -")
)

type metadataForm struct {
	Subject string
	Grade   string
}

func (f *metadataForm) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Subject, validation.Required.Error("subject is required")),
		validation.Field(&f.Grade, validation.Required.Error("grade is required")),
	)
}

// ValidateMetadata checks the labels required before students can be registered.
func ValidateMetadata(m model.ExamMetadata) error {
	f := metadataForm{
		Subject: strings.TrimSpace(m.Subject),
		Grade:   strings.TrimSpace(m.Grade),
	}
	return asValidationError(f.Validate())
}

// ValidateKeyLetter accepts a single letter of the alphabet, in any case.
func ValidateKeyLetter(v string) error {
	if err := validation.Validate(v, validation.Required, keyLetterRule); err != nil {
		return ErrInvalidLetter
	}
	return nil
}

// ValidateAnswer accepts an empty value, the unanswered marker or a letter.
func ValidateAnswer(v string) error {
	if err := validation.Validate(v, answerLetterRule); err != nil {
		return ErrInvalidLetter
	}
	return nil
}

// ValidateSnapshot checks the shape of a snapshot before it replaces the
// session state.
func ValidateSnapshot(s model.Snapshot) error {
	if s.QuestionCount < 1 {
		return ErrMinQuestions
	}
	if len(s.Key) != s.QuestionCount {
		return ErrLengthMismatch
	}
	for _, v := range s.Key {
		if v == "" {
			continue
		}
		if err := ValidateKeyLetter(v); err != nil {
			return err
		}
	}
	for _, st := range s.Roster {
		if err := validateStudent(st, s.QuestionCount); err != nil {
			return err
		}
	}
	return nil
}

func validateStudent(st model.Student, n int) error {
	if strings.TrimSpace(st.Name) == "" {
		return &ValidationError{Fields: map[string]string{"name": "student name is required"}}
	}
	if len(st.Answers) != n {
		return ErrLengthMismatch
	}
	for _, v := range st.Answers {
		if err := ValidateAnswer(v); err != nil {
			return err
		}
	}
	return nil
}

func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}
	fields := make(map[string]string, len(errs))
	for name, e := range errs {
		fields[strings.ToLower(name)] = e.Error()
	}
	return &ValidationError{Fields: fields}
}

func anyCase(letters []string) []interface{} {
	out := make([]interface{}, 0, 2*len(letters))
	for _, l := range letters {
		out = append(out, strings.ToUpper(l), strings.ToLower(l))
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
