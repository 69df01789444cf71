// Package exam holds the mutable exam state: the answer key, the exam labels
// and the roster of students. Every operation runs under the session lock, so a
// key resize and the matching update of every answer vector are observed as a
// single step.
package exam

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pavelanni/corretor/internal/model"
)

// Session is the central exam state shared by every view.
type Session struct {
	mu       sync.RWMutex
	key      []string
	roster   []model.Student
	metadata model.ExamMetadata
}

// New returns a session with the default state.
func New() *Session {
	s := &Session{}
	s.reset()
	return s
}

// FromSnapshot returns a session restored from snap.
func FromSnapshot(snap model.Snapshot) (*Session, error) {
	s := &Session{}
	if err := s.Restore(snap); err != nil {
		return nil, err
	}
	return s, nil
}

// QuestionCount returns the current key length.
func (s *Session) QuestionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.key)
}

// Key returns a copy of the answer key.
func (s *Session) Key() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneStrings(s.key)
}

// Metadata returns the exam labels.
func (s *Session) Metadata() model.ExamMetadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.metadata
}

// Roster returns a deep copy of the students in registration order.
func (s *Session) Roster() []model.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRoster(s.roster)
}

// Student returns the student at index.
func (s *Session) Student(index int) (model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.roster) {
		return model.Student{}, fmt.Errorf("student %d: %w", index, ErrIndexOutOfRange)
	}
	return s.roster[index].Clone(), nil
}

// SetLength grows or shrinks the key and every answer vector to n.
// Growing appends empty slots; shrinking drops trailing ones.
func (s *Session) SetLength(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLength(n)
}

// AddQuestion appends one blank question.
func (s *Session) AddQuestion() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLength(len(s.key) + 1)
}

// RemoveQuestion drops the last question, keeping at least one.
func (s *Session) RemoveQuestion() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setLength(len(s.key) - 1)
}

func (s *Session) setLength(n int) error {
	if n < 1 {
		return ErrMinQuestions
	}
	if n == len(s.key) {
		return nil
	}
	s.key = resize(s.key, n)
	for i := range s.roster {
		s.roster[i].Answers = resize(s.roster[i].Answers, n)
	}
	return nil
}

// SetSlot sets key[index] to letter, or clears it when it already holds letter.
func (s *Session) SetSlot(index int, letter string) error {
	if err := ValidateKeyLetter(letter); err != nil {
		return fmt.Errorf("key slot %d: %q: %w", index, letter, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.key) {
		return fmt.Errorf("key slot %d: %w", index, ErrIndexOutOfRange)
	}
	s.key[index] = toggle(s.key[index], letter)
	return nil
}

// SetMetadata replaces the exam labels. Validation happens in ValidateMetadata,
// when the operator moves on to the roster.
func (s *Session) SetMetadata(m model.ExamMetadata) {
	m.Subject = strings.TrimSpace(m.Subject)
	m.Grade = strings.TrimSpace(m.Grade)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metadata = m
}

// ValidateMetadata checks the current labels.
func (s *Session) ValidateMetadata() error {
	return ValidateMetadata(s.Metadata())
}

// Add appends a student. answers must already have the key's length.
func (s *Session) Add(name string, answers []string) error {
	st := model.Student{Name: strings.TrimSpace(name), Answers: cloneStrings(answers)}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := validateStudent(st, len(s.key)); err != nil {
		return err
	}
	s.roster = append(s.roster, st)
	return nil
}

// Update replaces the student at index.
func (s *Session) Update(index int, st model.Student) error {
	st = st.Clone()
	st.Name = strings.TrimSpace(st.Name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.roster) {
		return fmt.Errorf("student %d: %w", index, ErrIndexOutOfRange)
	}
	if err := validateStudent(st, len(s.key)); err != nil {
		return err
	}
	s.roster[index] = st
	return nil
}

// Remove deletes the student at index; later students shift down by one.
func (s *Session) Remove(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.roster) {
		return fmt.Errorf("student %d: %w", index, ErrIndexOutOfRange)
	}
	s.roster = append(s.roster[:index:index], s.roster[index+1:]...)
	return nil
}

// Clear empties the roster without touching the key.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = []model.Student{}
}

// Reset restores the default state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Snapshot copies the whole state out.
func (s *Session) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.Snapshot{
		QuestionCount: len(s.key),
		Key:           cloneStrings(s.key),
		Roster:        cloneRoster(s.roster),
		Subject:       s.metadata.Subject,
		Grade:         s.metadata.Grade,
	}
}

// Restore replaces the whole state with snap, or leaves it untouched when snap
// is malformed.
func (s *Session) Restore(snap model.Snapshot) error {
	if err := ValidateSnapshot(snap); err != nil {
		return fmt.Errorf("restore snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = cloneStrings(snap.Key)
	s.roster = cloneRoster(snap.Roster)
	s.metadata = snap.Metadata()
	return nil
}

func (s *Session) reset() {
	d := model.DefaultSnapshot()
	s.key = d.Key
	s.roster = d.Roster
	s.metadata = model.ExamMetadata{}
}

func toggle(current, value string) string {
	if current == value {
		return ""
	}
	return value
}

func resize(v []string, n int) []string {
	if n <= len(v) {
		return cloneStrings(v[:n])
	}
	out := make([]string, n)
	copy(out, v)
	return out
}

func cloneStrings(v []string) []string {
	out := make([]string, len(v))
	copy(out, v)
	return out
}

func cloneRoster(r []model.Student) []model.Student {
	out := make([]model.Student, len(r))
	for i, st := range r {
		out[i] = st.Clone()
	}
	return out
}
