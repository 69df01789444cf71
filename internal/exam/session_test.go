package exam

import (
	"errors"
	"testing"

	"github.com/pavelanni/corretor/internal/model"
)

func newTestSession(t *testing.T, n int) *Session {
	t.Helper()
	s := New()
	if err := s.SetLength(n); err != nil {
		t.Fatalf("SetLength(%d): %v", n, err)
	}
	return s
}

func assertVectorsMatchKey(t *testing.T, s *Session) {
	t.Helper()
	n := s.QuestionCount()
	if got := len(s.Key()); got != n {
		t.Fatalf("key length %d, question count %d", got, n)
	}
	for i, st := range s.Roster() {
		if len(st.Answers) != n {
			t.Fatalf("student %d (%s) has %d answers, want %d", i, st.Name, len(st.Answers), n)
		}
	}
}

func TestNewSessionDefaults(t *testing.T) {
	s := New()
	if s.QuestionCount() != model.DefaultQuestionCount {
		t.Errorf("expected %d questions, got %d", model.DefaultQuestionCount, s.QuestionCount())
	}
	for i, v := range s.Key() {
		if v != "" {
			t.Errorf("key[%d] = %q, want blank", i, v)
		}
	}
	if len(s.Roster()) != 0 {
		t.Errorf("expected empty roster")
	}
	if s.Metadata() != (model.ExamMetadata{}) {
		t.Errorf("expected empty metadata, got %+v", s.Metadata())
	}
}

func TestSetLengthPropagatesToRoster(t *testing.T) {
	s := newTestSession(t, 3)
	if err := s.SetSlot(2, "C"); err != nil {
		t.Fatalf("SetSlot: %v", err)
	}
	if err := s.Add("Ana", []string{"A", "B", "C"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := s.SetLength(5); err != nil {
		t.Fatalf("SetLength(5): %v", err)
	}
	assertVectorsMatchKey(t, s)
	ana, _ := s.Student(0)
	if ana.Answers[2] != "C" || ana.Answers[3] != "" || ana.Answers[4] != "" {
		t.Errorf("grow should append blanks, got %v", ana.Answers)
	}

	if err := s.SetLength(2); err != nil {
		t.Fatalf("SetLength(2): %v", err)
	}
	assertVectorsMatchKey(t, s)
	ana, _ = s.Student(0)
	if ana.Answers[0] != "A" || ana.Answers[1] != "B" {
		t.Errorf("shrink should keep leading answers, got %v", ana.Answers)
	}

	if err := s.SetLength(5); err != nil {
		t.Fatalf("SetLength(5): %v", err)
	}
	if got := s.Key()[2]; got != "" {
		t.Errorf("slot dropped by shrink should come back blank, got %q", got)
	}
}

func TestSetLengthRefusesBelowOne(t *testing.T) {
	s := newTestSession(t, 1)
	if err := s.RemoveQuestion(); !errors.Is(err, ErrMinQuestions) {
		t.Fatalf("expected ErrMinQuestions, got %v", err)
	}
	if err := s.SetLength(0); !errors.Is(err, ErrMinQuestions) {
		t.Fatalf("expected ErrMinQuestions, got %v", err)
	}
	if s.QuestionCount() != 1 {
		t.Errorf("expected 1 question, got %d", s.QuestionCount())
	}
}

func TestLengthInvariantUnderInterleaving(t *testing.T) {
	s := newTestSession(t, 4)
	steps := []func() error{
		func() error { return s.Add("Carla", NewDraft(s.QuestionCount()).Answers()) },
		s.AddQuestion,
		s.AddQuestion,
		func() error { return s.Add("Bruno", NewDraft(s.QuestionCount()).Answers()) },
		s.RemoveQuestion,
		func() error {
			st, err := s.Student(0)
			if err != nil {
				return err
			}
			st.Answers[0] = "E"
			return s.Update(0, st)
		},
		func() error { return s.SetLength(9) },
		func() error { return s.SetLength(2) },
		func() error { return s.Add("Ana", []string{"A", "-"}) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		assertVectorsMatchKey(t, s)
	}
	if len(s.Roster()) != 3 {
		t.Errorf("expected 3 students, got %d", len(s.Roster()))
	}
}

func TestSetSlotToggles(t *testing.T) {
	s := newTestSession(t, 2)

	tests := []struct {
		name   string
		letter string
		want   string
	}{
		{"select", "B", "B"},
		{"same letter clears", "B", ""},
		{"select again", "B", "B"},
		{"other letter replaces", "D", "D"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.SetSlot(0, tt.letter); err != nil {
				t.Fatalf("SetSlot: %v", err)
			}
			if got := s.Key()[0]; got != tt.want {
				t.Errorf("key[0] = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSetSlotRejects(t *testing.T) {
	s := newTestSession(t, 2)
	for _, letter := range []string{"F", "", "-", "AB", "1"} {
		if err := s.SetSlot(0, letter); !errors.Is(err, ErrInvalidLetter) {
			t.Errorf("SetSlot(%q): expected ErrInvalidLetter, got %v", letter, err)
		}
	}
	if err := s.SetSlot(2, "A"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if err := s.SetSlot(-1, "A"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if s.Key()[0] != "" {
		t.Errorf("rejected toggles must not mutate the key")
	}
}

func TestAddValidates(t *testing.T) {
	s := newTestSession(t, 2)

	err := s.Add("   ", []string{"A", "B"})
	var verr *ValidationError
	if !errors.As(err, &verr) || !verr.Has("name") {
		t.Errorf("expected name ValidationError, got %v", err)
	}
	if err := s.Add("Ana", []string{"A"}); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
	if err := s.Add("Ana", []string{"A", "Z"}); !errors.Is(err, ErrInvalidLetter) {
		t.Errorf("expected ErrInvalidLetter, got %v", err)
	}
	if len(s.Roster()) != 0 {
		t.Errorf("rejected adds must not touch the roster")
	}
	if err := s.Add("Ana", []string{"a", "-"}); err != nil {
		t.Errorf("lowercase letters and the unanswered marker are valid: %v", err)
	}
}

func TestUpdateAndRemove(t *testing.T) {
	s := newTestSession(t, 1)
	_ = s.Add("Ana", []string{"A"})
	_ = s.Add("Bruno", []string{"B"})

	if err := s.Update(1, model.Student{Name: "Bruna", Answers: []string{"C"}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := s.Update(5, model.Student{Name: "X", Answers: []string{"C"}}); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	roster := s.Roster()
	if roster[0].Name != "Ana" || roster[1].Name != "Bruna" || roster[1].Answers[0] != "C" {
		t.Errorf("unexpected roster after update: %+v", roster)
	}

	if err := s.Remove(0); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	roster = s.Roster()
	if len(roster) != 1 || roster[0].Name != "Bruna" {
		t.Errorf("expected only Bruna at index 0, got %+v", roster)
	}
	if err := s.Remove(1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestRosterIsCopied(t *testing.T) {
	s := newTestSession(t, 1)
	answers := []string{"A"}
	_ = s.Add("Ana", answers)
	answers[0] = "E"

	roster := s.Roster()
	roster[0].Answers[0] = "D"
	if st, _ := s.Student(0); st.Answers[0] != "A" {
		t.Errorf("session state leaked through a copy: %v", st.Answers)
	}
}

func TestClearAndReset(t *testing.T) {
	s := newTestSession(t, 3)
	_ = s.SetSlot(0, "A")
	s.SetMetadata(model.ExamMetadata{Subject: "Matemática", Grade: "5º Ano"})
	_ = s.Add("Ana", []string{"A", "", ""})

	s.Clear()
	if len(s.Roster()) != 0 {
		t.Errorf("Clear should empty the roster")
	}
	if s.Key()[0] != "A" || s.QuestionCount() != 3 {
		t.Errorf("Clear must not touch the key")
	}

	s.Reset()
	snap := s.Snapshot()
	def := model.DefaultSnapshot()
	if snap.QuestionCount != def.QuestionCount || snap.Subject != "" || snap.Grade != "" || len(snap.Roster) != 0 {
		t.Errorf("Reset should restore defaults, got %+v", snap)
	}
}

func TestValidateMetadata(t *testing.T) {
	tests := []struct {
		name    string
		meta    model.ExamMetadata
		missing []string
	}{
		{"complete", model.ExamMetadata{Subject: "História", Grade: "7º B"}, nil},
		{"blank subject", model.ExamMetadata{Subject: "  ", Grade: "7º B"}, []string{"subject"}},
		{"both missing", model.ExamMetadata{}, []string{"subject", "grade"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMetadata(tt.meta)
			if len(tt.missing) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			for _, f := range tt.missing {
				if !verr.Has(f) {
					t.Errorf("expected %s to be reported, got %v", f, verr)
				}
			}
		})
	}
}

func TestSetMetadataTrims(t *testing.T) {
	s := New()
	s.SetMetadata(model.ExamMetadata{Subject: " Física ", Grade: "\t9º Ano "})
	got := s.Metadata()
	if got.Subject != "Física" || got.Grade != "9º Ano" {
		t.Errorf("metadata = %+v, want trimmed values", got)
	}
	if s.Snapshot().Subject != "Física" {
		t.Errorf("snapshot kept untrimmed subject %q", s.Snapshot().Subject)
	}
}

func TestSnapshotRestore(t *testing.T) {
	s := newTestSession(t, 2)
	_ = s.SetSlot(1, "E")
	s.SetMetadata(model.ExamMetadata{Subject: "Ciências", Grade: "6º A"})
	_ = s.Add("Ana", []string{"A", "E"})

	restored, err := FromSnapshot(s.Snapshot())
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	if restored.Metadata() != s.Metadata() || restored.Key()[1] != "E" || len(restored.Roster()) != 1 {
		t.Errorf("round trip lost data: %+v", restored.Snapshot())
	}

	bad := s.Snapshot()
	bad.Roster[0].Answers = []string{"A"}
	if err := restored.Restore(bad); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
	if len(restored.Roster()[0].Answers) != 2 {
		t.Errorf("failed restore must leave state untouched")
	}
}
