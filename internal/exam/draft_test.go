package exam

import (
	"errors"
	"testing"
)

func TestDraftResize(t *testing.T) {
	d := DraftOf([]string{"A", "B", "C"})
	d.Resize(5)
	if got := d.Answers(); len(got) != 5 || got[2] != "C" || got[4] != "" {
		t.Errorf("grow: got %v", got)
	}
	d.Resize(1)
	if got := d.Answers(); len(got) != 1 || got[0] != "A" {
		t.Errorf("shrink: got %v", got)
	}
	d.Resize(-3)
	if d.Len() != 0 {
		t.Errorf("negative size should clamp to 0, got %d", d.Len())
	}
}

func TestDraftToggle(t *testing.T) {
	d := NewDraft(2)
	if err := d.Toggle(0, "-"); err != nil {
		t.Fatalf("Toggle(-): %v", err)
	}
	if d.Answers()[0] != "-" {
		t.Errorf("expected unanswered marker")
	}
	if err := d.Toggle(0, "-"); err != nil {
		t.Fatalf("Toggle(-): %v", err)
	}
	if d.Answers()[0] != "" {
		t.Errorf("second toggle should clear, got %q", d.Answers()[0])
	}
	if err := d.Toggle(1, "X"); !errors.Is(err, ErrInvalidLetter) {
		t.Errorf("expected ErrInvalidLetter, got %v", err)
	}
	if err := d.Toggle(2, "A"); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
}

func TestDraftSet(t *testing.T) {
	d := NewDraft(2)
	if err := d.Set(1, "c"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := d.Set(1, "c"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if d.Answers()[1] != "c" {
		t.Errorf("Set must not toggle, got %q", d.Answers()[1])
	}
	if err := d.Set(0, ""); err != nil {
		t.Errorf("blank is a valid answer: %v", err)
	}
}
