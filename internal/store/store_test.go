package store

import (
	"errors"
	"testing"
	"time"

	"github.com/pavelanni/corretor/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadSnapshotDefaults(t *testing.T) {
	s := newTestStore(t)

	snap, err := s.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snap.QuestionCount != model.DefaultQuestionCount || len(snap.Key) != model.DefaultQuestionCount {
		t.Errorf("expected default snapshot, got %+v", snap)
	}
	if snap.Roster == nil || len(snap.Roster) != 0 {
		t.Errorf("expected empty non-nil roster, got %#v", snap.Roster)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)

	want := model.Snapshot{
		QuestionCount: 2,
		Key:           []string{"A", ""},
		Roster:        []model.Student{{Name: "Ana", Answers: []string{"a", "-"}}},
		Subject:       "Geografia",
		Grade:         "9º Ano",
	}
	if err := s.SaveSnapshot(want); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	got, err := s.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if got.Subject != want.Subject || got.Grade != want.Grade || got.QuestionCount != 2 {
		t.Errorf("metadata lost: %+v", got)
	}
	if got.Key[0] != "A" || got.Key[1] != "" {
		t.Errorf("key lost: %v", got.Key)
	}
	if len(got.Roster) != 1 || got.Roster[0].Answers[1] != "-" {
		t.Errorf("roster lost: %+v", got.Roster)
	}

	// Saving again replaces the single record.
	want.Roster = nil
	if err := s.SaveSnapshot(want); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}
	got, _ = s.LoadSnapshot()
	if len(got.Roster) != 0 {
		t.Errorf("expected empty roster after overwrite, got %+v", got.Roster)
	}

	if err := s.DeleteSnapshot(); err != nil {
		t.Fatalf("DeleteSnapshot: %v", err)
	}
	got, _ = s.LoadSnapshot()
	if got.QuestionCount != model.DefaultQuestionCount {
		t.Errorf("expected defaults after delete, got %+v", got)
	}
}

func TestLoadSnapshotCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{{{`},
		{"wrong type", `{"question_count":"x","key":[],"roster":[],"subject":"","grade":""}`},
		{"invalid letter", `{"question_count":1,"key":["Z"],"roster":[],"subject":"","grade":""}`},
		{"length mismatch", `{"question_count":2,"key":["A"],"roster":[],"subject":"","grade":""}`},
		{"short answers", `{"question_count":1,"key":["A"],"roster":[{"name":"Ana","answers":[]}],"subject":"","grade":""}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			if _, err := s.db.Exec(`INSERT INTO snapshots (id, data, updated_at) VALUES (1, ?, ?)`, tt.data, time.Now()); err != nil {
				t.Fatalf("insert: %v", err)
			}
			snap, err := s.LoadSnapshot()
			if err != nil {
				t.Fatalf("corrupt data must not be an error: %v", err)
			}
			if snap.QuestionCount != model.DefaultQuestionCount {
				t.Errorf("expected defaults, got %+v", snap)
			}
		})
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s := newTestStore(t)

	v, err := s.schemaVersion()
	if err != nil || v != len(migrations) {
		t.Fatalf("schemaVersion = %d, %v; want %d", v, err, len(migrations))
	}
	if err := s.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}

	if _, err := s.db.Exec(`PRAGMA user_version = 99`); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	if err := s.migrate(); err == nil {
		t.Errorf("expected an error for a schema newer than the program")
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)

	v, err := s.getSetting("missing")
	if err != nil || v != "" {
		t.Fatalf("getSetting(missing) = %q, %v", v, err)
	}
	if err := s.setSetting("k", "1"); err != nil {
		t.Fatalf("setSetting: %v", err)
	}
	if err := s.setSetting("k", "2"); err != nil {
		t.Fatalf("setSetting: %v", err)
	}
	if v, _ := s.getSetting("k"); v != "2" {
		t.Errorf("expected upsert, got %q", v)
	}
}

func TestImportHistory(t *testing.T) {
	s := newTestStore(t)

	if rec, err := s.LastImport("notas.csv"); err != nil || rec != nil {
		t.Fatalf("LastImport on empty history = %+v, %v", rec, err)
	}

	records := []model.ImportRecord{
		{Name: "notas.csv", SHA256: "aaa", Questions: 10, Students: 3},
		{Name: "outro.xlsx", SHA256: "bbb", Questions: 5, Students: 1},
		{Name: "notas.csv", SHA256: "ccc", Questions: 10, Students: 4},
	}
	for _, rec := range records {
		if err := s.RecordImport(rec); err != nil {
			t.Fatalf("RecordImport: %v", err)
		}
	}

	last, err := s.LastImport("notas.csv")
	if err != nil || last == nil {
		t.Fatalf("LastImport: %+v, %v", last, err)
	}
	if last.SHA256 != "ccc" || last.Students != 4 || last.ImportedAt.IsZero() {
		t.Errorf("unexpected last import: %+v", last)
	}

	list, err := s.ListImports(2)
	if err != nil {
		t.Fatalf("ListImports: %v", err)
	}
	if len(list) != 2 || list[0].SHA256 != "ccc" || list[1].SHA256 != "bbb" {
		t.Errorf("expected newest first, got %+v", list)
	}
}

func TestAuthSessions(t *testing.T) {
	s := newTestStore(t)

	token, err := s.CreateAuthSession()
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(token))
	}

	sess, err := s.GetAuthSession(token)
	if err != nil || sess == nil {
		t.Fatalf("GetAuthSession: %v, %v", sess, err)
	}
	if !sess.ExpiresAt.After(sess.CreatedAt) {
		t.Errorf("session expires before it was created: %+v", sess)
	}

	if err := s.DeleteAuthSession(token); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	if sess, _ := s.GetAuthSession(token); sess != nil {
		t.Errorf("expected deleted session to be gone")
	}
	if sess, _ := s.GetAuthSession("unknown"); sess != nil {
		t.Errorf("expected nil for unknown token")
	}
}

func TestAuthSessionIsExtendedWhenUsed(t *testing.T) {
	s := newTestStore(t)

	token, err := s.CreateAuthSession()
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	soon := time.Now().UTC().Add(time.Hour)
	if _, err := s.db.Exec(`UPDATE auth_sessions SET expires_at = ? WHERE id = ?`, soon, token); err != nil {
		t.Fatalf("update: %v", err)
	}

	sess, err := s.GetAuthSession(token)
	if err != nil || sess == nil {
		t.Fatalf("GetAuthSession: %v, %v", sess, err)
	}
	if !sess.ExpiresAt.After(soon.Add(time.Hour)) {
		t.Errorf("expected the session to be extended, expires at %v", sess.ExpiresAt)
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	s := newTestStore(t)

	past := time.Now().UTC().Add(-2 * authSessionTTL)
	if _, err := s.db.Exec(`INSERT INTO auth_sessions (id, created_at, expires_at) VALUES (?, ?, ?)`,
		"old", past, past.Add(authSessionTTL)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	live, err := s.CreateAuthSession()
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}

	n, err := s.CleanupExpiredSessions()
	if err != nil {
		t.Fatalf("CleanupExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 expired session removed, got %d", n)
	}
	if sess, _ := s.GetAuthSession(live); sess == nil {
		t.Errorf("live session must survive cleanup")
	}
}

func TestOperatorPassword(t *testing.T) {
	s := newTestStore(t)

	ok, err := s.HasOperator()
	if err != nil || ok {
		t.Fatalf("HasOperator on empty store = %v, %v", ok, err)
	}
	if ok, _ := s.VerifyOperator("anything"); ok {
		t.Errorf("no password set must never verify")
	}
	if err := s.SetOperatorPassword(""); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("expected ErrEmptyPassword, got %v", err)
	}

	if err := s.SetOperatorPassword("segredo"); err != nil {
		t.Fatalf("SetOperatorPassword: %v", err)
	}
	if ok, _ := s.HasOperator(); !ok {
		t.Errorf("expected operator to be set")
	}
	if ok, err := s.VerifyOperator("segredo"); err != nil || !ok {
		t.Errorf("VerifyOperator(correct) = %v, %v", ok, err)
	}
	if ok, _ := s.VerifyOperator("errado"); ok {
		t.Errorf("wrong password verified")
	}
}

func TestOperatorPasswordChangeRevokesSessions(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetOperatorPassword("segredo"); err != nil {
		t.Fatalf("SetOperatorPassword: %v", err)
	}
	token, err := s.CreateAuthSession()
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}

	if err := s.SetOperatorPassword("segredo"); err != nil {
		t.Fatalf("SetOperatorPassword(same): %v", err)
	}
	if sess, _ := s.GetAuthSession(token); sess == nil {
		t.Errorf("re-applying the same password must keep sessions")
	}

	if err := s.SetOperatorPassword("novo"); err != nil {
		t.Fatalf("SetOperatorPassword(new): %v", err)
	}
	if sess, _ := s.GetAuthSession(token); sess != nil {
		t.Errorf("a new password must revoke sessions")
	}
	if ok, _ := s.VerifyOperator("segredo"); ok {
		t.Errorf("old password still verifies")
	}
}
