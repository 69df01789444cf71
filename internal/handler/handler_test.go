package handler

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/corretor/internal/exam"
	appI18n "github.com/pavelanni/corretor/internal/i18n"
	"github.com/pavelanni/corretor/internal/model"
	"github.com/pavelanni/corretor/internal/store"
)

const testCSRF = "test-csrf-token"

type testServer struct {
	t       *testing.T
	router  http.Handler
	store   *store.Store
	session *exam.Session
}

func newTestServer(t *testing.T, cfg model.Config) *testServer {
	t.Helper()
	if err := appI18n.Init("pt-BR"); err != nil {
		t.Fatalf("i18n init: %v", err)
	}
	st, err := store.New(":memory:")
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	sess := exam.New()
	h, err := New(st, sess, cfg)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	r := chi.NewRouter()
	r.Use(appI18n.Middleware("pt-BR"))
	if cfg.BasePath != "" {
		r.Route(cfg.BasePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}
	return &testServer{t: t, router: r, store: st, session: sess}
}

func (s *testServer) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()
	return s.do(httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

func (s *testServer) post(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	s.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf_token", testCSRF)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	cookies = append(cookies, &http.Cookie{Name: csrfCookieName, Value: testCSRF})
	return s.do(req, cookies...)
}

func (s *testServer) upload(path, filename string, content []byte) *httptest.ResponseRecorder {
	s.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("csrf_token", testCSRF)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		s.t.Fatalf("CreateFormFile: %v", err)
	}
	_, _ = fw.Write(content)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req, &http.Cookie{Name: csrfCookieName, Value: testCSRF})
}

func (s *testServer) withExam(t *testing.T, key []string) {
	t.Helper()
	s.session.SetMetadata(model.ExamMetadata{Subject: "Matemática", Grade: "5º Ano"})
	if err := s.session.SetLength(len(key)); err != nil {
		t.Fatalf("SetLength: %v", err)
	}
	for i, v := range key {
		if v == "" {
			continue
		}
		if err := s.session.SetSlot(i, v); err != nil {
			t.Fatalf("SetSlot: %v", err)
		}
	}
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != want {
		t.Errorf("Location = %q, want %q", got, want)
	}
}

func flashFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == flashCookieName && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no flash cookie set")
	return nil
}

func TestKeyPageRenders(t *testing.T) {
	s := newTestServer(t, model.Config{})

	rec := s.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Configuração da Prova") {
		t.Errorf("expected Portuguese labels in page")
	}
	if got := strings.Count(body, `name="slot"`); got != model.DefaultQuestionCount*len(model.Letters) {
		t.Errorf("expected %d letter buttons, got %d", model.DefaultQuestionCount*len(model.Letters), got)
	}
}

func TestToggleKeySlotPersists(t *testing.T) {
	s := newTestServer(t, model.Config{})

	rec := s.post("/key/slot", url.Values{"slot": {"0:B"}})
	assertRedirect(t, rec, "/")
	if got := s.session.Key()[0]; got != "B" {
		t.Fatalf("key[0] = %q, want B", got)
	}
	snap, err := s.store.LoadSnapshot()
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snap.Key[0] != "B" {
		t.Errorf("toggle was not persisted: %v", snap.Key)
	}

	s.post("/key/slot", url.Values{"slot": {"0:B"}})
	if got := s.session.Key()[0]; got != "" {
		t.Errorf("second toggle should clear, got %q", got)
	}

	rec = s.post("/key/slot", url.Values{"slot": {"0:Z"}})
	assertRedirect(t, rec, "/")
	flashFrom(t, rec)
}

func TestKeyLength(t *testing.T) {
	s := newTestServer(t, model.Config{})

	assertRedirect(t, s.post("/key/length", url.Values{"count": {"3"}}), "/")
	s.post("/key/add", nil)
	if n := s.session.QuestionCount(); n != 4 {
		t.Fatalf("expected 4 questions, got %d", n)
	}
	s.post("/key/length", url.Values{"count": {"1"}})
	rec := s.post("/key/remove", nil)
	flashFrom(t, rec)
	if n := s.session.QuestionCount(); n != 1 {
		t.Errorf("removing the last question must be refused, got %d", n)
	}
}

func TestStudentsRequireMetadata(t *testing.T) {
	s := newTestServer(t, model.Config{})

	rec := s.get("/students")
	assertRedirect(t, rec, "/")
	flash := flashFrom(t, rec)

	// The flash shows once on the next page.
	page := s.get("/", flash)
	if !strings.Contains(page.Body.String(), "Preencha a disciplina e a série") {
		t.Errorf("expected metadata error flash on key page")
	}

	rec = s.post("/key/info", url.Values{"subject": {"História"}, "grade": {"7º B"}, "action": {"next"}})
	assertRedirect(t, rec, "/students")
	if s.session.Metadata().Subject != "História" {
		t.Errorf("metadata not stored")
	}
	if rec := s.get("/students"); rec.Code != http.StatusOK {
		t.Errorf("expected students page, got %d", rec.Code)
	}
}

func TestStudentFormToggleAndSave(t *testing.T) {
	s := newTestServer(t, model.Config{})
	s.withExam(t, []string{"A", "C", ""})

	rec := s.post("/students/form", url.Values{
		"name":    {"Ana"},
		"editing": {"-1"},
		"answer":  {"A", "", ""},
		"toggle":  {"1:C"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle should re-render the form, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `name="answer" value="C"`) {
		t.Errorf("toggled answer missing from form")
	}
	if len(s.session.Roster()) != 0 {
		t.Errorf("toggle must not register the student")
	}

	rec = s.post("/students/form", url.Values{
		"name":    {"  Ana  "},
		"editing": {"-1"},
		"answer":  {"A", "C", "-"},
		"action":  {"save"},
	})
	assertRedirect(t, rec, "/students")
	roster := s.session.Roster()
	if len(roster) != 1 || roster[0].Name != "Ana" || roster[0].Answers[2] != "-" {
		t.Fatalf("unexpected roster: %+v", roster)
	}

	rec = s.post("/students/form", url.Values{
		"name":    {"Bruna"},
		"editing": {"0"},
		"answer":  {"B", "C", ""},
		"action":  {"save"},
	})
	assertRedirect(t, rec, "/students")
	if st, _ := s.session.Student(0); st.Name != "Bruna" || st.Answers[0] != "B" {
		t.Errorf("update failed: %+v", st)
	}

	snap, _ := s.store.LoadSnapshot()
	if len(snap.Roster) != 1 || snap.Roster[0].Name != "Bruna" {
		t.Errorf("roster not persisted: %+v", snap.Roster)
	}
}

func TestStudentFormRejectsBlankName(t *testing.T) {
	s := newTestServer(t, model.Config{})
	s.withExam(t, []string{"A"})

	rec := s.post("/students/form", url.Values{"name": {" "}, "answer": {"A"}, "action": {"save"}})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Informe o nome do aluno.") {
		t.Errorf("expected name error in page")
	}
	if len(s.session.Roster()) != 0 {
		t.Errorf("roster must stay empty")
	}
}

func TestDeleteAndClearStudents(t *testing.T) {
	s := newTestServer(t, model.Config{})
	s.withExam(t, []string{"A"})
	_ = s.session.Add("Ana", []string{"A"})
	_ = s.session.Add("Bruno", []string{"B"})

	assertRedirect(t, s.post("/students/delete", url.Values{"index": {"0"}}), "/students")
	if roster := s.session.Roster(); len(roster) != 1 || roster[0].Name != "Bruno" {
		t.Fatalf("expected Bruno at index 0, got %+v", roster)
	}
	flashFrom(t, s.post("/students/delete", url.Values{"index": {"5"}}))

	s.post("/students/clear", nil)
	if len(s.session.Roster()) != 0 {
		t.Errorf("clear left students behind")
	}
	if s.session.Key()[0] != "A" {
		t.Errorf("clear must keep the key")
	}
}

func TestResultsPage(t *testing.T) {
	s := newTestServer(t, model.Config{})
	s.withExam(t, []string{"A", "B", "C"})
	_ = s.session.Add("Bruno", []string{"A", "B", "D"})
	_ = s.session.Add("Ana", []string{"A", "C", "C"})

	rec := s.get("/results")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	ana, bruno := strings.Index(body, ">Ana<"), strings.Index(body, ">Bruno<")
	if ana < 0 || bruno < 0 || ana > bruno {
		t.Errorf("expected Ana listed before Bruno")
	}
	if strings.Count(body, "67%") != 2 {
		t.Errorf("expected both students at 67%%")
	}
	if !strings.Contains(body, "background-color: #E0F1E0") {
		t.Errorf("expected correct-answer shading on the first row")
	}
	if !strings.Contains(body, "/students?edit=1") {
		t.Errorf("edit link must point at the roster position")
	}
}

func TestExportDownloads(t *testing.T) {
	s := newTestServer(t, model.Config{})
	s.withExam(t, []string{"A", "B"})
	_ = s.session.Add("Ana", []string{"A", "C"})

	tests := []struct {
		path        string
		contentType string
		filename    string
		prefix      string
	}{
		{"/results/export.csv", "text/csv; charset=utf-8", "resultados_provas.csv", "\xEF\xBB\xBFDisciplina"},
		{"/results/export.pdf", "application/pdf", "", "%PDF-"},
		{"/results/export.xlsx", model.FormatXLSX.ContentType(), "resultados_provas.xlsx", "PK"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := s.get(tt.path)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q", got)
			}
			cd := rec.Header().Get("Content-Disposition")
			if !strings.HasPrefix(cd, "attachment") || !strings.Contains(cd, tt.filename) {
				t.Errorf("Content-Disposition = %q", cd)
			}
			if !strings.HasPrefix(rec.Body.String(), tt.prefix) {
				t.Errorf("unexpected body prefix %q", rec.Body.String()[:min(8, rec.Body.Len())])
			}
		})
	}

	if rec := s.get("/results/export.txt"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown format: expected 404, got %d", rec.Code)
	}
}

func TestExportWithoutStudents(t *testing.T) {
	s := newTestServer(t, model.Config{})
	s.withExam(t, []string{"A", "B"})

	for _, path := range []string{"/results/export.csv", "/results/export.pdf", "/results/export.xlsx"} {
		rec := s.get(path)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
		if cd := rec.Header().Get("Content-Disposition"); cd != "" {
			t.Errorf("%s: unexpected attachment %q", path, cd)
		}
	}
}

func TestImport(t *testing.T) {
	s := newTestServer(t, model.Config{})

	csv := "Disciplina,Física\r\nSerie,2º Ano\r\nGabarito,A,B\r\n\r\nAlunos,1,2,MÉDIA\r\nAna,A,-,50%\r\n"
	rec := s.upload("/import", "notas.csv", []byte(csv))
	assertRedirect(t, rec, "/students")

	snap := s.session.Snapshot()
	if snap.QuestionCount != 2 || snap.Subject != "Física" || len(snap.Roster) != 1 {
		t.Fatalf("import not applied: %+v", snap)
	}
	if rec, _ := s.store.LastImport("notas.csv"); rec == nil || rec.Students != 1 {
		t.Errorf("import not recorded in history: %+v", rec)
	}

	rec = s.upload("/import", "ruim.csv", []byte("Disciplina,X\n"))
	assertRedirect(t, rec, "/")
	flashFrom(t, rec)
	if got := s.session.Snapshot(); got.Subject != "Física" || len(got.Roster) != 1 {
		t.Errorf("failed import must not touch the session: %+v", got)
	}
}

func TestReset(t *testing.T) {
	s := newTestServer(t, model.Config{})
	s.withExam(t, []string{"A"})
	_ = s.session.Add("Ana", []string{"A"})

	assertRedirect(t, s.post("/reset", nil), "/")
	snap := s.session.Snapshot()
	if snap.QuestionCount != model.DefaultQuestionCount || len(snap.Roster) != 0 || snap.Subject != "" {
		t.Errorf("reset did not restore defaults: %+v", snap)
	}
}

func TestCSRFRequired(t *testing.T) {
	s := newTestServer(t, model.Config{})

	req := httptest.NewRequest(http.MethodPost, "/reset", nil)
	if rec := s.do(req); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 without token, got %d", rec.Code)
	}

	form := url.Values{"csrf_token": {"other"}}
	req = httptest.NewRequest(http.MethodPost, "/reset", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if rec := s.do(req, &http.Cookie{Name: csrfCookieName, Value: testCSRF}); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 on mismatch, got %d", rec.Code)
	}
}

func TestOperatorLogin(t *testing.T) {
	s := newTestServer(t, model.Config{AuthEnabled: true})
	if err := s.store.SetOperatorPassword("segredo"); err != nil {
		t.Fatalf("SetOperatorPassword: %v", err)
	}

	assertRedirect(t, s.get("/"), "/login")
	if rec := s.get("/login"); rec.Code != http.StatusOK {
		t.Fatalf("login page: %d", rec.Code)
	}

	if rec := s.post("/login", url.Values{"password": {"errado"}}); rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: expected 401, got %d", rec.Code)
	}

	rec := s.post("/login", url.Values{"password": {"segredo"}})
	assertRedirect(t, rec, "/")
	var session *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			session = c
		}
	}
	if session == nil || session.Value == "" {
		t.Fatalf("no session cookie after login")
	}
	if rec := s.get("/", session); rec.Code != http.StatusOK {
		t.Errorf("authenticated request: expected 200, got %d", rec.Code)
	}

	assertRedirect(t, s.post("/logout", nil, session), "/login")
	assertRedirect(t, s.get("/", session), "/login")
}

func TestLoginReturnsToRequestedPage(t *testing.T) {
	s := newTestServer(t, model.Config{AuthEnabled: true, BasePath: "/prova"})
	if err := s.store.SetOperatorPassword("segredo"); err != nil {
		t.Fatalf("SetOperatorPassword: %v", err)
	}

	assertRedirect(t, s.get("/prova/results?edit=1"), "/prova/login?next=%2Fresults%3Fedit%3D1")

	rec := s.get("/prova/login?next=%2Fresults")
	if !strings.Contains(rec.Body.String(), `name="next" value="/results"`) {
		t.Errorf("login form should carry the return path")
	}

	assertRedirect(t, s.post("/prova/login", url.Values{"password": {"segredo"}, "next": {"/results"}}), "/prova/results")
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                     "/",
		"/students":            "/students",
		"//evil.example":       "/",
		"https://evil.example": "/",
		"/\\\\evil":            "/",
	}
	for in, want := range tests {
		if got := safeNext(in); got != want {
			t.Errorf("safeNext(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseSlot(t *testing.T) {
	i, l, err := parseSlot("12:D")
	if err != nil || i != 12 || l != "D" {
		t.Errorf("parseSlot(12:D) = %d, %q, %v", i, l, err)
	}
	for _, bad := range []string{"", "3", "x:A"} {
		if _, _, err := parseSlot(bad); err == nil {
			t.Errorf("parseSlot(%q): expected error", bad)
		}
	}
}
