package i18n

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslatePortuguese(t *testing.T) {
	ctx := initLang(t, "pt-BR")

	if got := T(ctx, "NavKey"); got != "Gabarito" {
		t.Errorf("T(NavKey) = %q, want 'Gabarito'", got)
	}
	if got := T(ctx, "CorrectAnswer"); got != "Resposta Certa" {
		t.Errorf("T(CorrectAnswer) = %q, want 'Resposta Certa'", got)
	}
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NavKey"); got != "Answer key" {
		t.Errorf("T(NavKey) = %q, want 'Answer key'", got)
	}
	if got := T(ctx, "AddStudent"); got != "Register student" {
		t.Errorf("T(AddStudent) = %q, want 'Register student'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "pt-BR")

	if got := Tp(ctx, "StudentsRegistered", 1); got != "Aluno Cadastrado (1)" {
		t.Errorf("Tp(StudentsRegistered, 1) = %q", got)
	}
	if got := Tp(ctx, "StudentsRegistered", 5); got != "Alunos Cadastrados (5)" {
		t.Errorf("Tp(StudentsRegistered, 5) = %q", got)
	}

	ctx = initLang(t, "en")
	if got := Tp(ctx, "FlashImported", 2); got != "Import finished: 2 students." {
		t.Errorf("Tp(FlashImported, 2) = %q", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "pt-BR")

	got := Td(ctx, "FlashStudentAdded", map[string]any{"Name": "Ana"})
	if got != "Aluno Ana cadastrado." {
		t.Errorf("Td(FlashStudentAdded, Name=Ana) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	if got := T(ctx, "NonExistentKey"); got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestLocalesHaveSameKeys(t *testing.T) {
	keys := func(name string) map[string]bool {
		data, err := localeFS.ReadFile("locales/" + name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		out := make(map[string]bool, len(m))
		for k := range m {
			out[k] = true
		}
		return out
	}
	pt, en := keys("pt-BR.json"), keys("en.json")
	for k := range pt {
		if !en[k] {
			t.Errorf("en.json is missing %q", k)
		}
	}
	for k := range en {
		if !pt[k] {
			t.Errorf("pt-BR.json is missing %q", k)
		}
	}
}

func TestMiddleware(t *testing.T) {
	initLang(t, "pt-BR")

	var got string
	h := Middleware("en")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "NavResults")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != "Results" {
		t.Errorf("middleware localizer: got %q, want 'Results'", got)
	}
}

func TestMatch(t *testing.T) {
	initLang(t, "pt-BR")

	tests := []struct {
		name  string
		prefs []string
		want  string
	}{
		{"nothing", nil, "pt-BR"},
		{"blank preferences", []string{"", " "}, "pt-BR"},
		{"exact", []string{"en"}, "en"},
		{"regional english", []string{"en-GB"}, "en"},
		{"accept-language header", []string{"fr-FR,en;q=0.8"}, "en"},
		{"first usable preference wins", []string{"", "en", "pt-BR"}, "en"},
		{"unsupported", []string{"ja"}, "pt-BR"},
		{"garbage", []string{"not a tag!"}, "pt-BR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Match(tt.prefs...).String(); got != tt.want {
				t.Errorf("Match(%q) = %q, want %q", tt.prefs, got, tt.want)
			}
		})
	}
}

func TestSupportedStartsWithDefault(t *testing.T) {
	initLang(t, "en")
	tags := Supported()
	if len(tags) != 2 || tags[0].String() != "en" || tags[1].String() != "pt-BR" {
		t.Errorf("Supported() = %v", tags)
	}
	if err := Init("ja"); err == nil {
		t.Error("expected an error for a language without translations")
	}
	initLang(t, "pt-BR")
}

func TestMiddlewareLanguageSwitch(t *testing.T) {
	initLang(t, "pt-BR")

	var got, lang string
	h := Middleware("pt-BR")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "NavResults")
		lang = Lang(r.Context()).String()
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?lang=en", nil))
	if got != "Results" || lang != "en" {
		t.Fatalf("query switch: got %q (%s)", got, lang)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != langCookieName || cookies[0].Value != "en" {
		t.Fatalf("expected lang cookie, got %v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	h.ServeHTTP(httptest.NewRecorder(), req)
	if lang != "en" {
		t.Errorf("cookie should keep english, got %s", lang)
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if lang != "pt-BR" {
		t.Errorf("without a preference the configured language applies, got %s", lang)
	}
}
