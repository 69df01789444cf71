package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"golang.org/x/text/language"

	appI18n "github.com/pavelanni/corretor/internal/i18n"
	"github.com/pavelanni/corretor/internal/model"
)

func renderPage(t *testing.T, c templ.Component, basePath string) string {
	t.Helper()
	if err := appI18n.Init("pt-BR"); err != nil {
		t.Fatalf("i18n init: %v", err)
	}
	ctx := appI18n.WithLang(context.Background(), language.MustParse("pt-BR"))
	ctx = model.ContextWithBasePath(ctx, basePath)
	ctx = model.ContextWithCSRFToken(ctx, "tok123")
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestResultsPageColorsCells(t *testing.T) {
	view := model.ResultsView{
		Metadata: model.ExamMetadata{Subject: "Física", Grade: "9º Ano"},
		Key:      []string{"A", "B"},
		Rows: []model.ScoredStudent{
			{
				Student:    model.Student{Name: "Ana", Answers: []string{"A", "C"}},
				Position:   3,
				Correct:    1,
				Percentage: 50,
				Tags:       []model.Tag{model.TagCorrect, model.TagIncorrect},
			},
		},
	}
	body := renderPage(t, ResultsPage(ResultsPageData{View: view}), "/prova")

	for _, want := range []string{
		`<html lang="pt-BR">`,
		"Física - 9º Ano",
		`style="background-color: #E0F1E0;"`,
		`style="background-color: #FFCACA;"`,
		`<i style="background-color: #D5E5D5;"></i>`,
		`href="/prova/students?edit=3"`,
		"50%",
		`href="/prova/results/export.xlsx" download`,
		`<a href="/prova/results" class="active">`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestResultsPageWithoutStudents(t *testing.T) {
	body := renderPage(t, ResultsPage(ResultsPageData{View: model.ResultsView{Key: []string{"A"}}}), "")
	if strings.Contains(body, "<table>") {
		t.Error("empty roster should not render the table")
	}
	if strings.Contains(body, "export.csv") {
		t.Error("empty roster should not offer exports")
	}
}

func TestKeyPageMarksSelectedLetter(t *testing.T) {
	body := renderPage(t, KeyPage(KeyPageData{
		Metadata: model.ExamMetadata{Subject: "<b>Arte</b>"},
		Key:      []string{"", "B"},
	}), "")

	if !strings.Contains(body, `<button type="submit" class="letter on" name="slot" value="1:B"`) {
		t.Error("selected letter should carry the on class")
	}
	if !strings.Contains(body, `<button type="submit" class="letter" name="slot" value="0:B"`) {
		t.Error("unselected letter should not carry the on class")
	}
	if !strings.Contains(body, `value="&lt;b&gt;Arte&lt;/b&gt;"`) {
		t.Error("subject should be escaped")
	}
	if !strings.Contains(body, `name="csrf_token" value="tok123"`) {
		t.Error("forms should carry the CSRF token")
	}
	if !strings.Contains(body, `data-confirm="`) {
		t.Error("reset form should ask for confirmation")
	}
}

func TestStudentsPageEditing(t *testing.T) {
	body := renderPage(t, StudentsPage(StudentsPageData{
		Name:    "Bia",
		Answers: []string{"-", "C"},
		Editing: 0,
		Roster:  []model.Student{{Name: "Bia", Answers: []string{"A", "C"}}},
	}), "")

	for _, want := range []string{
		`name="editing" value="0"`,
		`class="letter blank on" name="toggle" value="0:-"`,
		`name="action" value="cancel"`,
		`href="/students?edit=0"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestLoginPageHasNoNav(t *testing.T) {
	body := renderPage(t, LoginPage("Senha incorreta.", "/results"), "")
	if strings.Contains(body, "<nav>") {
		t.Error("login page should not render the nav")
	}
	if !strings.Contains(body, `name="next" value="/results"`) {
		t.Error("login form should keep the return path")
	}
	if !strings.Contains(body, "Senha incorreta.") {
		t.Error("login error not rendered")
	}
}
