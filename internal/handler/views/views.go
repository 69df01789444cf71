// Package views renders the HTML pages as templ components.
package views

import (
	"context"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/pavelanni/corretor/internal/export"
	appI18n "github.com/pavelanni/corretor/internal/i18n"
	"github.com/pavelanni/corretor/internal/model"
)

// Flash is a one-shot notification shown at the top of a page.
type Flash struct {
	Error   bool
	Message string
}

// Page carries what the layout needs on every page.
type Page struct {
	Active      string // nav entry to highlight: "key", "students" or "results"
	Flash       *Flash
	AuthEnabled bool
}

// KeyPageData feeds the answer key page.
type KeyPageData struct {
	Page
	Metadata model.ExamMetadata
	Key      []string
	Students int
}

// StudentsPageData feeds the registration page. Editing is the roster index
// being edited, or -1 while registering a new student.
type StudentsPageData struct {
	Page
	Metadata model.ExamMetadata
	Name     string
	Answers  []string
	Editing  int
	Roster   []model.Student
}

// ResultsPageData feeds the results table.
type ResultsPageData struct {
	Page
	View model.ResultsView
}

// LoginPage renders the operator login form. next is the page to return to.
func LoginPage(errMsg, next string) templ.Component {
	return loginPage(Page{}, errMsg, next)
}

// KeyPage renders the exam setup and answer key editor.
func KeyPage(data KeyPageData) templ.Component {
	data.Active = "key"
	return keyPage(data)
}

// StudentsPage renders the student registration form and roster.
func StudentsPage(data StudentsPageData) templ.Component {
	data.Active = "students"
	return studentsPage(data)
}

// ResultsPage renders the scored results table.
func ResultsPage(data ResultsPageData) templ.Component {
	data.Active = "results"
	return resultsPage(data)
}

func t(ctx context.Context, id string) string {
	return appI18n.T(ctx, id)
}

func tp(ctx context.Context, id string, n int) string {
	return appI18n.Tp(ctx, id, n)
}

func lang(ctx context.Context) string {
	return appI18n.Lang(ctx).String()
}

func languages() []string {
	var out []string
	for _, tag := range appI18n.Supported() {
		out = append(out, tag.String())
	}
	return out
}

// path prefixes p with the configured base path.
func path(ctx context.Context, p string) string {
	return model.BasePathFromContext(ctx) + p
}

func href(ctx context.Context, p string) templ.SafeURL {
	return templ.URL(path(ctx, p))
}

func editHref(ctx context.Context, index int) templ.SafeURL {
	return href(ctx, "/students?edit="+strconv.Itoa(index))
}

func csrf(ctx context.Context) string {
	return model.CSRFTokenFromContext(ctx)
}

func questionLabel(ctx context.Context, i int, letter string) string {
	return t(ctx, "Question") + " " + strconv.Itoa(i+1) + ": " + letter
}

// slot encodes a question index and a value as a form value, e.g. "3:B".
func slot(i int, v string) string {
	return strconv.Itoa(i) + ":" + v
}

func selected(current, letter string) bool {
	return strings.EqualFold(current, letter)
}

func answerAt(answers []string, q int) string {
	if q < len(answers) {
		return answers[q]
	}
	return ""
}

func tagAt(tags []model.Tag, q int) model.Tag {
	if q < len(tags) {
		return tags[q]
	}
	return model.TagNeutral
}

func background(c export.RGB) templ.SafeCSS {
	return templ.SafeCSS("background-color: #" + c.Hex() + ";")
}

func cellStyle(row model.ScoredStudent, q, r int) templ.SafeCSS {
	return background(export.CellFill(tagAt(row.Tags, q), r))
}

func rowStyle(r int) templ.SafeCSS {
	return background(export.RowFill(r))
}
