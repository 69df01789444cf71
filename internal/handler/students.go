package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pavelanni/corretor/internal/exam"
	"github.com/pavelanni/corretor/internal/handler/views"
	appI18n "github.com/pavelanni/corretor/internal/i18n"
	"github.com/pavelanni/corretor/internal/model"
)

// studentForm is the registration form as posted back by the browser. The
// answers travel in hidden fields so toggling a letter needs no script.
type studentForm struct {
	name    string
	editing int
	draft   *exam.Draft
}

func (h *Handler) handleStudentsPage(w http.ResponseWriter, r *http.Request) {
	if err := h.session.ValidateMetadata(); err != nil {
		h.redirect(w, r, "/", failure(errorMessage(r, err)))
		return
	}

	form := studentForm{editing: -1, draft: exam.NewDraft(h.session.QuestionCount())}
	if v := r.URL.Query().Get("edit"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			if st, err := h.session.Student(i); err == nil {
				form = studentForm{name: st.Name, editing: i, draft: exam.DraftOf(st.Answers)}
			}
		}
	}
	h.renderStudents(w, r, http.StatusOK, form, h.page(w, r))
}

func (h *Handler) handleStudentForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	editing, err := strconv.Atoi(r.PostForm.Get("editing"))
	if err != nil {
		editing = -1
	}
	form := studentForm{
		name:    r.PostForm.Get("name"),
		editing: editing,
		draft:   exam.DraftOf(r.PostForm["answer"]),
	}
	// The key may have been resized in another tab since the form was rendered.
	form.draft.Resize(h.session.QuestionCount())

	if v := r.PostForm.Get("toggle"); v != "" {
		page := views.Page{AuthEnabled: h.config.AuthEnabled}
		index, letter, err := parseSlot(v)
		if err == nil {
			err = form.draft.Toggle(index, letter)
		}
		if err != nil {
			page.Flash = failure(errorMessage(r, err))
		}
		h.renderStudents(w, r, http.StatusOK, form, page)
		return
	}

	if r.PostForm.Get("action") == "cancel" {
		h.redirect(w, r, "/students", nil)
		return
	}

	name := strings.TrimSpace(form.name)
	if form.editing >= 0 {
		err = h.session.Update(form.editing, model.Student{Name: name, Answers: form.draft.Answers()})
	} else {
		err = h.session.Add(name, form.draft.Answers())
	}
	if err != nil {
		page := views.Page{Flash: failure(errorMessage(r, err)), AuthEnabled: h.config.AuthEnabled}
		h.renderStudents(w, r, http.StatusUnprocessableEntity, form, page)
		return
	}
	h.persist()

	msgID := "FlashStudentAdded"
	if form.editing >= 0 {
		msgID = "FlashStudentUpdated"
	}
	h.redirect(w, r, "/students", info(appI18n.Td(r.Context(), msgID, map[string]any{"Name": name})))
}

func (h *Handler) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.FormValue("index"))
	if err != nil {
		http.Error(w, "invalid student index", http.StatusBadRequest)
		return
	}
	if err := h.session.Remove(index); err != nil {
		h.redirect(w, r, "/students", failure(errorMessage(r, err)))
		return
	}
	h.persist()
	h.redirect(w, r, "/students", info(appI18n.T(r.Context(), "FlashStudentRemoved")))
}

func (h *Handler) handleClearStudents(w http.ResponseWriter, r *http.Request) {
	h.session.Clear()
	h.persist()
	h.redirect(w, r, "/students", info(appI18n.T(r.Context(), "FlashStudentsCleared")))
}

func (h *Handler) renderStudents(w http.ResponseWriter, r *http.Request, status int, form studentForm, page views.Page) {
	h.render(w, r, status, views.StudentsPage(views.StudentsPageData{
		Page:     page,
		Metadata: h.session.Metadata(),
		Name:     form.name,
		Answers:  form.draft.Answers(),
		Editing:  form.editing,
		Roster:   h.session.Roster(),
	}))
}
