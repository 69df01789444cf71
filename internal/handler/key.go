package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pavelanni/corretor/internal/handler/views"
	appI18n "github.com/pavelanni/corretor/internal/i18n"
	"github.com/pavelanni/corretor/internal/model"
)

func (h *Handler) handleKeyPage(w http.ResponseWriter, r *http.Request) {
	snap := h.session.Snapshot()
	h.render(w, r, http.StatusOK, views.KeyPage(views.KeyPageData{
		Page:     h.page(w, r),
		Metadata: snap.Metadata(),
		Key:      snap.Key,
		Students: len(snap.Roster),
	}))
}

func (h *Handler) handleKeyInfo(w http.ResponseWriter, r *http.Request) {
	h.session.SetMetadata(model.ExamMetadata{
		Subject: strings.TrimSpace(r.FormValue("subject")),
		Grade:   strings.TrimSpace(r.FormValue("grade")),
	})
	h.persist()

	if r.FormValue("action") == "next" {
		if err := h.session.ValidateMetadata(); err != nil {
			h.redirect(w, r, "/", failure(errorMessage(r, err)))
			return
		}
		h.redirect(w, r, "/students", nil)
		return
	}
	h.redirect(w, r, "/", info(appI18n.T(r.Context(), "FlashInfoSaved")))
}

func (h *Handler) handleKeyLength(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(strings.TrimSpace(r.FormValue("count")))
	if err != nil {
		h.redirect(w, r, "/", failure(appI18n.T(r.Context(), "ErrMinQuestions")))
		return
	}
	h.mutateKey(w, r, func() error { return h.session.SetLength(n) })
}

func (h *Handler) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	h.mutateKey(w, r, h.session.AddQuestion)
}

func (h *Handler) handleRemoveQuestion(w http.ResponseWriter, r *http.Request) {
	h.mutateKey(w, r, h.session.RemoveQuestion)
}

func (h *Handler) handleKeySlot(w http.ResponseWriter, r *http.Request) {
	index, letter, err := parseSlot(r.FormValue("slot"))
	if err != nil {
		http.Error(w, "invalid slot", http.StatusBadRequest)
		return
	}
	h.mutateKey(w, r, func() error { return h.session.SetSlot(index, letter) })
}

func (h *Handler) mutateKey(w http.ResponseWriter, r *http.Request, op func() error) {
	if err := op(); err != nil {
		h.redirect(w, r, "/", failure(errorMessage(r, err)))
		return
	}
	h.persist()
	h.redirect(w, r, "/", nil)
}

// parseSlot splits a button value such as "3:B" into question index and letter.
func parseSlot(v string) (int, string, error) {
	idx, letter, ok := strings.Cut(v, ":")
	if !ok {
		return 0, "", strconv.ErrSyntax
	}
	i, err := strconv.Atoi(idx)
	if err != nil {
		return 0, "", err
	}
	return i, letter, nil
}
