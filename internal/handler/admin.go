package handler

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"

	"github.com/pavelanni/corretor/internal/export"
	appI18n "github.com/pavelanni/corretor/internal/i18n"
	"github.com/pavelanni/corretor/internal/model"
)

const maxUploadSize = 10 << 20

// handleImport replaces the whole exam with the contents of an uploaded
// export. Nothing changes unless the file parses completely.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.redirect(w, r, "/", failure(appI18n.T(r.Context(), "ErrImportIO")))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.redirect(w, r, "/", failure(appI18n.T(r.Context(), "ErrImportMissingFile")))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.redirect(w, r, "/", failure(errorMessage(r, &export.ImportIOError{Err: err})))
		return
	}

	snap, err := export.Read(bytes.NewReader(data), header.Filename)
	if err != nil {
		slog.Warn("import rejected", "filename", header.Filename, "error", err)
		h.redirect(w, r, "/", failure(errorMessage(r, err)))
		return
	}
	if err := h.session.Restore(snap); err != nil {
		h.redirect(w, r, "/", failure(errorMessage(r, err)))
		return
	}
	h.persist()

	h.recordImport(header.Filename, data, snap)
	h.redirect(w, r, "/students", info(appI18n.Tp(r.Context(), "FlashImported", len(snap.Roster))))
}

// recordImport adds the file to the import history. Re-importing identical
// content is allowed; it is only noted in the log.
func (h *Handler) recordImport(name string, data []byte, snap model.Snapshot) {
	sum := sha256.Sum256(data)
	rec := model.ImportRecord{
		Name:      name,
		SHA256:    hex.EncodeToString(sum[:]),
		Questions: snap.QuestionCount,
		Students:  len(snap.Roster),
	}
	if prev, err := h.store.LastImport(name); err == nil && prev != nil && prev.SHA256 == rec.SHA256 {
		slog.Info("re-imported unchanged file", "filename", name, "previous", prev.ImportedAt)
	}
	if err := h.store.RecordImport(rec); err != nil {
		slog.Error("failed to record import", "error", err)
	}
	slog.Info("imported results", "filename", name, "students", rec.Students, "questions", rec.Questions)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	h.session.Reset()
	h.persist()
	slog.Info("exam reset")
	h.redirect(w, r, "/", info(appI18n.T(r.Context(), "FlashReset")))
}
