package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/corretor/internal/export"
	"github.com/pavelanni/corretor/internal/handler/views"
	"github.com/pavelanni/corretor/internal/model"
	"github.com/pavelanni/corretor/internal/scoring"
)

func (h *Handler) handleResultsPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.ResultsPage(views.ResultsPageData{
		Page: h.page(w, r),
		View: scoring.View(h.session.Snapshot(), h.lang),
	}))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format, ok := model.ParseExportFormat(chi.URLParam(r, "format"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	v := scoring.View(h.session.Snapshot(), h.lang)
	if len(v.Rows) == 0 {
		http.Error(w, "no students to export", http.StatusNotFound)
		return
	}

	// Render into memory so a failure can still produce an error response.
	var buf bytes.Buffer
	if err := export.Write(&buf, format, v); err != nil {
		slog.Error("export failed", "format", format, "error", err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": export.FileName(format, v),
	}))
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("export write interrupted", "format", format, "error", err)
	}
	slog.Info("exported results", "format", format, "students", len(v.Rows))
}
