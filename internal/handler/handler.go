package handler

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/pavelanni/corretor/internal/exam"
	"github.com/pavelanni/corretor/internal/export"
	"github.com/pavelanni/corretor/internal/handler/views"
	appI18n "github.com/pavelanni/corretor/internal/i18n"
	"github.com/pavelanni/corretor/internal/model"
	"github.com/pavelanni/corretor/internal/scoring"
	"github.com/pavelanni/corretor/internal/store"
)

const flashCookieName = "flash"

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store   *store.Store
	session *exam.Session
	config  model.Config
	lang    language.Tag

	saveMu sync.Mutex // orders snapshot reads with their writes
}

// New creates a new Handler.
func New(s *store.Store, sess *exam.Session, cfg model.Config) (*Handler, error) {
	if s == nil || sess == nil {
		return nil, errors.New("handler: store and session are required")
	}
	return &Handler{store: s, session: sess, config: cfg, lang: scoring.ParseLanguage(cfg.Lang)}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Use(limitBody(maxUploadSize))
	r.Use(h.csrfMiddleware)

	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	r.Group(func(r chi.Router) {
		if h.config.AuthEnabled {
			r.Use(h.requireAuth)
		}

		r.Get("/", h.handleKeyPage)
		r.Post("/key/info", h.handleKeyInfo)
		r.Post("/key/length", h.handleKeyLength)
		r.Post("/key/add", h.handleAddQuestion)
		r.Post("/key/remove", h.handleRemoveQuestion)
		r.Post("/key/slot", h.handleKeySlot)

		r.Get("/students", h.handleStudentsPage)
		r.Post("/students/form", h.handleStudentForm)
		r.Post("/students/delete", h.handleDeleteStudent)
		r.Post("/students/clear", h.handleClearStudents)

		r.Get("/results", h.handleResultsPage)
		r.Get("/results/export.{format}", h.handleExport)

		r.Post("/import", h.handleImport)
		r.Post("/reset", h.handleReset)
	})
}

// BasePathMiddleware exposes the configured URL prefix to views.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// limitBody caps request bodies; the CSRF check parses forms before any
// handler runs.
func limitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request) views.Page {
	return views.Page{Flash: h.popFlash(w, r), AuthEnabled: h.config.AuthEnabled}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		slog.Error("render error", "error", err)
	}
}

// persist writes the current session state. A failed write is logged; the
// in-memory state stays authoritative until the next successful save.
func (h *Handler) persist() {
	h.saveMu.Lock()
	defer h.saveMu.Unlock()
	if err := h.store.SaveSnapshot(h.session.Snapshot()); err != nil {
		slog.Error("failed to save snapshot", "error", err)
	}
}

// redirect sends the browser to p, carrying an optional flash message.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, p string, flash *views.Flash) {
	if flash != nil {
		h.setFlash(w, *flash)
	}
	http.Redirect(w, r, h.path(p), http.StatusSeeOther)
}

func (h *Handler) setFlash(w http.ResponseWriter, f views.Flash) {
	kind := "i"
	if f.Error {
		kind = "e"
	}
	h.setCookie(w, flashCookieName, base64.RawURLEncoding.EncodeToString([]byte(kind+":"+f.Message)), true)
}

func (h *Handler) popFlash(w http.ResponseWriter, r *http.Request) *views.Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	h.clearCookie(w, flashCookieName)
	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	kind, msg, ok := strings.Cut(string(raw), ":")
	if !ok {
		return nil
	}
	return &views.Flash{Error: kind == "e", Message: msg}
}

func info(msg string) *views.Flash {
	return &views.Flash{Message: msg}
}

func failure(msg string) *views.Flash {
	return &views.Flash{Error: true, Message: msg}
}

// errorMessage turns an operation error into the text shown to the operator.
func errorMessage(r *http.Request, err error) string {
	ctx := r.Context()
	var verr *exam.ValidationError
	var ferr *export.ImportFormatError
	var ioErr *export.ImportIOError
	switch {
	case errors.As(err, &verr):
		if verr.Has("name") {
			return appI18n.T(ctx, "ErrNameRequired")
		}
		return appI18n.T(ctx, "ErrMetadataRequired")
	case errors.Is(err, exam.ErrInvalidLetter):
		return appI18n.T(ctx, "ErrInvalidLetter")
	case errors.Is(err, exam.ErrIndexOutOfRange):
		return appI18n.T(ctx, "ErrIndexOutOfRange")
	case errors.Is(err, exam.ErrLengthMismatch):
		return appI18n.T(ctx, "ErrLengthMismatch")
	case errors.Is(err, exam.ErrMinQuestions):
		return appI18n.T(ctx, "ErrMinQuestions")
	case errors.As(err, &ferr):
		if len(ferr.Missing) > 0 {
			return appI18n.T(ctx, "ErrImportFormat")
		}
		return appI18n.T(ctx, "ErrImportFormat") + " (" + ferr.Error() + ")"
	case errors.As(err, &ioErr):
		return appI18n.T(ctx, "ErrImportIO")
	}
	slog.Error("unexpected error", "path", r.URL.Path, "error", err)
	return appI18n.T(ctx, "ErrInternal")
}
