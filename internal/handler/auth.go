package handler

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pavelanni/corretor/internal/handler/views"
	appI18n "github.com/pavelanni/corretor/internal/i18n"
	"github.com/pavelanni/corretor/internal/model"
)

const sessionCookieName = "session"

// setCookie writes a cookie scoped to the base path. Only the CSRF cookie
// is readable from scripts.
func (h *Handler) setCookie(w http.ResponseWriter, name, value string, httpOnly bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     h.cookiePath(),
		HttpOnly: httpOnly,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     h.cookiePath(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
}

// requireAuth lets a request through only with a live operator session.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			h.redirectToLogin(w, r)
			return
		}

		authSess, err := h.store.GetAuthSession(cookie.Value)
		if err != nil {
			slog.Error("failed to get auth session", "error", err)
			h.redirectToLogin(w, r)
			return
		}
		if authSess == nil {
			h.clearCookie(w, sessionCookieName)
			h.redirectToLogin(w, r)
			return
		}

		ctx := model.ContextWithOperator(r.Context(), authSess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// redirectToLogin sends the operator to the login page, remembering the page
// they asked for when it was a plain GET.
func (h *Handler) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := h.path("/login")
	if r.Method == http.MethodGet {
		if p := h.relativePath(r.URL.RequestURI()); p != "/" {
			target += "?" + url.Values{"next": {p}}.Encode()
		}
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// relativePath strips the base path from p.
func (h *Handler) relativePath(p string) string {
	p = strings.TrimPrefix(p, h.config.BasePath)
	if p == "" {
		return "/"
	}
	return p
}

// safeNext accepts only local paths so the login form cannot be used as an
// open redirect.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n") {
		return "/"
	}
	return next
}

func (h *Handler) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if !h.config.AuthEnabled {
		http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, views.LoginPage("", safeNext(r.URL.Query().Get("next"))))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.config.AuthEnabled {
		http.Redirect(w, r, h.path("/"), http.StatusSeeOther)
		return
	}
	next := safeNext(r.FormValue("next"))

	ok, err := h.store.VerifyOperator(r.FormValue("password"))
	if err != nil {
		slog.Error("failed to verify operator", "error", err)
	}
	if !ok {
		slog.Warn("failed login attempt", "remote", r.RemoteAddr)
		msg := appI18n.T(r.Context(), "LoginError")
		h.render(w, r, http.StatusUnauthorized, views.LoginPage(msg, next))
		return
	}

	token, err := h.store.CreateAuthSession()
	if err != nil {
		slog.Error("failed to create auth session", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.setCookie(w, sessionCookieName, token, true)
	slog.Info("operator logged in", "remote", r.RemoteAddr)
	http.Redirect(w, r, h.path(next), http.StatusSeeOther)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := h.store.DeleteAuthSession(cookie.Value); err != nil {
			slog.Error("failed to delete auth session", "error", err)
		}
	}
	h.clearCookie(w, sessionCookieName)
	http.Redirect(w, r, h.path("/login"), http.StatusSeeOther)
}
