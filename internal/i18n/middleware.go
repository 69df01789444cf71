package i18n

import (
	"net/http"
	"time"
)

const langCookieName = "lang"

// Middleware resolves the UI language for each request: a ?lang= query
// parameter (remembered in a cookie), then the cookie, then the configured
// language, then Accept-Language.
func Middleware(lang string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var cookieLang string
			if c, err := r.Cookie(langCookieName); err == nil {
				cookieLang = c.Value
			}
			query := r.URL.Query().Get("lang")
			tag := Match(query, cookieLang, lang, r.Header.Get("Accept-Language"))
			if query != "" {
				http.SetCookie(w, &http.Cookie{
					Name:     langCookieName,
					Value:    tag.String(),
					Path:     "/",
					MaxAge:   int((365 * 24 * time.Hour).Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			next.ServeHTTP(w, r.WithContext(WithLang(r.Context(), tag)))
		})
	}
}
