package middleware

import (
	"context"
	"net/http"

	"atelier/internal/domain/bilingual"
)

const langContextKey contextKey = "lang"

const langCookieName = "atelier_lang"

// Language returns middleware that resolves the viewer's language and sets
// it in context. Precedence: ?lang= query parameter, then the language
// cookie, then the Accept-Language header. A query override is persisted
// in the cookie so it sticks across navigation.
func Language(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""

		if q := r.URL.Query().Get("lang"); q != "" {
			if parsed, ok := bilingual.ParseLang(q); ok {
				lang = parsed
				http.SetCookie(w, &http.Cookie{
					Name:     langCookieName,
					Value:    lang,
					Secure:   SecureCookies,
					SameSite: http.SameSiteLaxMode,
					Path:     "/",
					MaxAge:   365 * 24 * 60 * 60,
				})
			}
		}

		if lang == "" {
			if cookie, err := r.Cookie(langCookieName); err == nil {
				if parsed, ok := bilingual.ParseLang(cookie.Value); ok {
					lang = parsed
				}
			}
		}

		if lang == "" {
			lang = bilingual.MatchAccept(r.Header.Get("Accept-Language"))
		}

		ctx := context.WithValue(r.Context(), langContextKey, lang)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetLangFromContext returns the resolved language, or the site default
// when the middleware did not run.
func GetLangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(langContextKey).(string); ok && lang != "" {
		return lang
	}
	return bilingual.DefaultLang
}

// ContextWithLang returns a context with the given language set.
// Intended for use in tests.
func ContextWithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langContextKey, lang)
}
