package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"atelier/internal/domain/bilingual"
)

func resolveLang(t *testing.T, build func(*http.Request)) string {
	t.Helper()
	var got string
	handler := Language(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetLangFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/members", nil)
	if build != nil {
		build(req)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestLanguageDefaultsToHebrew(t *testing.T) {
	if got := resolveLang(t, nil); got != bilingual.LangHebrew {
		t.Errorf("lang = %q, want he", got)
	}
}

func TestLanguageFromAcceptHeader(t *testing.T) {
	got := resolveLang(t, func(r *http.Request) {
		r.Header.Set("Accept-Language", "en-US,en;q=0.9")
	})
	if got != bilingual.LangEnglish {
		t.Errorf("lang = %q, want en", got)
	}
}

func TestLanguageCookieBeatsHeader(t *testing.T) {
	got := resolveLang(t, func(r *http.Request) {
		r.Header.Set("Accept-Language", "en-US")
		r.AddCookie(&http.Cookie{Name: langCookieName, Value: "he"})
	})
	if got != bilingual.LangHebrew {
		t.Errorf("lang = %q, want he", got)
	}
}

func TestLanguageQueryBeatsCookie(t *testing.T) {
	var got string
	handler := Language(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetLangFromContext(r.Context())
	}))

	req := httptest.NewRequest("GET", "/members?lang=en", nil)
	req.AddCookie(&http.Cookie{Name: langCookieName, Value: "he"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got != bilingual.LangEnglish {
		t.Errorf("lang = %q, want en", got)
	}
	// The override is persisted for later requests.
	cookies := rec.Result().Cookies()
	found := false
	for _, c := range cookies {
		if c.Name == langCookieName && c.Value == "en" {
			found = true
		}
	}
	if !found {
		t.Error("query override was not written to the language cookie")
	}
}

func TestLanguageInvalidQueryIgnored(t *testing.T) {
	got := resolveLang(t, func(r *http.Request) {
		r.URL.RawQuery = "lang=zz"
	})
	if got != bilingual.LangHebrew {
		t.Errorf("lang = %q, want fallback he", got)
	}
}
