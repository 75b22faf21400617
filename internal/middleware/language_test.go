package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestLanguageMiddleware_DefaultWhenHeaderMissing(t *testing.T) {
	middleware := LanguageMiddleware("en")

	var got string
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = GetLanguage(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got != "en" {
		t.Errorf("expected default language en, got %q", got)
	}
	if w.Header().Get("Content-Language") != "en" {
		t.Errorf("expected Content-Language en, got %q", w.Header().Get("Content-Language"))
	}
}

func TestLanguageMiddleware_HeaderSelectsSupportedLanguage(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"ar", "ar"},
		{"ar-JO", "ar"},
		{"en-US,en;q=0.9", "en"},
		{"ar;q=0.8,en;q=0.6", "ar"},
		{"fr", "en"}, // unsupported falls back to default
		{"de-DE,fr;q=0.7", "en"},
	}

	middleware := LanguageMiddleware("en")

	for _, tc := range cases {
		var got string
		handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, _ = GetLanguage(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("Accept-Language", tc.header)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if got != tc.want {
			t.Errorf("header %q: expected language %q, got %q", tc.header, tc.want, got)
		}
	}
}

func TestProperty_LanguageIsAlwaysResolved(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every request resolves to a supported language", prop.ForAll(
		func(header string) bool {
			middleware := LanguageMiddleware("en")

			var got string
			var ok bool
			handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, ok = GetLanguage(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", "/test", nil)
			if header != "" {
				req.Header.Set("Accept-Language", header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			return ok && (got == "en" || got == "ar")
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
