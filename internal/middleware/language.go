package middleware

import (
	"context"
	"net/http"
	"strings"
)

const languageKey contextKey = "language"

// supportedLanguages are the storefront languages. The first matching
// Accept-Language entry wins; anything else falls back to the default.
var supportedLanguages = map[string]bool{
	"en": true,
	"ar": true,
}

// LanguageMiddleware resolves the request language from the Accept-Language
// header and stores it in the request context. The language is per-request
// state, never package-level state.
func LanguageMiddleware(defaultLanguage string) func(http.Handler) http.Handler {
	if !supportedLanguages[defaultLanguage] {
		defaultLanguage = "en"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := defaultLanguage

			for _, entry := range strings.Split(r.Header.Get("Accept-Language"), ",") {
				// Strip quality values and region subtags: "ar-JO;q=0.9" -> "ar"
				tag := strings.TrimSpace(strings.SplitN(entry, ";", 2)[0])
				tag = strings.ToLower(strings.SplitN(tag, "-", 2)[0])
				if supportedLanguages[tag] {
					lang = tag
					break
				}
			}

			w.Header().Set("Content-Language", lang)

			ctx := context.WithValue(r.Context(), languageKey, lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetLanguage extracts the resolved request language from context
func GetLanguage(ctx context.Context) (string, bool) {
	lang, ok := ctx.Value(languageKey).(string)
	return lang, ok
}
