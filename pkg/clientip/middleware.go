package clientip

import "net/http"

// Middleware stores the extracted client IP on the request context so
// downstream logging picks it up without re-parsing headers.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), GetIP(r))))
	})
}
