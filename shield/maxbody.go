package shield

import "net/http"

// MaxBody returns middleware that caps the request body size. Document
// uploads arrive as multipart bodies, so the cap applies to every request
// rather than only form-encoded ones.
func MaxBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
