package relay

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// maxEventBodySize caps the inbound payload at 1 MB. Push payloads with
// many commits are the largest events GitLab sends and stay well under this.
const maxEventBodySize = 1 << 20

// readBody reads the raw event payload with the size limit applied.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxEventBodySize)
	return io.ReadAll(r.Body)
}

// identifierFromPath extracts the route identifier from the URL parameter
// registered by the router.
func identifierFromPath(r *http.Request) string {
	return chi.URLParam(r, "identifier")
}

// writeText writes a plain-text response. The webhook endpoint's bodies are
// fixed strings, so a best-effort write is all that is needed.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
