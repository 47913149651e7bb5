package core

import (
	"encoding/json"
	"net/http"
)

// JSON writes a JSON response with the given status code. A marshal failure
// degrades to a bare 500; with the fixed response shapes used here that
// path is unreachable in practice.
func JSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
