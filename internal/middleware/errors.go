package middleware

import (
	"net/http"

	"github.com/goccy/go-json"
)

// errorBody mirrors the handlers' error envelope so that failures raised
// before a handler runs look the same to callers.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
