package middleware

import (
	"encoding/json"
	"net/http"
)

// envelope is an alias for a map used to wrap JSON responses.
type envelope map[string]any

// errorResponse writes {"error": message} and echoes the request id so the
// caller can match the failure with the service logs.
func errorResponse(w http.ResponseWriter, status int, message any) {
	env := envelope{"error": message}
	if id := w.Header().Get(RequestIDHeader); id != "" {
		env["request_id"] = id
	}

	js, err := json.Marshal(env)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
}
