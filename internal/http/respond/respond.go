// Package respond writes the JSON envelope shared by every API route:
// {"ok": true, ...} on success and {"ok": false, "error": "..."} on failure.
package respond

import (
	"encoding/json"
	"net/http"
)

// JSON writes payload with the given status.
func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// OK writes {"ok": true} merged with fields.
func OK(w http.ResponseWriter, status int, fields map[string]any) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["ok"] = true
	JSON(w, status, body)
}

// Error writes {"ok": false, "error": message}.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]any{"ok": false, "error": message})
}
