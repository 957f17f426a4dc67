// Package schedule exposes the scheduler over HTTP: POST /api/schedule
// solves a request and GET /api/runs lists past runs.
package schedule

import (
	"encoding/json"
	"net/http"
)

// authorized checks the "Bearer <token>" header. An empty token disables
// the check.
func authorized(r *http.Request, token string) bool {
	return token == "" || r.Header.Get("Authorization") == "Bearer "+token
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
