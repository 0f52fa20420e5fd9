package handlers

import (
	"encoding/json"
	"net/http"
)

// LivenessMessage is returned by GET /.
const LivenessMessage = "Backend is running"

// Root answers the liveness probe.
func Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"message": LivenessMessage})
}

// Health reports that the process is serving requests. The relay holds no
// upstream connections, so there is nothing else to check.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
