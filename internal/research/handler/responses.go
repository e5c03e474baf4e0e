package handler

import (
	"encoding/json"
	"net/http"
)

// failureResponse is the envelope for rejected or aborted runs.
type failureResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
