package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/hlog"
)

// sendJSON writes a ResponseModel with the given status code.
func sendJSON(w http.ResponseWriter, r *http.Request, status int, resp ResponseModel) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		hlog.FromRequest(r).Err(err).Msg("Error writing response")
	}
}

func sendData(w http.ResponseWriter, r *http.Request, data any) {
	sendJSON(w, r, http.StatusOK, ResponseModel{Success: true, Data: data})
}

func sendError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	sendJSON(w, r, status, ResponseModel{Error: msg})
}
