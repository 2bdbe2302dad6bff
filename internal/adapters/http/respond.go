package httpserver

import (
	"encoding/base64"
	"net/http"

	"github.com/OliveiraNt/kafka-lens/internal/utils"
	"github.com/goccy/go-json"
)

type errorResponse struct {
	Error  string `json:"error"`
	Status any    `json:"status,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Logger.Error("write json response failed", "err", err)
	}
}

// writeError answers with a JSON error body and the notification headers the UI toasts from.
func writeError(w http.ResponseWriter, code int, msg string, status any) {
	w.Header().Set("X-Notification-Type", "error")
	w.Header().Set("X-Notification-Base64", base64.StdEncoding.EncodeToString([]byte(msg)))
	writeJSON(w, code, errorResponse{Error: msg, Status: status})
}
