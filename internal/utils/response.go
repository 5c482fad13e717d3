package utils

import (
	"encoding/json"
	"net/http"

	"github.com/brizzai/popup-login/internal/logger"
	"go.uber.org/zap"
)

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// WriteError writes an OAuth style JSON error response
func WriteError(w http.ResponseWriter, code, message string, status int) {
	WriteJSON(w, status, map[string]string{
		"error":             code,
		"error_description": message,
	})
}
