package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

// Version is the API version reported by the informational endpoints
const Version = "1.0.0"

// HomeHandler handles requests to the root path
func HomeHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"message": "Welcome to the BB84 one-time-pad API",
		"version": Version,
		"status":  "running",
	}

	respondWithJSON(w, http.StatusOK, response)
}

// HealthHandler handles health check requests
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "qkd-otp-api",
	}

	respondWithJSON(w, http.StatusOK, health)
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}
