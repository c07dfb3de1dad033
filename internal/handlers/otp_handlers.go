package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jaskrrish/qkd-otp/internal/logging"
	"github.com/jaskrrish/qkd-otp/internal/metrics"
	"github.com/jaskrrish/qkd-otp/internal/models/qkd"
	qkdcore "github.com/jaskrrish/qkd-otp/internal/qkd"
)

// maxBodyBytes bounds every JSON request body
const maxBodyBytes = 1 << 20

// OTPHandler serves the encrypt and decrypt endpoints
type OTPHandler struct {
	service *qkdcore.Service
	logger  *logging.Logger
}

// NewOTPHandler creates a new handler around service
func NewOTPHandler(service *qkdcore.Service, logger *logging.Logger) *OTPHandler {
	return &OTPHandler{
		service: service,
		logger:  logger.With("component", "otp"),
	}
}

// EncryptHandler handles POST /api/v1/otp/encrypt
// Derives a fresh BB84 key and encrypts the message with it
func (h *OTPHandler) EncryptHandler(w http.ResponseWriter, r *http.Request) {
	var req qkd.EncryptRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start := time.Now()
	result, err := h.service.Encrypt(req.Message)
	h.record(metrics.OpEncrypt, err, time.Since(start))

	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	metrics.RecordSifting(result.PercentKept)
	h.logger.Debug("message encrypted",
		"exchange_id", result.ExchangeID.String(),
		"raw_count", result.RawCount,
		"sifted_count", result.SiftedCount)

	respondWithJSON(w, http.StatusOK, result)
}

// DecryptHandler handles POST /api/v1/otp/decrypt
// Reverses the XOR given ciphertext and key as 0/1 text
func (h *OTPHandler) DecryptHandler(w http.ResponseWriter, r *http.Request) {
	var req qkd.DecryptRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start := time.Now()
	result, err := h.service.Decrypt(req.Ciphertext, req.Key)
	h.record(metrics.OpDecrypt, err, time.Since(start))

	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// HealthCheckHandler handles GET /api/v1/otp/health
func (h *OTPHandler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":            "healthy",
		"service":           "BB84 One-Time Pad",
		"version":           Version,
		"oversample_factor": h.service.Protocol().OversampleFactor(),
	}

	respondWithJSON(w, http.StatusOK, health)
}

func (h *OTPHandler) record(operation string, err error, elapsed time.Duration) {
	status := metrics.StatusSuccess
	if err != nil {
		status = qkd.ErrorCode(err)
	}
	metrics.RecordOperation(operation, status, elapsed)
}

// respondWithError maps a pipeline error to its HTTP status and JSON body.
// Empty input is a no-op clear, not an error banner.
func (h *OTPHandler) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	switch status {
	case http.StatusNoContent:
		w.WriteHeader(status)
		return
	case http.StatusUnprocessableEntity:
		h.logger.Warn("key exchange fell short", "path", r.URL.Path, "error", err.Error())
	case http.StatusInternalServerError:
		h.logger.Error("request failed", err, "path", r.URL.Path)
	}

	respondWithJSON(w, status, qkd.NewErrorResponse(err))
}

func statusFor(err error) int {
	switch qkd.ErrorCode(err) {
	case qkd.CodeEmptyInput:
		return http.StatusNoContent
	case qkd.CodeKeyTooShort:
		return http.StatusUnprocessableEntity
	case qkd.CodeMessageTooLong, qkd.CodeExchangeTooLarge:
		return http.StatusRequestEntityTooLarge
	case qkd.CodeInvalidCharacters, qkd.CodeLengthMismatch, qkd.CodeNotByteAligned,
		qkd.CodeInvalidEncoding, qkd.CodeFormat:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads a size-limited JSON body into v, responding 413 when the
// body is over maxBodyBytes and 400 on any other failure
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondWithJSON(w, http.StatusRequestEntityTooLarge, qkd.ErrorResponse{
				Error: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit),
				Code:  qkd.CodeMessageTooLong,
			})
			return false
		}

		respondWithJSON(w, http.StatusBadRequest, qkd.ErrorResponse{
			Error: "Invalid request body",
			Code:  "invalid_request",
		})
		return false
	}
	return true
}
