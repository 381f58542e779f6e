package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ssargent/borshkit/pkg/codec"
	"github.com/ssargent/borshkit/pkg/registry"
	"github.com/ssargent/borshkit/pkg/storage"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/x-msgpack"
	contentTypeBinary  = "application/octet-stream"
)

// apiKeyMiddleware validates the X-API-Key header
func apiKeyMiddleware(expectedKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get("X-API-Key")
			if apiKey == "" {
				sendError(w, "Missing X-API-Key header", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(apiKey), []byte(expectedKey)) != 1 {
				sendError(w, "Invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sendSuccess sends a successful JSON response
func sendSuccess(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(APIResponse{Success: true, Data: data})
}

// sendMsgpack sends data as a bare msgpack document.
func sendMsgpack(w http.ResponseWriter, data interface{}) {
	body, err := msgpack.Marshal(data)
	if err != nil {
		sendError(w, "Failed to encode msgpack response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentTypeMsgpack)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// sendBinary sends raw bytes.
func sendBinary(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", contentTypeBinary)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// sendError sends an error JSON response
func sendError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{Success: false, Error: message})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		tooLarge *http.MaxBytesError
		reqErr   *requestError
	)
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &reqErr):
		return http.StatusBadRequest
	case errors.Is(err, registry.ErrUnknownSchema),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, codec.ErrTruncatedInput),
		errors.Is(err, codec.ErrTrailingBytes),
		errors.Is(err, codec.ErrValueOutOfRange),
		errors.Is(err, codec.ErrTypeMismatch),
		errors.Is(err, codec.ErrMissingField):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
