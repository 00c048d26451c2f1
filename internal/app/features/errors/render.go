// internal/app/features/errors/render.go
package errors

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dalemusser/articlio/internal/app/system/apperr"
	"go.uber.org/zap"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// messageResponse is the envelope for responses that carry only a message.
type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes {"success":true,"message":msg} with status 200.
func OK(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, messageResponse{Success: true, Message: msg})
}

// Fail writes {"success":false,"message":msg} with status.
func Fail(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, messageResponse{Success: false, Message: msg})
}

// Write renders err. Typed errors keep their kind and message; anything
// else becomes a 500 with a generic message. Internal failures are logged
// with their cause, which never reaches the client.
func Write(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	ae := apperr.As(err)
	if ae == nil {
		ae = apperr.Wrap(err, "internal server error")
	}
	if ae.Kind == apperr.Internal && log != nil {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("message", ae.Message),
			zap.Error(ae.Err))
	}
	msg := ae.Message
	if msg == "" {
		msg = http.StatusText(ae.Status())
	}
	Fail(w, ae.Status(), msg)
}

// Decode reads a JSON body into v. Malformed or oversized bodies are
// reported as invalid input.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			return apperr.Invalidf("request body too large")
		case errors.Is(err, io.EOF):
			return apperr.Invalidf("request body is required")
		default:
			return apperr.Invalidf("invalid JSON body")
		}
	}
	return nil
}
