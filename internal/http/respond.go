package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"finora/internal/core"
	"finora/internal/log"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, log.ErrorTypeNotFound
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrInvalidReference):
		return http.StatusUnprocessableEntity, log.ErrorTypeValidation
	case errors.Is(err, core.ErrInUse), errors.Is(err, core.ErrDuplicateEmail):
		return http.StatusConflict, log.ErrorTypeConflict
	case errors.Is(err, core.ErrInvalidCredentials):
		return http.StatusUnauthorized, log.ErrorTypeAuth
	default:
		return http.StatusInternalServerError, log.ErrorTypeInternal
	}
}

// fail writes the response for a service error. Server errors are logged with
// their cause and answered with a generic message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, kind := statusFor(err)
	if status == http.StatusInternalServerError {
		fields := log.NewFields().WithErrorType(kind)
		log.NewStructuredLogger(log.FromContext(r.Context())).
			LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op, fields)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, publicMessage(err))
}

func publicMessage(err error) string {
	for _, known := range []error{
		core.ErrInvalidKind, core.ErrEmptyName, core.ErrEmptyEmail,
		core.ErrMissingCategory, core.ErrMissingUser,
		core.ErrNotFound, core.ErrInvalidReference, core.ErrInUse,
		core.ErrDuplicateEmail, core.ErrInvalidCredentials,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return err.Error()
}

// decode reads a JSON body of at most maxBodyBytes into v.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// pathID returns the numeric path variable name. Routes only match digits,
// so the only failure left is overflow, reported as not found.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "resource not found")
		return 0, false
	}
	return id, true
}
