package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"fintrack/internal/apperr"
	"fintrack/internal/log"
)

const (
	// UserIDHeader selects the workspace a request operates on.
	UserIDHeader = "X-User-ID"

	maxBodyBytes = 1 << 20
	maxUserIDLen = 128
)

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// respondWithError writes err as a JSON error. Internal causes are logged and
// never sent to the client.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperr.From(err)
	if appErr.Internal != nil {
		logger := log.FromContext(r.Context())
		fields := log.NewFields().
			WithError(appErr.Internal).
			WithHTTPRequest(r.Method, r.URL.Path, "", "")
		fields["code"] = appErr.Code
		fields[log.FieldErrorType] = errorType(appErr.StatusCode)
		if appErr.StatusCode >= http.StatusInternalServerError {
			logger.ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
		} else {
			logger.DebugContext(r.Context(), "Request rejected", fields.ToSlice()...)
		}
	}
	writeJSON(w, appErr.StatusCode, errorBody{Error: errorDetail{Code: appErr.Code, Message: appErr.Message}})
}

func errorType(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return log.ErrorTypeInternal
	case status == http.StatusNotFound:
		return log.ErrorTypeNotFound
	default:
		return log.ErrorTypeValidation
	}
}

// decodeJSON reads a single JSON value into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.WithMessage(apperr.ErrInvalidInput, "Request body is empty")
		}
		return apperr.Wrap(apperr.WithMessage(apperr.ErrInvalidInput, "Malformed JSON body"), err)
	}
	return nil
}

// userIDFrom validates the caller's user id header.
func userIDFrom(r *http.Request) (string, error) {
	uid := sanitizeInput(r.Header.Get(UserIDHeader))
	if uid == "" {
		return "", apperr.ErrUnauthorized
	}
	if len(uid) > maxUserIDLen || strings.ContainsAny(uid, "/\\") {
		return "", apperr.WithMessage(apperr.ErrInvalidInput, fmt.Sprintf("Invalid %s header", UserIDHeader))
	}
	return uid, nil
}

// sanitizeInput trims s and drops control characters.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
