package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"bovine-monitoring/internal/domain/domainerr"
	"bovine-monitoring/internal/platform/logger"
)

// ErrorBody es el cuerpo común de todas las respuestas de error.
type ErrorBody struct {
	Error      bool                   `json:"error"`
	Detail     string                 `json:"detail"`
	StatusCode int                    `json:"status_code"`
	Errors     []domainerr.FieldError `json:"errors,omitempty"`
	// Message solo se completa en modo debug (errores 5xx).
	Message string `json:"message,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteStatus escribe un error genérico sin pasar por las categorías de dominio.
func WriteStatus(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, ErrorBody{Error: true, Detail: detail, StatusCode: status})
}

// DecodeJSON decodifica el body; un JSON mal formado es un 400.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domainerr.Invalid("request body is required")
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domainerr.Invalid("request body too large")
		}
		return domainerr.Wrap(domainerr.ErrInvalidInput, "invalid json", err)
	}
	return nil
}

// StatusOf traduce una categoría de dominio a status HTTP.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, domainerr.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domainerr.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domainerr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domainerr.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Responder escribe errores con el formato común.
// Con Debug=true los 500 incluyen el mensaje original.
type Responder struct {
	Debug bool
}

func (rs Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)

	body := ErrorBody{
		Error:      true,
		StatusCode: status,
		Detail:     domainerr.DetailOf(err),
		Errors:     domainerr.FieldsOf(err),
	}

	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", map[string]any{
			"error":  err.Error(),
			"method": r.Method,
			"path":   r.URL.Path,
		})
		body.Detail = "internal server error"
		if rs.Debug {
			body.Message = err.Error()
		}
	}

	if body.Detail == "" {
		body.Detail = http.StatusText(status)
	}

	WriteJSON(w, status, body)
}
