package domainerr

import "errors"

// Categorías de error de dominio. El borde HTTP las traduce a status codes.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
)

// FieldError describe un campo inválido en un payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error agrega un detalle legible (y opcionalmente la causa) a una categoría.
type Error struct {
	Kind   error
	Detail string
	Fields []FieldError
	Cause  error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Detail + ": " + e.Cause.Error()
	}
	return e.Detail
}

func (e *Error) Unwrap() []error {
	out := []error{e.Kind}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

func Invalid(detail string) error {
	return &Error{Kind: ErrInvalidInput, Detail: detail}
}

func Unauthorized(detail string) error {
	return &Error{Kind: ErrUnauthorized, Detail: detail}
}

func NotFound(detail string) error {
	return &Error{Kind: ErrNotFound, Detail: detail}
}

func Validation(detail string, fields ...FieldError) error {
	return &Error{Kind: ErrValidation, Detail: detail, Fields: fields}
}

// Wrap conserva la causa para logs sin exponerla en el detalle.
func Wrap(kind error, detail string, cause error) error {
	return &Error{Kind: kind, Detail: detail, Cause: cause}
}

// DetailOf devuelve el detalle público de err, o "" si no es un *Error.
func DetailOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Detail
	}
	return ""
}

// FieldsOf devuelve los campos inválidos asociados a err, si los hay.
func FieldsOf(err error) []FieldError {
	var de *Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}
