package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"bovine-monitoring/internal/domain/domainerr"

	"github.com/go-playground/validator/v10"
)

// Validator envuelve go-playground/validator con las reglas propias de la API.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Los errores se reportan con el nombre JSON del campo.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("sex", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "M" || s == "H"
	})
	_ = v.RegisterValidation("civildate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.DateOnly, fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{v: v}
}

// Struct valida s y devuelve un error de validación (422) con los campos inválidos.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domainerr.Wrap(domainerr.ErrValidation, "validation error", err)
	}

	fields := make([]domainerr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, domainerr.FieldError{
			Field:   fieldPath(fe),
			Message: message(fe),
		})
	}
	return domainerr.Validation("validation error", fields...)
}

// Var valida un valor suelto (p.ej. query params).
func (v *Validator) Var(field string, value any, tag string) error {
	err := v.v.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return domainerr.Validation("validation error", domainerr.FieldError{Field: field, Message: message(verrs[0])})
	}
	return domainerr.Wrap(domainerr.ErrValidation, "validation error", err)
}

// fieldPath quita el nombre del struct raíz: "createFarmRequest.name" -> "name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	if ns == "" {
		return fe.Field()
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must have at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must have at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "sex":
		return "must be M or H"
	case "civildate":
		return "must be a date in YYYY-MM-DD format"
	case "uuid", "uuid4":
		return "must be a valid id"
	case "url", "http_url":
		return "must be a valid url"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return "is invalid"
	}
}
