package validation

import (
	"errors"
	"testing"

	"bovine-monitoring/internal/domain/domainerr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type animalPayload struct {
	Tag   string  `json:"tag" validate:"notblank,max=50"`
	Sex   *string `json:"sex" validate:"omitempty,sex"`
	Date  string  `json:"date" validate:"required,civildate"`
	Email string  `json:"email" validate:"omitempty,email"`
}

func TestValidator_Struct_OK(t *testing.T) {
	v := New()
	sex := "H"
	require.NoError(t, v.Struct(animalPayload{Tag: "BOV-1", Sex: &sex, Date: "2024-03-01"}))
	require.NoError(t, v.Struct(animalPayload{Tag: "BOV-1", Date: "2024-03-01"}))
}

func TestValidator_Struct_ReportsJSONFieldNames(t *testing.T) {
	v := New()
	sex := "X"

	err := v.Struct(animalPayload{Tag: "  ", Sex: &sex, Date: "01/03/2024", Email: "nope"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerr.ErrValidation))

	fields := domainerr.FieldsOf(err)
	got := map[string]string{}
	for _, f := range fields {
		got[f.Field] = f.Message
	}
	assert.Equal(t, "is required", got["tag"])
	assert.Equal(t, "must be M or H", got["sex"])
	assert.Equal(t, "must be a date in YYYY-MM-DD format", got["date"])
	assert.Equal(t, "must be a valid email", got["email"])
}

func TestValidator_Var(t *testing.T) {
	v := New()
	require.NoError(t, v.Var("format", "csv", "oneof=json csv"))

	err := v.Var("format", "xml", "oneof=json csv")
	require.Error(t, err)
	assert.Equal(t, []domainerr.FieldError{{Field: "format", Message: "must be one of: json csv"}}, domainerr.FieldsOf(err))
}
