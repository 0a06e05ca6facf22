package measurements

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var metricCeiling = decimal.NewFromInt(10000)

// Límites de entrada. Se revisan antes de cualquier Round o Cmp, que reescalan
// el coeficiente a 10^|exponente|.
const (
	maxMetricText     = 32
	minMetricExponent = -10
	maxMetricExponent = 4
)

var errMetricRange = errors.New("decimal out of range")

func checkScale(d decimal.Decimal) error {
	if e := d.Exponent(); e < minMetricExponent || e > maxMetricExponent {
		return errMetricRange
	}
	return nil
}

// Metric es una medida decimal de punto fijo: no negativa, hasta 2 decimales
// y 6 dígitos en total. En JSON se emite como número.
type Metric struct {
	d decimal.Decimal
}

func NewMetric(s string) (Metric, error) {
	if len(s) > maxMetricText {
		return Metric{}, errMetricRange
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Metric{}, err
	}
	if err := checkScale(d); err != nil {
		return Metric{}, err
	}
	return Metric{d: d}, nil
}

func MustMetric(s string) Metric {
	m, err := NewMetric(s)
	if err != nil {
		panic(err)
	}
	return m
}

func MetricFromDecimal(d decimal.Decimal) Metric { return Metric{d: d} }

func (m Metric) Decimal() decimal.Decimal { return m.d }

func (m Metric) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

func (m Metric) String() string { return m.d.String() }

func (m Metric) Equal(o Metric) bool { return m.d.Equal(o.d) }

// Validate aplica el rango de columnas numeric(6,2) >= 0.
func (m Metric) Validate() error {
	switch {
	case m.d.IsNegative():
		return fmt.Errorf("must be greater than or equal to 0")
	case !m.d.Equal(m.d.Round(2)):
		return fmt.Errorf("must have at most 2 decimal places")
	case m.d.GreaterThanOrEqual(metricCeiling):
		return fmt.Errorf("must have at most 6 digits")
	}
	return nil
}

func (m Metric) MarshalJSON() ([]byte, error) {
	return []byte(m.d.String()), nil
}

// UnmarshalJSON acepta número o string numérico.
func (m *Metric) UnmarshalJSON(b []byte) error {
	if len(b) > maxMetricText+2 {
		return fmt.Errorf("invalid decimal: %w", errMetricRange)
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("invalid decimal: %w", err)
	}
	if err := checkScale(d); err != nil {
		return fmt.Errorf("invalid decimal: %w", err)
	}
	m.d = d
	return nil
}

// FloatPtr convierte una medida opcional a su representación de salida.
func FloatPtr(m *Metric) *float64 {
	if m == nil {
		return nil
	}
	f := m.Float64()
	return &f
}
