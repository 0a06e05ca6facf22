package measurements

import "time"

// Measurement es un registro fechado de medidas corporales de un bovino.
// Todas las medidas son opcionales.
type Measurement struct {
	ID       string
	AnimalID string

	// Date es una fecha civil (medianoche UTC).
	Date time.Time

	HeightCm        *Metric
	TorsoLengthCm   *Metric
	ObliqueLengthCm *Metric
	HipLengthCm     *Metric
	HipWidthCm      *Metric
	ScaleWeightKg   *Metric

	AgeMonths *int

	CreatedAt time.Time
}

// ListFilter acota listados por animal. Limit 0 = sin límite.
type ListFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// CivilDate normaliza t a medianoche UTC conservando año/mes/día.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parsea YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	return CivilDate(t), nil
}
