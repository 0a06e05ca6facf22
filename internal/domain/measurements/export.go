package measurements

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{
	"id", "animal_id", "date",
	"height_cm", "torso_length_cm", "oblique_length_cm",
	"hip_length_cm", "hip_width_cm", "scale_weight_kg",
	"age_months", "created_at",
}

// WriteCSV escribe items con encabezado; los campos ausentes quedan vacíos.
func WriteCSV(w io.Writer, items []Measurement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, m := range items {
		rec := []string{
			m.ID,
			m.AnimalID,
			m.Date.Format(time.DateOnly),
			metricCell(m.HeightCm),
			metricCell(m.TorsoLengthCm),
			metricCell(m.ObliqueLengthCm),
			metricCell(m.HipLengthCm),
			metricCell(m.HipWidthCm),
			metricCell(m.ScaleWeightKg),
			"",
			m.CreatedAt.UTC().Format(time.RFC3339),
		}
		if m.AgeMonths != nil {
			rec[9] = strconv.Itoa(*m.AgeMonths)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func metricCell(m *Metric) string {
	if m == nil {
		return ""
	}
	return m.Decimal().StringFixed(2)
}
