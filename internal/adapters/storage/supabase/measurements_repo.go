package supabase

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bovine-monitoring/internal/domain/measurements"
	sbplatform "bovine-monitoring/internal/platform/supabase"
)

const (
	tableMeasurements = "mediciones_bovinos"

	measurementColumns = "id,bovino_id,fecha,altura_cm,l_torso_cm,l_oblicua_cm,l_cadera_cm,a_cadera_cm,peso_bascula_kg,edad_meses,created_at"
)

type MeasurementsRepo struct {
	c *sbplatform.Client
}

type measurementRow struct {
	ID            string               `json:"id"`
	BovinoID      string               `json:"bovino_id"`
	Fecha         string               `json:"fecha"`
	AlturaCm      *measurements.Metric `json:"altura_cm"`
	LTorsoCm      *measurements.Metric `json:"l_torso_cm"`
	LOblicuaCm    *measurements.Metric `json:"l_oblicua_cm"`
	LCaderaCm     *measurements.Metric `json:"l_cadera_cm"`
	ACaderaCm     *measurements.Metric `json:"a_cadera_cm"`
	PesoBasculaKg *measurements.Metric `json:"peso_bascula_kg"`
	EdadMeses     *int                 `json:"edad_meses"`
	CreatedAt     time.Time            `json:"created_at"`

	Bovinos *struct {
		FincaID string   `json:"finca_id"`
		Fincas  ownerRef `json:"fincas"`
	} `json:"bovinos,omitempty"`
}

func rowFromMeasurement(m measurements.Measurement) measurementRow {
	return measurementRow{
		ID:            m.ID,
		BovinoID:      m.AnimalID,
		Fecha:         m.Date.Format(time.DateOnly),
		AlturaCm:      m.HeightCm,
		LTorsoCm:      m.TorsoLengthCm,
		LOblicuaCm:    m.ObliqueLengthCm,
		LCaderaCm:     m.HipLengthCm,
		ACaderaCm:     m.HipWidthCm,
		PesoBasculaKg: m.ScaleWeightKg,
		EdadMeses:     m.AgeMonths,
		CreatedAt:     m.CreatedAt,
	}
}

func (r measurementRow) toDomain() (measurements.Measurement, error) {
	date, err := measurements.ParseDate(r.Fecha)
	if err != nil {
		return measurements.Measurement{}, fmt.Errorf("measurement %s: fecha %q: %w", r.ID, r.Fecha, err)
	}
	return measurements.Measurement{
		ID:              r.ID,
		AnimalID:        r.BovinoID,
		Date:            date,
		HeightCm:        r.AlturaCm,
		TorsoLengthCm:   r.LTorsoCm,
		ObliqueLengthCm: r.LOblicuaCm,
		HipLengthCm:     r.LCaderaCm,
		HipWidthCm:      r.ACaderaCm,
		ScaleWeightKg:   r.PesoBasculaKg,
		AgeMonths:       r.EdadMeses,
		CreatedAt:       r.CreatedAt,
	}, nil
}

func (r *MeasurementsRepo) Create(ctx context.Context, m measurements.Measurement) error {
	return insert(ctx, r.c, tableMeasurements, rowFromMeasurement(m))
}

func (r *MeasurementsRepo) GetWithOwner(ctx context.Context, id string) (measurements.Measurement, string, error) {
	q := byID(id)
	q.Set("select", measurementColumns+",bovinos!inner(finca_id,fincas!inner(propietario_id))")

	var rows []measurementRow
	if err := r.c.Rest(ctx, http.MethodGet, tableMeasurements, q, nil, &rows); err != nil {
		return measurements.Measurement{}, "", err
	}
	row, err := first(rows)
	if err != nil {
		return measurements.Measurement{}, "", err
	}

	m, err := row.toDomain()
	if err != nil {
		return measurements.Measurement{}, "", err
	}
	owner := ""
	if row.Bovinos != nil {
		owner = row.Bovinos.Fincas.PropietarioID
	}
	return m, owner, nil
}

func (r *MeasurementsRepo) AnimalOwner(ctx context.Context, animalID string) (string, error) {
	q := byID(animalID)
	q.Set("select", "id,fincas!inner(propietario_id)")

	var rows []struct {
		Fincas ownerRef `json:"fincas"`
	}
	if err := r.c.Rest(ctx, http.MethodGet, tableAnimals, q, nil, &rows); err != nil {
		return "", err
	}
	row, err := first(rows)
	if err != nil {
		return "", err
	}
	return row.Fincas.PropietarioID, nil
}

func (r *MeasurementsRepo) ListByAnimal(ctx context.Context, animalID string, filter measurements.ListFilter) ([]measurements.Measurement, error) {
	q := url.Values{}
	q.Set("select", measurementColumns)
	q.Set("bovino_id", sbplatform.Eq(animalID))
	if filter.From != nil {
		q.Add("fecha", "gte."+filter.From.Format(time.DateOnly))
	}
	if filter.To != nil {
		q.Add("fecha", "lte."+filter.To.Format(time.DateOnly))
	}
	q.Set("order", "fecha.desc,created_at.desc")
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}

	var rows []measurementRow
	if err := r.c.Rest(ctx, http.MethodGet, tableMeasurements, q, nil, &rows); err != nil {
		return nil, err
	}

	out := make([]measurements.Measurement, 0, len(rows))
	for _, row := range rows {
		m, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *MeasurementsRepo) Latest(ctx context.Context, animalID string) (measurements.Measurement, error) {
	items, err := r.ListByAnimal(ctx, animalID, measurements.ListFilter{Limit: 1})
	if err != nil {
		return measurements.Measurement{}, err
	}
	return first(items)
}

func (r *MeasurementsRepo) Update(ctx context.Context, m measurements.Measurement) error {
	row := rowFromMeasurement(m)
	return mutate[measurementRow](ctx, r.c, http.MethodPatch, tableMeasurements, byID(m.ID), map[string]any{
		"fecha":           row.Fecha,
		"altura_cm":       row.AlturaCm,
		"l_torso_cm":      row.LTorsoCm,
		"l_oblicua_cm":    row.LOblicuaCm,
		"l_cadera_cm":     row.LCaderaCm,
		"a_cadera_cm":     row.ACaderaCm,
		"peso_bascula_kg": row.PesoBasculaKg,
		"edad_meses":      row.EdadMeses,
	})
}

func (r *MeasurementsRepo) Delete(ctx context.Context, id string) error {
	return mutate[measurementRow](ctx, r.c, http.MethodDelete, tableMeasurements, byID(id), nil)
}
