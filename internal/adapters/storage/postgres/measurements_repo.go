package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bovine-monitoring/internal/domain/measurements"

	"github.com/shopspring/decimal"
)

type MeasurementsRepo struct {
	db *sql.DB
}

func NewMeasurementsRepo(db *sql.DB) *MeasurementsRepo {
	return &MeasurementsRepo{db: db}
}

const measurementColumns = `
	m.id, m.bovino_id, m.fecha,
	m.altura_cm, m.l_torso_cm, m.l_oblicua_cm,
	m.l_cadera_cm, m.a_cadera_cm, m.peso_bascula_kg,
	m.edad_meses, m.created_at`

func (r *MeasurementsRepo) Create(ctx context.Context, m measurements.Measurement) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mediciones_bovinos (
			id, bovino_id, fecha,
			altura_cm, l_torso_cm, l_oblicua_cm,
			l_cadera_cm, a_cadera_cm, peso_bascula_kg,
			edad_meses, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		m.ID,
		m.AnimalID,
		m.Date,
		nullMetric(m.HeightCm),
		nullMetric(m.TorsoLengthCm),
		nullMetric(m.ObliqueLengthCm),
		nullMetric(m.HipLengthCm),
		nullMetric(m.HipWidthCm),
		nullMetric(m.ScaleWeightKg),
		nullInt(m.AgeMonths),
		m.CreatedAt,
	)
	return err
}

func (r *MeasurementsRepo) GetWithOwner(ctx context.Context, id string) (measurements.Measurement, string, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+measurementColumns+`, f.propietario_id
		FROM mediciones_bovinos m
		JOIN bovinos b ON b.id = m.bovino_id
		JOIN fincas f ON f.id = b.finca_id
		WHERE m.id = $1
	`, strings.TrimSpace(id))

	var owner string
	m, err := scanMeasurement(row, &owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return measurements.Measurement{}, "", ErrNotFound
		}
		return measurements.Measurement{}, "", err
	}
	return m, owner, nil
}

func (r *MeasurementsRepo) AnimalOwner(ctx context.Context, animalID string) (string, error) {
	var owner string
	err := r.db.QueryRowContext(ctx, `
		SELECT f.propietario_id
		FROM bovinos b
		JOIN fincas f ON f.id = b.finca_id
		WHERE b.id = $1
	`, animalID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return owner, err
}

func (r *MeasurementsRepo) ListByAnimal(ctx context.Context, animalID string, filter measurements.ListFilter) ([]measurements.Measurement, error) {
	sb := strings.Builder{}
	sb.WriteString(`
		SELECT ` + measurementColumns + `
		FROM mediciones_bovinos m
		WHERE m.bovino_id = $1
	`)

	args := []any{animalID}
	argN := 2

	if filter.From != nil {
		sb.WriteString(fmt.Sprintf(" AND m.fecha >= $%d", argN))
		args = append(args, *filter.From)
		argN++
	}
	if filter.To != nil {
		sb.WriteString(fmt.Sprintf(" AND m.fecha <= $%d", argN))
		args = append(args, *filter.To)
		argN++
	}

	sb.WriteString(" ORDER BY m.fecha DESC, m.created_at DESC")
	if filter.Limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", argN))
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]measurements.Measurement, 0)
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MeasurementsRepo) Latest(ctx context.Context, animalID string) (measurements.Measurement, error) {
	items, err := r.ListByAnimal(ctx, animalID, measurements.ListFilter{Limit: 1})
	if err != nil {
		return measurements.Measurement{}, err
	}
	if len(items) == 0 {
		return measurements.Measurement{}, ErrNotFound
	}
	return items[0], nil
}

func (r *MeasurementsRepo) Update(ctx context.Context, m measurements.Measurement) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE mediciones_bovinos
		SET
			fecha = $2,
			altura_cm = $3,
			l_torso_cm = $4,
			l_oblicua_cm = $5,
			l_cadera_cm = $6,
			a_cadera_cm = $7,
			peso_bascula_kg = $8,
			edad_meses = $9
		WHERE id = $1
	`,
		m.ID,
		m.Date,
		nullMetric(m.HeightCm),
		nullMetric(m.TorsoLengthCm),
		nullMetric(m.ObliqueLengthCm),
		nullMetric(m.HipLengthCm),
		nullMetric(m.HipWidthCm),
		nullMetric(m.ScaleWeightKg),
		nullInt(m.AgeMonths),
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MeasurementsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM mediciones_bovinos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMeasurement(s scanner, extra ...any) (measurements.Measurement, error) {
	var m measurements.Measurement
	var height, torso, oblique, hipLen, hipWidth, weight decimal.NullDecimal
	var age sql.NullInt32

	dest := append([]any{
		&m.ID, &m.AnimalID, &m.Date,
		&height, &torso, &oblique,
		&hipLen, &hipWidth, &weight,
		&age, &m.CreatedAt,
	}, extra...)
	if err := s.Scan(dest...); err != nil {
		return measurements.Measurement{}, err
	}

	m.Date = measurements.CivilDate(m.Date)
	m.HeightCm = metricOf(height)
	m.TorsoLengthCm = metricOf(torso)
	m.ObliqueLengthCm = metricOf(oblique)
	m.HipLengthCm = metricOf(hipLen)
	m.HipWidthCm = metricOf(hipWidth)
	m.ScaleWeightKg = metricOf(weight)
	if age.Valid {
		v := int(age.Int32)
		m.AgeMonths = &v
	}
	return m, nil
}

func nullMetric(m *measurements.Metric) decimal.NullDecimal {
	if m == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: m.Decimal(), Valid: true}
}

func metricOf(nd decimal.NullDecimal) *measurements.Metric {
	if !nd.Valid {
		return nil
	}
	m := measurements.MetricFromDecimal(nd.Decimal)
	return &m
}

func nullInt(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}
