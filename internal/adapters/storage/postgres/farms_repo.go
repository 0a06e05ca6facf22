package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"bovine-monitoring/internal/domain/farms"
)

type FarmsRepo struct {
	db *sql.DB
}

func NewFarmsRepo(db *sql.DB) *FarmsRepo {
	return &FarmsRepo{db: db}
}

func (r *FarmsRepo) Create(ctx context.Context, f farms.Farm) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fincas (id, nombre, propietario_id, created_at)
		VALUES ($1,$2,$3,$4)
	`, f.ID, f.Name, f.OwnerID, f.CreatedAt)
	return err
}

func (r *FarmsRepo) GetByID(ctx context.Context, id string) (farms.Farm, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return farms.Farm{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, nombre, propietario_id, created_at
		FROM fincas
		WHERE id = $1
	`, id)

	var f farms.Farm
	if err := row.Scan(&f.ID, &f.Name, &f.OwnerID, &f.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return farms.Farm{}, ErrNotFound
		}
		return farms.Farm{}, err
	}
	return f, nil
}

func (r *FarmsRepo) ListByOwner(ctx context.Context, ownerID string) ([]farms.Farm, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, nombre, propietario_id, created_at
		FROM fincas
		WHERE propietario_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]farms.Farm, 0)
	for rows.Next() {
		var f farms.Farm
		if err := rows.Scan(&f.ID, &f.Name, &f.OwnerID, &f.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *FarmsRepo) Update(ctx context.Context, f farms.Farm) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE fincas SET nombre = $2 WHERE id = $1
	`, f.ID, f.Name)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete confía en ON DELETE CASCADE para bovinos y mediciones.
func (r *FarmsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fincas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
