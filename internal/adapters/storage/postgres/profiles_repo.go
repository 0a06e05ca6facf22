package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"bovine-monitoring/internal/domain/profiles"
)

type ProfilesRepo struct {
	db *sql.DB
}

func NewProfilesRepo(db *sql.DB) *ProfilesRepo {
	return &ProfilesRepo{db: db}
}

func (r *ProfilesRepo) Create(ctx context.Context, p profiles.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO perfiles (
			id, nombre_completo, imagen_perfil,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5)
	`,
		p.ID,
		nullString(p.FullName),
		nullString(p.ImageURL),
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *ProfilesRepo) GetByID(ctx context.Context, id string) (profiles.Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return profiles.Profile{}, ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT
			id, nombre_completo, imagen_perfil,
			created_at, updated_at
		FROM perfiles
		WHERE id = $1
	`, id)

	var p profiles.Profile
	var name, img sql.NullString
	if err := row.Scan(&p.ID, &name, &img, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return profiles.Profile{}, ErrNotFound
		}
		return profiles.Profile{}, err
	}
	p.FullName = stringPtr(name)
	p.ImageURL = stringPtr(img)

	return p, nil
}

func (r *ProfilesRepo) Update(ctx context.Context, p profiles.Profile) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE perfiles
		SET
			nombre_completo = $2,
			imagen_perfil = $3,
			updated_at = $4
		WHERE id = $1
	`,
		p.ID,
		nullString(p.FullName),
		nullString(p.ImageURL),
		p.UpdatedAt,
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
