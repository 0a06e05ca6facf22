package supabase

import (
	"context"
	"net/http"
	"time"

	"bovine-monitoring/internal/domain/profiles"
	sbplatform "bovine-monitoring/internal/platform/supabase"
)

const tableProfiles = "perfiles"

type ProfilesRepo struct {
	c *sbplatform.Client
}

type profileRow struct {
	ID             string    `json:"id"`
	NombreCompleto *string   `json:"nombre_completo"`
	ImagenPerfil   *string   `json:"imagen_perfil"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (r profileRow) toDomain() profiles.Profile {
	return profiles.Profile{
		ID:        r.ID,
		FullName:  r.NombreCompleto,
		ImageURL:  r.ImagenPerfil,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r *ProfilesRepo) Create(ctx context.Context, p profiles.Profile) error {
	return insert(ctx, r.c, tableProfiles, profileRow{
		ID:             p.ID,
		NombreCompleto: p.FullName,
		ImagenPerfil:   p.ImageURL,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	})
}

func (r *ProfilesRepo) GetByID(ctx context.Context, id string) (profiles.Profile, error) {
	var rows []profileRow
	if err := r.c.Rest(ctx, http.MethodGet, tableProfiles, byID(id), nil, &rows); err != nil {
		return profiles.Profile{}, err
	}
	row, err := first(rows)
	if err != nil {
		return profiles.Profile{}, err
	}
	return row.toDomain(), nil
}

func (r *ProfilesRepo) Update(ctx context.Context, p profiles.Profile) error {
	return mutate[profileRow](ctx, r.c, http.MethodPatch, tableProfiles, byID(p.ID), map[string]any{
		"nombre_completo": p.FullName,
		"imagen_perfil":   p.ImageURL,
		"updated_at":      p.UpdatedAt,
	})
}
