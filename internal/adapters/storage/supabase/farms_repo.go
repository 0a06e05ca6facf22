package supabase

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"bovine-monitoring/internal/domain/farms"
	sbplatform "bovine-monitoring/internal/platform/supabase"
)

const tableFarms = "fincas"

type FarmsRepo struct {
	c *sbplatform.Client
}

type farmRow struct {
	ID            string    `json:"id"`
	Nombre        string    `json:"nombre"`
	PropietarioID string    `json:"propietario_id"`
	CreatedAt     time.Time `json:"created_at"`
}

func (r farmRow) toDomain() farms.Farm {
	return farms.Farm{
		ID:        r.ID,
		Name:      r.Nombre,
		OwnerID:   r.PropietarioID,
		CreatedAt: r.CreatedAt,
	}
}

func (r *FarmsRepo) Create(ctx context.Context, f farms.Farm) error {
	return insert(ctx, r.c, tableFarms, farmRow{
		ID:            f.ID,
		Nombre:        f.Name,
		PropietarioID: f.OwnerID,
		CreatedAt:     f.CreatedAt,
	})
}

func (r *FarmsRepo) GetByID(ctx context.Context, id string) (farms.Farm, error) {
	var rows []farmRow
	if err := r.c.Rest(ctx, http.MethodGet, tableFarms, byID(id), nil, &rows); err != nil {
		return farms.Farm{}, err
	}
	row, err := first(rows)
	if err != nil {
		return farms.Farm{}, err
	}
	return row.toDomain(), nil
}

func (r *FarmsRepo) ListByOwner(ctx context.Context, ownerID string) ([]farms.Farm, error) {
	q := url.Values{}
	q.Set("propietario_id", sbplatform.Eq(ownerID))
	q.Set("order", "created_at.desc")

	var rows []farmRow
	if err := r.c.Rest(ctx, http.MethodGet, tableFarms, q, nil, &rows); err != nil {
		return nil, err
	}

	out := make([]farms.Farm, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *FarmsRepo) Update(ctx context.Context, f farms.Farm) error {
	return mutate[farmRow](ctx, r.c, http.MethodPatch, tableFarms, byID(f.ID), map[string]string{"nombre": f.Name})
}

// Delete confía en ON DELETE CASCADE para bovinos y mediciones.
func (r *FarmsRepo) Delete(ctx context.Context, id string) error {
	return mutate[farmRow](ctx, r.c, http.MethodDelete, tableFarms, byID(id), nil)
}
