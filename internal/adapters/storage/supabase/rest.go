package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"bovine-monitoring/internal/domain/domainerr"
	sbplatform "bovine-monitoring/internal/platform/supabase"
)

var ErrNotFound = domainerr.ErrNotFound

// Repos agrupa los repositorios que comparten el mismo cliente PostgREST.
type Repos struct {
	Profiles     *ProfilesRepo
	Farms        *FarmsRepo
	Animals      *AnimalsRepo
	Measurements *MeasurementsRepo
}

func NewRepos(c *sbplatform.Client) Repos {
	return Repos{
		Profiles:     &ProfilesRepo{c: c},
		Farms:        &FarmsRepo{c: c},
		Animals:      &AnimalsRepo{c: c},
		Measurements: &MeasurementsRepo{c: c},
	}
}

func byID(id string) url.Values {
	q := url.Values{}
	q.Set("id", sbplatform.Eq(strings.TrimSpace(id)))
	return q
}

// first devuelve la primera fila o ErrNotFound si no hay ninguna.
func first[T any](rows []T) (T, error) {
	if len(rows) == 0 {
		var zero T
		return zero, ErrNotFound
	}
	return rows[0], nil
}

// mutate ejecuta PATCH/DELETE y devuelve ErrNotFound si no afectó filas.
func mutate[T any](ctx context.Context, c *sbplatform.Client, method, table string, q url.Values, in any) error {
	var rows []T
	if err := c.Rest(ctx, method, table, q, in, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

func insert(ctx context.Context, c *sbplatform.Client, table string, row any) error {
	return c.Rest(ctx, http.MethodPost, table, nil, row, nil)
}

type ownerRef struct {
	PropietarioID string `json:"propietario_id"`
}
