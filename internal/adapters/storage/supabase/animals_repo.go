package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bovine-monitoring/internal/domain/animals"
	sbplatform "bovine-monitoring/internal/platform/supabase"
)

const (
	tableAnimals = "bovinos"

	animalColumns = "id,id_bovino,sexo,raza,finca_id,created_at"
)

type AnimalsRepo struct {
	c *sbplatform.Client
}

type animalRow struct {
	ID        string    `json:"id"`
	IDBovino  string    `json:"id_bovino"`
	Sexo      *string   `json:"sexo"`
	Raza      *string   `json:"raza"`
	FincaID   string    `json:"finca_id"`
	CreatedAt time.Time `json:"created_at"`

	Fincas *ownerRef `json:"fincas,omitempty"`
}

func (r animalRow) toDomain() animals.Animal {
	return animals.Animal{
		ID:        r.ID,
		Tag:       r.IDBovino,
		Sex:       r.Sexo,
		Breed:     r.Raza,
		FarmID:    r.FincaID,
		CreatedAt: r.CreatedAt,
	}
}

func (r *AnimalsRepo) Create(ctx context.Context, a animals.Animal) error {
	return insert(ctx, r.c, tableAnimals, animalRow{
		ID:        a.ID,
		IDBovino:  a.Tag,
		Sexo:      a.Sex,
		Raza:      a.Breed,
		FincaID:   a.FarmID,
		CreatedAt: a.CreatedAt,
	})
}

func (r *AnimalsRepo) GetWithOwner(ctx context.Context, id string) (animals.Animal, string, error) {
	q := byID(id)
	q.Set("select", animalColumns+",fincas!inner(propietario_id)")

	var rows []animalRow
	if err := r.c.Rest(ctx, http.MethodGet, tableAnimals, q, nil, &rows); err != nil {
		return animals.Animal{}, "", err
	}
	row, err := first(rows)
	if err != nil {
		return animals.Animal{}, "", err
	}

	owner := ""
	if row.Fincas != nil {
		owner = row.Fincas.PropietarioID
	}
	return row.toDomain(), owner, nil
}

func (r *AnimalsRepo) FarmOwner(ctx context.Context, farmID string) (string, error) {
	q := byID(farmID)
	q.Set("select", "propietario_id")

	var rows []ownerRef
	if err := r.c.Rest(ctx, http.MethodGet, tableFarms, q, nil, &rows); err != nil {
		return "", err
	}
	row, err := first(rows)
	if err != nil {
		return "", err
	}
	return row.PropietarioID, nil
}

func (r *AnimalsRepo) ListByFarm(ctx context.Context, farmID string) ([]animals.Animal, error) {
	q := url.Values{}
	q.Set("select", animalColumns)
	q.Set("finca_id", sbplatform.Eq(farmID))
	q.Set("order", "created_at.asc")

	return r.list(ctx, q)
}

func (r *AnimalsRepo) SearchByTag(ctx context.Context, ownerID, term string) ([]animals.Animal, error) {
	q := url.Values{}
	q.Set("select", animalColumns+",fincas!inner(propietario_id)")
	q.Set("fincas.propietario_id", sbplatform.Eq(ownerID))
	q.Set("id_bovino", "ilike.*"+escapeLike(term)+"*")
	q.Set("order", "id_bovino.asc")

	items, err := r.list(ctx, q)
	if err != nil || !strings.Contains(term, "*") {
		return items, err
	}

	// El servidor vio cada * como un comodín de un carácter; aquí se exige el literal.
	needle := strings.ToLower(term)
	out := items[:0]
	for _, a := range items {
		if strings.Contains(strings.ToLower(a.Tag), needle) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *AnimalsRepo) Update(ctx context.Context, a animals.Animal) error {
	return mutate[animalRow](ctx, r.c, http.MethodPatch, tableAnimals, byID(a.ID), map[string]any{
		"id_bovino": a.Tag,
		"sexo":      a.Sex,
		"raza":      a.Breed,
	})
}

func (r *AnimalsRepo) Delete(ctx context.Context, id string) error {
	return mutate[animalRow](ctx, r.c, http.MethodDelete, tableAnimals, byID(id), nil)
}

func (r *AnimalsRepo) list(ctx context.Context, q url.Values) ([]animals.Animal, error) {
	var rows []animalRow
	if err := r.c.Rest(ctx, http.MethodGet, tableAnimals, q, nil, &rows); err != nil {
		return nil, err
	}

	out := make([]animals.Animal, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// PostgREST traduce * a % y no permite escaparlo, así que un * del término
// viaja como _ y SearchByTag filtra el resultado.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
