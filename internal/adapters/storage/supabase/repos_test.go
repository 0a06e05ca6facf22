package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bovine-monitoring/internal/domain/domainerr"
	"bovine-monitoring/internal/domain/farms"
	"bovine-monitoring/internal/domain/measurements"
	sbplatform "bovine-monitoring/internal/platform/supabase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepos(t *testing.T, h http.HandlerFunc) Repos {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	c, err := sbplatform.NewClient(sbplatform.Config{URL: ts.URL, ServiceRoleKey: "svc"})
	require.NoError(t, err)
	return NewRepos(c)
}

func TestFarmsRepo_GetByID(t *testing.T) {
	repos := newRepos(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/fincas", r.URL.Path)
		if r.URL.Query().Get("id") == "eq.f1" {
			_, _ = w.Write([]byte(`[{"id":"f1","nombre":"La Esperanza","propietario_id":"u1","created_at":"2024-01-02T03:04:05.123456+00:00"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	f, err := repos.Farms.GetByID(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "La Esperanza", f.Name)
	assert.Equal(t, "u1", f.OwnerID)
	assert.Equal(t, 2024, f.CreatedAt.Year())

	_, err = repos.Farms.GetByID(context.Background(), "f2")
	assert.True(t, errors.Is(err, domainerr.ErrNotFound))
}

func TestFarmsRepo_WritesAndMutations(t *testing.T) {
	var seen []string
	repos := newRepos(t, func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Method+" "+r.URL.Query().Get("id"))
		switch r.Method {
		case http.MethodPost:
			var row map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&row))
			assert.Equal(t, "Norte", row["nombre"])
			assert.Equal(t, "u1", row["propietario_id"])
			_, _ = w.Write([]byte(`[{"id":"f1"}]`))
		case http.MethodPatch, http.MethodDelete:
			if r.URL.Query().Get("id") == "eq.f1" {
				_, _ = w.Write([]byte(`[{"id":"f1"}]`))
				return
			}
			_, _ = w.Write([]byte(`[]`))
		}
	})
	ctx := context.Background()

	require.NoError(t, repos.Farms.Create(ctx, farms.Farm{ID: "f1", Name: "Norte", OwnerID: "u1", CreatedAt: time.Now()}))
	require.NoError(t, repos.Farms.Update(ctx, farms.Farm{ID: "f1", Name: "Sur"}))
	assert.True(t, errors.Is(repos.Farms.Update(ctx, farms.Farm{ID: "f9", Name: "Sur"}), ErrNotFound))
	require.NoError(t, repos.Farms.Delete(ctx, "f1"))
	assert.True(t, errors.Is(repos.Farms.Delete(ctx, "f9"), ErrNotFound))

	assert.Equal(t, []string{"POST ", "PATCH eq.f1", "PATCH eq.f9", "DELETE eq.f1", "DELETE eq.f9"}, seen)
}

func TestFarmsRepo_ListByOwner_Query(t *testing.T) {
	repos := newRepos(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "eq.u1", q.Get("propietario_id"))
		assert.Equal(t, "created_at.desc", q.Get("order"))
		_, _ = w.Write([]byte(`[
			{"id":"f2","nombre":"B","propietario_id":"u1","created_at":"2024-02-01T00:00:00Z"},
			{"id":"f1","nombre":"A","propietario_id":"u1","created_at":"2024-01-01T00:00:00Z"}
		]`))
	})

	items, err := repos.Farms.ListByOwner(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "f2", items[0].ID)
}

func TestAnimalsRepo_OwnerEmbedding(t *testing.T) {
	repos := newRepos(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/rest/v1/bovinos":
			assert.Contains(t, q.Get("select"), "fincas!inner(propietario_id)")
			_, _ = w.Write([]byte(`[{"id":"a1","id_bovino":"BOV-1","sexo":"M","raza":null,"finca_id":"f1","created_at":"2024-01-01T00:00:00Z","fincas":{"propietario_id":"u1"}}]`))
		case "/rest/v1/fincas":
			assert.Equal(t, "propietario_id", q.Get("select"))
			_, _ = w.Write([]byte(`[]`))
		}
	})
	ctx := context.Background()

	a, owner, err := repos.Animals.GetWithOwner(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)
	assert.Equal(t, "BOV-1", a.Tag)
	require.NotNil(t, a.Sex)
	assert.Equal(t, "M", *a.Sex)
	assert.Nil(t, a.Breed)

	_, err = repos.Animals.FarmOwner(ctx, "f404")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAnimalsRepo_SearchByTag_Query(t *testing.T) {
	repos := newRepos(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "eq.u1", q.Get("fincas.propietario_id"))
		assert.Equal(t, `ilike.*50\%*`, q.Get("id_bovino"))
		assert.Equal(t, "id_bovino.asc", q.Get("order"))
		_, _ = w.Write([]byte(`[]`))
	})

	items, err := repos.Animals.SearchByTag(context.Background(), "u1", "50%")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAnimalsRepo_SearchByTag_AsteriskIsLiteral(t *testing.T) {
	repos := newRepos(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ilike.*_*", r.URL.Query().Get("id_bovino"))
		_, _ = w.Write([]byte(`[
			{"id":"a1","id_bovino":"BOV-001","finca_id":"f1","created_at":"2024-01-01T00:00:00Z"},
			{"id":"a2","id_bovino":"LOTE*2","finca_id":"f1","created_at":"2024-01-01T00:00:00Z"}
		]`))
	})

	items, err := repos.Animals.SearchByTag(context.Background(), "u1", "*")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "LOTE*2", items[0].Tag)
}

func TestMeasurementsRepo_ListByAnimal(t *testing.T) {
	repos := newRepos(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/rest/v1/mediciones_bovinos", r.URL.Path)
		assert.Equal(t, "eq.a1", q.Get("bovino_id"))
		assert.Equal(t, []string{"gte.2024-01-01", "lte.2024-03-31"}, q["fecha"])
		assert.Equal(t, "fecha.desc,created_at.desc", q.Get("order"))
		assert.Equal(t, "5", q.Get("limit"))
		_, _ = w.Write([]byte(`[{
			"id":"m1","bovino_id":"a1","fecha":"2024-02-01",
			"altura_cm":120.50,"l_torso_cm":null,"l_oblicua_cm":"98.1",
			"l_cadera_cm":null,"a_cadera_cm":null,"peso_bascula_kg":350,
			"edad_meses":14,"created_at":"2024-02-01T10:00:00Z"
		}]`))
	})

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	items, err := repos.Measurements.ListByAnimal(context.Background(), "a1", measurements.ListFilter{From: &from, To: &to, Limit: 5})
	require.NoError(t, err)
	require.Len(t, items, 1)

	m := items[0]
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), m.Date)
	assert.Equal(t, "120.5", m.HeightCm.String())
	assert.Equal(t, "98.1", m.ObliqueLengthCm.String())
	assert.Equal(t, "350", m.ScaleWeightKg.String())
	assert.Nil(t, m.TorsoLengthCm)
	require.NotNil(t, m.AgeMonths)
	assert.Equal(t, 14, *m.AgeMonths)
}

func TestMeasurementsRepo_OwnerAndLatest(t *testing.T) {
	repos := newRepos(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case r.URL.Path == "/rest/v1/bovinos":
			_, _ = w.Write([]byte(`[{"id":"a1","fincas":{"propietario_id":"u1"}}]`))
		case q.Get("id") == "eq.m1":
			assert.Contains(t, q.Get("select"), "bovinos!inner(finca_id,fincas!inner(propietario_id))")
			_, _ = w.Write([]byte(`[{"id":"m1","bovino_id":"a1","fecha":"2024-02-01","created_at":"2024-02-01T10:00:00Z","bovinos":{"finca_id":"f1","fincas":{"propietario_id":"u1"}}}]`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	})
	ctx := context.Background()

	owner, err := repos.Measurements.AnimalOwner(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)

	m, owner, err := repos.Measurements.GetWithOwner(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)
	assert.Equal(t, "a1", m.AnimalID)

	_, err = repos.Measurements.Latest(ctx, "a2")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMeasurementsRepo_UpdateSendsNulls(t *testing.T) {
	repos := newRepos(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2024-02-02", body["fecha"])
		assert.Equal(t, 101.25, body["altura_cm"])
		v, ok := body["l_torso_cm"]
		assert.True(t, ok)
		assert.Nil(t, v)
		_, _ = w.Write([]byte(`[{"id":"m1"}]`))
	})

	h := measurements.MustMetric("101.25")
	err := repos.Measurements.Update(context.Background(), measurements.Measurement{
		ID:       "m1",
		Date:     time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC),
		HeightCm: &h,
	})
	require.NoError(t, err)
}

func TestRest_UpstreamErrorIsNotNotFound(t *testing.T) {
	repos := newRepos(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"boom"}`))
	})

	_, err := repos.Profiles.GetByID(context.Background(), "u1")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotFound))
}
