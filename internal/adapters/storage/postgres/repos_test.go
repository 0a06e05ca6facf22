package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"bovine-monitoring/internal/domain/animals"
	"bovine-monitoring/internal/domain/domainerr"
	"bovine-monitoring/internal/domain/farms"
	"bovine-monitoring/internal/domain/measurements"
	"bovine-monitoring/internal/domain/profiles"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func TestFarmsRepo_GetByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFarmsRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM fincas")).
		WithArgs("f1").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "f1")
	assert.True(t, errors.Is(err, domainerr.ErrNotFound))
}

func TestFarmsRepo_ListByOwner(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFarmsRepo(db)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE propietario_id = $1")+".*"+regexp.QuoteMeta("ORDER BY created_at DESC")).
		WithArgs("owner-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "nombre", "propietario_id", "created_at"}).
			AddRow("f2", "El Roble", "owner-1", created).
			AddRow("f1", "La Esperanza", "owner-1", created.Add(-time.Hour)))

	items, err := repo.ListByOwner(context.Background(), "owner-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, farms.Farm{ID: "f2", Name: "El Roble", OwnerID: "owner-1", CreatedAt: created}, items[0])
}

func TestFarmsRepo_Delete_NoRows(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFarmsRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM fincas")).
		WithArgs("f1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.True(t, errors.Is(repo.Delete(context.Background(), "f1"), domainerr.ErrNotFound))
}

func TestAnimalsRepo_GetWithOwner(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAnimalsRepo(db)
	created := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("JOIN fincas f ON f.id = b.finca_id")).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "id_bovino", "sexo", "raza", "finca_id", "created_at", "propietario_id"}).
			AddRow("a1", "BOV-1", "H", nil, "f1", created, "owner-1"))

	a, owner, err := repo.GetWithOwner(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "owner-1", owner)
	assert.Equal(t, "BOV-1", a.Tag)
	require.NotNil(t, a.Sex)
	assert.Equal(t, animals.SexFemale, *a.Sex)
	assert.Nil(t, a.Breed)
}

func TestAnimalsRepo_SearchByTag_EscapesPattern(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAnimalsRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("b.id_bovino ILIKE $2")).
		WithArgs("owner-1", `%50\%\_a%`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "id_bovino", "sexo", "raza", "finca_id", "created_at"}))

	items, err := repo.SearchByTag(context.Background(), "owner-1", "50%_a")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMeasurementsRepo_ListByAnimal_Filters(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMeasurementsRepo(db)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	created := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

	cols := []string{
		"id", "bovino_id", "fecha",
		"altura_cm", "l_torso_cm", "l_oblicua_cm",
		"l_cadera_cm", "a_cadera_cm", "peso_bascula_kg",
		"edad_meses", "created_at",
	}
	mock.ExpectQuery(regexp.QuoteMeta("m.fecha >= $2 AND m.fecha <= $3 ORDER BY m.fecha DESC, m.created_at DESC LIMIT $4")).
		WithArgs("a1", from, to, 10).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("m1", "a1", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), "120.50", nil, nil, nil, "45.25", nil, int64(14), created))

	items, err := repo.ListByAnimal(context.Background(), "a1", measurements.ListFilter{From: &from, To: &to, Limit: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)

	m := items[0]
	assert.Equal(t, "2024-02-01", m.Date.Format(time.DateOnly))
	assert.Equal(t, 120.5, m.HeightCm.Float64())
	assert.Equal(t, 45.25, m.HipWidthCm.Float64())
	assert.Nil(t, m.TorsoLengthCm)
	assert.Nil(t, m.ScaleWeightKg)
	require.NotNil(t, m.AgeMonths)
	assert.Equal(t, 14, *m.AgeMonths)
}

func TestMeasurementsRepo_Latest_Empty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMeasurementsRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2")).
		WithArgs("a1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Latest(context.Background(), "a1")
	assert.True(t, errors.Is(err, domainerr.ErrNotFound))
}

func TestMeasurementsRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMeasurementsRepo(db)

	h := measurements.MustMetric("120.5")
	age := 3
	m := measurements.Measurement{
		ID:        "m1",
		AnimalID:  "a1",
		Date:      time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		HeightCm:  &h,
		AgeMonths: &age,
		CreatedAt: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO mediciones_bovinos")).
		WithArgs("m1", "a1", m.Date, "120.5", nil, nil, nil, nil, nil, int64(3), m.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), m))
}

func TestProfilesRepo_RoundTrip(t *testing.T) {
	db, mock := newMock(t)
	repo := NewProfilesRepo(db)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM perfiles")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "nombre_completo", "imagen_perfil", "created_at", "updated_at"}).
			AddRow("u1", "Ana", nil, now, now))

	p, err := repo.GetByID(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", *p.FullName)
	assert.Nil(t, p.ImageURL)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE perfiles")).
		WithArgs("u1", "Ana", "https://cdn/x.png", now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	url := "https://cdn/x.png"
	err = repo.Update(context.Background(), profiles.Profile{ID: "u1", FullName: p.FullName, ImageURL: &url, UpdatedAt: now})
	assert.True(t, errors.Is(err, domainerr.ErrNotFound))
}
