package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"bovine-monitoring/internal/domain/animals"
)

type AnimalsRepo struct {
	db *sql.DB
}

func NewAnimalsRepo(db *sql.DB) *AnimalsRepo {
	return &AnimalsRepo{db: db}
}

const animalColumns = `b.id, b.id_bovino, b.sexo, b.raza, b.finca_id, b.created_at`

func (r *AnimalsRepo) Create(ctx context.Context, a animals.Animal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bovinos (id, id_bovino, sexo, raza, finca_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`,
		a.ID,
		a.Tag,
		nullString(a.Sex),
		nullString(a.Breed),
		a.FarmID,
		a.CreatedAt,
	)
	return err
}

func (r *AnimalsRepo) GetWithOwner(ctx context.Context, id string) (animals.Animal, string, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+animalColumns+`, f.propietario_id
		FROM bovinos b
		JOIN fincas f ON f.id = b.finca_id
		WHERE b.id = $1
	`, strings.TrimSpace(id))

	var owner string
	a, err := scanAnimal(row, &owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return animals.Animal{}, "", ErrNotFound
		}
		return animals.Animal{}, "", err
	}
	return a, owner, nil
}

func (r *AnimalsRepo) FarmOwner(ctx context.Context, farmID string) (string, error) {
	var owner string
	err := r.db.QueryRowContext(ctx, `SELECT propietario_id FROM fincas WHERE id = $1`, farmID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return owner, err
}

func (r *AnimalsRepo) ListByFarm(ctx context.Context, farmID string) ([]animals.Animal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+animalColumns+`
		FROM bovinos b
		WHERE b.finca_id = $1
		ORDER BY b.created_at ASC
	`, farmID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAnimals(rows)
}

func (r *AnimalsRepo) SearchByTag(ctx context.Context, ownerID, term string) ([]animals.Animal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+animalColumns+`
		FROM bovinos b
		JOIN fincas f ON f.id = b.finca_id
		WHERE f.propietario_id = $1
		  AND b.id_bovino ILIKE $2 ESCAPE '\'
		ORDER BY b.id_bovino ASC
	`, ownerID, "%"+escapeLike(term)+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAnimals(rows)
}

func (r *AnimalsRepo) Update(ctx context.Context, a animals.Animal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bovinos
		SET
			id_bovino = $2,
			sexo = $3,
			raza = $4
		WHERE id = $1
	`,
		a.ID,
		a.Tag,
		nullString(a.Sex),
		nullString(a.Breed),
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

func (r *AnimalsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bovinos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanAnimal lee animalColumns y, si se pasan, columnas extra al final.
func scanAnimal(s scanner, extra ...any) (animals.Animal, error) {
	var a animals.Animal
	var sex, breed sql.NullString

	dest := append([]any{&a.ID, &a.Tag, &sex, &breed, &a.FarmID, &a.CreatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return animals.Animal{}, err
	}
	a.Sex = stringPtr(sex)
	a.Breed = stringPtr(breed)
	return a, nil
}

func collectAnimals(rows *sql.Rows) ([]animals.Animal, error) {
	out := make([]animals.Animal, 0)
	for rows.Next() {
		a, err := scanAnimal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
