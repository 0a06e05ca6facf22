package farms

import (
	"time"

	"bovine-monitoring/internal/domain/animals"
	"bovine-monitoring/internal/domain/measurements"
)

const MaxNameLength = 255

// Farm es el contenedor de bovinos de un propietario.
type Farm struct {
	ID      string
	Name    string
	OwnerID string

	CreatedAt time.Time
}

type WithAnimals struct {
	Farm    Farm
	Animals []animals.Animal
}

// AnimalOverview es un bovino con su última medición, si tiene.
type AnimalOverview struct {
	Animal animals.Animal
	Latest *measurements.Measurement
	Recent bool
}

type Summary struct {
	TotalAnimals            int
	AnimalsWithMeasurements int
	RecentlyMeasured        int
}

// Overview es la vista completa de una finca, evaluada en EvaluatedOn.
type Overview struct {
	Farm        Farm
	Animals     []AnimalOverview
	Summary     Summary
	EvaluatedOn time.Time
}
