package animals

import "time"

const (
	SexMale   = "M"
	SexFemale = "H"

	MaxTagLength   = 50
	MaxBreedLength = 100
)

// Animal es un bovino registrado en una finca.
type Animal struct {
	ID     string
	Tag    string // placa / arete
	Sex    *string
	Breed  *string
	FarmID string

	CreatedAt time.Time
}
