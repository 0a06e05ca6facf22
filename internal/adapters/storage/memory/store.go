package memory

import (
	"sync"

	"bovine-monitoring/internal/domain/animals"
	"bovine-monitoring/internal/domain/domainerr"
	"bovine-monitoring/internal/domain/farms"
	"bovine-monitoring/internal/domain/measurements"
	"bovine-monitoring/internal/domain/profiles"
)

var (
	ErrNotFound = domainerr.ErrNotFound
)

// Store guarda todas las tablas bajo un solo lock para poder resolver
// propietarios y borrados en cascada como lo haría la base.
type Store struct {
	mu           sync.RWMutex
	profiles     map[string]profiles.Profile
	farms        map[string]farms.Farm
	animals      map[string]animals.Animal
	measurements map[string]measurements.Measurement
}

func NewStore() *Store {
	return &Store{
		profiles:     make(map[string]profiles.Profile),
		farms:        make(map[string]farms.Farm),
		animals:      make(map[string]animals.Animal),
		measurements: make(map[string]measurements.Measurement),
	}
}

func (s *Store) Profiles() profiles.Repository { return &profileRepo{s: s} }
func (s *Store) Farms() farms.Repository { return &farmRepo{s: s} }
func (s *Store) Animals() animals.Repository { return &animalRepo{s: s} }
func (s *Store) Measurements() measurements.Repository { return &measurementRepo{s: s} }

// Se llama con el lock tomado.
func (s *Store) animalOwner(animalID string) (string, bool) {
	a, ok := s.animals[animalID]
	if !ok {
		return "", false
	}
	f, ok := s.farms[a.FarmID]
	if !ok {
		return "", false
	}
	return f.OwnerID, true
}

// Se llama con el lock tomado.
func (s *Store) deleteAnimal(id string) {
	delete(s.animals, id)
	for mid, m := range s.measurements {
		if m.AnimalID == id {
			delete(s.measurements, mid)
		}
	}
}
