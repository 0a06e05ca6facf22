package measurements

import (
	"time"

	"github.com/shopspring/decimal"
)

type Averages struct {
	HeightCm        *float64
	TorsoLengthCm   *float64
	ObliqueLengthCm *float64
	HipLengthCm     *float64
	HipWidthCm      *float64
	ScaleWeightKg   *float64
	AgeMonths       *float64
}

type Stats struct {
	AnimalID  string
	Total     int
	FirstDate *time.Time
	LastDate  *time.Time
	Averages  Averages
}

// ComputeStats resume items, que deben venir ordenados por fecha descendente.
// Cada promedio ignora los registros sin ese campo y es nil si ninguno lo tiene.
func ComputeStats(animalID string, items []Measurement) Stats {
	st := Stats{AnimalID: animalID, Total: len(items)}
	if len(items) == 0 {
		return st
	}

	last := items[0].Date
	first := items[len(items)-1].Date
	st.LastDate = &last
	st.FirstDate = &first

	pick := func(f func(Measurement) *Metric) *float64 {
		sum := decimal.Zero
		n := 0
		for _, m := range items {
			if v := f(m); v != nil {
				sum = sum.Add(v.Decimal())
				n++
			}
		}
		return mean(sum, n)
	}

	st.Averages = Averages{
		HeightCm:        pick(func(m Measurement) *Metric { return m.HeightCm }),
		TorsoLengthCm:   pick(func(m Measurement) *Metric { return m.TorsoLengthCm }),
		ObliqueLengthCm: pick(func(m Measurement) *Metric { return m.ObliqueLengthCm }),
		HipLengthCm:     pick(func(m Measurement) *Metric { return m.HipLengthCm }),
		HipWidthCm:      pick(func(m Measurement) *Metric { return m.HipWidthCm }),
		ScaleWeightKg:   pick(func(m Measurement) *Metric { return m.ScaleWeightKg }),
	}

	ageSum := decimal.Zero
	ageN := 0
	for _, m := range items {
		if m.AgeMonths != nil {
			ageSum = ageSum.Add(decimal.NewFromInt(int64(*m.AgeMonths)))
			ageN++
		}
	}
	st.Averages.AgeMonths = mean(ageSum, ageN)

	return st
}

// mean redondea a 2 decimales, igual que las columnas de origen.
func mean(sum decimal.Decimal, n int) *float64 {
	if n == 0 {
		return nil
	}
	f, _ := sum.DivRound(decimal.NewFromInt(int64(n)), 2).Float64()
	return &f
}
