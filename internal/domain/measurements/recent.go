package measurements

import "time"

// RecentWindowDays: una medición es reciente si su fecha está a 30 días o menos
// de la fecha de evaluación (30 inclusive). Fechas futuras cuentan como recientes.
const RecentWindowDays = 30

// DaysBetween devuelve los días civiles entre from y to (negativo si from > to).
func DaysBetween(from, to time.Time) int {
	return int(CivilDate(to).Sub(CivilDate(from)).Hours() / 24)
}

func IsRecent(date, today time.Time) bool {
	return DaysBetween(date, today) <= RecentWindowDays
}
