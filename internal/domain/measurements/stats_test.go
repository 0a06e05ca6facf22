package measurements

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStats_Empty(t *testing.T) {
	st := ComputeStats("a1", nil)

	assert.Equal(t, "a1", st.AnimalID)
	assert.Equal(t, 0, st.Total)
	assert.Nil(t, st.FirstDate)
	assert.Nil(t, st.LastDate)
	assert.Nil(t, st.Averages.HeightCm)
	assert.Nil(t, st.Averages.TorsoLengthCm)
	assert.Nil(t, st.Averages.ObliqueLengthCm)
	assert.Nil(t, st.Averages.HipLengthCm)
	assert.Nil(t, st.Averages.HipWidthCm)
	assert.Nil(t, st.Averages.ScaleWeightKg)
	assert.Nil(t, st.Averages.AgeMonths)
}

func TestComputeStats_AveragesOnlyPresentValues(t *testing.T) {
	age := 10
	items := []Measurement{
		{Date: day("2024-03-01"), HeightCm: metricPtr("101"), AgeMonths: &age},
		{Date: day("2024-02-01")},
		{Date: day("2024-01-01"), HeightCm: metricPtr("100.5"), HipWidthCm: metricPtr("40.25")},
	}

	st := ComputeStats("a1", items)

	assert.Equal(t, 3, st.Total)
	assert.Equal(t, "2024-01-01", st.FirstDate.Format(time.DateOnly))
	assert.Equal(t, "2024-03-01", st.LastDate.Format(time.DateOnly))
	require.NotNil(t, st.Averages.HeightCm)
	assert.Equal(t, 100.75, *st.Averages.HeightCm) // 2 de 3 tienen altura
	assert.Equal(t, 40.25, *st.Averages.HipWidthCm)
	assert.Equal(t, 10.0, *st.Averages.AgeMonths)
	assert.Nil(t, st.Averages.TorsoLengthCm)
}

func TestComputeStats_RoundsToTwoDecimals(t *testing.T) {
	items := []Measurement{
		{Date: day("2024-01-03"), HeightCm: metricPtr("1")},
		{Date: day("2024-01-02"), HeightCm: metricPtr("1")},
		{Date: day("2024-01-01"), HeightCm: metricPtr("2")},
	}
	st := ComputeStats("a1", items)
	assert.Equal(t, 1.33, *st.Averages.HeightCm)
}

func TestIsRecent_Boundary(t *testing.T) {
	today := time.Date(2024, 6, 30, 18, 45, 0, 0, time.UTC)

	assert.True(t, IsRecent(day("2024-06-30"), today))
	assert.True(t, IsRecent(day("2024-05-31"), today), "exactamente 30 días es reciente")
	assert.False(t, IsRecent(day("2024-05-30"), today), "31 días ya no es reciente")
	assert.True(t, IsRecent(day("2024-07-02"), today), "fechas futuras cuentan como recientes")
	assert.Equal(t, 30, DaysBetween(day("2024-05-31"), today))
}

func TestMetric_JSON(t *testing.T) {
	var p struct {
		A *Metric `json:"a"`
		B *Metric `json:"b"`
		C *Metric `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12.50, "b": "7.25", "c": null}`), &p))
	assert.Equal(t, 12.5, p.A.Float64())
	assert.Equal(t, 7.25, p.B.Float64())
	assert.Nil(t, p.C)

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":12.5,"b":7.25,"c":null}`, string(b))

	require.Error(t, json.Unmarshal([]byte(`{"a": "abc"}`), &p))
}

func TestMetric_Validate(t *testing.T) {
	assert.NoError(t, MustMetric("0").Validate())
	assert.NoError(t, MustMetric("9999.99").Validate())
	assert.NoError(t, MustMetric("12.500").Validate(), "ceros a la derecha no cuentan como decimales")
	assert.Error(t, MustMetric("-0.01").Validate())
	assert.Error(t, MustMetric("1.001").Validate())
	assert.Error(t, MustMetric("10000").Validate())
}

func TestMetric_RejectsExtremeExponents(t *testing.T) {
	start := time.Now()

	var m Metric
	assert.Error(t, json.Unmarshal([]byte(`1e50000000`), &m))
	assert.Error(t, json.Unmarshal([]byte(`"1e-50000000"`), &m))
	assert.Error(t, json.Unmarshal([]byte(`0e50000000`), &m))
	assert.Error(t, json.Unmarshal([]byte(strings.Repeat("9", 40)), &m))

	_, err := NewMetric("1e50000000")
	assert.Error(t, err)
	_, err = NewMetric("5e-11")
	assert.Error(t, err)

	assert.Less(t, time.Since(start), time.Second)

	require.NoError(t, json.Unmarshal([]byte(`1.2e2`), &m))
	assert.NoError(t, m.Validate())
	assert.Equal(t, 120.0, m.Float64())

	require.NoError(t, json.Unmarshal([]byte(`1e4`), &m))
	assert.Error(t, m.Validate())
}

func TestWriteCSV(t *testing.T) {
	age := 3
	items := []Measurement{
		{
			ID:        "m1",
			AnimalID:  "a1",
			Date:      day("2024-01-02"),
			HeightCm:  metricPtr("120.5"),
			AgeMonths: &age,
			CreatedAt: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, items))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"m1", "a1", "2024-01-02", "120.50", "", "", "", "", "", "3", "2024-01-02T10:00:00Z"}, rows[1])
}
