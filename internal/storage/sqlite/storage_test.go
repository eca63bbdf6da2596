package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"condao-wx/internal/metar"
	"condao-wx/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *ReportStorage {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "wx-test.db")
	storage, err := NewReportStorage(dbPath, 100, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	return storage
}

func TestReportStorageRoundTrip(t *testing.T) {
	storage := newTestStorage(t)

	decoded := metar.Decode("VVCS 201200Z 27015G25KT 4000 SHRA SCT020 BKN030 28/24 Q1008")
	rh := 79.0
	magDir := 270.6
	record := RecordFromDecoded(decoded, &rh, &magDir)

	id, err := storage.StoreReport(record)
	require.NoError(t, err)
	assert.Positive(t, id)

	records, err := storage.GetRecentReports(10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, "VVCS", got.Station)
	assert.Equal(t, "201200Z", got.ObsTime)
	require.NotNil(t, got.WindDirectionDeg)
	assert.Equal(t, 270, *got.WindDirectionDeg)
	require.NotNil(t, got.WindGustKt)
	assert.Equal(t, 25, *got.WindGustKt)
	require.NotNil(t, got.VisibilityMeters)
	assert.Equal(t, 4000, *got.VisibilityMeters)
	assert.Equal(t, "moderate showers", got.Weather)
	assert.True(t, got.IsPrecipitating)
	assert.Equal(t, "moderate", got.PrecipIntensity)
	require.NotNil(t, got.RelHumidity)
	assert.InDelta(t, 79.0, *got.RelHumidity, 0.001)

	assert.Equal(t, "SCT", got.Cloud1Amount)
	require.NotNil(t, got.Cloud1HeightM)
	assert.Equal(t, 610, *got.Cloud1HeightM)
	assert.Equal(t, "BKN", got.Cloud2Amount)
	require.NotNil(t, got.Cloud2HeightM)
	assert.Equal(t, 914, *got.Cloud2HeightM)
	assert.Empty(t, got.Cloud3Amount)
	assert.Nil(t, got.Cloud3HeightM)
}

func TestReportStorageAbsentFieldsStayNil(t *testing.T) {
	storage := newTestStorage(t)

	decoded := metar.Decode("no weather here")
	_, err := storage.StoreReport(RecordFromDecoded(decoded, nil, nil))
	require.NoError(t, err)

	records, err := storage.GetRecentReports(1)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Empty(t, got.Station)
	assert.Nil(t, got.WindDirectionDeg)
	assert.Nil(t, got.WindSpeedKt)
	assert.Nil(t, got.WindGustKt)
	assert.Nil(t, got.VisibilityMeters)
	assert.Nil(t, got.TemperatureC)
	assert.Nil(t, got.DewpointC)
	assert.Nil(t, got.RelHumidity)
	assert.Nil(t, got.WindDirMagnetic)
	assert.False(t, got.IsPrecipitating)
	assert.Empty(t, got.PrecipIntensity)
}

func TestReportStorageOrderingAndLimit(t *testing.T) {
	storage := newTestStorage(t)

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		decoded := metar.Decode("VVCS 201200Z 9999")
		decoded.DecodedAt = base.Add(time.Duration(i) * time.Hour)
		_, err := storage.StoreReport(RecordFromDecoded(decoded, nil, nil))
		require.NoError(t, err)
	}

	records, err := storage.GetRecentReports(3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, base.Add(4*time.Hour), records[0].DecodedAt, "newest first")

	ranged, err := storage.GetReportsByRange(base, base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, ranged, 3)
	assert.Equal(t, base, ranged[0].DecodedAt, "oldest first in range queries")
}

func TestForecastStorage(t *testing.T) {
	storage := newTestStorage(t)
	forecasts := NewForecastStorage(storage.GetDB(), logger.NewNop())

	for _, f := range []*ForecastRecord{
		{Date: "2024-06-01", Wind: "09005KT", TempMinC: 24, TempMaxC: 31, Weather: "SHRA"},
		{Date: "2024-06-02", Wind: "27010KT", TempMinC: 25, TempMaxC: 32, Weather: "TSRA"},
		{Date: "2024-06-10", Wind: "VRB02KT", TempMinC: 25, TempMaxC: 33, Weather: ""},
	} {
		_, err := forecasts.StoreForecast(f)
		require.NoError(t, err)
	}

	t.Run("range query is inclusive and date ordered", func(t *testing.T) {
		records, err := forecasts.GetForecasts("2024-06-01", "2024-06-02")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "2024-06-01", records[0].Date)
		assert.Equal(t, "TSRA", records[1].Weather)
		assert.InDelta(t, 31.0, records[0].TempMaxC, 0.001)
	})

	t.Run("no bounds returns latest first", func(t *testing.T) {
		records, err := forecasts.GetForecasts("", "")
		require.NoError(t, err)
		require.Len(t, records, 3)
		assert.Equal(t, "2024-06-10", records[0].Date)
	})
}

func TestRainEventStorage(t *testing.T) {
	storage := newTestStorage(t)
	events := NewRainEventStorage(storage.GetDB(), logger.NewNop())

	mustStore := func(day int, hour int, intensity, code string) {
		t.Helper()
		_, err := events.StoreRainEvent(&RainEventRecord{
			StartTime: time.Date(2024, 6, day, hour, 0, 0, 0, time.UTC),
			Intensity: intensity,
			Code:      code,
		})
		require.NoError(t, err)
	}

	mustStore(1, 9, "light", "-RA")
	mustStore(1, 15, "heavy", "+RA")
	mustStore(2, 12, "thunderstorm", "TSRA")

	t.Run("range query", func(t *testing.T) {
		records, err := events.GetRainEvents("2024-06-01", "2024-06-01")
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "-RA", records[0].Code)
		assert.Equal(t, "heavy", records[1].Intensity)
	})

	t.Run("per-day counts", func(t *testing.T) {
		counts, err := events.CountByDay("2024-06-01", "2024-06-30")
		require.NoError(t, err)
		require.Len(t, counts, 2)
		assert.Equal(t, &DayCount{Date: "2024-06-01", Count: 2}, counts[0])
		assert.Equal(t, &DayCount{Date: "2024-06-02", Count: 1}, counts[1])
	})

	t.Run("counts without bounds cover everything", func(t *testing.T) {
		counts, err := events.CountByDay("", "")
		require.NoError(t, err)
		require.Len(t, counts, 2)
	})
}
