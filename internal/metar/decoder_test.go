package metar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFullReport(t *testing.T) {
	report := Decode("VVCS 201200Z 27015G25KT 4000 SHRA SCT020 BKN030 28/24 Q1008")

	assert.Equal(t, "VVCS", report.Station)
	assert.Equal(t, "201200Z", report.ObsTime)

	require.NotNil(t, report.WindDirectionDeg)
	assert.Equal(t, 270, *report.WindDirectionDeg)
	require.NotNil(t, report.WindSpeedKt)
	assert.Equal(t, 15, *report.WindSpeedKt)
	require.NotNil(t, report.WindGustKt)
	assert.Equal(t, 25, *report.WindGustKt)

	require.NotNil(t, report.VisibilityMeters)
	assert.Equal(t, 4000, *report.VisibilityMeters)

	require.NotNil(t, report.TemperatureC)
	assert.Equal(t, 28, *report.TemperatureC)
	require.NotNil(t, report.DewpointC)
	assert.Equal(t, 24, *report.DewpointC)

	assert.Contains(t, report.Weather, "moderate showers")
	assert.True(t, report.IsPrecipitating)
	assert.Equal(t, IntensityModerate, report.PrecipIntensity)

	require.Len(t, report.CloudLayers, 2)
	assert.Equal(t, CloudLayer{Amount: CloudScattered, HeightFeet: 2000, HeightMeters: 610}, report.CloudLayers[0])
	assert.Equal(t, CloudLayer{Amount: CloudBroken, HeightFeet: 3000, HeightMeters: 914}, report.CloudLayers[1])
}

func TestDecodeVariableWindAndNegativeTemps(t *testing.T) {
	report := Decode("VVTS 210530Z VRB02KT 9999 TS FEW018 M02/M05")

	assert.Nil(t, report.WindDirectionDeg, "variable direction must stay nil")
	require.NotNil(t, report.WindSpeedKt)
	assert.Equal(t, 2, *report.WindSpeedKt)
	assert.Nil(t, report.WindGustKt)

	require.NotNil(t, report.TemperatureC)
	assert.Equal(t, -2, *report.TemperatureC)
	require.NotNil(t, report.DewpointC)
	assert.Equal(t, -5, *report.DewpointC)

	assert.Contains(t, report.Weather, "thunderstorm")
	assert.False(t, report.IsPrecipitating)
	assert.Equal(t, Intensity(""), report.PrecipIntensity)
}

func TestDecodeEmptyInput(t *testing.T) {
	report := Decode("")

	assert.Empty(t, report.Station)
	assert.Empty(t, report.ObsTime)
	assert.Nil(t, report.WindDirectionDeg)
	assert.Nil(t, report.WindSpeedKt)
	assert.Nil(t, report.WindGustKt)
	assert.Nil(t, report.VisibilityMeters)
	assert.Nil(t, report.TemperatureC)
	assert.Nil(t, report.DewpointC)
	assert.Empty(t, report.Weather)
	assert.Empty(t, report.CloudLayers)
	assert.False(t, report.IsPrecipitating)
}

func TestDecodeNormalization(t *testing.T) {
	report := Decode("  vvcs 201200z 27015kt 4000 -ra few020  ")

	assert.Equal(t, "vvcs 201200z 27015kt 4000 -ra few020", report.Raw, "raw keeps original case, trimmed")
	assert.Equal(t, "VVCS", report.Station)
	assert.Equal(t, "201200Z", report.ObsTime)
	assert.Contains(t, report.Weather, "light rain")
}

func TestStationExtraction(t *testing.T) {
	t.Run("marker-adjacent station wins over earlier token", func(t *testing.T) {
		report := Decode("ABCD METAR VVNB 210600Z")
		assert.Equal(t, "VVNB", report.Station)
	})

	t.Run("SPECI marker", func(t *testing.T) {
		report := Decode("SPECI VVTS 210530Z")
		assert.Equal(t, "VVTS", report.Station)
	})

	t.Run("first marker wins over later markers", func(t *testing.T) {
		report := Decode("METAR VVCS 201200Z METAR VVTS")
		assert.Equal(t, "VVCS", report.Station)
	})

	t.Run("marker without 4-letter follower falls back to scan", func(t *testing.T) {
		report := Decode("METAR 201200Z VVCS 27015KT")
		assert.Equal(t, "VVCS", report.Station)
	})

	t.Run("no station at all", func(t *testing.T) {
		report := Decode("201200Z 27015KT 9999")
		assert.Empty(t, report.Station)
	})
}

func TestWindExtraction(t *testing.T) {
	t.Run("steady wind without gust", func(t *testing.T) {
		report := Decode("VVCS 09005KT")
		require.NotNil(t, report.WindDirectionDeg)
		assert.Equal(t, 90, *report.WindDirectionDeg)
		require.NotNil(t, report.WindSpeedKt)
		assert.Equal(t, 5, *report.WindSpeedKt)
		assert.Nil(t, report.WindGustKt)
	})

	t.Run("three-digit speed and gust", func(t *testing.T) {
		report := Decode("VVCS 180100G120KT")
		assert.Equal(t, 100, *report.WindSpeedKt)
		assert.Equal(t, 120, *report.WindGustKt)
	})

	t.Run("only the first wind group is used", func(t *testing.T) {
		report := Decode("VVCS 27015KT 09005KT")
		assert.Equal(t, 270, *report.WindDirectionDeg)
		assert.Equal(t, 15, *report.WindSpeedKt)
	})
}

func TestVisibilityExtraction(t *testing.T) {
	t.Run("first bare 4-digit token", func(t *testing.T) {
		report := Decode("VVCS 201200Z 4000 8000")
		require.NotNil(t, report.VisibilityMeters)
		assert.Equal(t, 4000, *report.VisibilityMeters)
	})

	t.Run("letter-prefixed groups are not visibility", func(t *testing.T) {
		report := Decode("VVCS 201200Z Q1008")
		assert.Nil(t, report.VisibilityMeters)
	})

	// Known limitation: any bare 4-digit token is taken, even when it is not
	// a visibility group. Pinned so a future tightening shows up here.
	t.Run("non-visibility 4-digit token still matches", func(t *testing.T) {
		report := Decode("RWY 2500 CLOSED")
		require.NotNil(t, report.VisibilityMeters)
		assert.Equal(t, 2500, *report.VisibilityMeters)
	})
}

func TestTempPairExtraction(t *testing.T) {
	t.Run("negative zero collapses to zero", func(t *testing.T) {
		report := Decode("VVCS M00/M02")
		require.NotNil(t, report.TemperatureC)
		assert.Equal(t, 0, *report.TemperatureC)
		assert.Equal(t, -2, *report.DewpointC)
	})

	t.Run("mixed signs", func(t *testing.T) {
		report := Decode("VVCS 02/M01")
		assert.Equal(t, 2, *report.TemperatureC)
		assert.Equal(t, -1, *report.DewpointC)
	})

	t.Run("only the first pair is used", func(t *testing.T) {
		report := Decode("VVCS 28/24 10/05")
		assert.Equal(t, 28, *report.TemperatureC)
		assert.Equal(t, 24, *report.DewpointC)
	})

	t.Run("absent pair leaves both nil", func(t *testing.T) {
		report := Decode("VVCS 201200Z")
		assert.Nil(t, report.TemperatureC)
		assert.Nil(t, report.DewpointC)
	})
}

func TestCloudExtraction(t *testing.T) {
	t.Run("layers keep text order", func(t *testing.T) {
		report := Decode("OVC010 FEW020 BKN015")
		require.Len(t, report.CloudLayers, 3)
		assert.Equal(t, CloudOvercast, report.CloudLayers[0].Amount)
		assert.Equal(t, CloudFew, report.CloudLayers[1].Amount)
		assert.Equal(t, CloudBroken, report.CloudLayers[2].Amount)
	})

	t.Run("at most three layers are kept", func(t *testing.T) {
		report := Decode("FEW010 SCT020 BKN030 OVC040")
		require.Len(t, report.CloudLayers, 3)
		assert.Equal(t, CloudBroken, report.CloudLayers[2].Amount)
	})

	t.Run("height conversion", func(t *testing.T) {
		// 100 ft -> 30.48 m, rounds to 30; 900 ft -> 274.32 m -> 274.
		// Conversions of 100 ft multiples end in .48/.96/.44/.92/.4/...,
		// never exactly .5, so the tie-break rule can never fire here;
		// math.Round (half away from zero) is used regardless.
		cases := []struct {
			raw    string
			feet   int
			meters int
		}{
			{"FEW001", 100, 30},
			{"SCT009", 900, 274},
			{"BKN050", 5000, 1524}, // exactly 1524.0, no rounding
			{"OVC999", 99900, 30450},
		}
		for _, tc := range cases {
			report := Decode(tc.raw)
			require.Len(t, report.CloudLayers, 1, tc.raw)
			assert.Equal(t, tc.feet, report.CloudLayers[0].HeightFeet, tc.raw)
			assert.Equal(t, tc.meters, report.CloudLayers[0].HeightMeters, tc.raw)
		}
	})
}

func TestWeatherClassification(t *testing.T) {
	t.Run("labels appear in table order, not text order", func(t *testing.T) {
		report := Decode("+RA RA TSRA")
		assert.Equal(t, []string{"heavy rain", "moderate rain", "thunderstorm rain"}, report.Weather)
		assert.True(t, report.IsPrecipitating)
		assert.Equal(t, IntensityHeavy, report.PrecipIntensity, "first precipitation entry in table order wins")
	})

	t.Run("overlapping patterns produce duplicate labels", func(t *testing.T) {
		// +SHRA matches both the prefixed and the bare shower patterns.
		report := Decode("VVCS +SHRA")
		assert.Equal(t, []string{"heavy showers", "moderate showers"}, report.Weather)
		assert.Equal(t, IntensityHeavy, report.PrecipIntensity)
	})

	t.Run("thunderstorm alone is not precipitation", func(t *testing.T) {
		report := Decode("VVCS TS")
		assert.Equal(t, []string{"thunderstorm"}, report.Weather)
		assert.False(t, report.IsPrecipitating)
	})

	t.Run("drizzle is light precipitation", func(t *testing.T) {
		report := Decode("VVCS DZ BR")
		assert.Contains(t, report.Weather, "drizzle")
		assert.Contains(t, report.Weather, "mist")
		assert.True(t, report.IsPrecipitating)
		assert.Equal(t, IntensityLight, report.PrecipIntensity)
	})

	t.Run("later precipitation entries do not overwrite intensity", func(t *testing.T) {
		report := Decode("VVCS -RA TSRA")
		assert.Equal(t, IntensityLight, report.PrecipIntensity)
		assert.True(t, report.IsPrecipitating)
	})

	t.Run("obscurations only", func(t *testing.T) {
		report := Decode("VVCS FG HZ")
		assert.Equal(t, []string{"fog", "haze"}, report.Weather)
		assert.False(t, report.IsPrecipitating)
		assert.Equal(t, Intensity(""), report.PrecipIntensity)
	})
}

func TestDecodeIdempotence(t *testing.T) {
	raw := "METAR VVCS 201200Z 27015G25KT 4000 +SHRA SCT020 BKN030 OVC100 28/24 Q1008"
	a := Decode(raw)
	b := Decode(raw)

	// Identical structured fields, timestamp aside.
	b.DecodedAt = a.DecodedAt
	assert.Equal(t, a, b)
}
