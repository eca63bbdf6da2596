package derive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRelativeHumidity(t *testing.T) {
	t.Run("saturated air is 100 percent", func(t *testing.T) {
		assert.InDelta(t, 100.0, RelativeHumidity(25, 25), 0.01)
	})

	t.Run("dewpoint above temperature clamps to 100", func(t *testing.T) {
		assert.Equal(t, 100.0, RelativeHumidity(20, 22))
	})

	t.Run("tropical pair", func(t *testing.T) {
		// 28/24 is the canonical Con Dao wet-season observation.
		rh := RelativeHumidity(28, 24)
		assert.InDelta(t, 79.0, rh, 1.5)
	})

	t.Run("dry continental pair", func(t *testing.T) {
		rh := RelativeHumidity(30, 5)
		assert.Greater(t, rh, 15.0)
		assert.Less(t, rh, 25.0)
	})
}

func TestKnotsConversion(t *testing.T) {
	assert.InDelta(t, 7.72, KnotsToMetersPerSecond(15), 0.01)
	assert.Equal(t, 0.0, KnotsToMetersPerSecond(0))
}

func TestMagneticWindDirection(t *testing.T) {
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("result stays in compass range", func(t *testing.T) {
		for _, trueDeg := range []float64{0, 90, 180, 270, 359} {
			mag := MagneticWindDirection(trueDeg, 8.7317, 106.6289, 20, date)
			assert.GreaterOrEqual(t, mag, 0.0)
			assert.Less(t, mag, 360.0)
		}
	})

	t.Run("declination near Con Dao is small", func(t *testing.T) {
		// The South China Sea sits close to the agonic line; the magnetic
		// correction there is within a couple of degrees.
		mag := MagneticWindDirection(270, 8.7317, 106.6289, 20, date)
		assert.InDelta(t, 270.0, mag, 5.0)
	})
}
