package routerclient

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwmdev/schoolbus-fleet-core/model"
)

func TestHaversineKMZeroDistance(t *testing.T) {
	assert.InDelta(t, 0.0, haversineKM(42.5, -8.7, 42.5, -8.7), 1e-9)
}

func TestFallbackMinutesDefaultsSpeedWhenZero(t *testing.T) {
	a := fallbackMinutes(42.60, -8.80, 42.70, -8.90, 0)
	b := fallbackMinutes(42.60, -8.80, 42.70, -8.90, 45)
	assert.Equal(t, b, a)
}

func TestGreatCircleFallbackMinutesRoundsUp(t *testing.T) {
	a := model.Location{Latitude: 42.60, Longitude: -8.80}
	b := model.Location{Latitude: 42.601, Longitude: -8.80}
	minutes := GreatCircleFallbackMinutes(a, b, 45)
	assert.GreaterOrEqual(t, minutes, 0)
}
