package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	// Monas to Kota Tua, Jakarta: roughly 4.5 km.
	dist := HaversineKm(-6.1754, 106.8272, -6.1352, 106.8133)
	assert.InDelta(t, 4.7, dist, 0.5)

	// Jakarta to Surabaya: roughly 660 km.
	dist = HaversineKm(-6.2088, 106.8456, -7.2575, 112.7521)
	assert.InDelta(t, 663, dist, 10)

	assert.Zero(t, HaversineKm(-6.2, 106.8, -6.2, 106.8))
}

func TestHaversineKmIsSymmetric(t *testing.T) {
	a := HaversineKm(-6.2, 106.8, -6.9, 107.6)
	b := HaversineKm(-6.9, 107.6, -6.2, 106.8)
	assert.InDelta(t, a, b, 1e-9)
}

func TestValidCoordinates(t *testing.T) {
	assert.True(t, ValidCoordinates(0, 0))
	assert.True(t, ValidCoordinates(-90, -180))
	assert.True(t, ValidCoordinates(90, 180))
	assert.True(t, ValidCoordinates(-6.2, 106.8))

	assert.False(t, ValidCoordinates(90.1, 0))
	assert.False(t, ValidCoordinates(-90.1, 0))
	assert.False(t, ValidCoordinates(0, 180.1))
	assert.False(t, ValidCoordinates(0, -180.1))
}
