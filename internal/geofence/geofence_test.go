package geofence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func float64Ptr(v float64) *float64 { return &v }

func TestDistanceMeters(t *testing.T) {
	// Identical coordinates.
	assert.Equal(t, 0.0, DistanceMeters(12.9716, 77.5946, 12.9716, 77.5946))

	// One degree of latitude is roughly 111.2 km.
	d := DistanceMeters(12.0, 77.0, 13.0, 77.0)
	assert.InDelta(t, 111195, d, 200)
}

func TestOffice_Check_WithinRadius(t *testing.T) {
	office := Office{
		Latitude:     float64Ptr(12.9716),
		Longitude:    float64Ptr(77.5946),
		RadiusMeters: 200,
	}

	res := office.Check(12.9716, 77.5946)
	assert.True(t, res.OK)
	assert.NotNil(t, res.Distance)
	assert.InDelta(t, 0, *res.Distance, 0.01)
}

func TestOffice_Check_OutsideRadius(t *testing.T) {
	office := Office{
		Latitude:     float64Ptr(12.9716),
		Longitude:    float64Ptr(77.5946),
		RadiusMeters: 200,
	}

	// ~250m north of the office.
	res := office.Check(12.973846, 77.5946)
	assert.False(t, res.OK)
	assert.NotNil(t, res.Distance)
	assert.InDelta(t, 250, *res.Distance, 5)
}

func TestOffice_Check_Disabled(t *testing.T) {
	res := Office{RadiusMeters: 200}.Check(-6.2, 106.8)
	assert.True(t, res.OK)
	assert.Nil(t, res.Distance)

	// One coordinate alone does not enable the fence.
	half := Office{Latitude: float64Ptr(12.9716), RadiusMeters: 200}
	assert.False(t, half.Enabled())
	assert.True(t, half.Check(0, 0).OK)
}
