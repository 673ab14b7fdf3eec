package geofence

import "math"

const earthRadiusMeters = 6371000

// Office is the configured geofence. Both coordinates unset means
// geofencing is disabled and every check-in location is accepted.
type Office struct {
	Latitude     *float64
	Longitude    *float64
	RadiusMeters float64
}

func (o Office) Enabled() bool {
	return o.Latitude != nil && o.Longitude != nil
}

type Result struct {
	OK       bool
	Distance *float64 // nil when geofencing is disabled
}

// DistanceMeters is the great-circle distance between two coordinates using
// the haversine formula on a spherical earth.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Check reports whether the point falls within the office radius.
func (o Office) Check(lat, lng float64) Result {
	if !o.Enabled() {
		return Result{OK: true}
	}
	d := DistanceMeters(*o.Latitude, *o.Longitude, lat, lng)
	return Result{OK: d <= o.RadiusMeters, Distance: &d}
}
