package chargemap

import "github.com/golang/geo/s2"

// EarthRadiusKm is the mean Earth radius of the spherical approximation.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometres between two
// coordinates given in degrees. s2.LatLng.Distance is a haversine
// implementation, so the result is symmetric and exactly 0 for identical
// points. Validating the inputs is the caller's job.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * EarthRadiusKm
}

// DistanceKm returns the great-circle distance to other.
func (ll LatLng) DistanceKm(other LatLng) float64 {
	return DistanceKm(ll.Lat, ll.Lng, other.Lat, other.Lng)
}
