package chargemap

import (
	"math"

	geohash "github.com/TomiHiltunen/geohash-golang"
)

// kmPerDegree is the length of one degree of latitude on the mean sphere.
const kmPerDegree = EarthRadiusKm * math.Pi / 180

// maxPrefilterPrecision bounds the geohash precision used by the prefilter.
// Precision 9 cells are a few metres wide; smaller radii gain nothing more.
const maxPrefilterPrecision = 9

// radiusMatcher keeps entities within radiusKm of center. Candidates are
// first tested against the 3x3 block of geohash cells around the center at
// the finest precision whose cells still span the radius, then against the
// exact haversine distance.
type radiusMatcher struct {
	center    LatLng
	radiusKm  float64
	precision int                 // 0 when the prefilter is disabled
	cells     map[string]struct{} // 3x3 neighbourhood of the center cell
}

func newRadiusMatcher(center LatLng, radiusKm float64) *radiusMatcher {
	rm := &radiusMatcher{center: center, radiusKm: radiusKm}
	rm.precision = prefilterPrecision(center.Lat, radiusKm)
	if rm.precision > 0 {
		rm.cells = neighbourhood(center, rm.precision)
	}
	return rm
}

func (rm *radiusMatcher) contains(lat, lng float64) bool {
	if rm.cells != nil {
		if _, ok := rm.cells[geohash.EncodeWithPrecision(lat, lng, rm.precision)]; !ok {
			return false
		}
	}
	return DistanceKm(rm.center.Lat, rm.center.Lng, lat, lng) <= rm.radiusKm
}

// geohashSpan returns the latitude and longitude extent in degrees of a
// geohash cell at the given precision. Bits alternate starting with
// longitude, five per character.
func geohashSpan(precision int) (latDeg, lngDeg float64) {
	bits := 5 * precision
	lngBits := (bits + 1) / 2
	latBits := bits / 2
	return 180 / math.Ldexp(1, latBits), 360 / math.Ldexp(1, lngBits)
}

// prefilterPrecision picks the finest precision whose cell spans at least
// the radius in both axes at the given latitude. It returns 0 when no
// precision is safe, e.g. when the circle reaches a pole.
func prefilterPrecision(lat, radiusKm float64) int {
	// 10% slack absorbs the small-angle approximations below.
	dLat := 1.1 * radiusKm / kmPerDegree
	maxLat := math.Abs(lat) + dLat
	if maxLat >= 89 {
		return 0
	}
	dLng := dLat / math.Cos(maxLat*math.Pi/180)
	if dLng >= 180 {
		return 0
	}
	best := 0
	for p := 1; p <= maxPrefilterPrecision; p++ {
		latSpan, lngSpan := geohashSpan(p)
		if latSpan < dLat || lngSpan < dLng {
			break
		}
		best = p
	}
	return best
}

// neighbourhood returns the geohash of center's cell and its eight
// neighbours.
func neighbourhood(center LatLng, precision int) map[string]struct{} {
	hash := geohash.EncodeWithPrecision(center.Lat, center.Lng, precision)
	cells := make(map[string]struct{}, 9)
	cells[hash] = struct{}{}
	for _, n := range geohash.CalculateAllAdjacent(hash) {
		cells[n] = struct{}{}
	}
	return cells
}
