package chargemap

import (
	"math"
	"testing"
)

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		min, max               float64
	}{
		{"same point", 28.6139, 77.2090, 28.6139, 77.2090, 0, 0},
		{"delhi to gurugram", 28.6139, 77.2090, 28.4595, 77.0266, 24, 26},
		{"delhi to mumbai", 28.6139, 77.2090, 19.0760, 72.8777, 1140, 1160},
		{"quarter meridian", 0, 0, 90, 0, 10007, 10008},
		{"across antimeridian", 0, 179.5, 0, -179.5, 111, 112},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if got < tt.min || got > tt.max {
				t.Errorf("DistanceKm = %.3f, want in [%v, %v]", got, tt.min, tt.max)
			}
		})
	}
}

func TestDistanceKmSymmetric(t *testing.T) {
	pts := []LatLng{
		{28.6139, 77.2090},
		{19.0760, 72.8777},
		{-33.8688, 151.2093},
		{51.5074, -0.1278},
		{0, -179.9},
	}
	for _, a := range pts {
		for _, b := range pts {
			ab := a.DistanceKm(b)
			ba := b.DistanceKm(a)
			if math.Abs(ab-ba) > 1e-9 {
				t.Errorf("distance %v->%v = %v, reverse = %v", a, b, ab, ba)
			}
			if ab < 0 {
				t.Errorf("distance %v->%v is negative: %v", a, b, ab)
			}
		}
		if d := a.DistanceKm(a); d != 0 {
			t.Errorf("distance %v to itself = %v, want 0", a, d)
		}
	}
}
