package chargemap

import "math"

// project maps a coordinate to spherical Mercator in the [0..1] range,
// x growing eastwards and y growing southwards.
func project(ll LatLng) (x, y float64) {
	x = ll.Lng/360 + 0.5
	sin := math.Sin(ll.Lat * math.Pi / 180)
	y = 0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi
	if y < 0 {
		y = 0
	}
	if y > 1 {
		y = 1
	}
	return x, y
}

// unproject is the inverse of project.
func unproject(x, y float64) LatLng {
	y2 := (180 - y*360) * math.Pi / 180
	return LatLng{
		Lat: 360*math.Atan(math.Exp(y2))/math.Pi - 90,
		Lng: (x - 0.5) * 360,
	}
}

// cellSize is the projected grid cell edge for zoom z: the pixel radius
// expressed as a fraction of the world width at that zoom.
func cellSize(radiusPx, extent float64, z int) float64 {
	return radiusPx / (extent * math.Ldexp(1, z))
}

// wrapLng maps a longitude into [-180, 180).
func wrapLng(lng float64) float64 {
	lng = math.Mod(lng+180, 360)
	if lng < 0 {
		lng += 360
	}
	return lng - 180
}
