package chargemap

import "math"

// LatLng is a geographic coordinate in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// Valid reports whether the coordinate is finite and inside the
// [-90,90] x [-180,180] range.
func (ll LatLng) Valid() bool {
	return ValidCoordinates(ll.Lat, ll.Lng)
}

// ValidCoordinates reports whether lat/lng are finite and within range.
// NaN is how a missing coordinate is represented.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) ||
		math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// ConnectorKind is a plug standard.
type ConnectorKind string

const (
	ConnectorCCS2    ConnectorKind = "CCS2"
	ConnectorType2   ConnectorKind = "Type2"
	ConnectorCHAdeMO ConnectorKind = "CHAdeMO"
	ConnectorGBT     ConnectorKind = "GB/T"
)

// ConnectorKinds lists every known connector kind in display order.
var ConnectorKinds = []ConnectorKind{ConnectorCCS2, ConnectorType2, ConnectorCHAdeMO, ConnectorGBT}

// ChargerKind is a charging speed class.
type ChargerKind string

const (
	ChargerAC        ChargerKind = "AC"
	ChargerDC        ChargerKind = "DC"
	ChargerFast      ChargerKind = "Fast"
	ChargerUltraFast ChargerKind = "Ultra-Fast"
)

// ChargerKinds lists every known charger kind in display order.
var ChargerKinds = []ChargerKind{ChargerAC, ChargerDC, ChargerFast, ChargerUltraFast}

// Availability is the live status of a station.
type Availability string

const (
	Available Availability = "Available"
	Busy      Availability = "Busy"
	Offline   Availability = "Offline"
)

// Connector describes one connector group at a station.
type Connector struct {
	Kind           ConnectorKind
	PowerKW        float64 // Power rating in kW
	AvailablePorts int
	TotalPorts     int
}

// Entity is a charging station. Entities are supplied by the caller and are
// never mutated by this package.
type Entity struct {
	ID         string
	Latitude   float64 // NaN when missing
	Longitude  float64 // NaN when missing
	Name       string
	Address    string
	City       string
	PostalCode string

	Operator     string
	Connectors   []Connector
	ChargerKinds []ChargerKind
	Facilities   []string // e.g. "Parking", "Café", "Restrooms", "WiFi"
	Status       Availability
	PricePerKWh  float64
}

// Position returns the entity coordinate.
func (e Entity) Position() LatLng {
	return LatLng{Lat: e.Latitude, Lng: e.Longitude}
}

// HasConnector reports whether any connector of the entity is of kind k.
func (e Entity) HasConnector(k ConnectorKind) bool {
	for _, c := range e.Connectors {
		if c.Kind == k {
			return true
		}
	}
	return false
}

// AvailablePorts sums the free ports over all connectors.
func (e Entity) AvailablePorts() int {
	n := 0
	for _, c := range e.Connectors {
		n += c.AvailablePorts
	}
	return n
}
