package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/andreiashu/chargemap"
)

// stationRecord mirrors one row of the stations table.
type stationRecord struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Address     string            `json:"address"`
	City        string            `json:"city"`
	Pincode     string            `json:"pincode"`
	Latitude    *float64          `json:"latitude"`
	Longitude   *float64          `json:"longitude"`
	Operator    string            `json:"operator"`
	Connectors  []connectorRecord `json:"connectors"`
	Charger     []string          `json:"charger_types"`
	Facilities  []string          `json:"facilities"`
	PricePerKWh float64           `json:"price_per_kwh"`
	Status      string            `json:"availability_status"`
}

type connectorRecord struct {
	Type           string  `json:"type"`
	PowerRating    float64 `json:"power_rating"`
	AvailablePorts int     `json:"available_ports"`
	TotalPorts     int     `json:"total_ports"`
}

// decodeStations reads a JSON array of station rows. Missing coordinates
// become NaN so the filter reports them as dropped.
func decodeStations(r io.Reader) ([]chargemap.Entity, error) {
	var records []stationRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding stations: %w", err)
	}
	out := make([]chargemap.Entity, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.entity())
	}
	return out, nil
}

func (rec stationRecord) entity() chargemap.Entity {
	e := chargemap.Entity{
		ID:          rec.ID,
		Latitude:    orNaN(rec.Latitude),
		Longitude:   orNaN(rec.Longitude),
		Name:        rec.Name,
		Address:     rec.Address,
		City:        rec.City,
		PostalCode:  rec.Pincode,
		Operator:    rec.Operator,
		Facilities:  rec.Facilities,
		Status:      chargemap.Availability(rec.Status),
		PricePerKWh: rec.PricePerKWh,
	}
	for _, c := range rec.Connectors {
		e.Connectors = append(e.Connectors, chargemap.Connector{
			Kind:           chargemap.ConnectorKind(c.Type),
			PowerKW:        c.PowerRating,
			AvailablePorts: c.AvailablePorts,
			TotalPorts:     c.TotalPorts,
		})
	}
	for _, k := range rec.Charger {
		e.ChargerKinds = append(e.ChargerKinds, chargemap.ChargerKind(k))
	}
	return e
}

func orNaN(f *float64) float64 {
	if f == nil {
		return math.NaN()
	}
	return *f
}

// renderRecord is the JSON shape of one render-set node.
type renderRecord struct {
	Kind       string  `json:"kind"`
	EntityID   string  `json:"entity_id,omitempty"`
	ClusterID  string  `json:"cluster_id,omitempty"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	PointCount int     `json:"point_count"`
	Expansion  int     `json:"expansion_zoom,omitempty"`
}

func renderRecords(idx *chargemap.Index, nodes []chargemap.RenderNode) []renderRecord {
	out := make([]renderRecord, 0, len(nodes))
	for _, n := range nodes {
		rec := renderRecord{
			Kind:       n.Kind.String(),
			EntityID:   n.EntityID,
			Latitude:   n.Position.Lat,
			Longitude:  n.Position.Lng,
			PointCount: n.PointCount,
		}
		if n.Kind == chargemap.ClusterNode {
			rec.ClusterID = n.ClusterID.String()
			rec.Expansion = idx.ExpansionZoom(n.ClusterID)
		}
		out = append(out, rec)
	}
	return out
}
