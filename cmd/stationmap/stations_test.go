package main

import (
	"math"
	"strings"
	"testing"

	"github.com/andreiashu/chargemap"
)

const sample = `[
  {
    "id": "st-1",
    "name": "Connaught Place Hub",
    "address": "Block A",
    "city": "New Delhi",
    "pincode": "110001",
    "latitude": 28.6315,
    "longitude": 77.2167,
    "operator": "Tata Power",
    "connectors": [{"type": "CCS2", "power_rating": 60, "available_ports": 2, "total_ports": 4}],
    "charger_types": ["DC", "Fast"],
    "facilities": ["Parking"],
    "price_per_kwh": 18.5,
    "availability_status": "Available"
  },
  {
    "id": "st-2",
    "name": "Unmapped",
    "city": "New Delhi",
    "longitude": 77.2
  }
]`

func TestDecodeStations(t *testing.T) {
	got, err := decodeStations(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("decodeStations: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("decoded %d stations, want 2", len(got))
	}

	e := got[0]
	if e.PostalCode != "110001" || e.Operator != "Tata Power" || e.Status != chargemap.Available {
		t.Errorf("unexpected station: %+v", e)
	}
	if !e.HasConnector(chargemap.ConnectorCCS2) || e.AvailablePorts() != 2 {
		t.Errorf("connectors = %+v", e.Connectors)
	}
	if len(e.ChargerKinds) != 2 || e.ChargerKinds[1] != chargemap.ChargerFast {
		t.Errorf("charger kinds = %v", e.ChargerKinds)
	}
	if e.PricePerKWh != 18.5 {
		t.Errorf("price = %v, want 18.5", e.PricePerKWh)
	}

	if !math.IsNaN(got[1].Latitude) {
		t.Errorf("missing latitude decoded as %v, want NaN", got[1].Latitude)
	}
	res := chargemap.Apply(got, chargemap.FilterCriteria{})
	if len(res.Entities) != 1 || res.Dropped != 1 {
		t.Errorf("Apply kept %d dropped %d, want 1 and 1", len(res.Entities), res.Dropped)
	}
}

func TestDecodeStationsInvalidJSON(t *testing.T) {
	if _, err := decodeStations(strings.NewReader(`{"id": 1}`)); err == nil {
		t.Error("expected an error for a non-array document")
	}
}

func TestRenderRecords(t *testing.T) {
	entities := []chargemap.Entity{
		{ID: "a", Latitude: 28.6139, Longitude: 77.2090},
		{ID: "b", Latitude: 28.6180, Longitude: 77.2120},
		{ID: "m", Latitude: 19.0760, Longitude: 72.8777},
	}
	idx := chargemap.BuildIndex(entities)
	recs := renderRecords(idx, idx.Query(chargemap.WorldBBox, 3))
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	for _, r := range recs {
		switch r.Kind {
		case "cluster":
			if r.ClusterID == "" || r.PointCount != 2 || r.Expansion <= 3 {
				t.Errorf("bad cluster record %+v", r)
			}
		case "point":
			if r.EntityID != "m" {
				t.Errorf("bad point record %+v", r)
			}
		default:
			t.Errorf("unknown kind %q", r.Kind)
		}
	}
}

func TestParseLatLng(t *testing.T) {
	ll, err := parseLatLng(" 28.6139, 77.2090 ")
	if err != nil || ll != (chargemap.LatLng{Lat: 28.6139, Lng: 77.2090}) {
		t.Errorf("parseLatLng = %v, %v", ll, err)
	}
	for _, bad := range []string{"", "28.6", "a,b", "95,10"} {
		if _, err := parseLatLng(bad); err == nil {
			t.Errorf("parseLatLng(%q) accepted", bad)
		}
	}
}
