package chargemap

import (
	"reflect"
	"testing"
)

func TestFacetOptions(t *testing.T) {
	f := FacetOptions(stations())
	if want := []string{"ChargeZone", "Statiq", "Tata Power"}; !reflect.DeepEqual(f.Operators, want) {
		t.Errorf("Operators = %v, want %v", f.Operators, want)
	}
	if want := []string{"Café", "Parking", "Restrooms", "WiFi"}; !reflect.DeepEqual(f.Facilities, want) {
		t.Errorf("Facilities = %v, want %v", f.Facilities, want)
	}
	if !reflect.DeepEqual(f.ConnectorKinds, ConnectorKinds) {
		t.Errorf("ConnectorKinds = %v, want %v", f.ConnectorKinds, ConnectorKinds)
	}
	if !reflect.DeepEqual(f.ChargerKinds, ChargerKinds) {
		t.Errorf("ChargerKinds = %v, want %v", f.ChargerKinds, ChargerKinds)
	}

	f.ConnectorKinds[0] = "mutated"
	if ConnectorKinds[0] != ConnectorCCS2 {
		t.Error("FacetOptions shares its enumeration slice with the package")
	}

	empty := FacetOptions(nil)
	if len(empty.Operators) != 0 || len(empty.Facilities) != 0 {
		t.Errorf("FacetOptions(nil) = %+v, want no operators or facilities", empty)
	}
}

func TestCriteriaFromPreferences(t *testing.T) {
	ccs := ConnectorCCS2
	dc := ChargerDC
	tests := []struct {
		name  string
		prefs Preferences
		base  FilterCriteria
		want  FilterCriteria
	}{
		{
			name:  "seeds both",
			prefs: Preferences{Connector: &ccs, Charger: &dc},
			base:  FilterCriteria{Query: "delhi"},
			want: FilterCriteria{
				Query:          "delhi",
				ConnectorKinds: []ConnectorKind{ConnectorCCS2},
				ChargerKinds:   []ChargerKind{ChargerDC},
			},
		},
		{
			name:  "user choice wins",
			prefs: Preferences{Connector: &ccs, Charger: &dc},
			base:  FilterCriteria{ConnectorKinds: []ConnectorKind{ConnectorType2}},
			want:  FilterCriteria{ConnectorKinds: []ConnectorKind{ConnectorType2}},
		},
		{
			name: "no preferences",
			base: FilterCriteria{AvailableOnly: true},
			want: FilterCriteria{AvailableOnly: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CriteriaFromPreferences(tt.prefs, tt.base)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CriteriaFromPreferences = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestToggle(t *testing.T) {
	fs := Toggle([]string(nil), "Parking")
	fs = Toggle(fs, "WiFi")
	if !reflect.DeepEqual(fs, []string{"Parking", "WiFi"}) {
		t.Fatalf("Toggle added = %v", fs)
	}
	orig := fs
	fs = Toggle(fs, "Parking")
	if !reflect.DeepEqual(fs, []string{"WiFi"}) {
		t.Errorf("Toggle removed = %v, want [WiFi]", fs)
	}
	if !reflect.DeepEqual(orig, []string{"Parking", "WiFi"}) {
		t.Errorf("Toggle modified its input: %v", orig)
	}

	kinds := Toggle([]ConnectorKind{ConnectorCCS2}, ConnectorCCS2)
	if len(kinds) != 0 {
		t.Errorf("Toggle on a single kind = %v, want empty", kinds)
	}
}
