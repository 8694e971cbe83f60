package chargemap

import (
	"reflect"
	"sort"
	"strings"
	"testing"
)

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestApply(t *testing.T) {
	delhi := &LatLng{Lat: 28.6139, Lng: 77.2090}
	tests := []struct {
		name     string
		criteria FilterCriteria
		want     []string
	}{
		{"empty criteria", FilterCriteria{}, []string{"dl-cp", "dl-ig", "dl-kb", "gg", "mb"}},
		{"postal code", FilterCriteria{Query: "110001"}, []string{"dl-cp"}},
		{"city case folded", FilterCriteria{Query: "  MUMBAI "}, []string{"mb"}},
		{"address substring", FilterCriteria{Query: "cyber"}, []string{"gg"}},
		{"connector any", FilterCriteria{ConnectorKinds: []ConnectorKind{ConnectorType2, ConnectorCHAdeMO}}, []string{"dl-ig", "dl-kb", "gg"}},
		{"charger any", FilterCriteria{ChargerKinds: []ChargerKind{ChargerFast}}, []string{"dl-cp", "mb"}},
		{"operator exact", FilterCriteria{Operators: []string{"Tata Power"}}, []string{"dl-cp", "dl-kb", "mb"}},
		{"operator case sensitive", FilterCriteria{Operators: []string{"tata power"}}, []string{}},
		{"facility parking", FilterCriteria{Facilities: []string{"Parking"}}, []string{"dl-cp", "dl-ig", "gg", "mb"}},
		{"facilities all", FilterCriteria{Facilities: []string{"Parking", "WiFi"}}, []string{"gg"}},
		{"available only", FilterCriteria{AvailableOnly: true}, []string{"dl-cp", "dl-kb", "gg"}},
		{
			"radius around delhi",
			FilterCriteria{Radius: RadiusFilter{Enabled: true, Reference: delhi, RadiusKm: 50}},
			[]string{"dl-cp", "dl-ig", "dl-kb", "gg"},
		},
		{
			"radius tighter than gurugram",
			FilterCriteria{Radius: RadiusFilter{Enabled: true, Reference: delhi, RadiusKm: 20}},
			[]string{"dl-cp", "dl-ig", "dl-kb"},
		},
		{
			"radius without reference is a no-op",
			FilterCriteria{Radius: RadiusFilter{Enabled: true, RadiusKm: 1}},
			[]string{"dl-cp", "dl-ig", "dl-kb", "gg", "mb"},
		},
		{
			"combined",
			FilterCriteria{
				Query:          "new delhi",
				ConnectorKinds: []ConnectorKind{ConnectorCCS2, ConnectorCHAdeMO},
				Operators:      []string{"Tata Power"},
				AvailableOnly:  true,
			},
			[]string{"dl-cp", "dl-kb"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Apply(stations(), tt.criteria)
			got := keys(ids(res.Entities))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply ids = %v, want %v", got, tt.want)
			}
			if res.Dropped != 1 {
				t.Errorf("Dropped = %d, want 1", res.Dropped)
			}
		})
	}
}

func TestApplyFacilitiesExcludeEmpty(t *testing.T) {
	res := Apply(stations(), FilterCriteria{Facilities: []string{"Parking"}})
	for _, e := range res.Entities {
		if len(e.Facilities) == 0 {
			t.Errorf("entity %s without facilities passed a facility filter", e.ID)
		}
	}
	if ids(res.Entities)["dl-kb"] {
		t.Error("dl-kb has no facilities and must be excluded")
	}
}

func TestApplyFacilitiesMonotonic(t *testing.T) {
	all := stations()
	sets := [][]string{
		nil,
		{"Parking"},
		{"Parking", "Restrooms"},
		{"Parking", "Restrooms", "WiFi"},
	}
	prev := -1
	for _, fs := range sets {
		n := len(Apply(all, FilterCriteria{Facilities: fs}).Entities)
		if prev >= 0 && n > prev {
			t.Errorf("adding facilities %v grew the result from %d to %d", fs, prev, n)
		}
		prev = n
	}
}

func TestApplyIdempotent(t *testing.T) {
	criteria := FilterCriteria{
		Query:      "delhi",
		Facilities: []string{"Parking"},
		Radius:     RadiusFilter{Enabled: true, Reference: &LatLng{Lat: 28.6139, Lng: 77.2090}},
	}
	once := Apply(stations(), criteria)
	twice := Apply(once.Entities, criteria)
	if !reflect.DeepEqual(ids(once.Entities), ids(twice.Entities)) {
		t.Errorf("second pass changed result: %v vs %v", keys(ids(once.Entities)), keys(ids(twice.Entities)))
	}
	if twice.Dropped != 0 {
		t.Errorf("second pass dropped %d entities", twice.Dropped)
	}
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	in := stations()
	before := stations()
	Apply(in, FilterCriteria{Query: "delhi", Facilities: []string{"Parking", "Parking"}})
	for i := range in {
		if in[i].ID != before[i].ID || !reflect.DeepEqual(in[i].Facilities, before[i].Facilities) {
			t.Fatalf("input entity %d modified", i)
		}
	}
}

func TestApplyEmptyInput(t *testing.T) {
	res := Apply(nil, FilterCriteria{Query: "x", AvailableOnly: true})
	if len(res.Entities) != 0 || res.Dropped != 0 {
		t.Errorf("Apply(nil) = %+v, want empty", res)
	}
	if got := FilteredEntities(nil, FilterCriteria{}); len(got) != 0 {
		t.Errorf("FilteredEntities(nil) = %v, want empty", got)
	}
}

func TestApplyFuzzy(t *testing.T) {
	tests := []struct {
		query string
		fuzzy int
		want  []string
	}{
		{"mumbia", 0, []string{}},
		{"mumbia", 2, []string{"mb"}},
		{"gurugrm", 1, []string{"gg"}},
		{"connaught plce", 2, []string{}}, // multi-word queries are never fuzzy
		{"mumbia", 99, []string{"mb"}},    // capped, still matches
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res := Apply(stations(), FilterCriteria{Query: tt.query, FuzzyDistance: tt.fuzzy})
			got := keys(ids(res.Entities))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Apply(%q, fuzzy=%d) = %v, want %v", tt.query, tt.fuzzy, got, tt.want)
			}
		})
	}
}

func TestNormalizeQuery(t *testing.T) {
	long := strings.Repeat("é", maxQueryLen+10)
	if got := []rune(normalizeQuery(long)); len(got) != maxQueryLen {
		t.Errorf("normalizeQuery kept %d runes, want %d", len(got), maxQueryLen)
	}
	if got := normalizeQuery("  Karol BAGH\t"); got != "karol bagh" {
		t.Errorf("normalizeQuery = %q, want %q", got, "karol bagh")
	}
}

func TestFuzzyMatch(t *testing.T) {
	tests := []struct {
		a, b string
		max  int
		want bool
	}{
		{"delhi", "delhi", 0, true},
		{"delhi", "dehli", 2, true},
		{"delhi", "dehli", 1, false},
		{"noida", "mumbai", 3, false},
		{"pune", "punekar", 2, false},
	}
	for _, tt := range tests {
		if got := fuzzyMatch(tt.a, tt.b, tt.max); got != tt.want {
			t.Errorf("fuzzyMatch(%q, %q, %d) = %v, want %v", tt.a, tt.b, tt.max, got, tt.want)
		}
	}
}
