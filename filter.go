package chargemap

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// maxFuzzyDistance caps FuzzyDistance; high edit distances match almost
// every short word.
const maxFuzzyDistance = 3

// maxQueryLen limits the text query length in runes.
const maxQueryLen = 256

// RadiusFilter restricts results to a circle around a reference point.
type RadiusFilter struct {
	Enabled   bool
	Reference *LatLng // nil disables the stage even when Enabled
	RadiusKm  float64 // <= 0 uses DefaultRadiusFilterKm
}

// FilterCriteria is an immutable snapshot of the user's filters. An empty
// facet slice means "no constraint" on that facet.
type FilterCriteria struct {
	Query          string
	FuzzyDistance  int             // Max edit distance for word matches (0 = disabled)
	ConnectorKinds []ConnectorKind // match-any
	ChargerKinds   []ChargerKind   // match-any
	Operators      []string        // match-any, exact
	Facilities     []string        // match-all
	AvailableOnly  bool
	Radius         RadiusFilter
}

// FilterResult is the output of Apply.
type FilterResult struct {
	Entities []Entity
	// Dropped counts entities removed for invalid or missing coordinates.
	// They are not counted against any filter.
	Dropped int
}

// Apply reduces entities to those passing every active stage of criteria.
// Stages run in a fixed order: coordinate validity, text, connector kind,
// charger kind, operator, facilities, availability, radius. The input is not
// modified and the result order is not part of the contract.
func Apply(entities []Entity, criteria FilterCriteria) FilterResult {
	m := newMatcher(criteria)
	res := FilterResult{Entities: make([]Entity, 0, len(entities))}
	for _, e := range entities {
		if !ValidCoordinates(e.Latitude, e.Longitude) {
			res.Dropped++
			continue
		}
		if m.match(e) {
			res.Entities = append(res.Entities, e)
		}
	}
	return res
}

// FilteredEntities is Apply without the diagnostic count.
func FilteredEntities(entities []Entity, criteria FilterCriteria) []Entity {
	return Apply(entities, criteria).Entities
}

// matcher holds the criteria preprocessed into lookup sets.
type matcher struct {
	query      string
	fuzzy      int
	connectors map[ConnectorKind]struct{}
	chargers   map[ChargerKind]struct{}
	operators  map[string]struct{}
	facilities []string
	available  bool
	radius     *radiusMatcher
}

func newMatcher(c FilterCriteria) *matcher {
	m := &matcher{
		query:      normalizeQuery(c.Query),
		fuzzy:      c.FuzzyDistance,
		connectors: toSet(c.ConnectorKinds),
		chargers:   toSet(c.ChargerKinds),
		operators:  toSet(c.Operators),
		facilities: dedupe(c.Facilities),
		available:  c.AvailableOnly,
	}
	if m.fuzzy < 0 {
		m.fuzzy = 0
	}
	if m.fuzzy > maxFuzzyDistance {
		m.fuzzy = maxFuzzyDistance
	}
	// A radius filter without a reference point is a no-op.
	if c.Radius.Enabled && c.Radius.Reference != nil && c.Radius.Reference.Valid() {
		km := c.Radius.RadiusKm
		if !(km > 0) {
			km = DefaultRadiusFilterKm
		}
		m.radius = newRadiusMatcher(*c.Radius.Reference, km)
	}
	return m
}

func (m *matcher) match(e Entity) bool {
	if m.query != "" && !m.matchText(e) {
		return false
	}
	if len(m.connectors) > 0 && !m.matchConnectors(e) {
		return false
	}
	if len(m.chargers) > 0 && !m.matchChargers(e) {
		return false
	}
	if len(m.operators) > 0 {
		if _, ok := m.operators[e.Operator]; !ok {
			return false
		}
	}
	if len(m.facilities) > 0 && !hasAll(e.Facilities, m.facilities) {
		return false
	}
	if m.available && e.Status != Available {
		return false
	}
	if m.radius != nil && !m.radius.contains(e.Latitude, e.Longitude) {
		return false
	}
	return true
}

// matchText is a case-insensitive substring test against name, address,
// city and postal code. With fuzzy matching enabled, a single-word query also
// matches any word of those fields within the edit distance.
func (m *matcher) matchText(e Entity) bool {
	fields := [...]string{e.Name, e.Address, e.City, e.PostalCode}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), m.query) {
			return true
		}
	}
	if m.fuzzy == 0 || strings.ContainsRune(m.query, ' ') {
		return false
	}
	for _, f := range fields[:3] {
		for _, w := range strings.FieldsFunc(strings.ToLower(f), isWordSeparator) {
			if fuzzyMatch(m.query, w, m.fuzzy) {
				return true
			}
		}
	}
	return false
}

func (m *matcher) matchConnectors(e Entity) bool {
	for _, c := range e.Connectors {
		if _, ok := m.connectors[c.Kind]; ok {
			return true
		}
	}
	return false
}

func (m *matcher) matchChargers(e Entity) bool {
	for _, k := range e.ChargerKinds {
		if _, ok := m.chargers[k]; ok {
			return true
		}
	}
	return false
}

// fuzzyMatch reports whether the edit distance between two lowercase words
// is within maxDist.
func fuzzyMatch(query, candidate string, maxDist int) bool {
	if d := utf8.RuneCountInString(query) - utf8.RuneCountInString(candidate); d > maxDist || -d > maxDist {
		return false
	}
	return levenshtein.ComputeDistance(query, candidate) <= maxDist
}

func isWordSeparator(r rune) bool {
	switch r {
	case ' ', ',', '.', '-', '/', '(', ')', '\t', '\n':
		return true
	}
	return false
}

// normalizeQuery trims, truncates and case-folds the text query.
func normalizeQuery(q string) string {
	q = strings.TrimSpace(q)
	if runes := []rune(q); len(runes) > maxQueryLen {
		q = string(runes[:maxQueryLen])
	}
	return strings.ToLower(q)
}

func toSet[T comparable](vals []T) map[T]struct{} {
	if len(vals) == 0 {
		return nil
	}
	set := make(map[T]struct{}, len(vals))
	for _, v := range vals {
		set[v] = struct{}{}
	}
	return set
}

func dedupe(vals []string) []string {
	if len(vals) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(vals))
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// hasAll reports whether have is a superset of want. An empty have never
// satisfies a non-empty want.
func hasAll(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
