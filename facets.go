package chargemap

import "sort"

// Facets lists the values a filter panel offers for each facet.
type Facets struct {
	ConnectorKinds []ConnectorKind
	ChargerKinds   []ChargerKind
	Operators      []string // sorted, unique
	Facilities     []string // sorted, unique
}

// FacetOptions derives facet values from entities. Connector and charger
// kinds are the fixed enumerations; operators and facilities are collected
// from the entities themselves.
func FacetOptions(entities []Entity) Facets {
	ops := make(map[string]struct{})
	fac := make(map[string]struct{})
	for _, e := range entities {
		if e.Operator != "" {
			ops[e.Operator] = struct{}{}
		}
		for _, f := range e.Facilities {
			if f != "" {
				fac[f] = struct{}{}
			}
		}
	}
	return Facets{
		ConnectorKinds: append([]ConnectorKind(nil), ConnectorKinds...),
		ChargerKinds:   append([]ChargerKind(nil), ChargerKinds...),
		Operators:      sortedKeys(ops),
		Facilities:     sortedKeys(fac),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Preferences are a user's saved defaults. They are passed in explicitly;
// this package never looks them up.
type Preferences struct {
	Connector *ConnectorKind
	Charger   *ChargerKind
}

// CriteriaFromPreferences seeds base with the preferred connector and
// charger kinds. A facet the user already constrained is left alone, and
// preferences apply only when neither facet is set.
func CriteriaFromPreferences(prefs Preferences, base FilterCriteria) FilterCriteria {
	if len(base.ConnectorKinds) > 0 || len(base.ChargerKinds) > 0 {
		return base
	}
	out := base
	if prefs.Connector != nil {
		out.ConnectorKinds = []ConnectorKind{*prefs.Connector}
	}
	if prefs.Charger != nil {
		out.ChargerKinds = []ChargerKind{*prefs.Charger}
	}
	return out
}

// Toggle returns a copy of vals with v removed if present, appended
// otherwise.
func Toggle[T comparable](vals []T, v T) []T {
	out := make([]T, 0, len(vals)+1)
	found := false
	for _, x := range vals {
		if x == v {
			found = true
			continue
		}
		out = append(out, x)
	}
	if !found {
		out = append(out, v)
	}
	return out
}
