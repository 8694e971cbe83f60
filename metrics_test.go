package chargemap

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorRecordsViewportActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	v := NewViewport(WithMetrics(m))
	v.SetEntities(stations())
	v.SetCriteria(FilterCriteria{Facilities: []string{"Parking"}})
	v.SetView(DefaultCenter, 3)

	// NewViewport builds the empty index too.
	if got := testutil.ToFloat64(m.Builds); got != 3 {
		t.Errorf("builds = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.FilteredEntities); got != 4 {
		t.Errorf("filtered = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.DroppedEntities); got != 2 {
		t.Errorf("dropped = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Queries); got != 1 {
		t.Errorf("queries = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RenderNodes); got < 1 {
		t.Errorf("render nodes = %v, want at least 1", got)
	}
	if got := testutil.ToFloat64(m.StaleBuilds); got != 0 {
		t.Errorf("stale builds = %v, want 0", got)
	}
	if n := testutil.CollectAndCount(m.BuildDuration); n != 1 {
		t.Errorf("build duration collected %d series, want 1", n)
	}
}

func TestLoadBuildsOnce(t *testing.T) {
	m, err := NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	v := NewViewport(WithMetrics(m))
	ref := delhi
	v.Load(stations(), FilterCriteria{
		Facilities: []string{"Parking"},
		Radius:     RadiusFilter{Enabled: true, Reference: &ref},
	})

	// One build in NewViewport, one in Load.
	if got := testutil.ToFloat64(m.Builds); got != 2 {
		t.Errorf("builds = %v, want 2", got)
	}
	// Parking within 50km of Delhi: dl-cp, dl-ig and gg.
	if got := v.Filtered(); got != 3 {
		t.Errorf("filtered = %d, want 3", got)
	}
	if _, ok := v.Entity("dl-kb"); !ok {
		t.Error("Load did not replace the entity set")
	}
}

func TestNewCollectorTwiceReusesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("first NewCollector: %v", err)
	}
	b, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second NewCollector: %v", err)
	}
	a.Builds.Inc()
	if got := testutil.ToFloat64(b.Builds); got != 1 {
		t.Errorf("second collector does not share the counter: %v", got)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var m *Collector
	m.observeBuild(0, 1)
	m.observeFilter(1, 1)
	m.observeStale()
	m.observeQuery()
	m.observeRender(3)
}
