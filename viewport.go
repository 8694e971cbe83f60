package chargemap

import (
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
)

// screenTileSize is the pixel size of one map tile on screen.
const screenTileSize = 256

// maxMercatorLat is the latitude where Web Mercator reaches y = 0.
const maxMercatorLat = 85.0511287798066

// Viewport is the mutable state of one map session: centre, zoom, surface
// size, reference point and radius toggle, plus the entity set, filter and
// the most recently published index.
//
// Rebuilds happen only when the entity set, the filter or an input of the
// radius stage changes. Pan and zoom only query the current index. Each
// rebuild is tagged with a generation taken together with its input
// snapshot; a build is published only if no newer build was published
// first, and publication is a single atomic pointer swap, so readers see
// either the previous complete index or the new one.
type Viewport struct {
	cfg *Config
	log *slog.Logger

	mu            sync.Mutex
	center        LatLng
	zoom          float64
	width, height int
	reference     *LatLng
	radiusOn      bool
	entities      []Entity
	byID          map[string]int
	criteria      FilterCriteria
	dropped       int
	filtered      int
	issued        uint64
	published     uint64

	index atomic.Pointer[Index]
}

// NewViewport creates a session centred on DefaultCenter at DefaultZoom with
// an empty index.
func NewViewport(opts ...Option) *Viewport {
	cfg := newConfig(opts...)
	v := &Viewport{
		cfg:    cfg,
		log:    cfg.Logger,
		center: DefaultCenter,
		width:  cfg.SurfaceWidth,
		height: cfg.SurfaceHeight,
	}
	v.zoom = v.clampZoom(DefaultZoom)
	v.index.Store(buildIndex(nil, cfg))
	return v
}

// SetEntities replaces the entity set and rebuilds the index. The slice is
// retained and must not be modified afterwards.
func (v *Viewport) SetEntities(entities []Entity) *Index {
	v.mu.Lock()
	v.setEntitiesLocked(entities)
	v.mu.Unlock()
	return v.Rebuild()
}

// Load replaces both the entity set and the filter criteria with a single
// rebuild. The slice is retained as with SetEntities.
func (v *Viewport) Load(entities []Entity, c FilterCriteria) *Index {
	v.mu.Lock()
	v.setEntitiesLocked(entities)
	v.criteria = c
	v.mu.Unlock()
	return v.Rebuild()
}

func (v *Viewport) setEntitiesLocked(entities []Entity) {
	v.entities = entities
	v.byID = make(map[string]int, len(entities))
	for i, e := range entities {
		v.byID[e.ID] = i
	}
}

// SetCriteria replaces the filter criteria and rebuilds the index.
func (v *Viewport) SetCriteria(c FilterCriteria) *Index {
	v.mu.Lock()
	v.criteria = c
	v.mu.Unlock()
	return v.Rebuild()
}

// Criteria returns the criteria the next rebuild will use, including the
// viewport's reference point and radius toggle.
func (v *Viewport) Criteria() FilterCriteria {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.effectiveCriteria()
}

// effectiveCriteria must be called with mu held.
func (v *Viewport) effectiveCriteria() FilterCriteria {
	c := v.criteria
	if !c.Radius.Enabled {
		c.Radius = RadiusFilter{Enabled: v.radiusOn, Reference: v.reference}
	} else if c.Radius.Reference == nil {
		c.Radius.Reference = v.reference
	}
	if !(c.Radius.RadiusKm > 0) {
		c.Radius.RadiusKm = v.cfg.RadiusFilterKm
	}
	return c
}

// Rebuild filters the current entity set and publishes a new index. It is
// safe to call concurrently; the returned index is whichever is published
// once this build finishes, which is newer than this build's input if a
// later rebuild got there first.
func (v *Viewport) Rebuild() *Index {
	v.mu.Lock()
	v.issued++
	gen := v.issued
	entities := v.entities
	criteria := v.effectiveCriteria()
	v.mu.Unlock()

	res := Apply(entities, criteria)
	idx := buildIndex(res.Entities, v.cfg)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen < v.published {
		v.cfg.Metrics.observeStale()
		v.log.Debug("index_build_stale", "generation", gen, "published", v.published)
		return v.index.Load()
	}
	v.published = gen
	v.dropped = res.Dropped
	v.filtered = len(res.Entities)
	v.index.Store(idx)

	v.cfg.Metrics.observeFilter(len(res.Entities), res.Dropped)
	if res.Dropped > 0 {
		v.log.Warn("entities_dropped_invalid_coordinates", "dropped", res.Dropped, "total", len(entities))
	}
	v.log.Debug("index_rebuilt",
		"generation", gen,
		"entities", len(entities),
		"filtered", len(res.Entities),
		"top_nodes", idx.LevelSize(0),
	)
	return idx
}

// Index returns the most recently published index.
func (v *Viewport) Index() *Index {
	return v.index.Load()
}

// Dropped returns how many entities the last published build dropped for
// invalid coordinates.
func (v *Viewport) Dropped() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dropped
}

// Filtered returns how many entities passed the last published filter.
func (v *Viewport) Filtered() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filtered
}

// Entity looks up an entity of the current set by id.
func (v *Viewport) Entity(id string) (Entity, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.entityLocked(id)
}

func (v *Viewport) entityLocked(id string) (Entity, bool) {
	i, ok := v.byID[id]
	if !ok {
		return Entity{}, false
	}
	return v.entities[i], true
}

// Render queries the current index with the current bbox and zoom.
func (v *Viewport) Render() []RenderNode {
	v.mu.Lock()
	bbox, zoom := v.bboxLocked(), v.zoom
	v.mu.Unlock()
	return v.index.Load().Query(bbox, zoom)
}

// Center returns the current map centre.
func (v *Viewport) Center() LatLng {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.center
}

// Zoom returns the current zoom.
func (v *Viewport) Zoom() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.zoom
}

// SetView moves the map to center at zoom and returns the new render set.
// Zoom is clamped to [0, MaxZoom]; an invalid centre keeps the current one.
func (v *Viewport) SetView(center LatLng, zoom float64) []RenderNode {
	v.mu.Lock()
	v.setViewLocked(center, zoom)
	v.mu.Unlock()
	return v.Render()
}

// Pan moves the centre keeping the zoom.
func (v *Viewport) Pan(center LatLng) []RenderNode {
	v.mu.Lock()
	v.setViewLocked(center, v.zoom)
	v.mu.Unlock()
	return v.Render()
}

// ZoomTo changes the zoom keeping the centre.
func (v *Viewport) ZoomTo(zoom float64) []RenderNode {
	v.mu.Lock()
	v.setViewLocked(v.center, zoom)
	v.mu.Unlock()
	return v.Render()
}

// SetSurface updates the rendering surface dimensions in pixels.
func (v *Viewport) SetSurface(width, height int) []RenderNode {
	v.mu.Lock()
	if width > 0 && height > 0 {
		v.width, v.height = width, height
	}
	v.mu.Unlock()
	return v.Render()
}

func (v *Viewport) setViewLocked(center LatLng, zoom float64) {
	if center.Valid() {
		center.Lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, center.Lat))
		v.center = center
	}
	v.zoom = v.clampZoom(zoom)
}

func (v *Viewport) clampZoom(z float64) float64 {
	if math.IsNaN(z) || z < 0 {
		return 0
	}
	if m := float64(v.cfg.MaxZoom); z > m {
		return m
	}
	return z
}

// BBox returns the bounding box visible on the rendering surface.
func (v *Viewport) BBox() BBox {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.bboxLocked()
}

func (v *Viewport) bboxLocked() BBox {
	scale := screenTileSize * math.Exp2(v.zoom)
	cx, cy := project(v.center)
	hw := float64(v.width) / 2 / scale
	hh := float64(v.height) / 2 / scale
	top := math.Max(0, cy-hh)
	bottom := math.Min(1, cy+hh)
	if 2*hw >= 1 {
		return BBox{West: -180, South: unproject(0, bottom).Lat, East: 180, North: unproject(0, top).Lat}
	}
	return BBox{
		West:  (cx - hw - 0.5) * 360,
		South: unproject(0, bottom).Lat,
		East:  (cx + hw - 0.5) * 360,
		North: unproject(0, top).Lat,
	}
}

// SelectEntity recentres on an entity at SelectZoom. The index is not
// rebuilt.
func (v *Viewport) SelectEntity(id string) (Entity, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	e, ok := v.entityLocked(id)
	if !ok || !e.Position().Valid() {
		return Entity{}, false
	}
	v.setViewLocked(e.Position(), SelectZoom)
	return e, true
}

// UseReferencePoint records the user's location and recentres on it at
// ReferenceZoom. With enableRadius the radius filter is switched on. The
// index is rebuilt when the radius filter is active.
func (v *Viewport) UseReferencePoint(ll LatLng, enableRadius bool) bool {
	if !ll.Valid() {
		return false
	}
	v.mu.Lock()
	ref := ll
	v.reference = &ref
	if enableRadius {
		v.radiusOn = true
	}
	rebuild := v.radiusOn
	v.setViewLocked(ll, ReferenceZoom)
	v.mu.Unlock()

	if rebuild {
		v.Rebuild()
	}
	return true
}

// ClearReferencePoint forgets the reference point. An enabled radius filter
// becomes a no-op until a new reference point is set.
func (v *Viewport) ClearReferencePoint() {
	v.mu.Lock()
	had := v.reference != nil
	v.reference = nil
	rebuild := had && v.radiusOn
	v.mu.Unlock()

	if rebuild {
		v.Rebuild()
	}
}

// ReferencePoint returns the reference point, if any.
func (v *Viewport) ReferencePoint() (LatLng, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.reference == nil {
		return LatLng{}, false
	}
	return *v.reference, true
}

// SetRadiusFilter toggles the radius filter and rebuilds on change.
func (v *Viewport) SetRadiusFilter(on bool) {
	v.mu.Lock()
	changed := v.radiusOn != on
	v.radiusOn = on
	v.mu.Unlock()

	if changed {
		v.Rebuild()
	}
}

// DistanceFromReference returns the distance in km from the reference point
// to an entity.
func (v *Viewport) DistanceFromReference(entityID string) (float64, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.reference == nil {
		return 0, false
	}
	e, ok := v.entityLocked(entityID)
	if !ok || !e.Position().Valid() {
		return 0, false
	}
	return v.reference.DistanceKm(e.Position()), true
}

// Activation describes the outcome of activating a cluster marker.
type Activation struct {
	Center LatLng
	Zoom   float64
	// Leaves holds the cluster's entity ids when zooming in cannot split it
	// any further; the presentation layer lists them instead.
	Leaves []string
}

// ActivateCluster zooms to the cluster's expansion zoom centred on its
// centroid. Unknown ids leave the view unchanged and return false.
func (v *Viewport) ActivateCluster(id ClusterID) (Activation, bool) {
	idx := v.index.Load()
	n, ok := idx.Cluster(id)
	if !ok {
		return Activation{}, false
	}
	expansion := idx.ExpansionZoom(id)

	v.mu.Lock()
	v.setViewLocked(n.Position, float64(expansion))
	act := Activation{Center: v.center, Zoom: v.zoom}
	v.mu.Unlock()

	if float64(expansion) > act.Zoom {
		act.Leaves, _ = idx.Leaves(id, 0, 0)
	}
	return act, true
}
