package chargemap

import (
	"math"
	"sort"
	"time"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// NodeKind tags a render node.
type NodeKind uint8

const (
	// PointNode wraps exactly one entity.
	PointNode NodeKind = iota
	// ClusterNode aggregates two or more entities.
	ClusterNode
)

func (k NodeKind) String() string {
	if k == ClusterNode {
		return "cluster"
	}
	return "point"
}

// RenderNode is one element of a render set.
type RenderNode struct {
	Kind       NodeKind
	EntityID   string    // PointNode only
	ClusterID  ClusterID // ClusterNode only
	Position   LatLng    // entity coordinate or cluster centroid
	PointCount int
}

// BBox is an axis-aligned bounding box in degrees. West may be greater than
// East for boxes crossing the antimeridian, and longitudes outside
// [-180,180] are wrapped.
type BBox struct {
	West, South, East, North float64
}

// WorldBBox covers the whole globe.
var WorldBBox = BBox{West: -180, South: -90, East: 180, North: 90}

// Contains reports whether ll lies inside b.
func (b BBox) Contains(ll LatLng) bool {
	return b.rect().ContainsLatLng(s2.LatLngFromDegrees(ll.Lat, ll.Lng))
}

func (b BBox) rect() s2.Rect {
	south := math.Max(-90, b.South)
	north := math.Min(90, b.North)
	if math.IsNaN(south) || math.IsNaN(north) || math.IsNaN(b.West) || math.IsNaN(b.East) || south > north {
		return s2.EmptyRect()
	}
	lat := r1.Interval{Lo: south * math.Pi / 180, Hi: north * math.Pi / 180}
	if b.East-b.West >= 360 {
		return s2.Rect{Lat: lat, Lng: s1.FullInterval()}
	}
	w, e := wrapLng(b.West), wrapLng(b.East)
	if e == -180 && b.East > b.West {
		e = 180
	}
	return s2.Rect{Lat: lat, Lng: s1.IntervalFromEndpoints(w*math.Pi/180, e*math.Pi/180)}
}

// node is the arena record for one point or aggregate. Children are indices
// into the node slice of level zoom+1, never pointers.
type node struct {
	id       ClusterID // 0 for points
	entity   int32     // index into Index.ids, -1 for aggregates
	pos      LatLng
	x, y     float64 // Mercator projection of pos
	count    int
	digest   uint64 // sum of member hashes
	zoom     int    // zoom the node was formed at
	children []int32
}

// level holds the nodes visible at one zoom plus their ordering by S2 leaf
// cell, which queries range-scan.
type level struct {
	nodes []node
	cells []s2.CellID
	order []int32
}

type nodeRef struct {
	zoom int
	idx  int32
}

// Index is an immutable zoom-stratified cluster hierarchy. Level z holds the
// render set for zoom z; level MaxZoom+1 holds every entity individually.
// An Index is safe for concurrent use.
type Index struct {
	radiusPx float64
	extent   float64
	maxZoom  int
	metrics  *Collector

	ids      []string // entity ids; the index never keeps the entities
	levels   []level
	clusters map[ClusterID]nodeRef
	skipped  int
}

// BuildIndex clusters entities for every zoom from MaxZoom down to 0.
//
// At each zoom every node of the level above that is not yet part of a
// cluster gathers the remaining nodes within the cluster radius at that
// zoom. A group of more than one node becomes an aggregate whose centroid is
// the point-count weighted mean of its members; lone nodes carry over
// unchanged. Entities with
// invalid coordinates are skipped. BuildIndex never fails; an empty input
// gives an index with no nodes.
func BuildIndex(entities []Entity, opts ...Option) *Index {
	return buildIndex(entities, newConfig(opts...))
}

func buildIndex(entities []Entity, cfg *Config) *Index {
	start := time.Now()

	idx := &Index{
		radiusPx: cfg.ClusterRadiusPx,
		extent:   cfg.TileExtent,
		maxZoom:  cfg.MaxZoom,
		metrics:  cfg.Metrics,
		levels:   make([]level, cfg.MaxZoom+2),
		clusters: make(map[ClusterID]nodeRef),
	}

	top := cfg.MaxZoom + 1
	points := make([]node, 0, len(entities))
	for _, e := range entities {
		if !ValidCoordinates(e.Latitude, e.Longitude) {
			idx.skipped++
			continue
		}
		pos := e.Position()
		x, y := project(pos)
		idx.ids = append(idx.ids, e.ID)
		points = append(points, node{
			entity: int32(len(idx.ids) - 1),
			pos:    pos,
			x:      x,
			y:      y,
			count:  1,
			digest: memberHash(e.ID),
			zoom:   top,
		})
	}
	// Greedy merging depends on visit order; visiting by entity id makes the
	// hierarchy independent of input order.
	sort.SliceStable(points, func(a, b int) bool {
		return idx.ids[points[a].entity] < idx.ids[points[b].entity]
	})
	idx.levels[top].nodes = points

	for z := cfg.MaxZoom; z >= 0; z-- {
		idx.levels[z].nodes = idx.clusterize(idx.levels[z+1].nodes, z)
	}
	for z := range idx.levels {
		idx.levels[z].sortCells()
	}

	idx.metrics.observeBuild(time.Since(start), len(idx.levels[0].nodes))
	return idx
}

type gridKey struct {
	cx, cy int64
}

// clusterize merges the nodes of level z+1 into the nodes of level z. Each
// node not yet taken absorbs every untaken node within the cluster radius in
// projected space. The grid only narrows the search to the 3x3 block of
// cells around the node, so nodes on either side of a cell edge still merge.
func (idx *Index) clusterize(prev []node, z int) []node {
	r := cellSize(idx.radiusPx, idx.extent, z)
	r2 := r * r
	key := func(n *node) gridKey {
		return gridKey{cx: int64(math.Floor(n.x / r)), cy: int64(math.Floor(n.y / r))}
	}
	grid := make(map[gridKey][]int32)
	for i := range prev {
		k := key(&prev[i])
		grid[k] = append(grid[k], int32(i))
	}

	taken := make([]bool, len(prev))
	out := make([]node, 0, len(grid))
	for i := range prev {
		if taken[i] {
			continue
		}
		taken[i] = true
		p := &prev[i]
		members := []int32{int32(i)}
		k := key(p)
		for dy := int64(-1); dy <= 1; dy++ {
			for dx := int64(-1); dx <= 1; dx++ {
				for _, j := range grid[gridKey{cx: k.cx + dx, cy: k.cy + dy}] {
					if taken[j] {
						continue
					}
					ddx, ddy := prev[j].x-p.x, prev[j].y-p.y
					if ddx*ddx+ddy*ddy <= r2 {
						taken[j] = true
						members = append(members, j)
					}
				}
			}
		}
		if len(members) == 1 {
			out = append(out, *p)
			continue
		}
		n := merge(prev, members, z)
		idx.clusters[n.id] = nodeRef{zoom: z, idx: int32(len(out))}
		out = append(out, n)
	}
	return out
}

// merge builds the aggregate of prev[members] formed at zoom z.
func merge(prev []node, members []int32, z int) node {
	n := node{entity: -1, zoom: z, children: members}
	var wlat, wlng float64
	for _, m := range members {
		c := &prev[m]
		w := float64(c.count)
		wlat += c.pos.Lat * w
		wlng += c.pos.Lng * w
		n.count += c.count
		n.digest += c.digest
	}
	n.pos = LatLng{Lat: wlat / float64(n.count), Lng: wlng / float64(n.count)}
	n.x, n.y = project(n.pos)
	n.id = clusterID(n.digest, z)
	return n
}

func (lv *level) sortCells() {
	n := len(lv.nodes)
	cells := make([]s2.CellID, n)
	order := make([]int32, n)
	for i := range lv.nodes {
		p := lv.nodes[i].pos
		cells[i] = s2.CellIDFromLatLng(s2.LatLngFromDegrees(p.Lat, p.Lng))
		order[i] = int32(i)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return cells[order[a]] < cells[order[b]]
	})
	lv.cells = make([]s2.CellID, n)
	for i, o := range order {
		lv.cells[i] = cells[o]
	}
	lv.order = order
}

// Query returns the render set for floor(zoom) restricted to bbox expanded
// by one cluster radius. Zoom is clamped to [0, MaxZoom+1]. The result is
// deterministic for a given index, bbox and zoom.
func (idx *Index) Query(bbox BBox, zoom float64) []RenderNode {
	if idx == nil {
		return []RenderNode{}
	}
	z := idx.levelFor(zoom)
	lv := &idx.levels[z]
	idx.metrics.observeQuery()
	if len(lv.nodes) == 0 {
		idx.metrics.observeRender(0)
		return []RenderNode{}
	}

	rect := bbox.rect()
	if rect.IsEmpty() {
		idx.metrics.observeRender(0)
		return []RenderNode{}
	}
	margin := 360 * cellSize(idx.radiusPx, idx.extent, min(z, idx.maxZoom))
	m := margin * math.Pi / 180
	rect = s2.Rect{
		Lat: rect.Lat.Expanded(m).Intersection(r1.Interval{Lo: -math.Pi / 2, Hi: math.Pi / 2}),
		Lng: rect.Lng.Expanded(m),
	}

	// The covering only narrows the range scans; every candidate is
	// re-checked against the rectangle.
	rc := s2.RegionCoverer{MinLevel: 0, MaxLevel: 30, LevelMod: 1, MaxCells: 8}
	out := make([]RenderNode, 0)
	for _, c := range rc.Covering(rect) {
		lo, hi := c.RangeMin(), c.RangeMax()
		i := sort.Search(len(lv.cells), func(i int) bool { return lv.cells[i] >= lo })
		for ; i < len(lv.cells) && lv.cells[i] <= hi; i++ {
			n := &lv.nodes[lv.order[i]]
			if rect.ContainsLatLng(s2.LatLngFromDegrees(n.pos.Lat, n.pos.Lng)) {
				out = append(out, idx.render(n))
			}
		}
	}
	idx.metrics.observeRender(len(out))
	return out
}

// All returns every node of the level for zoom, in cell order.
func (idx *Index) All(zoom float64) []RenderNode {
	if idx == nil {
		return []RenderNode{}
	}
	lv := &idx.levels[idx.levelFor(zoom)]
	out := make([]RenderNode, 0, len(lv.nodes))
	for _, o := range lv.order {
		out = append(out, idx.render(&lv.nodes[o]))
	}
	return out
}

// ExpansionZoom returns the zoom at which the cluster splits into its
// children. Unknown ids, including entity ids of points, yield MaxZoom.
func (idx *Index) ExpansionZoom(id ClusterID) int {
	if idx == nil {
		return DefaultMaxZoom
	}
	ref, ok := idx.clusters[id]
	if !ok {
		return idx.maxZoom
	}
	return ref.zoom + 1
}

// Cluster returns the render node of an aggregate.
func (idx *Index) Cluster(id ClusterID) (RenderNode, bool) {
	n, ok := idx.lookup(id)
	if !ok {
		return RenderNode{}, false
	}
	return idx.render(n), true
}

// Children returns the immediate children of an aggregate, visible one zoom
// above the one it was formed at.
func (idx *Index) Children(id ClusterID) ([]RenderNode, bool) {
	n, ok := idx.lookup(id)
	if !ok {
		return nil, false
	}
	below := idx.levels[n.zoom+1].nodes
	out := make([]RenderNode, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, idx.render(&below[c]))
	}
	return out, true
}

// Leaves returns the entity ids inside an aggregate, skipping offset ids and
// returning at most limit of them (limit <= 0 means no limit).
func (idx *Index) Leaves(id ClusterID, limit, offset int) ([]string, bool) {
	n, ok := idx.lookup(id)
	if !ok {
		return nil, false
	}
	if offset < 0 {
		offset = 0
	}
	var out []string
	skipped := 0
	var walk func(n *node) bool
	walk = func(n *node) bool {
		if n.id == 0 {
			if skipped < offset {
				skipped++
				return true
			}
			out = append(out, idx.ids[n.entity])
			return limit <= 0 || len(out) < limit
		}
		below := idx.levels[n.zoom+1].nodes
		for _, c := range n.children {
			if !walk(&below[c]) {
				return false
			}
		}
		return true
	}
	walk(n)
	return out, true
}

// MaxZoom returns the clustering ceiling the index was built with.
func (idx *Index) MaxZoom() int {
	if idx == nil {
		return DefaultMaxZoom
	}
	return idx.maxZoom
}

// Len returns the number of entities indexed.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.levels[len(idx.levels)-1].nodes)
}

// Skipped returns the number of entities ignored for invalid coordinates.
func (idx *Index) Skipped() int {
	if idx == nil {
		return 0
	}
	return idx.skipped
}

// LevelSize returns the number of nodes at zoom.
func (idx *Index) LevelSize(zoom float64) int {
	if idx == nil {
		return 0
	}
	return len(idx.levels[idx.levelFor(zoom)].nodes)
}

func (idx *Index) lookup(id ClusterID) (*node, bool) {
	if idx == nil {
		return nil, false
	}
	ref, ok := idx.clusters[id]
	if !ok {
		return nil, false
	}
	return &idx.levels[ref.zoom].nodes[ref.idx], true
}

func (idx *Index) levelFor(zoom float64) int {
	if math.IsNaN(zoom) || zoom < 0 {
		return 0
	}
	top := idx.maxZoom + 1
	if zoom >= float64(top) {
		return top
	}
	return int(math.Floor(zoom))
}

func (idx *Index) render(n *node) RenderNode {
	if n.id == 0 {
		return RenderNode{
			Kind:       PointNode,
			EntityID:   idx.ids[n.entity],
			Position:   n.pos,
			PointCount: 1,
		}
	}
	return RenderNode{
		Kind:       ClusterNode,
		ClusterID:  n.id,
		Position:   n.pos,
		PointCount: n.count,
	}
}
