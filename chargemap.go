// Package chargemap locates geo-tagged charging stations, narrows them with
// free-text, facet and radius filters, and clusters the survivors into a
// zoom-stratified hierarchy for map rendering.
//
// The three pure operations are Apply (filter), BuildIndex (cluster) and
// Index.Query (viewport selection). Viewport ties them together for an
// interactive map session:
//
//	v := chargemap.NewViewport(chargemap.WithSurfaceSize(1280, 800))
//	v.SetEntities(stations)
//	v.SetCriteria(chargemap.FilterCriteria{Facilities: []string{"Parking"}})
//	for _, n := range v.Render() {
//	    fmt.Println(n.Kind, n.Position, n.PointCount)
//	}
package chargemap

import (
	"io"
	"log/slog"
)

const (
	// DefaultClusterRadiusPx is the pixel radius that defines merge distance.
	DefaultClusterRadiusPx = 50.0
	// DefaultMaxZoom is the highest zoom level at which clusters are formed.
	DefaultMaxZoom = 16
	// DefaultRadiusFilterKm is the radius used by the radius filter stage.
	DefaultRadiusFilterKm = 50.0
	// DefaultTileExtent is the pixel extent of one tile used when converting
	// the cluster radius into projected units.
	DefaultTileExtent = 512.0

	// SelectZoom is the detail zoom used when recentering on an entity.
	SelectZoom = 14
	// ReferenceZoom is the zoom used when recentering on the reference point.
	ReferenceZoom = 12

	// maxSupportedZoom caps MaxZoom; tile pyramids stop well before this.
	maxSupportedZoom = 24

	defaultSurfaceWidth  = 1024
	defaultSurfaceHeight = 768
)

// DefaultCenter is the initial viewport centre (New Delhi).
var DefaultCenter = LatLng{Lat: 28.6139, Lng: 77.2090}

// DefaultZoom is the initial viewport zoom.
const DefaultZoom = 5.0

// Config contains configuration options for indexes and viewports.
type Config struct {
	ClusterRadiusPx float64      // Merge radius in pixels (default: 50)
	MaxZoom         int          // Clustering ceiling (default: 16)
	RadiusFilterKm  float64      // Radius filter distance (default: 50)
	TileExtent      float64      // Tile extent in pixels (default: 512)
	SurfaceWidth    int          // Rendering surface width in pixels
	SurfaceHeight   int          // Rendering surface height in pixels
	Logger          *slog.Logger // Logger for orchestration events (default: discard)
	Metrics         *Collector   // Optional Prometheus collector
}

// Option is a functional option for configuring indexes and viewports.
type Option func(*Config)

// WithClusterRadiusPx sets the pixel radius that defines merge distance.
func WithClusterRadiusPx(px float64) Option {
	return func(c *Config) {
		c.ClusterRadiusPx = px
	}
}

// WithMaxZoom sets the clustering ceiling. Above it all entities render
// individually.
func WithMaxZoom(z int) Option {
	return func(c *Config) {
		c.MaxZoom = z
	}
}

// WithRadiusFilterKm sets the distance used by the radius filter.
func WithRadiusFilterKm(km float64) Option {
	return func(c *Config) {
		c.RadiusFilterKm = km
	}
}

// WithTileExtent sets the tile extent used to scale the cluster radius.
func WithTileExtent(px float64) Option {
	return func(c *Config) {
		c.TileExtent = px
	}
}

// WithSurfaceSize sets the rendering surface dimensions a viewport derives
// its bounding box from.
func WithSurfaceSize(width, height int) Option {
	return func(c *Config) {
		c.SurfaceWidth = width
		c.SurfaceHeight = height
	}
}

// WithLogger sets the logger used by Viewport.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithMetrics attaches a Prometheus collector.
func WithMetrics(m *Collector) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// defaultConfig returns the default configuration.
func defaultConfig() *Config {
	return &Config{
		ClusterRadiusPx: DefaultClusterRadiusPx,
		MaxZoom:         DefaultMaxZoom,
		RadiusFilterKm:  DefaultRadiusFilterKm,
		TileExtent:      DefaultTileExtent,
		SurfaceWidth:    defaultSurfaceWidth,
		SurfaceHeight:   defaultSurfaceHeight,
	}
}

// newConfig applies opts over the defaults and repairs out-of-range values.
func newConfig(opts ...Option) *Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	def := defaultConfig()
	if !(cfg.ClusterRadiusPx > 0) {
		cfg.ClusterRadiusPx = def.ClusterRadiusPx
	}
	if !(cfg.TileExtent > 0) {
		cfg.TileExtent = def.TileExtent
	}
	if !(cfg.RadiusFilterKm > 0) {
		cfg.RadiusFilterKm = def.RadiusFilterKm
	}
	if cfg.MaxZoom < 0 {
		cfg.MaxZoom = 0
	}
	if cfg.MaxZoom > maxSupportedZoom {
		cfg.MaxZoom = maxSupportedZoom
	}
	if cfg.SurfaceWidth <= 0 || cfg.SurfaceHeight <= 0 {
		cfg.SurfaceWidth, cfg.SurfaceHeight = def.SurfaceWidth, def.SurfaceHeight
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return cfg
}
