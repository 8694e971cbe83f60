// Command stationmap filters and clusters a station file and prints the
// render set for one view.
//
// Usage:
//
//	go run ./cmd/stationmap -file stations.json -zoom 5 -q delhi -facility Parking
//
// Clustering options are read from the environment, optionally from a .env
// file: CLUSTER_RADIUS_PX, MAX_ZOOM, RADIUS_FILTER_KM, LOG_LEVEL, LOG_FORMAT.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/andreiashu/chargemap"
)

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(s string) error {
	*l = append(*l, s)
	return nil
}

func main() {
	_ = godotenv.Load(".env")
	log := newLogger()

	var (
		file       = flag.String("file", "stations.json", "JSON array of station rows")
		query      = flag.String("q", "", "text query over name, address, city and pincode")
		fuzzy      = flag.Int("fuzzy", 0, "edit distance tolerated for single-word queries")
		zoom       = flag.Float64("zoom", chargemap.DefaultZoom, "map zoom")
		center     = flag.String("center", "", "map centre as lat,lng (default New Delhi)")
		near       = flag.String("near", "", "reference point as lat,lng; enables the radius filter")
		available  = flag.Bool("available", false, "only stations with status Available")
		width      = flag.Int("width", 1024, "surface width in pixels")
		height     = flag.Int("height", 768, "surface height in pixels")
		facilities listFlag
		operators  listFlag
		connectors listFlag
		chargers   listFlag
	)
	flag.Var(&facilities, "facility", "required facility (repeatable)")
	flag.Var(&operators, "operator", "allowed operator (repeatable)")
	flag.Var(&connectors, "connector", "allowed connector kind (repeatable)")
	flag.Var(&chargers, "charger", "allowed charger kind (repeatable)")
	flag.Parse()

	entities, err := loadStations(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	opts := envOptions(log)
	opts = append(opts, chargemap.WithLogger(log), chargemap.WithSurfaceSize(*width, *height))
	v := chargemap.NewViewport(opts...)

	criteria := chargemap.FilterCriteria{
		Query:         *query,
		FuzzyDistance: *fuzzy,
		Operators:     operators,
		Facilities:    facilities,
		AvailableOnly: *available,
	}
	for _, c := range connectors {
		criteria.ConnectorKinds = append(criteria.ConnectorKinds, chargemap.ConnectorKind(c))
	}
	for _, c := range chargers {
		criteria.ChargerKinds = append(criteria.ChargerKinds, chargemap.ChargerKind(c))
	}

	view := v.Center()
	if *near != "" {
		ll, err := parseLatLng(*near)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: -near: %v\n", err)
			os.Exit(1)
		}
		criteria.Radius = chargemap.RadiusFilter{Enabled: true, Reference: &ll}
		view = ll
	}
	v.Load(entities, criteria)

	if *center != "" {
		ll, err := parseLatLng(*center)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: -center: %v\n", err)
			os.Exit(1)
		}
		view = ll
	}
	nodes := v.SetView(view, *zoom)

	log.Info("render_ready",
		"stations", len(entities),
		"filtered", v.Filtered(),
		"dropped", v.Dropped(),
		"nodes", len(nodes),
	)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(renderRecords(v.Index(), nodes)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadStations(path string) ([]chargemap.Entity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return decodeStations(f)
}

// newLogger builds a logger from LOG_LEVEL and LOG_FORMAT.
func newLogger() *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// envOptions maps clustering settings from the environment to options.
// Unparseable values are logged and ignored.
func envOptions(log *slog.Logger) []chargemap.Option {
	var opts []chargemap.Option
	if s := os.Getenv("CLUSTER_RADIUS_PX"); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			opts = append(opts, chargemap.WithClusterRadiusPx(f))
		} else {
			log.Warn("config_invalid", "key", "CLUSTER_RADIUS_PX", "err", err)
		}
	}
	if s := os.Getenv("MAX_ZOOM"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			opts = append(opts, chargemap.WithMaxZoom(n))
		} else {
			log.Warn("config_invalid", "key", "MAX_ZOOM", "err", err)
		}
	}
	if s := os.Getenv("RADIUS_FILTER_KM"); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			opts = append(opts, chargemap.WithRadiusFilterKm(f))
		} else {
			log.Warn("config_invalid", "key", "RADIUS_FILTER_KM", "err", err)
		}
	}
	return opts
}

func parseLatLng(s string) (chargemap.LatLng, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return chargemap.LatLng{}, fmt.Errorf("want lat,lng, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return chargemap.LatLng{}, fmt.Errorf("latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return chargemap.LatLng{}, fmt.Errorf("longitude: %w", err)
	}
	ll := chargemap.LatLng{Lat: lat, Lng: lng}
	if !ll.Valid() {
		return chargemap.LatLng{}, fmt.Errorf("coordinate out of range: %q", s)
	}
	return ll, nil
}
