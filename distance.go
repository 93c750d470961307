package osmfilter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// earthRadiusMeters is the IUGG mean Earth radius.
const earthRadiusMeters = 6371008.8

// Distance returns the great-circle (haversine) distance between a and b in meters.
func Distance(a, b LatLon) float64 {
	la := s2.LatLngFromDegrees(a.Lat, a.Lon)
	lb := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return la.Distance(lb).Radians() * earthRadiusMeters
}

// validLatLon rejects NaN, Inf and out of range coordinates, which would
// otherwise produce undefined results in the s2 calculations.
func validLatLon(p LatLon) bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) ||
		math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func validMeters(m float64) bool {
	return !math.IsNaN(m) && !math.IsInf(m, 0) && m >= 0
}

// parseLatLonDistance parses "lat,lon,meters".
func parseLatLonDistance(flag, s string) (LatLon, float64, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 3 {
		return LatLon{}, 0, &ConfigError{Flag: flag, Value: s, Kind: ErrMalformedTriple,
			Err: fmt.Errorf("got %d fields", len(fields))}
	}
	var nums [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return LatLon{}, 0, &ConfigError{Flag: flag, Value: s, Kind: ErrMalformedTriple, Err: err}
		}
		nums[i] = v
	}
	p := LatLon{Lat: nums[0], Lon: nums[1]}
	if !validLatLon(p) {
		return LatLon{}, 0, &ConfigError{Flag: flag, Value: s, Kind: ErrMalformedTriple,
			Err: fmt.Errorf("coordinate %v,%v out of range", p.Lat, p.Lon)}
	}
	if !validMeters(nums[2]) {
		return LatLon{}, 0, &ConfigError{Flag: flag, Value: s, Kind: ErrMalformedTriple,
			Err: fmt.Errorf("distance %v must be a non-negative number", nums[2])}
	}
	return p, nums[2], nil
}

const geohashAlphabet = "0123456789bcdefghjkmnpqrstuvwxyz"

// parseGeohashDistance parses "geohash,meters". The query point is the
// centre of the geohash cell.
func parseGeohashDistance(flag, s string) (LatLon, float64, error) {
	hash, meters, ok := strings.Cut(s, ",")
	hash = strings.ToLower(strings.TrimSpace(hash))
	if !ok || hash == "" || strings.Contains(meters, ",") {
		return LatLon{}, 0, &ConfigError{Flag: flag, Value: s, Kind: ErrMalformedGeohash}
	}
	for _, c := range hash {
		if !strings.ContainsRune(geohashAlphabet, c) {
			return LatLon{}, 0, &ConfigError{Flag: flag, Value: s, Kind: ErrMalformedGeohash,
				Err: fmt.Errorf("invalid geohash character %q", c)}
		}
	}
	m, err := strconv.ParseFloat(strings.TrimSpace(meters), 64)
	if err != nil {
		return LatLon{}, 0, &ConfigError{Flag: flag, Value: s, Kind: ErrMalformedGeohash, Err: err}
	}
	if !validMeters(m) {
		return LatLon{}, 0, &ConfigError{Flag: flag, Value: s, Kind: ErrMalformedGeohash,
			Err: fmt.Errorf("distance %v must be a non-negative number", m)}
	}
	center := geohash.Decode(hash).Center()
	return LatLon{Lat: center.Lat(), Lon: center.Lng()}, m, nil
}

// distanceCriterion accepts records whose location is within maxMeters of query.
type distanceCriterion struct {
	query     LatLon
	maxMeters float64

	// bound is a padded box around the query circle, checked before the
	// haversine. It is only consulted when usable is set.
	bound  orb.Bound
	usable bool
}

func newDistanceCriterion(query LatLon, maxMeters float64) *distanceCriterion {
	c := &distanceCriterion{query: query, maxMeters: maxMeters}

	// orb measures with a larger radius than earthRadiusMeters, so its box
	// is slightly tight; pad well past the difference.
	center := orb.Point{query.Lon, query.Lat}
	b := geo.BoundPad(geo.NewBoundAroundPoint(center, maxMeters), maxMeters*0.01+10)
	c.bound = b
	c.usable = boundUsable(b)
	return c
}

// boundUsable reports whether b is a plain box: no NaN, no antimeridian
// wrap and not clamped to a pole or the full longitude range.
func boundUsable(b orb.Bound) bool {
	for _, v := range []float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] {
		return false
	}
	return b.Min[0] > -180 && b.Max[0] < 180 && b.Min[1] > -90 && b.Max[1] < 90
}

func (c *distanceCriterion) matches(r *Record) bool {
	if r.Location == nil {
		return false
	}
	if c.usable && !c.bound.Contains(orb.Point{r.Location.Lon, r.Location.Lat}) {
		return false
	}
	return Distance(*r.Location, c.query) <= c.maxMeters
}

func (c *distanceCriterion) String() string {
	return fmt.Sprintf("within %gm of %.5f,%.5f", c.maxMeters, c.query.Lat, c.query.Lon)
}
