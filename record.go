package osmfilter

import (
	"cmp"
	"slices"
	"sort"

	"github.com/paulmach/osm"
)

// Kind identifies the OSM element type a Record was built from.
type Kind uint8

const (
	KindNode Kind = iota
	KindWay
	KindRelation
)

// String returns the element type as used in openstreetmap.org URLs.
func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindWay:
		return "way"
	case KindRelation:
		return "relation"
	}
	return "unknown"
}

// Tag is a single key/value attribute of a Record.
type Tag struct {
	Key   string
	Value string
}

// LatLon is a coordinate pair in degrees.
type LatLon struct {
	Lat float64
	Lon float64
}

// Record is an owned snapshot of one decoded OSM element.
//
// Tags are sorted by key. Both the tag scan in Matcher and the tag block
// written by Renderer depend on that order.
type Record struct {
	ID       int64
	Kind     Kind
	Tags     []Tag
	Location *LatLon // nil for ways and relations
}

// NewRecord builds a Record from a decoded object. Objects that are not
// nodes, ways or relations (e.g. changesets) are reported with ok=false.
func NewRecord(obj osm.Object) (*Record, bool) {
	var r Record
	var tags osm.Tags
	switch o := obj.(type) {
	case *osm.Node:
		r.ID, r.Kind, tags = int64(o.ID), KindNode, o.Tags
		r.Location = &LatLon{Lat: o.Lat, Lon: o.Lon}
	case *osm.Way:
		r.ID, r.Kind, tags = int64(o.ID), KindWay, o.Tags
	case *osm.Relation:
		r.ID, r.Kind, tags = int64(o.ID), KindRelation, o.Tags
	default:
		return nil, false
	}

	r.Tags = make([]Tag, len(tags))
	for i, t := range tags {
		r.Tags[i] = Tag{Key: t.Key, Value: t.Value}
	}
	slices.SortFunc(r.Tags, func(a, b Tag) int { return cmp.Compare(a.Key, b.Key) })
	return &r, true
}

// Tag returns the value of the tag with the given key.
func (r *Record) Tag(key string) (string, bool) {
	i := sort.Search(len(r.Tags), func(i int) bool { return r.Tags[i].Key >= key })
	if i < len(r.Tags) && r.Tags[i].Key == key {
		return r.Tags[i].Value, true
	}
	return "", false
}

// Name returns the value of the "name" tag.
func (r *Record) Name() (string, bool) {
	return r.Tag(nameKey)
}

const nameKey = "name"
