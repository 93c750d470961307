package osmfilter

import (
	"fmt"
	"math"

	"github.com/paulmach/osm"
)

func tags(kv ...string) osm.Tags {
	if len(kv)%2 != 0 {
		panic(fmt.Sprintf("odd number of tag arguments: %v", kv))
	}
	t := make(osm.Tags, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		t = append(t, osm.Tag{Key: kv[i], Value: kv[i+1]})
	}
	return t
}

func node(id int64, lat, lon float64, kv ...string) *osm.Node {
	return &osm.Node{ID: osm.NodeID(id), Lat: lat, Lon: lon, Tags: tags(kv...)}
}

func way(id int64, kv ...string) *osm.Way {
	return &osm.Way{ID: osm.WayID(id), Tags: tags(kv...)}
}

func relation(id int64, kv ...string) *osm.Relation {
	return &osm.Relation{ID: osm.RelationID(id), Tags: tags(kv...)}
}

func mustRecord(obj osm.Object) *Record {
	r, ok := NewRecord(obj)
	if !ok {
		panic(fmt.Sprintf("not a record: %T", obj))
	}
	return r
}

// pointAtDistance returns the point meters due north of p along its meridian.
func pointAtDistance(p LatLon, meters float64) LatLon {
	return LatLon{Lat: p.Lat + meters/earthRadiusMeters*180/math.Pi, Lon: p.Lon}
}

// cafes returns n nodes tagged amenity=cafe followed by m untagged nodes.
func cafes(n, m int) []osm.Object {
	objs := make([]osm.Object, 0, n+m)
	for i := 0; i < n; i++ {
		objs = append(objs, node(int64(i+1), 52.5, 13.4, "amenity", "cafe", "name", fmt.Sprintf("Cafe %d", i+1)))
	}
	for i := 0; i < m; i++ {
		objs = append(objs, node(int64(n+i+1), 52.5, 13.4))
	}
	return objs
}
