package osmfilter

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const berlinXML = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="52.5163" lon="13.3777" version="1">
    <tag k="name" v="Brandenburger Tor"/>
    <tag k="tourism" v="attraction"/>
  </node>
  <node id="2" lat="52.5186" lon="13.3763" version="1">
    <tag k="name" v="Reichstag"/>
  </node>
  <node id="3" lat="52.5200" lon="13.4050" version="1"/>
  <way id="10" version="1">
    <nd ref="1"/>
    <nd ref="2"/>
    <tag k="highway" v="footway"/>
  </way>
  <relation id="100" version="1">
    <member type="way" ref="10" role=""/>
    <tag k="type" v="route"/>
  </relation>
</osm>
`

func writeFixture(t *testing.T, name string, gz bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	if !gz {
		_, err = f.WriteString(berlinXML)
		require.NoError(t, err)
		return path
	}
	w := gzip.NewWriter(f)
	_, err = w.Write([]byte(berlinXML))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return path
}

func collect(t *testing.T, src Source) [][]osm.Object {
	t.Helper()
	var parts [][]osm.Object
	err := src.Partitions(context.Background(), func(part []osm.Object) error {
		parts = append(parts, part)
		return nil
	})
	require.NoError(t, err)
	return parts
}

func TestFileSourceXML(t *testing.T) {
	for _, name := range []string{"berlin.osm", "berlin.osm.gz"} {
		t.Run(name, func(t *testing.T) {
			path := writeFixture(t, name, filepath.Ext(name) == ".gz")
			src, err := OpenFile(context.Background(), path, 2, 2)
			require.NoError(t, err)
			defer src.Close()
			assert.Equal(t, path, src.Path())

			parts := collect(t, src)
			require.Len(t, parts, 3)
			assert.Len(t, parts[0], 2)
			assert.Len(t, parts[1], 2)
			assert.Len(t, parts[2], 1)

			var kinds []Kind
			for _, part := range parts {
				for _, obj := range part {
					kinds = append(kinds, mustRecord(obj).Kind)
				}
			}
			assert.Equal(t, []Kind{KindNode, KindNode, KindNode, KindWay, KindRelation}, kinds)

			tor := mustRecord(parts[0][0])
			name, _ := tor.Name()
			assert.Equal(t, "Brandenburger Tor", name)
			assert.InDelta(t, 52.5163, tor.Location.Lat, 1e-9)
		})
	}
}

func TestOpenFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.osm.pbf")
	_, err := OpenFile(context.Background(), path, 1, 0)

	var se *SourceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, path, se.Path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenFileBadGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.osm.gz")
	require.NoError(t, os.WriteFile(path, []byte(berlinXML), 0o644))

	_, err := OpenFile(context.Background(), path, 1, 0)
	var se *SourceError
	assert.ErrorAs(t, err, &se)
}

func TestFileSourceCorruptPBF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.osm.pbf")
	require.NoError(t, os.WriteFile(path, []byte("this is definitely not a protocol buffer"), 0o644))

	src, err := OpenFile(context.Background(), path, 1, 0)
	require.NoError(t, err)
	defer src.Close()

	err = src.Partitions(context.Background(), func([]osm.Object) error { return nil })
	var se *SourceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, path, se.Path)
}

func TestSliceSourcePartitions(t *testing.T) {
	objs := cafes(3, 4)
	parts := collect(t, SliceSource{Objects: objs, BatchSize: 3})
	require.Len(t, parts, 3)
	assert.Len(t, parts[2], 1)

	// Partitions are copies.
	parts[0][0] = nil
	assert.NotNil(t, objs[0])

	assert.Len(t, collect(t, SliceSource{Objects: objs}), 1)
	assert.Empty(t, collect(t, SliceSource{}))
}

func TestSliceSourceStopsOnCallbackError(t *testing.T) {
	calls := 0
	err := SliceSource{Objects: cafes(10, 0), BatchSize: 2}.Partitions(context.Background(), func([]osm.Object) error {
		calls++
		if calls == 2 {
			return os.ErrClosed
		}
		return nil
	})
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.Equal(t, 2, calls)
}
