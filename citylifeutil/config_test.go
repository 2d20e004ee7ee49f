/*
Copyright © 2026 the citylife authors.
This file is part of citylife.

citylife is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

citylife is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with citylife.  If not, see <http://www.gnu.org/licenses/>.
*/

package citylifeutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnq-bernardomarques/citylife"
	"github.com/bnq-bernardomarques/citylife/source"
	"github.com/ctessum/geom"
	"github.com/lnashier/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioJSON is a vertex with two streets leaving it and a third street
// crossing one of them at the center of the [0, 8] square.
const scenarioJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [1, 1]}},
    {"type": "Feature", "properties": {}, "geometry": {"type": "LineString", "coordinates": [[1, 1], [6, 6]]}},
    {"type": "Feature", "properties": {}, "geometry": {"type": "LineString", "coordinates": [[1, 1], [1, 6]]}},
    {"type": "Feature", "properties": {}, "geometry": {"type": "LineString", "coordinates": [[2, 6], [6, 2]]}}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	f := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(f, []byte(content), 0644))
	return f
}

func scenarioConfig(t *testing.T, kind string) *viper.Viper {
	cfg := viper.New()
	cfg.Set("Index", kind)
	cfg.Set("Domain", []string{"0", "0", "8", "8"})
	cfg.Set("Sources.GeoJSON", []string{writeFile(t, "scenario.geojson", scenarioJSON)})
	return cfg
}

func scenarioIndex(t *testing.T, kind string) citylife.DataStruct {
	t.Helper()
	c, err := IndexConfigFromViper(scenarioConfig(t, kind))
	require.NoError(t, err)
	index, err := c.Load(context.Background())
	require.NoError(t, err)
	return index
}

func TestIndexConfigFromViper(t *testing.T) {
	c, err := IndexConfigFromViper(scenarioConfig(t, "PMQuadTree"))
	require.NoError(t, err)
	assert.Equal(t, "pmquadtree", c.Kind)
	assert.Equal(t, &geom.Bounds{Max: geom.Point{X: 8, Y: 8}}, c.Domain)
	assert.Len(t, c.Sources, 1)

	cfg := viper.New()
	cfg.Set("Index", "rtree")
	cfg.Set("Sources.PostGIS.URL", "postgres://localhost/osm")
	cfg.Set("Sources.PostGIS.Table", "roads")
	c, err = IndexConfigFromViper(cfg)
	require.NoError(t, err)
	assert.Nil(t, c.Domain)
	require.Len(t, c.Sources, 1)
	db, ok := c.Sources[0].(source.PostGIS)
	require.True(t, ok)
	assert.Equal(t, "roads", db.Table)

	tests := []struct {
		name string
		set  map[string]interface{}
	}{
		{name: "index", set: map[string]interface{}{"Index": "btree"}},
		{name: "no sources", set: map[string]interface{}{"Sources.GeoJSON": []string{}}},
		{name: "short domain", set: map[string]interface{}{"Domain": []string{"0", "0", "8"}}},
		{name: "negative min size", set: map[string]interface{}{"MinSize": -1.0}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := scenarioConfig(t, "pmquadtree")
			for k, v := range test.set {
				cfg.Set(k, v)
			}
			_, err := IndexConfigFromViper(cfg)
			assert.Error(t, err)
		})
	}
}

func TestBoxFromStrings(t *testing.T) {
	b, err := boxFromStrings("Domain", nil)
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = boxFromStrings("Domain", []string{"-1", " 2.5", "3", "4e1"})
	require.NoError(t, err)
	assert.Equal(t, &geom.Bounds{Min: geom.Point{X: -1, Y: 2.5}, Max: geom.Point{X: 3, Y: 40}}, b)

	_, err = boxFromStrings("Domain", []string{"0", "0", "x", "1"})
	assert.Error(t, err)

	_, err = boxFromStrings("Domain", []string{"2", "0", "1", "1"})
	assert.EqualError(t, err, "citylifeutil: Domain minimum exceeds its maximum")
}

func TestLoad(t *testing.T) {
	index := scenarioIndex(t, "pmquadtree")
	tree, ok := index.(*citylife.PMQuadTree)
	require.True(t, ok)
	assert.Equal(t, citylife.Stats{Gray: 1, Black: 4, MaxDepth: 1, Geometries: 4, Entries: 7, Splits: 1}, tree.Stats())
	assert.NoError(t, tree.CheckInvariant())

	index = scenarioIndex(t, "rtree")
	rt, ok := index.(*citylife.RTreeIndex)
	require.True(t, ok)
	assert.Equal(t, 4, rt.Len())
}

func TestLoadExtent(t *testing.T) {
	cfg := scenarioConfig(t, "pmquadtree")
	cfg.Set("Domain", []string{})
	c, err := IndexConfigFromViper(cfg)
	require.NoError(t, err)
	index, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &geom.Bounds{Min: geom.Point{X: 1, Y: 1}, Max: geom.Point{X: 6, Y: 6}},
		index.(*citylife.PMQuadTree).Domain())
}

func TestLoadDegenerate(t *testing.T) {
	cfg := viper.New()
	cfg.Set("Index", "pmquadtree")
	cfg.Set("Domain", []string{"0", "0", "8", "8"})
	cfg.Set("MinSize", 1.0)
	cfg.Set("Sources.GeoJSON", []string{writeFile(t, "overlap.geojson", `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {}, "geometry": {"type": "LineString", "coordinates": [[0, 0], [4, 4]]}},
    {"type": "Feature", "properties": {}, "geometry": {"type": "LineString", "coordinates": [[1, 1], [3, 3]]}}
  ]
}`)})
	c, err := IndexConfigFromViper(cfg)
	require.NoError(t, err)
	index, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, index.(*citylife.PMQuadTree).Stats().Degenerate)

	// Building the index directly reports the degenerate leaves.
	tree, err := c.NewIndex(c.Domain)
	require.NoError(t, err)
	gs, err := source.LoadAll(context.Background(), c.Log, c.Sources...)
	require.NoError(t, err)
	var degenerate *citylife.DegenerateInputError
	assert.True(t, errors.As(tree.Build(gs), &degenerate))
}

func TestLoadMissingFile(t *testing.T) {
	cfg := scenarioConfig(t, "pmquadtree")
	cfg.Set("Sources.GeoJSON", []string{filepath.Join(t.TempDir(), "missing.geojson")})
	c, err := IndexConfigFromViper(cfg)
	require.NoError(t, err)
	_, err = c.Load(context.Background())
	assert.Error(t, err)
}
