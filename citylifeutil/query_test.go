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
	"bytes"
	"fmt"
	"testing"

	"github.com/bnq-bernardomarques/citylife"
	"github.com/bnq-bernardomarques/citylife/source"
	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuery(t *testing.T) {
	g, err := ParseQuery(`{"type": "Point", "coordinates": [1, 2]}`)
	require.NoError(t, err)
	assert.Equal(t, geom.Point{X: 1, Y: 2}, g)

	g, err = ParseQuery(`{"type": "FeatureCollection", "features": [
		{"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [1, 2]}},
		{"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [3, 4]}}]}`)
	require.NoError(t, err)
	assert.Equal(t, geom.GeometryCollection{geom.Point{X: 1, Y: 2}, geom.Point{X: 3, Y: 4}}, g)

	_, err = ParseQuery(`{"type": "FeatureCollection", "features": []}`)
	assert.EqualError(t, err, "citylifeutil: query geometry is empty")

	_, err = ParseQuery(`not json`)
	assert.Error(t, err)

	g, err = queryGeometry("  ")
	assert.NoError(t, err)
	assert.Nil(t, g)
}

func TestRunQuery(t *testing.T) {
	corner := geom.Polygon{[]geom.Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}, {X: 0, Y: 0}}}
	tests := []struct {
		kind  string
		q     geom.Geom
		box   *geom.Bounds
		count int
	}{
		{kind: "search", q: geom.Point{X: 1, Y: 1}, count: 3},
		{kind: "intersects", q: geom.Point{X: 4, Y: 4}, count: 2},
		{kind: "Meets", q: geom.Point{X: 6, Y: 6}, count: 1},
		{kind: "contains", q: geom.LineString{{X: 2, Y: 2}, {X: 3, Y: 3}}, count: 1},
		{kind: "within", q: corner, count: 1},
		{kind: "bounded", box: &geom.Bounds{Max: geom.Point{X: 1.5, Y: 1.5}}, count: 3},
		{kind: "bounded", q: corner, count: 4},
	}
	for _, kind := range []string{"pmquadtree", "rtree"} {
		index := scenarioIndex(t, kind)
		for _, test := range tests {
			t.Run(fmt.Sprintf("%s %s %v", kind, test.kind, test.q), func(t *testing.T) {
				r, err := RunQuery(index, test.kind, test.q, test.box)
				require.NoError(t, err)
				assert.Equal(t, test.count, r.Len())
			})
		}
		t.Run(kind+" errors", func(t *testing.T) {
			_, err := RunQuery(index, "nearest", geom.Point{X: 1, Y: 1}, nil)
			assert.Error(t, err)
			_, err = RunQuery(index, "search", nil, nil)
			assert.EqualError(t, err, "citylifeutil: search query needs a geometry")
			_, err = RunQuery(index, "bounded", nil, nil)
			assert.Error(t, err)
			_, err = RunQuery(index, "search", corner, nil)
			assert.Error(t, err)
			_, err = RunQuery(index, "search", geom.Point{X: 9, Y: 9}, nil)
			var outside *citylife.OutOfDomainError
			assert.ErrorAs(t, err, &outside)
		})
	}
}

func TestToFeatures(t *testing.T) {
	index := scenarioIndex(t, "pmquadtree")
	r, err := RunQuery(index, "search", geom.Point{X: 1, Y: 1}, nil)
	require.NoError(t, err)
	fc, err := ToFeatures(r)
	require.NoError(t, err)
	require.Len(t, fc.Features, 4)
	for _, f := range fc.Features[:3] {
		assert.Equal(t, "match", f.Properties["role"])
	}
	leaf := fc.Features[3]
	assert.Equal(t, "Polygon", leaf.Geometry.Type)
	assert.Equal(t, map[string]interface{}{
		"role":       "leaf",
		"color":      "black",
		"depth":      1,
		"geometries": 3,
		"degenerate": false,
	}, leaf.Properties)

	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(&buf, r))
	gs, err := source.DecodeGeoJSON(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, gs, 4)
	assert.Equal(t, &geom.Bounds{Max: geom.Point{X: 4, Y: 4}}, gs[3].Bounds())
}
