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
	"fmt"
	"io"
	"strings"

	"github.com/bnq-bernardomarques/citylife"
	"github.com/bnq-bernardomarques/citylife/geometry"
	"github.com/bnq-bernardomarques/citylife/source"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/segmentio/encoding/json"
)

// QueryKinds are the queries RunQuery understands.
var QueryKinds = []string{"search", "intersects", "meets", "contains", "within", "bounded"}

// ParseQuery decodes an inline GeoJSON query geometry. Feature collections
// holding several geometries become a geom.GeometryCollection.
func ParseQuery(s string) (geom.Geom, error) {
	gs, err := source.DecodeGeoJSON([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("citylifeutil: query geometry: %v", err)
	}
	switch len(gs) {
	case 0:
		return nil, fmt.Errorf("citylifeutil: query geometry is empty")
	case 1:
		return gs[0], nil
	default:
		return geom.GeometryCollection(gs), nil
	}
}

// queryGeometry parses s with ParseQuery, returning nil for "".
func queryGeometry(s string) (geom.Geom, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return ParseQuery(s)
}

// RunQuery runs the query named kind against index. q is the query
// geometry and box the query box, which is only used by "bounded"
// queries; when box is nil the bounds of q are used instead.
func RunQuery(index citylife.DataStruct, kind string, q geom.Geom, box *geom.Bounds) (*citylife.Result, error) {
	kind = strings.ToLower(kind)
	if kind == "bounded" {
		if box == nil {
			if q == nil {
				return nil, fmt.Errorf("citylifeutil: bounded query needs a box or a geometry")
			}
			box = q.Bounds()
		}
		return index.IsBoundedBy(box)
	}
	if q == nil {
		return nil, fmt.Errorf("citylifeutil: %s query needs a geometry", kind)
	}
	switch kind {
	case "search":
		gs, err := geometry.Decompose(q)
		if err != nil {
			return nil, err
		}
		if len(gs) != 1 {
			return nil, fmt.Errorf("citylifeutil: search needs a single point or segment, not %d geometries", len(gs))
		}
		return index.Search(gs[0])
	case "intersects":
		return index.IntersectsWith(q)
	case "meets":
		return index.MeetsWith(q)
	case "contains":
		return index.ContainsQuery(q)
	case "within":
		return index.IsContainedByQuery(q)
	default:
		return nil, fmt.Errorf("citylifeutil: unknown query %q; choose one of %s", kind, strings.Join(QueryKinds, ", "))
	}
}

// Feature is a GeoJSON feature.
type Feature struct {
	Type       string                 `json:"type"`
	Geometry   *geojson.Geometry      `json:"geometry"`
	Properties map[string]interface{} `json:"properties"`
}

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// ToFeatures converts r into GeoJSON: one feature per matching geometry,
// followed by one polygon per leaf, for display.
func ToFeatures(r *citylife.Result) (*FeatureCollection, error) {
	fc := &FeatureCollection{Type: "FeatureCollection", Features: []*Feature{}}
	for _, g := range r.Geometries {
		js, err := geojson.ToGeoJSON(geometry.ToGeom(g))
		if err != nil {
			return nil, fmt.Errorf("citylifeutil: encoding %v: %v", g, err)
		}
		fc.Features = append(fc.Features, &Feature{
			Type:       "Feature",
			Geometry:   js,
			Properties: map[string]interface{}{"role": "match"},
		})
	}
	for _, l := range r.Leaves {
		sq := l.Square
		js, err := geojson.ToGeoJSON(geometry.Rect(&sq))
		if err != nil {
			return nil, fmt.Errorf("citylifeutil: encoding leaf %v: %v", l.Square, err)
		}
		fc.Features = append(fc.Features, &Feature{
			Type:     "Feature",
			Geometry: js,
			Properties: map[string]interface{}{
				"role":       "leaf",
				"color":      l.Kind.String(),
				"depth":      l.Depth,
				"geometries": len(l.Geometries),
				"degenerate": l.Degenerate,
			},
		})
	}
	return fc, nil
}

// WriteGeoJSON writes r to w as a GeoJSON feature collection.
func WriteGeoJSON(w io.Writer, r *citylife.Result) error {
	fc, err := ToFeatures(r)
	if err != nil {
		return err
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(fc)
}
