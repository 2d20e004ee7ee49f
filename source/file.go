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

package source

import (
	"context"
	"fmt"
	"os"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/segmentio/encoding/json"
)

// Shapefile reads the shapes of an ESRI shapefile. Attribute columns are
// ignored.
type Shapefile struct {
	Path string
}

func (s Shapefile) String() string { return "shapefile " + s.Path }

// Geometries implements Source.
func (s Shapefile) Geometries(ctx context.Context) ([]geom.Geom, error) {
	d, err := shp.NewDecoder(s.Path)
	if err != nil {
		return nil, fmt.Errorf("source: opening shapefile: %v", err)
	}
	defer d.Close()

	var out []geom.Geom
	for {
		g, _, more := d.DecodeRowFields()
		if !more {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if g == nil {
			continue
		}
		out = append(out, g)
	}
	if err := d.Error(); err != nil {
		return nil, fmt.Errorf("source: reading shapefile %s: %v", s.Path, err)
	}
	return out, nil
}

// GeoJSON reads a GeoJSON file holding a single geometry, a Feature or a
// FeatureCollection. Features without geometry are skipped.
type GeoJSON struct {
	Path string
}

func (s GeoJSON) String() string { return "geojson " + s.Path }

// Geometries implements Source.
func (s GeoJSON) Geometries(ctx context.Context) ([]geom.Geom, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("source: %v", err)
	}
	gs, err := DecodeGeoJSON(b)
	if err != nil {
		return nil, fmt.Errorf("source: %s: %w", s.Path, err)
	}
	return gs, nil
}

type feature struct {
	Type     string            `json:"type"`
	Geometry *geojson.Geometry `json:"geometry"`
}

type document struct {
	feature
	Features []feature `json:"features"`
}

// DecodeGeoJSON decodes a GeoJSON geometry, Feature or FeatureCollection.
func DecodeGeoJSON(b []byte) ([]geom.Geom, error) {
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decoding GeoJSON: %v", err)
	}
	switch doc.Type {
	case "FeatureCollection":
		var out []geom.Geom
		for i, f := range doc.Features {
			if f.Geometry == nil {
				continue
			}
			g, err := geojson.FromGeoJSON(f.Geometry)
			if err != nil {
				return nil, fmt.Errorf("feature %d: %v", i, err)
			}
			out = append(out, g)
		}
		return out, nil
	case "Feature":
		if doc.Geometry == nil {
			return nil, nil
		}
		g, err := geojson.FromGeoJSON(doc.Geometry)
		if err != nil {
			return nil, err
		}
		return []geom.Geom{g}, nil
	case "":
		return nil, fmt.Errorf("GeoJSON object has no type")
	default:
		g, err := geojson.Decode(b)
		if err != nil {
			return nil, err
		}
		return []geom.Geom{g}, nil
	}
}
