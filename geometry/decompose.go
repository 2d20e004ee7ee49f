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

package geometry

import (
	"fmt"

	"github.com/ctessum/geom"
)

// Decompose breaks g down into the Points and Segments an index can hold.
// Points and multi-points become Points; line strings become one Segment per
// pair of consecutive vertices; polygon rings become their edges, with the
// closing edge added when the ring is not explicitly closed. Consecutive
// duplicate vertices are skipped and repeated output is dropped, so a ring
// traced twice yields its edges once.
func Decompose(g geom.Geom) ([]Geometry, error) {
	d := decomposer{seen: make(map[Geometry]struct{})}
	if err := d.add(g); err != nil {
		return nil, err
	}
	return d.out, nil
}

type decomposer struct {
	out  []Geometry
	seen map[Geometry]struct{}
}

func (d *decomposer) emit(g Geometry) {
	k := Key(g)
	if _, ok := d.seen[k]; ok {
		return
	}
	d.seen[k] = struct{}{}
	d.out = append(d.out, g)
}

func (d *decomposer) path(pts []geom.Point, closed bool) {
	n := len(pts)
	if closed && n > 1 && pts[0].Equals(pts[n-1]) {
		n--
	}
	if n == 0 {
		return
	}
	var last int
	for i := 1; i < n; i++ {
		if pts[i].Equals(pts[last]) {
			continue
		}
		d.emit(Segment{A: Point(pts[last]), B: Point(pts[i])})
		last = i
	}
	switch {
	case last == 0:
		// Every vertex is the same location.
		d.emit(Point(pts[0]))
	case closed && !pts[last].Equals(pts[0]):
		d.emit(Segment{A: Point(pts[last]), B: Point(pts[0])})
	}
}

func (d *decomposer) add(g geom.Geom) error {
	switch g := g.(type) {
	case geom.Point:
		d.emit(Point(g))
	case *geom.Point:
		d.emit(Point(*g))
	case geom.MultiPoint:
		for _, p := range g {
			d.emit(Point(p))
		}
	case geom.LineString:
		d.path(g, false)
	case geom.MultiLineString:
		for _, l := range g {
			d.path(l, false)
		}
	case geom.Polygon:
		for _, r := range g {
			d.path(r, true)
		}
	case geom.MultiPolygon:
		for _, p := range g {
			for _, r := range p {
				d.path(r, true)
			}
		}
	case geom.GeometryCollection:
		for _, gg := range g {
			if err := d.add(gg); err != nil {
				return err
			}
		}
	case nil:
		return fmt.Errorf("geometry: cannot decompose nil geometry")
	default:
		return fmt.Errorf("geometry: cannot decompose geometry of type %T", g)
	}
	return nil
}
