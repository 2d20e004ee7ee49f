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
	"math"
	"sort"

	"github.com/ctessum/geom"
)

// Predicates evaluates geometric relations. Two points are considered equal
// when both of their coordinates differ by no more than Tolerance; the zero
// value compares exactly.
type Predicates struct {
	Tolerance float64
}

// Equal reports whether a and b are the same location.
func (pr Predicates) Equal(a, b Point) bool {
	if pr.Tolerance <= 0 {
		return a == b
	}
	return math.Abs(a.X-b.X) <= pr.Tolerance && math.Abs(a.Y-b.Y) <= pr.Tolerance
}

// OnSegment reports whether p lies on s, endpoints included.
func (pr Predicates) OnSegment(p Point, s Segment) bool {
	if pr.Tolerance <= 0 {
		return cross(s.A, s.B, p) == 0 && inBox(p, s)
	}
	return distance(p, s) <= pr.Tolerance
}

// InInterior reports whether p lies on s but is neither of its endpoints.
func (pr Predicates) InInterior(p Point, s Segment) bool {
	return pr.OnSegment(p, s) && !pr.Equal(p, s.A) && !pr.Equal(p, s.B)
}

// distance returns the Euclidean distance from p to s.
func distance(p Point, s Segment) float64 {
	r := math.Max(0, math.Min(1, s.param(p)))
	q := s.At(r)
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// shape is a query geometry broken down for predicate evaluation.
type shape struct {
	points   []Point
	segments []Segment
	// ends holds the boundary points of the open line strings.
	ends     []Point
	polygons []geom.Polygon
}

func (sh *shape) line(pts []geom.Point) {
	var last int
	for i := 1; i < len(pts); i++ {
		if pts[i].Equals(pts[last]) {
			continue
		}
		sh.segments = append(sh.segments, Segment{A: Point(pts[last]), B: Point(pts[i])})
		last = i
	}
	if last == 0 {
		if len(pts) > 0 {
			sh.points = append(sh.points, Point(pts[0]))
		}
		return
	}
	if !pts[0].Equals(pts[last]) {
		sh.ends = append(sh.ends, Point(pts[0]), Point(pts[last]))
	}
}

func (sh *shape) add(q geom.Geom) error {
	switch q := q.(type) {
	case geom.Point:
		sh.points = append(sh.points, Point(q))
	case *geom.Point:
		sh.points = append(sh.points, Point(*q))
	case geom.MultiPoint:
		for _, p := range q {
			sh.points = append(sh.points, Point(p))
		}
	case geom.LineString:
		sh.line(q)
	case geom.MultiLineString:
		for _, l := range q {
			sh.line(l)
		}
	case geom.Polygon:
		sh.polygons = append(sh.polygons, q)
	case geom.MultiPolygon:
		sh.polygons = append(sh.polygons, q...)
	case geom.GeometryCollection:
		for _, g := range q {
			if err := sh.add(g); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("geometry: unsupported query geometry type %T", q)
	}
	return nil
}

// Shape prepares q for repeated predicate evaluation.
func Shape(q geom.Geom) (*QueryShape, error) {
	var sh shape
	if err := sh.add(q); err != nil {
		return nil, err
	}
	qs := &QueryShape{shape: sh}
	for _, p := range sh.polygons {
		for _, r := range p {
			n := len(r)
			for i := 0; i < n; i++ {
				a, b := Point(r[i]), Point(r[(i+1)%n])
				if a != b {
					qs.edges = append(qs.edges, Segment{A: a, B: b})
				}
			}
		}
	}
	return qs, nil
}

// QueryShape is a query geometry prepared with Shape.
type QueryShape struct {
	shape
	// edges are the polygon ring edges.
	edges []Segment
}

// Rect returns the polygon covering b.
func Rect(b *geom.Bounds) geom.Polygon {
	return geom.Polygon{[]geom.Point{
		b.Min, {X: b.Max.X, Y: b.Min.Y}, b.Max, {X: b.Min.X, Y: b.Max.Y}, b.Min,
	}}
}

// locate returns where p falls relative to the union of the polygons.
func (qs *QueryShape) locate(p Point) geom.WithinStatus {
	status := geom.Outside
	for _, poly := range qs.polygons {
		switch geom.Point(p).Within(poly) {
		case geom.Inside:
			return geom.Inside
		case geom.OnEdge:
			status = geom.OnEdge
		}
	}
	return status
}

// pieces splits s at every point where it meets a polygon edge and returns
// the location of each piece's midpoint relative to the polygons.
func (pr Predicates) pieces(s Segment, qs *QueryShape) []geom.WithinStatus {
	cuts := []float64{0, 1}
	for _, e := range qs.edges {
		x := pr.SegmentsIntersect(s, e)
		switch x.Relation {
		case SharedEndpoint, ProperCrossing:
			cuts = append(cuts, s.param(x.P))
		case CollinearOverlap:
			cuts = append(cuts, s.param(x.P), s.param(x.Q))
		}
	}
	sort.Float64s(cuts)
	var out []geom.WithinStatus
	for i := 1; i < len(cuts); i++ {
		lo, hi := math.Max(0, cuts[i-1]), math.Min(1, cuts[i])
		if hi <= lo {
			continue
		}
		out = append(out, qs.locate(s.At((lo+hi)/2)))
	}
	return out
}

// Intersects reports whether g and the query shape have any point in common.
func (pr Predicates) Intersects(g Geometry, qs *QueryShape) bool {
	switch g := g.(type) {
	case Point:
		for _, p := range qs.points {
			if pr.Equal(g, p) {
				return true
			}
		}
		for _, s := range qs.segments {
			if pr.OnSegment(g, s) {
				return true
			}
		}
		if len(qs.polygons) > 0 && qs.locate(g) != geom.Outside {
			return true
		}
		for _, e := range qs.edges {
			if pr.OnSegment(g, e) {
				return true
			}
		}
	case Segment:
		for _, p := range qs.points {
			if pr.OnSegment(p, g) {
				return true
			}
		}
		for _, s := range qs.segments {
			if pr.SegmentsIntersect(g, s).Relation != None {
				return true
			}
		}
		if len(qs.polygons) > 0 && qs.locate(g.A) != geom.Outside {
			return true
		}
		for _, e := range qs.edges {
			if pr.SegmentsIntersect(g, e).Relation != None {
				return true
			}
		}
	}
	return false
}

// Meets reports whether g touches the query shape: they have a point in
// common but their interiors are disjoint.
func (pr Predicates) Meets(g Geometry, qs *QueryShape) bool {
	var touch bool
	switch g := g.(type) {
	case Point:
		// A point has no boundary, so it can only touch the boundary of a
		// line or a polygon.
		for _, p := range qs.points {
			if pr.Equal(g, p) {
				return false
			}
		}
		for _, s := range qs.segments {
			if pr.OnSegment(g, s) {
				if !pr.isEnd(g, qs) {
					return false
				}
				touch = true
			}
		}
		if len(qs.polygons) > 0 {
			switch qs.locate(g) {
			case geom.Inside:
				return false
			case geom.OnEdge:
				touch = true
			}
		}
	case Segment:
		for _, p := range qs.points {
			if pr.OnSegment(p, g) {
				if !pr.Equal(p, g.A) && !pr.Equal(p, g.B) {
					return false
				}
				touch = true
			}
		}
		for _, s := range qs.segments {
			x := pr.SegmentsIntersect(g, s)
			switch x.Relation {
			case CollinearOverlap:
				return false
			case ProperCrossing:
				if pr.InInterior(x.P, g) && pr.InInterior(x.P, s) {
					return false
				}
				touch = true
			case SharedEndpoint:
				touch = true
			}
		}
		if len(qs.polygons) > 0 {
			for _, st := range pr.pieces(g, qs) {
				switch st {
				case geom.Inside:
					return false
				case geom.OnEdge:
					touch = true
				}
			}
			for _, p := range [2]Point{g.A, g.B} {
				if qs.locate(p) == geom.OnEdge {
					touch = true
				}
			}
			for _, e := range qs.edges {
				if pr.SegmentsIntersect(g, e).Relation != None {
					touch = true
				}
			}
		}
	}
	return touch
}

// isEnd reports whether p is a boundary point of one of the query lines.
func (pr Predicates) isEnd(p Point, qs *QueryShape) bool {
	for _, e := range qs.ends {
		if pr.Equal(p, e) {
			return true
		}
	}
	return false
}

// Contains reports whether g covers every point of the query shape.
func (pr Predicates) Contains(g Geometry, qs *QueryShape) bool {
	if len(qs.polygons) > 0 {
		return false
	}
	if len(qs.points) == 0 && len(qs.segments) == 0 {
		return false
	}
	switch g := g.(type) {
	case Point:
		if len(qs.segments) > 0 {
			return false
		}
		for _, p := range qs.points {
			if !pr.Equal(g, p) {
				return false
			}
		}
		return true
	case Segment:
		for _, p := range qs.points {
			if !pr.OnSegment(p, g) {
				return false
			}
		}
		for _, s := range qs.segments {
			if !pr.OnSegment(s.A, g) || !pr.OnSegment(s.B, g) {
				return false
			}
		}
		return true
	}
	return false
}

// Within reports whether every point of g is covered by the query shape.
func (pr Predicates) Within(g Geometry, qs *QueryShape) bool {
	switch g := g.(type) {
	case Point:
		return pr.Intersects(g, qs)
	case Segment:
		for _, s := range qs.segments {
			if pr.OnSegment(g.A, s) && pr.OnSegment(g.B, s) {
				return true
			}
		}
		if len(qs.polygons) == 0 {
			return false
		}
		if qs.locate(g.A) == geom.Outside || qs.locate(g.B) == geom.Outside {
			return false
		}
		for _, st := range pr.pieces(g, qs) {
			if st == geom.Outside {
				return false
			}
		}
		return true
	}
	return false
}
