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
)

// Relation classifies how two segments meet.
type Relation int

const (
	// None means the segments have no point in common.
	None Relation = iota

	// SharedEndpoint means the only common point is an endpoint of both.
	SharedEndpoint

	// ProperCrossing means the segments have exactly one common point and it
	// is not an endpoint of both. Touching configurations where an endpoint of
	// one segment lies in the interior of the other are included.
	ProperCrossing

	// CollinearOverlap means the segments share a piece of positive length.
	CollinearOverlap
)

func (r Relation) String() string {
	switch r {
	case None:
		return "none"
	case SharedEndpoint:
		return "shared endpoint"
	case ProperCrossing:
		return "crossing"
	case CollinearOverlap:
		return "collinear overlap"
	default:
		return fmt.Sprintf("Relation(%d)", int(r))
	}
}

// Intersection describes the common part of two segments.
// For SharedEndpoint and ProperCrossing, P is the common point.
// For CollinearOverlap, P and Q are the ends of the shared piece.
type Intersection struct {
	Relation Relation
	P, Q     Point
}

// cross returns the z component of (b-a) x (c-a).
func cross(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// inBox reports whether p lies in the bounding box of s.
func inBox(p Point, s Segment) bool {
	return p.X >= math.Min(s.A.X, s.B.X) && p.X <= math.Max(s.A.X, s.B.X) &&
		p.Y >= math.Min(s.A.Y, s.B.Y) && p.Y <= math.Max(s.A.Y, s.B.Y)
}

// SegmentsIntersect classifies the intersection of s and t.
func (pr Predicates) SegmentsIntersect(s, t Segment) Intersection {
	if !s.Bounds().Overlaps(t.Bounds()) && !pr.near(s, t) {
		return Intersection{}
	}
	d1, d2 := sign(cross(t.A, t.B, s.A)), sign(cross(t.A, t.B, s.B))
	d3, d4 := sign(cross(s.A, s.B, t.A)), sign(cross(s.A, s.B, t.B))

	if d1 == 0 && d2 == 0 && d3 == 0 && d4 == 0 {
		return pr.collinear(s, t)
	}

	// Two segments on different lines meet at most once, so a common
	// endpoint is the whole intersection.
	for _, p := range [2]Point{s.A, s.B} {
		for _, q := range [2]Point{t.A, t.B} {
			if pr.Equal(p, q) {
				return Intersection{Relation: SharedEndpoint, P: p}
			}
		}
	}

	if d1*d2 < 0 && d3*d4 < 0 {
		return Intersection{Relation: ProperCrossing, P: crossingPoint(s, t)}
	}
	switch {
	case d1 == 0 && inBox(s.A, t):
		return Intersection{Relation: ProperCrossing, P: s.A}
	case d2 == 0 && inBox(s.B, t):
		return Intersection{Relation: ProperCrossing, P: s.B}
	case d3 == 0 && inBox(t.A, s):
		return Intersection{Relation: ProperCrossing, P: t.A}
	case d4 == 0 && inBox(t.B, s):
		return Intersection{Relation: ProperCrossing, P: t.B}
	}
	if pr.Tolerance > 0 {
		// Endpoints within tolerance of the other segment touch it.
		for _, c := range [4]struct {
			p Point
			s Segment
		}{{s.A, t}, {s.B, t}, {t.A, s}, {t.B, s}} {
			if pr.OnSegment(c.p, c.s) {
				return Intersection{Relation: ProperCrossing, P: c.p}
			}
		}
	}
	return Intersection{}
}

// near reports whether the boxes of s and t are within tolerance.
func (pr Predicates) near(s, t Segment) bool {
	if pr.Tolerance <= 0 {
		return false
	}
	b := s.Bounds()
	b.Min.X -= pr.Tolerance
	b.Min.Y -= pr.Tolerance
	b.Max.X += pr.Tolerance
	b.Max.Y += pr.Tolerance
	return b.Overlaps(t.Bounds())
}

// crossingPoint returns the intersection of the lines through s and t,
// which must not be parallel.
func crossingPoint(s, t Segment) Point {
	dsx, dsy := s.B.X-s.A.X, s.B.Y-s.A.Y
	dtx, dty := t.B.X-t.A.X, t.B.Y-t.A.Y
	ex, ey := t.A.X-s.A.X, t.A.Y-s.A.Y
	r := (ex*dty - ey*dtx) / (dsx*dty - dsy*dtx)
	return s.At(r)
}

// collinear handles two segments lying on the same line.
func (pr Predicates) collinear(s, t Segment) Intersection {
	ta, tb := s.param(t.A), s.param(t.B)
	if ta > tb {
		ta, tb = tb, ta
	}
	lo, hi := math.Max(0, ta), math.Min(1, tb)
	if lo > hi {
		return Intersection{}
	}
	p, q := s.At(lo), s.At(hi)
	// Use the exact input vertices at the ends of the shared piece.
	for _, v := range [4]Point{s.A, s.B, t.A, t.B} {
		if pr.Equal(v, p) {
			p = v
		}
		if pr.Equal(v, q) {
			q = v
		}
	}
	if lo == hi || pr.Equal(p, q) {
		return Intersection{Relation: SharedEndpoint, P: p}
	}
	return Intersection{Relation: CollinearOverlap, P: p, Q: q}
}
