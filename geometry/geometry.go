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

// Package geometry holds the shapes stored in a citylife index and the
// predicates used to relate them to each other and to query shapes.
//
// An index only ever stores two kinds of geometry: Points and straight line
// Segments. Richer shapes such as polygons and line strings are broken down
// into those with Decompose.
package geometry

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// Geometry is a shape that can be held in an index.
// It is implemented by Point and Segment.
type Geometry interface {
	// Bounds returns the bounding box of the geometry.
	Bounds() *geom.Bounds

	// Valid returns an error if the geometry can not be indexed.
	Valid() error

	isGeometry()
}

var (
	// ErrNotFinite is returned by Valid when a coordinate is NaN or infinite.
	ErrNotFinite = errors.New("coordinate is not a finite number")

	// ErrZeroLength is returned by Valid for a segment whose endpoints are equal.
	ErrZeroLength = errors.New("segment has zero length")
)

// Point is a location in the plane.
type Point geom.Point

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Bounds implements Geometry.
func (p Point) Bounds() *geom.Bounds { return geom.NewBoundsPoint(geom.Point(p)) }

// Valid implements Geometry.
func (p Point) Valid() error {
	if !finite(p.X) || !finite(p.Y) {
		return ErrNotFinite
	}
	return nil
}

func (p Point) String() string { return fmt.Sprintf("POINT (%g %g)", p.X, p.Y) }

func (Point) isGeometry() {}

// Segment is the closed straight line between A and B.
type Segment struct {
	A, B Point
}

// Seg is shorthand for a Segment from (x0, y0) to (x1, y1).
func Seg(x0, y0, x1, y1 float64) Segment {
	return Segment{A: Pt(x0, y0), B: Pt(x1, y1)}
}

// Bounds implements Geometry.
func (s Segment) Bounds() *geom.Bounds {
	b := geom.NewBoundsPoint(geom.Point(s.A))
	b.Extend(geom.NewBoundsPoint(geom.Point(s.B)))
	return b
}

// Valid implements Geometry.
func (s Segment) Valid() error {
	if err := s.A.Valid(); err != nil {
		return err
	}
	if err := s.B.Valid(); err != nil {
		return err
	}
	if s.A == s.B {
		return ErrZeroLength
	}
	return nil
}

// Length returns the Euclidean length of s.
func (s Segment) Length() float64 {
	return math.Hypot(s.B.X-s.A.X, s.B.Y-s.A.Y)
}

// At returns the point a fraction r of the way from s.A to s.B.
func (s Segment) At(r float64) Point {
	return Point{X: s.A.X + r*(s.B.X-s.A.X), Y: s.A.Y + r*(s.B.Y-s.A.Y)}
}

// param returns the position of p projected onto the line through s,
// where 0 is s.A and 1 is s.B.
func (s Segment) param(p Point) float64 {
	dx, dy := s.B.X-s.A.X, s.B.Y-s.A.Y
	return ((p.X-s.A.X)*dx + (p.Y-s.A.Y)*dy) / (dx*dx + dy*dy)
}

func (s Segment) String() string {
	return fmt.Sprintf("LINESTRING (%g %g, %g %g)", s.A.X, s.A.Y, s.B.X, s.B.Y)
}

func (Segment) isGeometry() {}

// Key returns a canonical, comparable form of g: two geometries
// describe the same shape exactly when their keys are equal. Segments are
// oriented so that the lexicographically smaller endpoint comes first.
func Key(g Geometry) Geometry {
	s, ok := g.(Segment)
	if !ok {
		return g
	}
	if s.B.X < s.A.X || (s.B.X == s.A.X && s.B.Y < s.A.Y) {
		s.A, s.B = s.B, s.A
	}
	return s
}

// Same reports whether a and b describe the same shape.
func Same(a, b Geometry) bool { return Key(a) == Key(b) }

// ToGeom converts g to the equivalent ctessum/geom shape:
// a geom.Point or a two-vertex geom.LineString.
func ToGeom(g Geometry) geom.Geom {
	switch g := g.(type) {
	case Point:
		return geom.Point(g)
	case Segment:
		return geom.LineString{geom.Point(g.A), geom.Point(g.B)}
	default:
		panic(fmt.Errorf("geometry: unsupported type %T", g))
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
