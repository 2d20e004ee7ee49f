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

// Package citylife is a spatial index for city map data. Its main index is a
// PM quadtree: a region quadtree over a fixed square domain in which every
// leaf holds at most one vertex and a set of line segments that do not cross
// inside the leaf. Maps of buildings, parcels and streets are loaded into it
// as points and polygon edges and then searched with point location and
// relational queries.
package citylife

import (
	"github.com/bnq-bernardomarques/citylife/geometry"
	"github.com/ctessum/geom"
)

// Version gives the version number.
const Version = "1.0.0"

// DataStruct is a spatial index over points and segments.
// PMQuadTree and RTreeIndex implement it.
type DataStruct interface {
	// Build adds gs to the index in bulk.
	Build(gs []geometry.Geometry) error

	// Insert adds g to the index. Inserting a geometry that is already
	// stored has no effect.
	Insert(g geometry.Geometry) error

	// Remove deletes g from the index.
	Remove(g geometry.Geometry) error

	// Search locates g in the index and returns the stored geometries
	// that share its location.
	Search(g geometry.Geometry) (*Result, error)

	// IntersectsWith returns the stored geometries that have a point in
	// common with q.
	IntersectsWith(q geom.Geom) (*Result, error)

	// MeetsWith returns the stored geometries that touch q without their
	// interiors intersecting.
	MeetsWith(q geom.Geom) (*Result, error)

	// ContainsQuery returns the stored geometries that cover all of q.
	ContainsQuery(q geom.Geom) (*Result, error)

	// IsContainedByQuery returns the stored geometries lying entirely in q.
	IsContainedByQuery(q geom.Geom) (*Result, error)

	// IsBoundedBy returns the stored geometries whose bounding boxes
	// overlap the closed box b.
	IsBoundedBy(b *geom.Bounds) (*Result, error)
}

// Predicates are the geometric tests an index relies on.
// geometry.Predicates is the default implementation.
type Predicates interface {
	Equal(a, b geometry.Point) bool
	SegmentsIntersect(s, t geometry.Segment) geometry.Intersection
	InInterior(p geometry.Point, s geometry.Segment) bool

	Intersects(g geometry.Geometry, q *geometry.QueryShape) bool
	Meets(g geometry.Geometry, q *geometry.QueryShape) bool
	Contains(g geometry.Geometry, q *geometry.QueryShape) bool
	Within(g geometry.Geometry, q *geometry.QueryShape) bool
}

// checkGeometry returns an InvalidGeometryError if g can not be indexed.
func checkGeometry(g geometry.Geometry) error {
	if g == nil {
		return &InvalidGeometryError{Err: errNilGeometry}
	}
	if err := g.Valid(); err != nil {
		return &InvalidGeometryError{Geometry: g, Err: err}
	}
	return nil
}

// prepare validates the query shape q.
func prepare(q geom.Geom) (*geometry.QueryShape, *geom.Bounds, error) {
	if q == nil {
		return nil, nil, &InvalidGeometryError{Err: errNilGeometry}
	}
	qs, err := geometry.Shape(q)
	if err != nil {
		return nil, nil, &InvalidGeometryError{Geometry: q, Err: err}
	}
	b := q.Bounds()
	if b == nil || !finiteBounds(b) {
		return nil, nil, &InvalidGeometryError{Geometry: q, Err: geometry.ErrNotFinite}
	}
	return qs, b, nil
}

// checkBox validates a query or domain box.
func checkBox(b *geom.Bounds) error {
	if b == nil {
		return &InvalidGeometryError{Err: errNilGeometry}
	}
	if !finiteBounds(b) {
		return &InvalidGeometryError{Geometry: b, Err: geometry.ErrNotFinite}
	}
	if b.Min.X > b.Max.X || b.Min.Y > b.Max.Y {
		return &InvalidGeometryError{Geometry: b, Err: errInvertedBox}
	}
	return nil
}

func finiteBounds(b *geom.Bounds) bool {
	return geometry.Point(b.Min).Valid() == nil && geometry.Point(b.Max).Valid() == nil
}
