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

package citylife

import (
	"github.com/bnq-bernardomarques/citylife/geometry"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
)

// rtreeItem is a stored geometry as held by the R-tree. The tree finds
// items to delete by interface equality, so it wraps the canonical key.
type rtreeItem struct {
	geometry.Geometry
}

// Similar reports whether g holds the same stored geometry.
func (it rtreeItem) Similar(g geom.Geom, _ float64) bool {
	o, ok := g.(rtreeItem)
	return ok && o.Geometry == it.Geometry
}

// Transform implements geom.Geom.
func (it rtreeItem) Transform(t proj.Transformer) (geom.Geom, error) {
	return geometry.ToGeom(it.Geometry).Transform(t)
}

// Len returns the number of vertices.
func (it rtreeItem) Len() int { return geometry.ToGeom(it.Geometry).Len() }

// Points iterates over the vertices.
func (it rtreeItem) Points() func() geom.Point {
	return geometry.ToGeom(it.Geometry).Points()
}

// RTreeIndex is a DataStruct backed by an R-tree. It has no notion of
// leaves, so its results never include any, but it answers the same
// queries as a PMQuadTree over the same domain with the same error
// conventions.
type RTreeIndex struct {
	domain *geom.Bounds
	pred   Predicates
	tree   *rtree.Rtree
	stored map[geometry.Geometry]struct{}
}

// NewRTreeIndex returns an empty R-tree index over domain.
// pred may be nil, in which case geometry.Predicates{} is used.
func NewRTreeIndex(domain *geom.Bounds, pred Predicates) (*RTreeIndex, error) {
	if err := checkBox(domain); err != nil {
		return nil, err
	}
	if pred == nil {
		pred = geometry.Predicates{}
	}
	return &RTreeIndex{
		domain: domain.Copy(),
		pred:   pred,
		tree:   rtree.NewTree(25, 50),
		stored: make(map[geometry.Geometry]struct{}),
	}, nil
}

// Len returns the number of stored geometries.
func (r *RTreeIndex) Len() int { return len(r.stored) }

func (r *RTreeIndex) admit(g geometry.Geometry) (bool, error) {
	if err := checkGeometry(g); err != nil {
		return false, err
	}
	if !within(r.domain, g) {
		return false, &OutOfDomainError{Geometry: g, Domain: *r.domain}
	}
	_, ok := r.stored[geometry.Key(g)]
	return ok, nil
}

// Build implements DataStruct.
func (r *RTreeIndex) Build(gs []geometry.Geometry) error {
	for _, g := range gs {
		if _, err := r.admit(g); err != nil {
			return err
		}
	}
	for _, g := range gs {
		r.add(g)
	}
	return nil
}

// Insert implements DataStruct.
func (r *RTreeIndex) Insert(g geometry.Geometry) error {
	if _, err := r.admit(g); err != nil {
		return err
	}
	r.add(g)
	return nil
}

func (r *RTreeIndex) add(g geometry.Geometry) {
	k := geometry.Key(g)
	if _, ok := r.stored[k]; ok {
		return
	}
	r.stored[k] = struct{}{}
	r.tree.Insert(rtreeItem{k})
}

// Remove implements DataStruct.
func (r *RTreeIndex) Remove(g geometry.Geometry) error {
	if err := checkGeometry(g); err != nil {
		return err
	}
	k := geometry.Key(g)
	if _, ok := r.stored[k]; !ok {
		return &NotFoundError{Geometry: g}
	}
	delete(r.stored, k)
	r.tree.Delete(rtreeItem{k})
	return nil
}

// candidates returns the stored geometries whose bounds overlap b.
func (r *RTreeIndex) candidates(b *geom.Bounds) []geometry.Geometry {
	var out []geometry.Geometry
	for _, s := range r.tree.SearchIntersect(b) {
		g := s.(rtreeItem).Geometry
		// Deleted items can linger in the tree.
		if _, ok := r.stored[g]; ok {
			out = append(out, g)
		}
	}
	return out
}

// Search implements DataStruct. It returns the stored geometries that
// have a point in common with g.
func (r *RTreeIndex) Search(g geometry.Geometry) (*Result, error) {
	if err := checkGeometry(g); err != nil {
		return nil, err
	}
	if !within(r.domain, g) {
		return nil, &OutOfDomainError{Geometry: g, Domain: *r.domain}
	}
	return r.run(geometry.ToGeom(g), Predicates.Intersects)
}

func (r *RTreeIndex) run(q geom.Geom, match func(Predicates, geometry.Geometry, *geometry.QueryShape) bool) (*Result, error) {
	qs, b, err := prepare(q)
	if err != nil {
		return nil, err
	}
	return r.collect(b, func(g geometry.Geometry) bool { return match(r.pred, g, qs) }), nil
}

func (r *RTreeIndex) collect(b *geom.Bounds, match func(geometry.Geometry) bool) *Result {
	res := new(Result)
	for _, g := range r.candidates(b) {
		if match(g) {
			res.Geometries = append(res.Geometries, g)
		}
	}
	return res
}

// IntersectsWith implements DataStruct.
func (r *RTreeIndex) IntersectsWith(q geom.Geom) (*Result, error) {
	return r.run(q, Predicates.Intersects)
}

// MeetsWith implements DataStruct.
func (r *RTreeIndex) MeetsWith(q geom.Geom) (*Result, error) {
	return r.run(q, Predicates.Meets)
}

// ContainsQuery implements DataStruct.
func (r *RTreeIndex) ContainsQuery(q geom.Geom) (*Result, error) {
	return r.run(q, Predicates.Contains)
}

// IsContainedByQuery implements DataStruct.
func (r *RTreeIndex) IsContainedByQuery(q geom.Geom) (*Result, error) {
	return r.run(q, Predicates.Within)
}

// IsBoundedBy implements DataStruct. It returns the stored geometries
// whose bounding boxes overlap the closed box b.
func (r *RTreeIndex) IsBoundedBy(b *geom.Bounds) (*Result, error) {
	if err := checkBox(b); err != nil {
		return nil, err
	}
	return r.collect(b, func(g geometry.Geometry) bool { return g.Bounds().Overlaps(b) }), nil
}
