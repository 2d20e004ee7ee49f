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
)

// Result holds the outcome of a search or query.
type Result struct {
	// Geometries are the matching stored geometries, each listed once.
	Geometries []geometry.Geometry

	// Leaves are the leaves the search reached or the query inspected.
	// Indexes without leaves leave this empty.
	Leaves []Leaf
}

// Len returns the number of matching geometries.
func (r *Result) Len() int { return len(r.Geometries) }

// Leaf is a snapshot of a quadtree leaf.
type Leaf struct {
	Kind       NodeKind
	Square     geom.Bounds
	Depth      int
	Geometries []geometry.Geometry
	Degenerate bool
}

func snapshot(n *node) Leaf {
	return Leaf{
		Kind:       n.kind,
		Square:     *n.square,
		Depth:      n.depth,
		Geometries: append([]geometry.Geometry(nil), n.dictionary...),
		Degenerate: n.degenerate,
	}
}

// accumulator collects query results, evaluating each stored geometry at
// most once even though segments may be held by many leaves.
type accumulator struct {
	result  Result
	checked map[geometry.Geometry]struct{}
}

func newAccumulator() *accumulator {
	return &accumulator{checked: make(map[geometry.Geometry]struct{})}
}

func (a *accumulator) leaf(n *node) {
	a.result.Leaves = append(a.result.Leaves, snapshot(n))
}

// consider adds g to the result if it has not been evaluated yet and match
// accepts it.
func (a *accumulator) consider(g geometry.Geometry, match func(geometry.Geometry) bool) {
	k := geometry.Key(g)
	if _, ok := a.checked[k]; ok {
		return
	}
	a.checked[k] = struct{}{}
	if match(g) {
		a.result.Geometries = append(a.result.Geometries, g)
	}
}

// relation is a query: prune decides whether a subtree over a square can
// hold matches, and match decides whether a stored geometry is one. prune
// must accept every square that contains a leaf holding a match.
type relation struct {
	prune func(square *geom.Bounds) bool
	match func(g geometry.Geometry) bool
}

// query descends from n into every square accepted by r.prune and tests the
// geometries of the Black leaves it reaches.
func (n *node) query(r relation, a *accumulator) {
	if !r.prune(n.square) {
		return
	}
	switch n.kind {
	case Gray:
		for _, c := range n.children {
			c.query(r, a)
		}
	case Black:
		a.leaf(n)
		for _, g := range n.dictionary {
			a.consider(g, r.match)
		}
	}
}

// search collects the leaves g belongs to, along with their geometries.
func (n *node) search(g geometry.Geometry, a *accumulator) {
	if n.kind != Gray {
		a.leaf(n)
		for _, h := range n.dictionary {
			a.consider(h, func(geometry.Geometry) bool { return true })
		}
		return
	}
	for _, i := range n.route(g) {
		n.children[i].search(g, a)
	}
}
