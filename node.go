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
	"fmt"

	"github.com/bnq-bernardomarques/citylife/geometry"
	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
)

// NodeKind is the color of a quadtree node.
type NodeKind int

const (
	// White nodes are empty leaves.
	White NodeKind = iota
	// Gray nodes are interior nodes with four children.
	Gray
	// Black nodes are leaves holding geometry.
	Black
)

func (k NodeKind) String() string {
	switch k {
	case White:
		return "white"
	case Gray:
		return "gray"
	case Black:
		return "black"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// env holds the tree-wide settings the nodes consult.
type env struct {
	pred    Predicates
	minSize float64
	log     logrus.FieldLogger
	splits  int
	merges  int
}

// node is a cell of a PM quadtree.
type node struct {
	kind   NodeKind
	square *geom.Bounds
	depth  int

	// dictionary holds the unclipped geometries that belong to the square
	// of a Black node.
	dictionary []geometry.Geometry

	// children is set for Gray nodes only.
	children *[4]*node

	// degenerate is set on Black nodes that violate the PM invariant but
	// are too small to split.
	degenerate bool
}

func newNode(square *geom.Bounds, depth int) *node {
	return &node{kind: White, square: square, depth: depth}
}

// contents returns the vertex and segments held by n.
func (n *node) contents() (vertex *geometry.Point, segments []geometry.Segment) {
	for _, g := range n.dictionary {
		switch g := g.(type) {
		case geometry.Point:
			if vertex == nil {
				v := g
				vertex = &v
			}
		case geometry.Segment:
			segments = append(segments, g)
		}
	}
	return vertex, segments
}

// validateGeometry reports whether adding g to the dictionary of n
// would keep the PM invariant.
func (n *node) validateGeometry(e *env, g geometry.Geometry) bool {
	vertex, segments := n.contents()
	switch g := g.(type) {
	case geometry.Point:
		if vertex != nil && !e.pred.Equal(*vertex, g) {
			return false
		}
		for _, s := range segments {
			if n.passesThrough(e, g, s) {
				return false
			}
		}
		return true
	case geometry.Segment:
		return n.validateVertexSharing(e, vertex, segments, g)
	}
	return false
}

// validateVertexSharing reports whether candidate can join the existing
// segments and vertex of n. Segments may meet at a common endpoint or
// anywhere outside of the interior of the square, but may not cross inside
// it or overlap within it. The candidate may not pass through the vertex.
func (n *node) validateVertexSharing(e *env, vertex *geometry.Point, existing []geometry.Segment, candidate geometry.Segment) bool {
	if vertex != nil && n.passesThrough(e, *vertex, candidate) {
		return false
	}
	for _, s := range existing {
		x := e.pred.SegmentsIntersect(s, candidate)
		switch x.Relation {
		case geometry.ProperCrossing:
			if interior(n.square, x.P) {
				return false
			}
		case geometry.CollinearOverlap:
			if crosses(n.square, geometry.Segment{A: x.P, B: x.Q}) {
				return false
			}
		}
	}
	return true
}

// passesThrough reports whether s runs through the vertex p inside the
// square of n.
func (n *node) passesThrough(e *env, p geometry.Point, s geometry.Segment) bool {
	return interior(n.square, p) && e.pred.InInterior(p, s)
}

// valid reports whether gs could be held together by a leaf over n's square.
func (n *node) valid(e *env, gs []geometry.Geometry) bool {
	probe := &node{square: n.square}
	for _, g := range gs {
		if !probe.validateGeometry(e, g) {
			return false
		}
		probe.dictionary = append(probe.dictionary, g)
	}
	return true
}

// holds reports whether g is in the dictionary of n.
func (n *node) holds(g geometry.Geometry) bool {
	return n.index(g) >= 0
}

func (n *node) index(g geometry.Geometry) int {
	k := geometry.Key(g)
	for i, h := range n.dictionary {
		if geometry.Key(h) == k {
			return i
		}
	}
	return -1
}

// route returns the indices of the children of n that g belongs to. A point
// belongs to the first quadrant, in NW, NE, SE, SW order, whose closed
// square contains it; a segment belongs to every quadrant in which it has a
// piece of positive length.
func (n *node) route(g geometry.Geometry) []int {
	var idx []int
	for i, c := range n.children {
		switch g := g.(type) {
		case geometry.Point:
			if contains(c.square, g) {
				return []int{i}
			}
		case geometry.Segment:
			if crosses(c.square, g) {
				idx = append(idx, i)
			}
		}
	}
	return idx
}

// insert adds g to the subtree rooted at n, splitting leaves that no
// longer satisfy the PM invariant.
func (n *node) insert(e *env, g geometry.Geometry) error {
	switch n.kind {
	case Gray:
		var err error
		for _, i := range n.route(g) {
			if err2 := n.children[i].insert(e, g); err2 != nil && err == nil {
				err = err2
			}
		}
		return err
	case White:
		n.kind = Black
		n.dictionary = []geometry.Geometry{g}
		return nil
	}
	if n.holds(g) {
		return nil
	}
	ok := n.validateGeometry(e, g)
	n.dictionary = append(n.dictionary, g)
	if ok {
		return nil
	}
	return n.split(e)
}

// split turns the Black node n into a Gray node, handing its geometries to
// the new children. Children that still violate the PM invariant are split
// in turn.
func (n *node) split(e *env) error {
	if !divisible(n.square, e.minSize) {
		n.degenerate = true
		e.log.WithFields(logrus.Fields{
			"square":     n.square,
			"depth":      n.depth,
			"geometries": len(n.dictionary),
		}).Warn("citylife: hit minimum cell size")
		return &DegenerateInputError{Square: *n.square, Depth: n.depth, Geometries: len(n.dictionary)}
	}
	e.splits++
	e.log.WithFields(logrus.Fields{
		"square": n.square,
		"depth":  n.depth,
	}).Debug("citylife: splitting leaf")

	var children [4]*node
	for i, q := range quadrants(n.square) {
		children[i] = newNode(q, n.depth+1)
	}
	dictionary := n.dictionary
	n.kind, n.children, n.dictionary, n.degenerate = Gray, &children, nil, false

	var err error
	for _, g := range dictionary {
		for _, i := range n.route(g) {
			if err2 := children[i].insert(e, g); err2 != nil && err == nil {
				err = err2
			}
		}
	}
	return err
}

// remove deletes g from the subtree rooted at n and reports whether it was
// found. Gray nodes whose children can be held by a single leaf are merged
// on the way back up.
func (n *node) remove(e *env, g geometry.Geometry) bool {
	switch n.kind {
	case White:
		return false
	case Black:
		i := n.index(g)
		if i < 0 {
			return false
		}
		n.dictionary = append(n.dictionary[:i], n.dictionary[i+1:]...)
		if len(n.dictionary) == 0 {
			n.kind, n.dictionary, n.degenerate = White, nil, false
		} else if n.degenerate && n.valid(e, n.dictionary) {
			n.degenerate = false
		}
		return true
	}
	var found bool
	for _, i := range n.route(g) {
		if n.children[i].remove(e, g) {
			found = true
		}
	}
	if found {
		n.merge(e)
	}
	return found
}

// merge collapses a Gray node whose children are all leaves into a single
// leaf when their combined geometry satisfies the PM invariant.
func (n *node) merge(e *env) bool {
	var union []geometry.Geometry
	seen := make(map[geometry.Geometry]struct{})
	for _, c := range n.children {
		if c.kind == Gray || c.degenerate {
			return false
		}
		for _, g := range c.dictionary {
			k := geometry.Key(g)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			union = append(union, g)
		}
	}
	if !n.valid(e, union) {
		return false
	}
	e.merges++
	e.log.WithFields(logrus.Fields{
		"square":     n.square,
		"depth":      n.depth,
		"geometries": len(union),
	}).Debug("citylife: merging children")
	n.children = nil
	n.dictionary = union
	n.kind = Black
	if len(union) == 0 {
		n.kind, n.dictionary = White, nil
	}
	return true
}

// build fills the empty node n with gs from the top down: gs is kept
// whole if it forms a valid leaf, and otherwise partitioned among four new
// children that are built in turn.
func (n *node) build(e *env, gs []geometry.Geometry) error {
	if len(gs) == 0 {
		return nil
	}
	n.kind, n.dictionary = Black, gs
	if n.valid(e, gs) {
		return nil
	}
	if !divisible(n.square, e.minSize) {
		return n.split(e)
	}
	e.splits++
	var children [4]*node
	for i, q := range quadrants(n.square) {
		children[i] = newNode(q, n.depth+1)
	}
	n.kind, n.children, n.dictionary = Gray, &children, nil

	var parts [4][]geometry.Geometry
	for _, g := range gs {
		for _, i := range n.route(g) {
			parts[i] = append(parts[i], g)
		}
	}
	var err error
	for i, c := range children {
		if err2 := c.build(e, parts[i]); err2 != nil && err == nil {
			err = err2
		}
	}
	return err
}

// walk calls fn for n and every node below it, parents first.
func (n *node) walk(fn func(*node)) {
	fn(n)
	if n.children != nil {
		for _, c := range n.children {
			c.walk(fn)
		}
	}
}

// destroy releases the subtree rooted at n, children first.
func (n *node) destroy() {
	if n.children != nil {
		for _, c := range n.children {
			c.destroy()
		}
	}
	n.kind, n.children, n.dictionary, n.degenerate = White, nil, nil, false
}

// check returns an error describing the first structural problem found
// in the subtree rooted at n.
func (n *node) check(e *env) error {
	switch n.kind {
	case White:
		if n.children != nil || len(n.dictionary) != 0 {
			return fmt.Errorf("citylife: white node %v is not empty", n.square)
		}
	case Black:
		if n.children != nil || len(n.dictionary) == 0 {
			return fmt.Errorf("citylife: black node %v has children or no geometry", n.square)
		}
		if !n.degenerate && !n.valid(e, n.dictionary) {
			return fmt.Errorf("citylife: black node %v violates the PM invariant", n.square)
		}
		for _, g := range n.dictionary {
			if !member(n.square, g) {
				return fmt.Errorf("citylife: black node %v holds %v, which does not belong to it", n.square, g)
			}
		}
	case Gray:
		if n.children == nil || len(n.dictionary) != 0 {
			return fmt.Errorf("citylife: gray node %v must have 4 children and no geometry", n.square)
		}
		quads := quadrants(n.square)
		for i, c := range n.children {
			if *c.square != *quads[i] || c.depth != n.depth+1 {
				return fmt.Errorf("citylife: child %d of %v covers %v", i, n.square, c.square)
			}
			if err := c.check(e); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("citylife: node %v has invalid kind %v", n.square, n.kind)
	}
	return nil
}

// member reports whether g touches square enough to be stored there.
func member(square *geom.Bounds, g geometry.Geometry) bool {
	switch g := g.(type) {
	case geometry.Point:
		return contains(square, g)
	case geometry.Segment:
		return crosses(square, g)
	}
	return false
}
