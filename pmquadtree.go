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
	"math"

	"github.com/bnq-bernardomarques/citylife/geometry"
	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
)

// Config holds the settings of a PMQuadTree.
type Config struct {
	// MinSize is the smallest half side length a leaf may be split into.
	// Leaves that violate the PM invariant at that size are kept and flagged
	// as degenerate. The default is the larger side of the domain
	// divided by 2^24.
	MinSize float64

	// Predicates are the geometric tests used by the tree.
	// The default is geometry.Predicates{}, which compares points exactly.
	Predicates Predicates

	// Log receives debugging and warning messages.
	// The default is logrus.StandardLogger().
	Log logrus.FieldLogger
}

// DefaultDepth sets the default minimum cell size relative to the domain.
const DefaultDepth = 24

// PMQuadTree is a PM quadtree over a fixed rectangular domain.
// It is not safe for concurrent use: callers must serialize mutations
// and may run queries concurrently only when no mutation is in progress.
type PMQuadTree struct {
	root   *node
	domain *geom.Bounds
	env    env

	// stored holds the key of every geometry in the tree.
	stored map[geometry.Geometry]struct{}
}

// NewPMQuadTree returns an empty tree over domain. config may be nil.
func NewPMQuadTree(domain *geom.Bounds, config *Config) (*PMQuadTree, error) {
	if err := checkBox(domain); err != nil {
		return nil, fmt.Errorf("citylife: invalid domain: %w", err)
	}
	if domain.Max.X == domain.Min.X || domain.Max.Y == domain.Min.Y {
		return nil, fmt.Errorf("citylife: domain %v has zero area", *domain)
	}
	if config == nil {
		config = new(Config)
	}
	t := &PMQuadTree{
		domain: domain.Copy(),
		stored: make(map[geometry.Geometry]struct{}),
		env: env{
			pred:    config.Predicates,
			minSize: config.MinSize,
			log:     config.Log,
		},
	}
	if t.env.pred == nil {
		t.env.pred = geometry.Predicates{}
	}
	if t.env.log == nil {
		t.env.log = logrus.StandardLogger()
	}
	if t.env.minSize <= 0 {
		side := math.Max(domain.Max.X-domain.Min.X, domain.Max.Y-domain.Min.Y)
		t.env.minSize = side / (1 << DefaultDepth)
	}
	t.root = newNode(t.domain.Copy(), 0)
	return t, nil
}

// Domain returns the domain of the tree.
func (t *PMQuadTree) Domain() *geom.Bounds { return t.domain.Copy() }

// Len returns the number of distinct geometries in the tree.
func (t *PMQuadTree) Len() int { return len(t.stored) }

// admit checks that g can be added to the tree and reports whether it is
// already stored.
func (t *PMQuadTree) admit(g geometry.Geometry) (stored bool, err error) {
	if err := checkGeometry(g); err != nil {
		return false, err
	}
	if !within(t.domain, g) {
		return false, &OutOfDomainError{Geometry: g, Domain: *t.domain}
	}
	_, stored = t.stored[geometry.Key(g)]
	return stored, nil
}

// Insert adds g to the tree, splitting leaves as needed to keep the PM
// invariant. It returns an OutOfDomainError if g does not lie within the
// domain and an InvalidGeometryError if g has non-finite coordinates or is a
// zero-length segment; in both cases the tree is unchanged. A
// DegenerateInputError means g was stored but some leaf could not be split
// any further.
func (t *PMQuadTree) Insert(g geometry.Geometry) error {
	stored, err := t.admit(g)
	if err != nil || stored {
		return err
	}
	t.stored[geometry.Key(g)] = struct{}{}
	return t.root.insert(&t.env, g)
}

// Build adds gs to the tree. All of gs is checked before anything is
// added, so an invalid or out-of-domain geometry leaves the tree
// unchanged. An empty tree is built from the top down; otherwise the
// geometries are inserted one at a time. Either way the resulting tree is
// the same as the one sequential insertion produces.
func (t *PMQuadTree) Build(gs []geometry.Geometry) error {
	var add []geometry.Geometry
	batch := make(map[geometry.Geometry]struct{}, len(gs))
	for _, g := range gs {
		stored, err := t.admit(g)
		if err != nil {
			return err
		}
		k := geometry.Key(g)
		if _, dup := batch[k]; stored || dup {
			continue
		}
		batch[k] = struct{}{}
		add = append(add, g)
	}
	t.env.log.WithFields(logrus.Fields{
		"geometries": len(add),
		"domain":     t.domain,
	}).Debug("citylife: building tree")

	if t.root.kind == White {
		for k := range batch {
			t.stored[k] = struct{}{}
		}
		return t.root.build(&t.env, add)
	}
	var err error
	for _, g := range add {
		t.stored[geometry.Key(g)] = struct{}{}
		if err2 := t.root.insert(&t.env, g); err2 != nil && err == nil {
			err = err2
		}
	}
	return err
}

// Remove deletes g from the tree, merging quadrants that no longer need to
// be split. It returns a NotFoundError if g is not stored.
func (t *PMQuadTree) Remove(g geometry.Geometry) error {
	if err := checkGeometry(g); err != nil {
		return err
	}
	k := geometry.Key(g)
	if _, ok := t.stored[k]; !ok {
		return &NotFoundError{Geometry: g}
	}
	delete(t.stored, k)
	if !t.root.remove(&t.env, g) {
		return fmt.Errorf("citylife: %v is registered but missing from the tree", g)
	}
	return nil
}

// Search returns the leaves that g falls in: the single leaf holding the
// location of a Point, or every leaf a Segment passes through. The result
// geometries are everything stored in those leaves.
func (t *PMQuadTree) Search(g geometry.Geometry) (*Result, error) {
	if err := checkGeometry(g); err != nil {
		return nil, err
	}
	if !within(t.domain, g) {
		return nil, &OutOfDomainError{Geometry: g, Domain: *t.domain}
	}
	a := newAccumulator()
	t.root.search(g, a)
	return &a.result, nil
}

func (t *PMQuadTree) run(q geom.Geom, match func(Predicates, geometry.Geometry, *geometry.QueryShape) bool) (*Result, error) {
	qs, b, err := prepare(q)
	if err != nil {
		return nil, err
	}
	// Every match shares a point with q. That point lies in the bounds of q
	// and in a leaf holding the match, so leaves outside the bounds of q
	// can be skipped.
	return t.collect(relation{
		prune: func(square *geom.Bounds) bool { return square.Overlaps(b) },
		match: func(g geometry.Geometry) bool { return match(t.env.pred, g, qs) },
	}), nil
}

func (t *PMQuadTree) collect(r relation) *Result {
	a := newAccumulator()
	t.root.query(r, a)
	return &a.result
}

// IntersectsWith implements DataStruct.
func (t *PMQuadTree) IntersectsWith(q geom.Geom) (*Result, error) {
	return t.run(q, Predicates.Intersects)
}

// MeetsWith implements DataStruct.
func (t *PMQuadTree) MeetsWith(q geom.Geom) (*Result, error) {
	return t.run(q, Predicates.Meets)
}

// ContainsQuery implements DataStruct.
func (t *PMQuadTree) ContainsQuery(q geom.Geom) (*Result, error) {
	return t.run(q, Predicates.Contains)
}

// IsContainedByQuery implements DataStruct.
func (t *PMQuadTree) IsContainedByQuery(q geom.Geom) (*Result, error) {
	return t.run(q, Predicates.Within)
}

// IsBoundedBy implements DataStruct. It returns the stored geometries
// whose bounding boxes overlap the closed box b, which includes boxes that
// only touch it. The geometries that have a point in b are found with
// IntersectsWith(geometry.Rect(b)).
func (t *PMQuadTree) IsBoundedBy(b *geom.Bounds) (*Result, error) {
	if err := checkBox(b); err != nil {
		return nil, err
	}
	return t.collect(relation{
		prune: slab(b),
		match: func(g geometry.Geometry) bool { return g.Bounds().Overlaps(b) },
	}), nil
}

// Leaves returns a snapshot of every leaf in the tree, White leaves
// included, in depth-first NW, NE, SE, SW order.
func (t *PMQuadTree) Leaves() []Leaf {
	var leaves []Leaf
	t.root.walk(func(n *node) {
		if n.kind != Gray {
			leaves = append(leaves, snapshot(n))
		}
	})
	return leaves
}

// Stats summarizes the shape of a PMQuadTree.
type Stats struct {
	White, Gray, Black int

	// Degenerate counts the Black leaves at the minimum cell size that
	// violate the PM invariant.
	Degenerate int

	// MaxDepth is the depth of the deepest node; the root has depth 0.
	MaxDepth int

	// Geometries is the number of distinct stored geometries and Entries
	// the number of leaf dictionary entries, which is larger when segments
	// span several leaves.
	Geometries, Entries int

	// Splits and Merges count the structural changes since the tree was
	// created.
	Splits, Merges int
}

// Stats returns the current statistics of the tree.
func (t *PMQuadTree) Stats() Stats {
	s := Stats{Geometries: len(t.stored), Splits: t.env.splits, Merges: t.env.merges}
	t.root.walk(func(n *node) {
		switch n.kind {
		case White:
			s.White++
		case Gray:
			s.Gray++
		case Black:
			s.Black++
			if n.degenerate {
				s.Degenerate++
			}
		}
		s.Entries += len(n.dictionary)
		if n.depth > s.MaxDepth {
			s.MaxDepth = n.depth
		}
	})
	return s
}

// CheckInvariant walks the whole tree and returns an error if any node is
// malformed, any non-degenerate leaf violates the PM invariant, or the
// stored geometries and the leaf contents disagree.
func (t *PMQuadTree) CheckInvariant() error {
	if *t.root.square != *t.domain {
		return fmt.Errorf("citylife: root covers %v instead of the domain %v", *t.root.square, *t.domain)
	}
	if err := t.root.check(&t.env); err != nil {
		return err
	}
	found := make(map[geometry.Geometry]struct{}, len(t.stored))
	var err error
	t.root.walk(func(n *node) {
		for _, g := range n.dictionary {
			k := geometry.Key(g)
			if _, ok := t.stored[k]; !ok && err == nil {
				err = fmt.Errorf("citylife: leaf %v holds unregistered %v", *n.square, g)
			}
			found[k] = struct{}{}
		}
	})
	if err != nil {
		return err
	}
	if len(found) != len(t.stored) {
		return fmt.Errorf("citylife: %d geometries are registered but %d are in the leaves", len(t.stored), len(found))
	}
	return nil
}

// Close releases all nodes of the tree, leaving it empty.
func (t *PMQuadTree) Close() error {
	t.root.destroy()
	t.stored = make(map[geometry.Geometry]struct{})
	return nil
}
