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
	"math"

	"github.com/bnq-bernardomarques/citylife/geometry"
	"github.com/ctessum/geom"
)

// Quadrant indices. North is the side with the smaller Y value.
const (
	NW = iota
	NE
	SE
	SW
)

// quadrants splits b into four boxes of half its width and height,
// ordered NW, NE, SE, SW.
func quadrants(b *geom.Bounds) [4]*geom.Bounds {
	mx, my := (b.Min.X+b.Max.X)/2, (b.Min.Y+b.Max.Y)/2
	return [4]*geom.Bounds{
		NW: {Min: b.Min, Max: geom.Point{X: mx, Y: my}},
		NE: {Min: geom.Point{X: mx, Y: b.Min.Y}, Max: geom.Point{X: b.Max.X, Y: my}},
		SE: {Min: geom.Point{X: mx, Y: my}, Max: b.Max},
		SW: {Min: geom.Point{X: b.Min.X, Y: my}, Max: geom.Point{X: mx, Y: b.Max.Y}},
	}
}

// divisible reports whether splitting b yields quadrants of positive area
// no smaller than minSize.
func divisible(b *geom.Bounds, minSize float64) bool {
	w, h := b.Max.X-b.Min.X, b.Max.Y-b.Min.Y
	if math.Max(w, h)/2 < minSize {
		return false
	}
	mx, my := (b.Min.X+b.Max.X)/2, (b.Min.Y+b.Max.Y)/2
	return b.Min.X < mx && mx < b.Max.X && b.Min.Y < my && my < b.Max.Y
}

// contains reports whether p lies in the closed box b.
func contains(b *geom.Bounds, p geometry.Point) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// slab returns a prune for the geometries whose bounding boxes overlap b.
// Such a geometry has a point in the vertical slab spanned by b and another
// in the horizontal one, and each of those points lies in a leaf holding the
// geometry. The narrower slab is used.
func slab(b *geom.Bounds) func(square *geom.Bounds) bool {
	if b.Max.X-b.Min.X <= b.Max.Y-b.Min.Y {
		return func(square *geom.Bounds) bool {
			return square.Min.X <= b.Max.X && square.Max.X >= b.Min.X
		}
	}
	return func(square *geom.Bounds) bool {
		return square.Min.Y <= b.Max.Y && square.Max.Y >= b.Min.Y
	}
}

// interior reports whether p lies strictly inside b.
func interior(b *geom.Bounds, p geometry.Point) bool {
	return p.X > b.Min.X && p.X < b.Max.X && p.Y > b.Min.Y && p.Y < b.Max.Y
}

// clip returns the parameter range [t0, t1] of the part of s that lies in
// the closed box b, using Liang-Barsky clipping. ok is false when s misses b.
func clip(b *geom.Bounds, s geometry.Segment) (t0, t1 float64, ok bool) {
	dx, dy := s.B.X-s.A.X, s.B.Y-s.A.Y
	t0, t1 = 0, 1
	for _, c := range [4]struct{ p, q float64 }{
		{-dx, s.A.X - b.Min.X},
		{dx, b.Max.X - s.A.X},
		{-dy, s.A.Y - b.Min.Y},
		{dy, b.Max.Y - s.A.Y},
	} {
		if c.p == 0 {
			if c.q < 0 {
				return 0, 0, false
			}
			continue
		}
		r := c.q / c.p
		if c.p < 0 {
			if r > t1 {
				return 0, 0, false
			}
			if r > t0 {
				t0 = r
			}
		} else {
			if r < t0 {
				return 0, 0, false
			}
			if r < t1 {
				t1 = r
			}
		}
	}
	return t0, t1, true
}

// crosses reports whether the part of s inside the closed box b has
// positive length.
func crosses(b *geom.Bounds, s geometry.Segment) bool {
	t0, t1, ok := clip(b, s)
	return ok && t1 > t0
}

// within reports whether g lies entirely in the closed box b.
func within(b *geom.Bounds, g geometry.Geometry) bool {
	switch g := g.(type) {
	case geometry.Point:
		return contains(b, g)
	case geometry.Segment:
		return contains(b, g.A) && contains(b, g.B)
	}
	return false
}
