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
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/ctessum/geom"
)

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		g    Geometry
		err  error
	}{
		{name: "point", g: Pt(1, 2)},
		{name: "nan point", g: Pt(math.NaN(), 2), err: ErrNotFinite},
		{name: "inf point", g: Pt(1, math.Inf(-1)), err: ErrNotFinite},
		{name: "segment", g: Seg(0, 0, 1, 1)},
		{name: "zero length", g: Seg(1, 1, 1, 1), err: ErrZeroLength},
		{name: "nan segment", g: Seg(0, 0, 1, math.NaN()), err: ErrNotFinite},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if err := test.g.Valid(); !errors.Is(err, test.err) {
				t.Errorf("have %v, want %v", err, test.err)
			}
		})
	}
}

func TestKey(t *testing.T) {
	if Key(Seg(6, 6, 1, 1)) != Key(Seg(1, 1, 6, 6)) {
		t.Error("reversed segments should share a key")
	}
	if !Same(Seg(1, 6, 1, 1), Seg(1, 1, 1, 6)) {
		t.Error("reversed vertical segments should be the same")
	}
	if Same(Seg(0, 0, 1, 1), Seg(0, 0, 1, 2)) {
		t.Error("different segments should not be the same")
	}
	if Same(Pt(1, 1), Seg(1, 1, 2, 2)) {
		t.Error("a point is not a segment")
	}
	want := Seg(1, 1, 6, 6)
	if have := Key(Seg(6, 6, 1, 1)); have != want {
		t.Errorf("have %v, want %v", have, want)
	}
}

func TestBounds(t *testing.T) {
	have := Seg(3, 1, 1, 4).Bounds()
	want := &geom.Bounds{Min: geom.Point{X: 1, Y: 1}, Max: geom.Point{X: 3, Y: 4}}
	if !reflect.DeepEqual(have, want) {
		t.Errorf("have %v, want %v", have, want)
	}
}

func TestDecompose(t *testing.T) {
	tests := []struct {
		name string
		g    geom.Geom
		want []Geometry
	}{
		{
			name: "point",
			g:    geom.Point{X: 1, Y: 2},
			want: []Geometry{Pt(1, 2)},
		},
		{
			name: "linestring",
			g:    geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}},
			want: []Geometry{Seg(0, 0, 1, 0), Seg(1, 0, 1, 1)},
		},
		{
			name: "open ring",
			g:    geom.Polygon{[]geom.Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}}},
			want: []Geometry{Seg(0, 0, 2, 0), Seg(2, 0, 2, 2), Seg(2, 2, 0, 0)},
		},
		{
			name: "closed ring",
			g:    geom.Polygon{[]geom.Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 0}}},
			want: []Geometry{Seg(0, 0, 2, 0), Seg(2, 0, 2, 2), Seg(2, 2, 0, 0)},
		},
		{
			name: "shared edge",
			g: geom.MultiPolygon{
				{[]geom.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}},
				{[]geom.Point{{X: 1, Y: 1}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 1}}},
			},
			want: []Geometry{
				Seg(0, 0, 1, 0), Seg(1, 0, 1, 1), Seg(1, 1, 0, 1), Seg(0, 1, 0, 0),
				Seg(1, 0, 2, 0), Seg(2, 0, 2, 1), Seg(2, 1, 1, 1),
			},
		},
		{
			name: "collapsed ring",
			g:    geom.Polygon{[]geom.Point{{X: 3, Y: 3}, {X: 3, Y: 3}, {X: 3, Y: 3}}},
			want: []Geometry{Pt(3, 3)},
		},
		{
			name: "collection",
			g: geom.GeometryCollection{
				geom.Point{X: 5, Y: 5},
				geom.MultiLineString{{{X: 0, Y: 0}, {X: 0, Y: 1}}},
			},
			want: []Geometry{Pt(5, 5), Seg(0, 0, 0, 1)},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			have, err := Decompose(test.g)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(have, test.want) {
				t.Errorf("have %v, want %v", have, test.want)
			}
		})
	}
	t.Run("nil", func(t *testing.T) {
		if _, err := Decompose(nil); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestSegmentsIntersect(t *testing.T) {
	var pr Predicates
	tests := []struct {
		name string
		s, t Segment
		want Intersection
	}{
		{
			name: "disjoint",
			s:    Seg(0, 0, 1, 0), t: Seg(0, 1, 1, 1),
			want: Intersection{Relation: None},
		},
		{
			name: "crossing",
			s:    Seg(1, 1, 6, 6), t: Seg(2, 6, 6, 2),
			want: Intersection{Relation: ProperCrossing, P: Pt(4, 4)},
		},
		{
			name: "shared endpoint",
			s:    Seg(1, 1, 6, 6), t: Seg(1, 1, 1, 6),
			want: Intersection{Relation: SharedEndpoint, P: Pt(1, 1)},
		},
		{
			name: "t-junction",
			s:    Seg(0, 0, 4, 0), t: Seg(2, 0, 2, 3),
			want: Intersection{Relation: ProperCrossing, P: Pt(2, 0)},
		},
		{
			name: "collinear overlap",
			s:    Seg(0, 0, 2, 0), t: Seg(3, 0, 1, 0),
			want: Intersection{Relation: CollinearOverlap, P: Pt(1, 0), Q: Pt(2, 0)},
		},
		{
			name: "collinear touching",
			s:    Seg(0, 0, 1, 0), t: Seg(1, 0, 2, 0),
			want: Intersection{Relation: SharedEndpoint, P: Pt(1, 0)},
		},
		{
			name: "collinear apart",
			s:    Seg(0, 0, 1, 1), t: Seg(2, 2, 3, 3),
			want: Intersection{Relation: None},
		},
		{
			name: "parallel",
			s:    Seg(0, 0, 2, 2), t: Seg(0, 1, 2, 3),
			want: Intersection{Relation: None},
		},
		{
			name: "duplicate",
			s:    Seg(0, 0, 2, 2), t: Seg(2, 2, 0, 0),
			want: Intersection{Relation: CollinearOverlap, P: Pt(0, 0), Q: Pt(2, 2)},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			have := pr.SegmentsIntersect(test.s, test.t)
			if !reflect.DeepEqual(have, test.want) {
				t.Errorf("have %+v, want %+v", have, test.want)
			}
			if back := pr.SegmentsIntersect(test.t, test.s); back.Relation != test.want.Relation {
				t.Errorf("not symmetric: %v vs %v", back.Relation, test.want.Relation)
			}
		})
	}
}

func TestTolerance(t *testing.T) {
	pr := Predicates{Tolerance: 1e-6}
	if !pr.Equal(Pt(1, 1), Pt(1+1e-7, 1)) {
		t.Error("points within tolerance should be equal")
	}
	if (Predicates{}).Equal(Pt(1, 1), Pt(1+1e-7, 1)) {
		t.Error("exact comparison should not match")
	}
	x := pr.SegmentsIntersect(Seg(0, 0, 1, 0), Seg(1+1e-7, 0, 1, 5))
	if x.Relation != SharedEndpoint {
		t.Errorf("have %v, want shared endpoint", x.Relation)
	}
	if !pr.OnSegment(Pt(0.5, 1e-7), Seg(0, 0, 1, 0)) {
		t.Error("point within tolerance should be on the segment")
	}
}

func TestOnSegment(t *testing.T) {
	var pr Predicates
	s := Seg(0, 0, 4, 4)
	for _, c := range []struct {
		p              Point
		on, inInterior bool
	}{
		{Pt(2, 2), true, true},
		{Pt(0, 0), true, false},
		{Pt(4, 4), true, false},
		{Pt(5, 5), false, false},
		{Pt(2, 3), false, false},
	} {
		if have := pr.OnSegment(c.p, s); have != c.on {
			t.Errorf("OnSegment(%v): have %v, want %v", c.p, have, c.on)
		}
		if have := pr.InInterior(c.p, s); have != c.inInterior {
			t.Errorf("InInterior(%v): have %v, want %v", c.p, have, c.inInterior)
		}
	}
}
