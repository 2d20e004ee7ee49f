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

package hash

import "testing"

type leaf struct {
	Square     [4]float64
	Geometries []string
	Degenerate bool
}

func TestHash(t *testing.T) {
	a := []leaf{{Square: [4]float64{0, 0, 4, 4}, Geometries: []string{"POINT (1 1)"}}}
	b := []leaf{{Square: [4]float64{0, 0, 4, 4}, Geometries: []string{"POINT (1 1)"}}}
	c := []leaf{{Square: [4]float64{0, 0, 4, 4}, Geometries: []string{"POINT (1 1)"}, Degenerate: true}}
	if Hash(a) != Hash(b) {
		t.Errorf("equal values hash differently: %s, %s", Hash(a), Hash(b))
	}
	if Hash(a) == Hash(c) {
		t.Error("different values share a hash")
	}
	if len(Hash(a)) != 32 {
		t.Errorf("hash %s should have 32 hex digits", Hash(a))
	}
	if Hash(map[string]int{"a": 1, "b": 2}) != Hash(map[string]int{"b": 2, "a": 1}) {
		t.Error("map hash depends on key order")
	}
}
