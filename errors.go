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
	"errors"
	"fmt"

	"github.com/bnq-bernardomarques/citylife/geometry"
	"github.com/ctessum/geom"
)

var (
	errNilGeometry = errors.New("geometry is nil")
	errInvertedBox = errors.New("box minimum exceeds its maximum")
)

// OutOfDomainError is returned when a geometry does not lie within the
// domain of an index.
type OutOfDomainError struct {
	Geometry geometry.Geometry
	Domain   geom.Bounds
}

func (e *OutOfDomainError) Error() string {
	return fmt.Sprintf("citylife: %v is outside of domain %v", e.Geometry, e.Domain)
}

// NotFoundError is returned when removing a geometry that is not stored.
type NotFoundError struct {
	Geometry geometry.Geometry
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("citylife: %v is not in the index", e.Geometry)
}

// DegenerateInputError is returned when a leaf violates the PM invariant
// but can not be split because it has reached the minimum cell size, as
// happens with overlapping segments or crossings closer together than the
// minimum size. The geometry is stored in the leaf anyway and the leaf is
// flagged as degenerate.
type DegenerateInputError struct {
	Square     geom.Bounds
	Depth      int
	Geometries int
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("citylife: leaf %v at depth %d holding %d geometries "+
		"violates the PM invariant at the minimum cell size", e.Square, e.Depth, e.Geometries)
}

// InvalidGeometryError is returned for geometries that can not be indexed,
// such as those with non-finite coordinates or zero-length segments.
type InvalidGeometryError struct {
	Geometry interface{}
	Err      error
}

func (e *InvalidGeometryError) Error() string {
	return fmt.Sprintf("citylife: invalid geometry %v: %v", e.Geometry, e.Err)
}

func (e *InvalidGeometryError) Unwrap() error { return e.Err }
