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

// Package source loads map geometry for a citylife index from files and
// databases.
package source

import (
	"context"
	"fmt"

	"github.com/bnq-bernardomarques/citylife/geometry"
	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Source is a supplier of map geometry.
type Source interface {
	// Geometries returns every geometry held by the source.
	Geometries(ctx context.Context) ([]geom.Geom, error)
}

// LoadAll reads srcs concurrently and decomposes their contents into the
// points and segments an index stores. The result lists the geometry of
// each source in the order the sources were given, without repeats.
func LoadAll(ctx context.Context, log logrus.FieldLogger, srcs ...Source) ([]geometry.Geometry, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	loaded := make([][]geom.Geom, len(srcs))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range srcs {
		i, src := i, src
		g.Go(func() error {
			gs, err := src.Geometries(ctx)
			if err != nil {
				return fmt.Errorf("source: loading %v: %w", src, err)
			}
			log.WithFields(logrus.Fields{
				"source":     fmt.Sprint(src),
				"geometries": len(gs),
			}).Info("source: loaded geometry")
			loaded[i] = gs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []geometry.Geometry
	seen := make(map[geometry.Geometry]struct{})
	for i, gs := range loaded {
		for j, gg := range gs {
			parts, err := geometry.Decompose(gg)
			if err != nil {
				return nil, fmt.Errorf("source: %v geometry %d: %w", srcs[i], j, err)
			}
			for _, p := range parts {
				k := geometry.Key(p)
				if _, ok := seen[k]; ok {
					continue
				}
				seen[k] = struct{}{}
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// Extent returns the smallest square with its lower corner at the
// minimum of gs that covers every geometry in gs. A square of side 1 is
// returned around a single location.
func Extent(gs []geometry.Geometry) (*geom.Bounds, error) {
	if len(gs) == 0 {
		return nil, fmt.Errorf("source: can not compute the extent of no geometry")
	}
	b := geom.NewBounds()
	for _, g := range gs {
		b.Extend(g.Bounds())
	}
	side := b.Max.X - b.Min.X
	if h := b.Max.Y - b.Min.Y; h > side {
		side = h
	}
	if side == 0 {
		side = 1
	}
	return &geom.Bounds{
		Min: b.Min,
		Max: geom.Point{X: b.Min.X + side, Y: b.Min.Y + side},
	}, nil
}
