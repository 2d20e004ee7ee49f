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

package citylifeutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bnq-bernardomarques/citylife"
	"github.com/bnq-bernardomarques/citylife/geometry"
	"github.com/bnq-bernardomarques/citylife/source"
	"github.com/ctessum/geom"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

// IndexConfig holds the information needed to create and fill an index.
type IndexConfig struct {
	// Kind is the index type: "pmquadtree" or "rtree".
	Kind string

	// Domain is the region the index covers. When nil it is derived from
	// the extent of the loaded geometry.
	Domain *geom.Bounds

	// MinSize is the minimum quadtree cell size. Zero selects the default.
	MinSize float64

	// Tolerance is the distance within which two points are equal.
	Tolerance float64

	Sources []source.Source

	Log logrus.FieldLogger
}

// IndexConfigFromViper reads an IndexConfig from cfg.
func IndexConfigFromViper(cfg *viper.Viper) (*IndexConfig, error) {
	c := &IndexConfig{
		Kind:      strings.ToLower(os.ExpandEnv(cfg.GetString("Index"))),
		MinSize:   cfg.GetFloat64("MinSize"),
		Tolerance: cfg.GetFloat64("Tolerance"),
		Log:       logrus.StandardLogger(),
	}
	if c.Kind != "pmquadtree" && c.Kind != "rtree" {
		return nil, fmt.Errorf("citylifeutil: the Index variable needs to be either pmquadtree or rtree, but is currently set to `%s`", c.Kind)
	}
	if c.MinSize < 0 || c.Tolerance < 0 {
		return nil, fmt.Errorf("citylifeutil: MinSize and Tolerance must not be negative")
	}

	domain, err := parseBox("Domain", cfg)
	if err != nil {
		return nil, err
	}
	c.Domain = domain

	for _, f := range expandStringSlice(cfg.GetStringSlice("Sources.Shapefiles")) {
		c.Sources = append(c.Sources, source.Shapefile{Path: f})
	}
	for _, f := range expandStringSlice(cfg.GetStringSlice("Sources.GeoJSON")) {
		c.Sources = append(c.Sources, source.GeoJSON{Path: f})
	}
	if url := os.ExpandEnv(cfg.GetString("Sources.PostGIS.URL")); url != "" {
		c.Sources = append(c.Sources, source.PostGIS{
			URL:     url,
			Table:   cfg.GetString("Sources.PostGIS.Table"),
			Column:  cfg.GetString("Sources.PostGIS.Column"),
			Limit:   cfg.GetInt("Sources.PostGIS.Limit"),
			Retries: 5,
			Log:     c.Log,
		})
	}
	if len(c.Sources) == 0 {
		return nil, fmt.Errorf("citylifeutil: no geometry sources specified; set Sources.Shapefiles, Sources.GeoJSON or Sources.PostGIS.URL")
	}
	return c, nil
}

// NewIndex returns an empty index of the configured kind over domain.
func (c *IndexConfig) NewIndex(domain *geom.Bounds) (citylife.DataStruct, error) {
	pred := geometry.Predicates{Tolerance: c.Tolerance}
	switch c.Kind {
	case "rtree":
		r, err := citylife.NewRTreeIndex(domain, pred)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "pmquadtree", "":
		t, err := citylife.NewPMQuadTree(domain, &citylife.Config{
			MinSize:    c.MinSize,
			Predicates: pred,
			Log:        c.Log,
		})
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("citylifeutil: unknown index type %q", c.Kind)
	}
}

// Load reads the configured sources and builds an index from them.
// Leaves that hit the minimum cell size are reported in the log
// but do not cause an error.
func (c *IndexConfig) Load(ctx context.Context) (citylife.DataStruct, error) {
	gs, err := source.LoadAll(ctx, c.Log, c.Sources...)
	if err != nil {
		return nil, err
	}
	domain := c.Domain
	if domain == nil {
		if domain, err = source.Extent(gs); err != nil {
			return nil, fmt.Errorf("citylifeutil: %w", err)
		}
	}
	index, err := c.NewIndex(domain)
	if err != nil {
		return nil, err
	}
	err = index.Build(gs)
	var degenerate *citylife.DegenerateInputError
	if errors.As(err, &degenerate) {
		c.Log.WithError(err).Warn("citylifeutil: index holds degenerate leaves")
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("citylifeutil: building index: %w", err)
	}
	c.Log.WithFields(logrus.Fields{
		"index":      c.Kind,
		"domain":     domain,
		"geometries": len(gs),
	}).Info("citylifeutil: index built")
	return index, nil
}

// parseBox reads a box given as xmin, ymin, xmax, ymax. It returns nil when
// the variable is empty.
func parseBox(varName string, cfg *viper.Viper) (*geom.Bounds, error) {
	return boxFromStrings(varName, cfg.GetStringSlice(varName))
}

// boxFromStrings parses a box given as xmin, ymin, xmax, ymax.
func boxFromStrings(varName string, s []string) (*geom.Bounds, error) {
	if len(s) == 0 {
		return nil, nil
	}
	if len(s) != 4 {
		return nil, fmt.Errorf("citylifeutil: %s must hold 4 numbers (xmin, ymin, xmax, ymax) but has %d", varName, len(s))
	}
	var v [4]float64
	for i, x := range s {
		f, err := cast.ToFloat64E(strings.TrimSpace(x))
		if err != nil {
			return nil, fmt.Errorf("citylifeutil: %s: %v", varName, err)
		}
		v[i] = f
	}
	if v[0] > v[2] || v[1] > v[3] {
		return nil, fmt.Errorf("citylifeutil: %s minimum exceeds its maximum", varName)
	}
	return &geom.Bounds{Min: geom.Point{X: v[0], Y: v[1]}, Max: geom.Point{X: v[2], Y: v[3]}}, nil
}

// expandStringSlice expands the environment variables in a slice of strings.
func expandStringSlice(s []string) []string {
	for i := 0; i < len(s); i++ {
		s[i] = os.ExpandEnv(s[i])
	}
	return s
}

// setLogging configures the standard logger from the LogLevel and LogFile
// variables.
func setLogging(cfg *viper.Viper) error {
	level, err := logrus.ParseLevel(cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("citylifeutil: %v", err)
	}
	logrus.SetLevel(level)
	if f := os.ExpandEnv(cfg.GetString("LogFile")); f != "" {
		w, err := os.OpenFile(f, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("citylifeutil: opening log file: %v", err)
		}
		logrus.SetOutput(w)
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}
