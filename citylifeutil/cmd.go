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

// Package citylifeutil holds the command line interface and HTTP service of
// citylife.
package citylifeutil

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/bnq-bernardomarques/citylife"
	"github.com/bnq-bernardomarques/citylife/geometry"
	"github.com/bnq-bernardomarques/citylife/internal/hash"
	"github.com/ctessum/geom"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// indexFlags are the flag sets of the commands that build an index.
	indexFlags := []*pflag.FlagSet{indexCmd.Flags(), checkCmd.Flags(), queryCmd.Flags(), serveCmd.Flags()}

	// Options are the configuration options available to citylife.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel sets the verbosity of the log: one of panic, fatal,
              error, warn, info, debug or trace. Quadtree splits and merges
              are logged at the debug level.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile specifies the path to a file where log messages are
              written as JSON. If empty, the log is written to standard error.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Index",
			usage: `
              Index selects the type of spatial index: pmquadtree or rtree.`,
			shorthand:  "i",
			defaultVal: "pmquadtree",
			flagsets:   indexFlags,
		},
		{
			name: "Domain",
			usage: `
              Domain specifies the region covered by the index as
              xmin,ymin,xmax,ymax. If empty, the smallest square covering
              the loaded geometry is used. Geometry outside of the domain
              can not be indexed.`,
			defaultVal: []string{},
			flagsets:   indexFlags,
		},
		{
			name: "MinSize",
			usage: `
              MinSize specifies the smallest half side length a quadtree
              cell may be split into. Cells that still hold crossing or
              overlapping segments at this size are kept and reported as
              degenerate. If zero, the larger side of the domain divided
              by 2^24 is used.`,
			defaultVal: 0.0,
			flagsets:   indexFlags,
		},
		{
			name: "Tolerance",
			usage: `
              Tolerance specifies the distance in each coordinate within
              which two points are considered to be the same location.`,
			defaultVal: 0.0,
			flagsets:   indexFlags,
		},
		{
			name: "Sources.Shapefiles",
			usage: `
              Sources.Shapefiles lists shapefiles to load geometry from.
              Environment variables are expanded.`,
			defaultVal: []string{},
			flagsets:   indexFlags,
		},
		{
			name: "Sources.GeoJSON",
			usage: `
              Sources.GeoJSON lists GeoJSON files holding a geometry, a Feature
              or a FeatureCollection to load geometry from.`,
			defaultVal: []string{},
			flagsets:   indexFlags,
		},
		{
			name: "Sources.PostGIS.URL",
			usage: `
              Sources.PostGIS.URL is the connection string of a PostGIS
              database to load geometry from, for example
              postgres://user@localhost:5432/osm. If empty, no database is used.`,
			defaultVal: "",
			flagsets:   indexFlags,
		},
		{
			name: "Sources.PostGIS.Table",
			usage: `
              Sources.PostGIS.Table is the table holding the geometry.`,
			defaultVal: "planet_osm_polygon",
			flagsets:   indexFlags,
		},
		{
			name: "Sources.PostGIS.Column",
			usage: `
              Sources.PostGIS.Column is the geometry column of the table.`,
			defaultVal: "way",
			flagsets:   indexFlags,
		},
		{
			name: "Sources.PostGIS.Limit",
			usage: `
              Sources.PostGIS.Limit caps the number of rows read from the
              table. Zero means no limit.`,
			defaultVal: 0,
			flagsets:   indexFlags,
		},
		{
			name: "Query.Kind",
			usage: `
              Query.Kind is the query to run: search, intersects, meets,
              contains, within or bounded.`,
			shorthand:  "k",
			defaultVal: "intersects",
			flagsets:   []*pflag.FlagSet{queryCmd.Flags()},
		},
		{
			name: "Query.Geometry",
			usage: `
              Query.Geometry is the query geometry as GeoJSON, for example
              {"type": "Point", "coordinates": [1, 1]}.`,
			shorthand:  "g",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{queryCmd.Flags()},
		},
		{
			name: "Query.Box",
			usage: `
              Query.Box is the box of a bounded query as xmin,ymin,xmax,ymax.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{queryCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path of the GeoJSON file the query result is
              written to. If empty, the result is written to standard output.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{queryCmd.Flags()},
		},
		{
			name: "Serve.Address",
			usage: `
              Serve.Address is the address the HTTP service listens on.`,
			defaultVal: ":8080",
			flagsets:   []*pflag.FlagSet{serveCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("CITYLIFE")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(indexCmd)
	Root.AddCommand(checkCmd)
	Root.AddCommand(queryCmd)
	Root.AddCommand(serveCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("citylife: problem reading configuration file: %v", err)
		}
	}
	return setLogging(Cfg)
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "citylife",
	Short: "A spatial index for city maps.",
	Long: `citylife indexes the points and line segments of city maps (building
footprints, parcels and street networks) in a PM quadtree and answers
point location and relational queries against them.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'CITYLIFE_var' where 'var' is the
name of the variable to be set, with dots replaced by underscores.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of citylife.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("citylife v%s\n", citylife.Version)
	},
	DisableAutoGenTag: true,
}

// loadIndex builds the index described by the configuration.
func loadIndex(ctx context.Context) (citylife.DataStruct, error) {
	c, err := IndexConfigFromViper(Cfg)
	if err != nil {
		return nil, err
	}
	return c.Load(ctx)
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build an index and print its statistics.",
	Long: `index loads geometry from the configured sources, builds the index and
prints a summary of its structure.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := loadIndex(cmd.Context())
		if err != nil {
			return err
		}
		printStats(cmd, index)
		return nil
	},
	DisableAutoGenTag: true,
}

func printStats(cmd *cobra.Command, index citylife.DataStruct) {
	switch index := index.(type) {
	case *citylife.PMQuadTree:
		s := index.Stats()
		cmd.Printf("geometries: %d\nleaf entries: %d\nnodes: %d gray, %d black, %d white\n"+
			"degenerate leaves: %d\nmaximum depth: %d\n",
			s.Geometries, s.Entries, s.Gray, s.Black, s.White, s.Degenerate, s.MaxDepth)
	case *citylife.RTreeIndex:
		cmd.Printf("geometries: %d\n", index.Len())
	}
}

// Fingerprint returns a hash of the structure of tree: the square, depth
// and contents of every leaf. Trees holding the same geometries have the
// same fingerprint, whatever order the geometries were added in.
func Fingerprint(tree *citylife.PMQuadTree) string {
	type leaf struct {
		Square     geom.Bounds
		Depth      int
		Geometries []string
		Degenerate bool
	}
	var leaves []leaf
	for _, l := range tree.Leaves() {
		gs := make([]string, len(l.Geometries))
		for i, g := range l.Geometries {
			gs[i] = fmt.Sprint(geometry.Key(g))
		}
		sort.Strings(gs)
		leaves = append(leaves, leaf{Square: l.Square, Depth: l.Depth, Geometries: gs, Degenerate: l.Degenerate})
	}
	return hash.Hash(leaves)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Build a PM quadtree and verify its structure.",
	Long: `check builds a PM quadtree from the configured sources and walks the
whole tree, verifying that every node is well formed and every leaf satisfies
the PM invariant. Leaves at the minimum cell size that hold crossing or
overlapping segments are reported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := loadIndex(cmd.Context())
		if err != nil {
			return err
		}
		tree, ok := index.(*citylife.PMQuadTree)
		if !ok {
			return fmt.Errorf("citylife: check needs the pmquadtree index")
		}
		if err := tree.CheckInvariant(); err != nil {
			return err
		}
		for _, l := range tree.Leaves() {
			if l.Degenerate {
				logrus.WithFields(logrus.Fields{
					"square":     l.Square,
					"depth":      l.Depth,
					"geometries": len(l.Geometries),
				}).Warn("citylife: degenerate leaf")
			}
		}
		printStats(cmd, tree)
		cmd.Printf("fingerprint: %s\n", Fingerprint(tree))
		cmd.Println("ok")
		return nil
	},
	DisableAutoGenTag: true,
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a query and write the result as GeoJSON.",
	Long: `query builds the index and runs one query against it. The matching
geometries, and for the PM quadtree the leaves visited, are written as a
GeoJSON FeatureCollection for display.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := queryGeometry(Cfg.GetString("Query.Geometry"))
		if err != nil {
			return err
		}
		box, err := parseBox("Query.Box", Cfg)
		if err != nil {
			return err
		}
		index, err := loadIndex(cmd.Context())
		if err != nil {
			return err
		}
		res, err := RunQuery(index, Cfg.GetString("Query.Kind"), q, box)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if f := os.ExpandEnv(Cfg.GetString("OutputFile")); f != "" {
			w, err := os.Create(f)
			if err != nil {
				return fmt.Errorf("citylife: creating output file: %v", err)
			}
			defer w.Close()
			out = w
		}
		return WriteGeoJSON(out, res)
	},
	DisableAutoGenTag: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the index over HTTP.",
	Long: `serve builds the index and starts an HTTP service answering queries and
updates:

  GET  /search?geometry=...          point location
  GET  /query/{kind}?geometry=...    intersects, meets, contains, within
  GET  /query/bounded?box=x0,y0,x1,y1
  POST /insert, /remove              GeoJSON request body
  GET  /stats, /metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := loadIndex(cmd.Context())
		if err != nil {
			return err
		}
		addr := Cfg.GetString("Serve.Address")
		logrus.WithField("address", addr).Info("citylife: serving")
		return http.ListenAndServe(addr, NewServer(index))
	},
	DisableAutoGenTag: true,
}
