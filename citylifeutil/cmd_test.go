package citylifeutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnq-bernardomarques/citylife"
	"github.com/bnq-bernardomarques/citylife/geometry"
	"github.com/bnq-bernardomarques/citylife/source"
	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCmd(t *testing.T) {
	Cfg.Set("LogLevel", "warn")
	Cfg.Set("Sources.GeoJSON", []string{writeFile(t, "scenario.geojson", scenarioJSON)})
	Cfg.Set("Domain", []string{"0", "0", "8", "8"})

	run := func(t *testing.T, args ...string) string {
		t.Helper()
		var buf bytes.Buffer
		Root.SetOut(&buf)
		Root.SetArgs(args)
		require.NoError(t, Root.Execute())
		return buf.String()
	}

	t.Run("version", func(t *testing.T) {
		assert.Equal(t, "citylife v1.0.0\n", run(t, "version"))
	})
	t.Run("index", func(t *testing.T) {
		out := run(t, "index")
		assert.Contains(t, out, "geometries: 4\n")
		assert.Contains(t, out, "nodes: 1 gray, 4 black, 0 white\n")
	})
	t.Run("check", func(t *testing.T) {
		out := run(t, "check")
		assert.Contains(t, out, "fingerprint: ")
		assert.Contains(t, out, "ok\n")
	})
	t.Run("query", func(t *testing.T) {
		f := filepath.Join(t.TempDir(), "result.geojson")
		Cfg.Set("Query.Kind", "intersects")
		Cfg.Set("Query.Geometry", `{"type": "Point", "coordinates": [4, 4]}`)
		Cfg.Set("OutputFile", f)
		run(t, "query")

		b, err := os.ReadFile(f)
		require.NoError(t, err)
		gs, err := source.DecodeGeoJSON(b)
		require.NoError(t, err)
		// Two matching streets followed by the four leaves around the crossing.
		assert.Len(t, gs, 6)
	})
	t.Run("check rtree", func(t *testing.T) {
		Cfg.Set("Index", "rtree")
		defer Cfg.Set("Index", "pmquadtree")
		Root.SetArgs([]string{"check"})
		assert.Error(t, Root.Execute())
	})
}

func TestFingerprint(t *testing.T) {
	gs := []geometry.Geometry{
		geometry.Pt(1, 1),
		geometry.Seg(1, 1, 6, 6),
		geometry.Seg(1, 1, 1, 6),
		geometry.Seg(2, 6, 6, 2),
	}
	build := func(gs ...geometry.Geometry) *citylife.PMQuadTree {
		tree, err := citylife.NewPMQuadTree(&geom.Bounds{Max: geom.Point{X: 8, Y: 8}}, nil)
		require.NoError(t, err)
		require.NoError(t, tree.Build(gs))
		return tree
	}
	a := build(gs...)
	b := build(gs[3], gs[1], geometry.Seg(6, 6, 1, 1), gs[2], gs[0])
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(build(gs[:3]...)))
}
