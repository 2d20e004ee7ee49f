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
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/segmentio/encoding/json"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T, kind string) *Server {
	s := NewServer(scenarioIndex(t, kind))
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	s.Log = l
	return s
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(method, target, strings.NewReader(body)))
	return w
}

// matches returns the number of matching features in a query response.
func matches(t *testing.T, w *httptest.ResponseRecorder) int {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var fc struct {
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
	var n int
	for _, f := range fc.Features {
		if f.Properties["role"] == "match" {
			n++
		}
	}
	return n
}

func geometryParam(js string) string { return "geometry=" + url.QueryEscape(js) }

func TestServerQueries(t *testing.T) {
	for _, kind := range []string{"pmquadtree", "rtree"} {
		t.Run(kind, func(t *testing.T) {
			s := testServer(t, kind)
			assert.Equal(t, 3, matches(t, do(s, http.MethodGet, "/search?"+geometryParam(`{"type": "Point", "coordinates": [1, 1]}`), "")))
			assert.Equal(t, 2, matches(t, do(s, http.MethodGet, "/query/intersects?"+geometryParam(`{"type": "Point", "coordinates": [4, 4]}`), "")))
			assert.Equal(t, 1, matches(t, do(s, http.MethodGet, "/query/meets?"+geometryParam(`{"type": "Point", "coordinates": [6, 6]}`), "")))
			assert.Equal(t, 3, matches(t, do(s, http.MethodGet, "/query/bounded?box=0,0,1.5,1.5", "")))

			assert.Equal(t, http.StatusNotFound, do(s, http.MethodGet, "/query/nearest?box=0,0,1,1", "").Code)
			assert.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/query/intersects", "").Code)
			assert.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/query/bounded?box=0,0,1", "").Code)
			assert.Equal(t, http.StatusBadRequest, do(s, http.MethodGet, "/search?"+geometryParam(`{"type": "Point", "coordinates": [9, 9]}`), "").Code)
			assert.Equal(t, http.StatusMethodNotAllowed, do(s, http.MethodPost, "/search", "").Code)
		})
	}
}

func TestServerUpdates(t *testing.T) {
	s := testServer(t, "pmquadtree")
	const corner = `{"type": "Point", "coordinates": [7, 1]}`

	w := do(s, http.MethodPost, "/insert", corner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"inserted": 1}`, w.Body.String())

	w = do(s, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]int
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 5, stats["Geometries"])

	w = do(s, http.MethodPost, "/remove", corner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"removed": 1}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, do(s, http.MethodPost, "/remove", corner).Code)
	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodPost, "/insert", `{"type": "Point", "coordinates": [9, 9]}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodPost, "/insert", `{"type": "LineString", "coordinates": [[4, 4], [10, 4]]}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(s, http.MethodPost, "/insert", `{`).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(s, http.MethodGet, "/insert", "").Code)

	w = do(s, http.MethodGet, "/stats", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 4, stats["Geometries"])
	assert.Equal(t, 7, stats["Entries"])

	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/metrics", "").Code)
}
