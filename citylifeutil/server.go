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
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bnq-bernardomarques/citylife"
	"github.com/bnq-bernardomarques/citylife/geometry"
	"github.com/bnq-bernardomarques/citylife/source"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/encoding/json"
	"github.com/sirupsen/logrus"
)

// maxBody is the largest request body accepted, in bytes.
const maxBody = 32 << 20

// Server serves queries and updates to an index over HTTP. Queries run
// concurrently; updates have exclusive access to the index.
type Server struct {
	mu    sync.RWMutex
	index citylife.DataStruct
	mux   *http.ServeMux

	Log logrus.FieldLogger
}

// NewServer returns a server for index.
func NewServer(index citylife.DataStruct) *Server {
	s := &Server{
		index: index,
		mux:   http.NewServeMux(),
		Log:   logrus.StandardLogger(),
	}
	s.mux.Handle("/search", s.handle("search", false, s.search))
	s.mux.Handle("/query/", s.handle("query", false, s.query))
	s.mux.Handle("/insert", s.handle("insert", true, s.insert))
	s.mux.Handle("/remove", s.handle("remove", true, s.remove))
	s.mux.Handle("/stats", s.handle("stats", false, s.stats))
	s.mux.Handle("/metrics", promhttp.Handler())
	s.updateGauge()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// httpError is an error with an HTTP status code.
type httpError struct {
	code int
	err  error
}

func (e *httpError) Error() string { return e.err.Error() }

func badRequest(err error) error { return &httpError{code: http.StatusBadRequest, err: err} }

// status returns the HTTP status code matching err.
func status(err error) int {
	var (
		he       *httpError
		outside  *citylife.OutOfDomainError
		invalid  *citylife.InvalidGeometryError
		notFound *citylife.NotFoundError
	)
	switch {
	case errors.As(err, &he):
		return he.code
	case errors.As(err, &outside), errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

type handlerFunc func(r *http.Request) (interface{}, error)

// handle wraps fn with locking, JSON encoding, logging and metrics.
func (s *Server) handle(endpoint string, write bool, fn handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		var (
			v   interface{}
			err error
		)
		if write != (r.Method == http.MethodPost) {
			err = &httpError{code: http.StatusMethodNotAllowed, err: fmt.Errorf("method %s not allowed", r.Method)}
		} else if write {
			s.mu.Lock()
			v, err = fn(r)
			s.updateGauge()
			s.mu.Unlock()
		} else {
			s.mu.RLock()
			v, err = fn(r)
			s.mu.RUnlock()
		}

		code := http.StatusOK
		if err != nil {
			code = status(err)
			v = map[string]string{"error": err.Error()}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(v); err != nil {
			s.Log.WithError(err).Error("citylifeutil: writing response")
		}

		requestCount.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
		requestLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		fields := logrus.Fields{
			"url":  r.URL.String(),
			"addr": r.RemoteAddr,
			"code": code,
		}
		if err != nil {
			fields["error"] = err.Error()
		}
		s.Log.WithFields(fields).Info("citylifeutil request")
	})
}

func (s *Server) updateGauge() {
	if l, ok := s.index.(interface{ Len() int }); ok {
		storedGeometries.Set(float64(l.Len()))
	}
}

func (s *Server) search(r *http.Request) (interface{}, error) {
	return s.run("search", r)
}

func (s *Server) query(r *http.Request) (interface{}, error) {
	return s.run(strings.TrimPrefix(r.URL.Path, "/query/"), r)
}

func (s *Server) run(kind string, r *http.Request) (interface{}, error) {
	if !knownQuery(kind) {
		return nil, &httpError{code: http.StatusNotFound, err: fmt.Errorf("unknown query %q", kind)}
	}
	q := r.URL.Query()
	box, err := boxFromStrings("box", splitList(q.Get("box")))
	if err != nil {
		return nil, badRequest(err)
	}
	qg, err := queryGeometry(q.Get("geometry"))
	if err != nil {
		return nil, badRequest(err)
	}
	res, err := RunQuery(s.index, kind, qg, box)
	if err != nil {
		if status(err) == http.StatusInternalServerError {
			err = badRequest(err)
		}
		return nil, err
	}
	return ToFeatures(res)
}

func knownQuery(kind string) bool {
	for _, k := range QueryKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// readGeometry decodes a GeoJSON request body into index geometry.
func readGeometry(r *http.Request) ([]geometry.Geometry, error) {
	b, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return nil, badRequest(err)
	}
	gs, err := source.DecodeGeoJSON(b)
	if err != nil {
		return nil, badRequest(err)
	}
	var out []geometry.Geometry
	for _, g := range gs {
		parts, err := geometry.Decompose(g)
		if err != nil {
			return nil, badRequest(err)
		}
		out = append(out, parts...)
	}
	return out, nil
}

func (s *Server) insert(r *http.Request) (interface{}, error) {
	gs, err := readGeometry(r)
	if err != nil {
		return nil, err
	}
	resp := map[string]interface{}{"inserted": len(gs)}
	err = s.index.Build(gs)
	var degenerate *citylife.DegenerateInputError
	if errors.As(err, &degenerate) {
		resp["warning"] = err.Error()
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Server) remove(r *http.Request) (interface{}, error) {
	gs, err := readGeometry(r)
	if err != nil {
		return nil, err
	}
	var removed int
	for _, g := range gs {
		if err := s.index.Remove(g); err != nil {
			return map[string]interface{}{"removed": removed}, err
		}
		removed++
	}
	return map[string]interface{}{"removed": removed}, nil
}

func (s *Server) stats(*http.Request) (interface{}, error) {
	switch index := s.index.(type) {
	case *citylife.PMQuadTree:
		return index.Stats(), nil
	case interface{ Len() int }:
		return map[string]int{"Geometries": index.Len()}, nil
	}
	return map[string]int{}, nil
}

// splitList splits a comma separated list, returning nil for "".
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
