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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	endpointLabel = "endpoint"
	codeLabel     = "code"
)

var (
	requestCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "citylife_requests",
		Help: "The number of index requests served.",
	}, []string{
		endpointLabel,
		codeLabel,
	})

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "citylife_request_latency",
		Help: "The time to serve an index request, in seconds.",
	}, []string{
		endpointLabel,
	})

	storedGeometries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "citylife_stored_geometries",
		Help: "The number of geometries held by the index.",
	})
)
