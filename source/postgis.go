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

package source

import (
	"context"
	"fmt"
	"regexp"

	"github.com/cenkalti/backoff/v4"
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/geojson"
	"github.com/jackc/pgx/v4"
	"github.com/sirupsen/logrus"
)

// PostGIS reads a geometry column of a PostGIS table.
type PostGIS struct {
	// URL is the database connection string.
	URL string

	// Table and Column name the geometry to read. Column defaults to "way",
	// the geometry column of tables created by osm2pgsql.
	Table, Column string

	// Limit caps the number of rows read when positive.
	Limit int

	// Retries is the number of times to retry connecting.
	Retries uint64

	Log logrus.FieldLogger
}

func (s PostGIS) String() string { return "postgis " + s.Table }

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// query returns the SQL selecting the geometry of s as GeoJSON.
func (s PostGIS) query() (string, error) {
	column := s.Column
	if column == "" {
		column = "way"
	}
	if !identifier.MatchString(s.Table) || !identifier.MatchString(column) {
		return "", fmt.Errorf("source: invalid PostGIS table %q or column %q", s.Table, column)
	}
	q := fmt.Sprintf("SELECT ST_AsGeoJSON(%s) FROM %s WHERE %s IS NOT NULL", column, s.Table, column)
	if s.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", s.Limit)
	}
	return q, nil
}

// Geometries implements Source.
func (s PostGIS) Geometries(ctx context.Context) ([]geom.Geom, error) {
	q, err := s.query()
	if err != nil {
		return nil, err
	}
	log := s.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	var conn *pgx.Conn
	err = backoff.Retry(func() error {
		conn, err = pgx.Connect(ctx, s.URL)
		if err != nil {
			log.WithError(err).Warn("source: connecting to PostGIS")
			return err
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.Retries), ctx))
	if err != nil {
		return nil, fmt.Errorf("source: connecting to PostGIS: %v", err)
	}
	defer conn.Close(context.Background())

	rows, err := conn.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("source: querying PostGIS: %v", err)
	}
	defer rows.Close()

	var out []geom.Geom
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, fmt.Errorf("source: reading PostGIS row: %v", err)
		}
		g, err := geojson.Decode([]byte(js))
		if err != nil {
			return nil, fmt.Errorf("source: decoding PostGIS geometry: %v", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("source: reading PostGIS rows: %v", err)
	}
	return out, nil
}
