package postgis

import (
	"context"
	"fmt"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v4"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Image is the Docker image the test database runs in.
const Image = "postgis/postgis:15-3.4"

// Table is the table SetupTestDB fills. Like the polygon table osm2pgsql
// creates, it keeps its geometry in the "way" column.
const Table = "planet_osm_polygon"

// Fixture holds the building footprints SetupTestDB inserts, as WKT: two
// blocks sharing an edge and one block across the street.
var Fixture = []string{
	"POLYGON((0 0, 4 0, 4 4, 0 4, 0 0))",
	"POLYGON((4 0, 8 0, 8 4, 4 4, 4 0))",
	"POLYGON((0 6, 8 6, 8 8, 0 8, 0 6))",
}

// SetupTestDB starts a new PostGIS database for testing,
// populates it with the Fixture footprints, and
// returns a URL to connect to the database and the running
// Docker container.
func SetupTestDB(ctx context.Context, t *testing.T) (string, testcontainers.Container) {
	const (
		dbname = "postgresTC"
		dbuser = "postgres"
		dbport = "5432"
	)

	req := testcontainers.ContainerRequest{
		Image:        Image,
		ExposedPorts: []string{fmt.Sprintf("%s/tcp", dbport)},
		Env: map[string]string{
			"POSTGRES_DB":               dbname,
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		// The server restarts once after the init scripts have run.
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	}

	postgresC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatal(err)
	}

	host, err := postgresC.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	// Get the port that is mapped to 5432.
	p, err := postgresC.MappedPort(ctx, dbport)
	if err != nil {
		t.Fatal(err)
	}

	postGISURL := fmt.Sprintf("postgres://%s@%s:%s/%s", dbuser, host, p.Port(), dbname)

	var conn *pgx.Conn
	err = backoff.Retry(func() error {
		conn, err = pgx.Connect(ctx, postGISURL)
		return err
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 10))
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close(ctx)

	for _, stmt := range []string{
		"CREATE EXTENSION IF NOT EXISTS postgis",
		fmt.Sprintf("CREATE TABLE %s (osm_id bigint PRIMARY KEY, way geometry)", Table),
	} {
		if _, err = conn.Exec(ctx, stmt); err != nil {
			t.Fatal(err)
		}
	}
	for i, wkt := range Fixture {
		if _, err = conn.Exec(ctx, fmt.Sprintf("INSERT INTO %s (osm_id, way) VALUES ($1, ST_GeomFromText($2))", Table), i+1, wkt); err != nil {
			t.Fatal(err)
		}
	}

	return postGISURL, postgresC
}
