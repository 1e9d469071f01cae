//nolint:errcheck // testsetup
package tcpostgres

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/trialslog/trial-score-manager-go/pkg/db/migrate"
	database "github.com/trialslog/trial-score-manager-go/pkg/db/postgres"
)

// SetupTestDb starts (or reuses) a postgres container, migrates the schema
// and returns a connection pool for it.
func SetupTestDb() *pgxpool.Pool {
	ctx := context.Background()
	port, err := nat.NewPort("tcp", "5432")
	if err != nil {
		log.Fatal(err)
	}
	container, err := SetupPostgres(ctx,
		WithPort(port.Port()),
		WithInitialDatabase("postgres", "password", "postgres"),
		WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
		WithName("trial-score-manager-test"),
	)
	if err != nil {
		log.Fatal(err)
	}
	containerPort, _ := container.MappedPort(ctx, port)
	host, _ := container.Host(ctx)
	dbURL := fmt.Sprintf("postgresql://postgres:password@%s:%s/postgres",
		host, containerPort.Port())

	if err = migrate.MigrateDb(dbURL); err != nil {
		log.Fatal(err)
	}

	return database.InitWithURL(dbURL)
}

// SetupExternalTestDb connects to the database referenced by TESTDB_URL.
// Used on CI where a database is provided by the pipeline.
func SetupExternalTestDb() *pgxpool.Pool {
	dbURL := os.Getenv("TESTDB_URL")
	if err := migrate.MigrateDb(dbURL); err != nil {
		log.Fatal(err)
	}
	return database.InitWithURL(dbURL)
}

// ClearAllTables empties all tables in dependency order.
func ClearAllTables(pool *pgxpool.Pool) {
	ClearAttemptTable(pool)
	ClearCompetitorTable(pool)
	ClearClassTable(pool)
	ClearSectionTable(pool)
}

func ClearAttemptTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from attempt")
}

func ClearCompetitorTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from competitor_class")
	pool.Exec(context.Background(), "delete from competitor")
}

func ClearClassTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from class_section")
	pool.Exec(context.Background(), "delete from class")
}

func ClearSectionTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from section")
}
