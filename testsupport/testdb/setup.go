package testdb

import (
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	tcpg "github.com/trialslog/trial-score-manager-go/testsupport/tcpostgres"
)

// InitTestDb provides an empty, migrated database for a test.
// A local run uses a testcontainers instance, CI may point TESTDB_URL at a
// database provided by the pipeline.
func InitTestDb() *pgxpool.Pool {
	var pool *pgxpool.Pool

	if os.Getenv("TESTDB_URL") != "" {
		pool = tcpg.SetupExternalTestDb()
	} else {
		pool = tcpg.SetupTestDb()
	}
	tcpg.ClearAllTables(pool)
	return pool
}
