package otel

import (
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// OpenDB opens the partnerflow SQLite database with OpenTelemetry
// instrumentation: a span per statement and connection pool metrics.
func OpenDB(dataSourceName string) (*sql.DB, error) {
	attrs := otelsql.WithAttributes(semconv.DBSystemSqlite)

	db, err := otelsql.Open("sqlite", dataSourceName,
		attrs,
		otelsql.WithSpanOptions(otelsql.SpanOptions{
			OmitConnResetSession: true,
			OmitRows:             true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("opening instrumented database: %w", err)
	}

	// One connection shared with River: repositories carry transactions in the
	// context and River must never wait on a second SQLite writer.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", pragma, err)
		}
	}

	if _, err := otelsql.RegisterDBStatsMetrics(db, attrs); err != nil {
		db.Close()
		return nil, fmt.Errorf("registering db stats metrics: %w", err)
	}

	return db, nil
}
