package db

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AlibekovAA/sessionauth/internal/observability/metrics"
)

// ObserveQuery records duration for operation and counts the error, if any,
// under its SQLSTATE. pgx.ErrNoRows is an expected outcome and is not counted.
func ObserveQuery(operation string, startTime time.Time, err error) {
	metrics.DBQueryDurationSeconds.WithLabelValues(operation).Observe(time.Since(startTime).Seconds())

	if err == nil || errors.Is(err, pgx.ErrNoRows) {
		return
	}
	metrics.DBQueryErrors.WithLabelValues(operation, SQLState(err)).Inc()
}

// SQLState extracts the Postgres error code, or "none" for errors that did
// not come from the server.
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return "none"
}
