// Package database provides the PostgreSQL connection pool and schema
// migration for ticker history.
//
// The schema lives in migrations/*.sql and is embedded into the binary.
// Every statement is idempotent, so Migrate runs on each start.
package database
