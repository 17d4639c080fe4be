// Package history persists ticker snapshots to PostgreSQL.
//
// Writer consumes poller state updates and inserts one row per item for
// every successful fetch. Rows are keyed by (symbol, fetched_at) and written
// with ON CONFLICT DO NOTHING, so replays and duplicate updates are harmless.
//
// Retention prunes rows older than the configured age on a cron schedule.
package history
