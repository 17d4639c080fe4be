// Package cache provides a Redis-backed provider.Store so several ticker-feed
// instances share one quote snapshot between vendor calls.
//
// The snapshot is stored as a JSON document under a single key:
//
//	{"fetched_at": "2024-03-01T09:15:00Z", "items": [...]}
//
// The key expires after the configured TTL. The provider additionally checks
// fetched_at against its own TTL, so a longer Redis TTL never serves stale data.
package cache
