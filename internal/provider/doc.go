// Package provider implements the market data provider consumed by the poller.
//
// The Provider:
//   - Fetches normalized ticker items from a Source (HTTP quote service or Kite)
//   - Caches results in memory for a TTL, optionally backed by a shared Store (Redis)
//   - Coalesces concurrent fetches for the same cache generation
//   - Reports every failure as a *ProviderError
package provider
