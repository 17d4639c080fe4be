// Package poller implements the Ticker Data Poller.
//
// The Ticker Data Poller:
//   - Fetches ticker items immediately on start, then on a fixed interval
//   - Exposes a loading/error-annotated snapshot of the latest items
//   - Supports manual refresh, invalidating the provider cache first
//   - Keeps the last good items when a fetch fails
//   - Applies only the result of the most recently issued fetch
package poller
