// Package app builds the shared runtime pieces of the ticker-feed binaries
// from configuration: the logger, the quote source and the cached provider.
package app
