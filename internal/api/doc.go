// Package api provides the REST client for the market quote service.
//
// Endpoint:
//   - GET {base_url}/v7/finance/quote?symbols=^NSEI,^BSESN
//
// The response envelope is {"quoteResponse": {"result": [...], "error": null}}.
// QuoteSource adapts the client to provider.Source.
package api
