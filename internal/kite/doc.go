// Package kite provides a provider.Source backed by the Zerodha Kite Connect
// quote API.
//
// Instruments are addressed as "EXCHANGE:TRADINGSYMBOL", for example
// "NSE:NIFTY 50" or "BSE:SENSEX". A single GetQuote call fetches every
// configured instrument.
package kite
