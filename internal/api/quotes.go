package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrEmptySymbols is returned when GetQuotes is called without symbols.
var ErrEmptySymbols = errors.New("no symbols requested")

// FaultError is a service-level error reported inside a 2xx response.
type FaultError struct {
	Code        string
	Description string
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("quote api fault %s: %s", e.Code, e.Description)
}

// DisplayMessage returns the service's own description.
func (e *FaultError) DisplayMessage() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Code
}

// GetQuotes fetches quotes for the given vendor symbols in a single request.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) ([]APIQuote, error) {
	if len(symbols) == 0 {
		return nil, ErrEmptySymbols
	}

	query := url.Values{}
	query.Set("symbols", strings.Join(symbols, ","))

	var resp QuoteResponse
	if err := c.get(ctx, "/v7/finance/quote", query, &resp); err != nil {
		return nil, fmt.Errorf("get quotes: %w", err)
	}

	if fault := resp.QuoteResponse.Error; fault != nil {
		return nil, fmt.Errorf("get quotes: %w", &FaultError{Code: fault.Code, Description: fault.Description})
	}

	return resp.QuoteResponse.Result, nil
}
