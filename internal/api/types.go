package api

// QuoteResponse from GET /v7/finance/quote
type QuoteResponse struct {
	QuoteResponse struct {
		Result []APIQuote `json:"result"`
		Error  *APIFault  `json:"error"`
	} `json:"quoteResponse"`
}

// APIQuote is a single instrument quote.
type APIQuote struct {
	Symbol    string `json:"symbol"`
	ShortName string `json:"shortName"`
	LongName  string `json:"longName"`
	Currency  string `json:"currency"`

	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketChange        float64 `json:"regularMarketChange"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	RegularMarketPreviousClose float64 `json:"regularMarketPreviousClose"`
	RegularMarketTime          int64   `json:"regularMarketTime"` // Unix seconds
}

// APIFault is the error object embedded in a 200 response.
type APIFault struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
