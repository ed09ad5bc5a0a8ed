package marketdata

// HistoricalQuotesResponse is the body of /v3/cryptocurrency/quotes/historical.
// Data is keyed by the requested asset id; it is nil when the request was
// rejected and the client returned an empty result.
type HistoricalQuotesResponse struct {
	Status Status                 `json:"status"`
	Data   map[string]AssetQuotes `json:"data"`
}

// Empty reports whether the response carries no asset data.
func (r *HistoricalQuotesResponse) Empty() bool {
	return r == nil || len(r.Data) == 0
}

// Status is the API status block.
type Status struct {
	Timestamp    string `json:"timestamp"`
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	CreditCount  int    `json:"credit_count"`
}

// AssetQuotes holds the quote snapshots of one asset.
type AssetQuotes struct {
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Symbol   string          `json:"symbol"`
	IsActive int             `json:"is_active"`
	IsFiat   int             `json:"is_fiat"`
	Quotes   []QuoteSnapshot `json:"quotes"`
}

// QuoteSnapshot is one sample of the requested interval.
type QuoteSnapshot struct {
	Timestamp string                   `json:"timestamp"`
	Quote     map[string]CurrencyQuote `json:"quote"`
}

// CurrencyQuote holds the values converted into one currency.
// Pointers distinguish an absent value from zero.
type CurrencyQuote struct {
	Price             *float64 `json:"price"`
	Volume24h         *float64 `json:"volume_24h"`
	MarketCap         *float64 `json:"market_cap"`
	CirculatingSupply *float64 `json:"circulating_supply"`
	TotalSupply       *float64 `json:"total_supply"`
	Timestamp         string   `json:"timestamp"`
}
