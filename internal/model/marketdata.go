package model

import "time"

// BarsResponse matches the JSON shape of the Alpaca /v2/stocks/{symbol}/bars endpoint.
//
// Example:
// {
//   "bars": [ {"t": "2024-01-02T05:00:00Z", "o": 187.15, ...} ],
//   "symbol": "AAPL",
//   "next_page_token": null
// }
type BarsResponse struct {
	Bars          []Bar   `json:"bars"`
	Symbol        string  `json:"symbol"`
	NextPageToken *string `json:"next_page_token"`
}

// Bar is one OHLCV record. Timestamps are RFC3339 strings in UTC.
type Bar struct {
	Time   time.Time `json:"t"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume int64     `json:"v"`

	TradeCount int64   `json:"n,omitempty"`
	VWAP       float64 `json:"vw,omitempty"`
}

// Date returns the calendar date of the bar (YYYY-MM-DD, UTC).
func (b Bar) Date() string {
	return b.Time.UTC().Format(DateLayout)
}

// DateLayout is the layout used for every calendar date crossing the API.
const DateLayout = "2006-01-02"

// Closes extracts the close prices in bar order.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Quote is the latest NBBO quote for a symbol.
type Quote struct {
	Symbol    string    `json:"symbol"`
	AskPrice  float64   `json:"ask_price"`
	BidPrice  float64   `json:"bid_price"`
	AskSize   float64   `json:"ask_size"`
	BidSize   float64   `json:"bid_size"`
	Timestamp time.Time `json:"timestamp"`
}

// Clock reports whether the market is open and the next session boundaries.
type Clock struct {
	IsOpen    bool      `json:"is_open"`
	NextOpen  time.Time `json:"next_open"`
	NextClose time.Time `json:"next_close"`
	Timestamp time.Time `json:"timestamp"`
}
