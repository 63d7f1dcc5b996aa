package model

// Account is the brokerage account summary shown on the dashboard.
// Alpaca sends these amounts as strings; the data client converts them.
type Account struct {
	Cash           float64 `json:"cash"`
	PortfolioValue float64 `json:"portfolio_value"`
	BuyingPower    float64 `json:"buying_power"`
	Equity         float64 `json:"equity"`
	LastEquity     float64 `json:"last_equity"`
}

// Position is an open brokerage position.
type Position struct {
	Symbol         string  `json:"symbol"`
	Qty            float64 `json:"qty"`
	AvgEntryPrice  float64 `json:"avg_entry_price"`
	MarketValue    float64 `json:"market_value"`
	UnrealizedPL   float64 `json:"unrealized_pl"`
	UnrealizedPLPC float64 `json:"unrealized_plpc"`
	CurrentPrice   float64 `json:"current_price"`
}
