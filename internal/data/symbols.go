package data

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// SymbolInfo describes a tradable instrument offered in the dashboard pickers.
type SymbolInfo struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Category string `json:"category"` // stock, etf, crypto, commodity, index
	Popular  bool   `json:"popular,omitempty"`
}

// SymbolList is the on-disk catalog format.
type SymbolList struct {
	UpdatedAt string       `json:"updated_at"` // ISO 8601 timestamp
	Symbols   []SymbolInfo `json:"symbols"`
}

// SymbolCategories maps category ids to display labels.
var SymbolCategories = map[string]string{
	"stock":     "Stocks",
	"etf":       "ETFs",
	"crypto":    "Cryptocurrency",
	"commodity": "Commodities",
	"index":     "Indices",
}

// DefaultSymbols is the built-in catalog used when no symbols file is configured.
var DefaultSymbols = []SymbolInfo{
	{Symbol: "AAPL", Name: "Apple Inc.", Category: "stock", Popular: true},
	{Symbol: "MSFT", Name: "Microsoft Corporation", Category: "stock", Popular: true},
	{Symbol: "GOOGL", Name: "Alphabet Inc. (Google)", Category: "stock", Popular: true},
	{Symbol: "AMZN", Name: "Amazon.com Inc.", Category: "stock", Popular: true},
	{Symbol: "TSLA", Name: "Tesla Inc.", Category: "stock", Popular: true},
	{Symbol: "NVDA", Name: "NVIDIA Corporation", Category: "stock", Popular: true},
	{Symbol: "META", Name: "Meta Platforms Inc.", Category: "stock", Popular: true},
	{Symbol: "NFLX", Name: "Netflix Inc.", Category: "stock", Popular: true},
	{Symbol: "AMD", Name: "Advanced Micro Devices", Category: "stock", Popular: true},
	{Symbol: "INTC", Name: "Intel Corporation", Category: "stock", Popular: true},
	{Symbol: "ORCL", Name: "Oracle Corporation", Category: "stock"},
	{Symbol: "ADBE", Name: "Adobe Inc.", Category: "stock"},
	{Symbol: "CRM", Name: "Salesforce Inc.", Category: "stock"},
	{Symbol: "JPM", Name: "JPMorgan Chase & Co.", Category: "stock", Popular: true},
	{Symbol: "BAC", Name: "Bank of America Corp.", Category: "stock"},
	{Symbol: "GS", Name: "Goldman Sachs Group", Category: "stock"},
	{Symbol: "V", Name: "Visa Inc.", Category: "stock", Popular: true},
	{Symbol: "MA", Name: "Mastercard Inc.", Category: "stock"},
	{Symbol: "WMT", Name: "Walmart Inc.", Category: "stock"},
	{Symbol: "COST", Name: "Costco Wholesale", Category: "stock"},
	{Symbol: "DIS", Name: "Walt Disney Company", Category: "stock", Popular: true},
	{Symbol: "JNJ", Name: "Johnson & Johnson", Category: "stock"},
	{Symbol: "PFE", Name: "Pfizer Inc.", Category: "stock"},
	{Symbol: "XOM", Name: "Exxon Mobil Corporation", Category: "stock"},
	{Symbol: "CVX", Name: "Chevron Corporation", Category: "stock"},
	{Symbol: "F", Name: "Ford Motor Company", Category: "stock"},
	{Symbol: "BA", Name: "Boeing Company", Category: "stock"},
	{Symbol: "T", Name: "AT&T Inc.", Category: "stock"},
	{Symbol: "SPY", Name: "SPDR S&P 500 ETF", Category: "etf", Popular: true},
	{Symbol: "QQQ", Name: "Invesco QQQ Trust (Nasdaq-100)", Category: "etf", Popular: true},
	{Symbol: "IWM", Name: "iShares Russell 2000 ETF", Category: "etf", Popular: true},
	{Symbol: "DIA", Name: "SPDR Dow Jones Industrial Average ETF", Category: "etf"},
	{Symbol: "VTI", Name: "Vanguard Total Stock Market ETF", Category: "etf"},
	{Symbol: "VOO", Name: "Vanguard S&P 500 ETF", Category: "etf"},
	{Symbol: "AGG", Name: "iShares Core U.S. Aggregate Bond ETF", Category: "etf"},
	{Symbol: "GLD", Name: "SPDR Gold Shares", Category: "etf", Popular: true},
	{Symbol: "SLV", Name: "iShares Silver Trust", Category: "etf"},
	{Symbol: "XLK", Name: "Technology Select Sector SPDR Fund", Category: "etf"},
	{Symbol: "TLT", Name: "iShares 20+ Year Treasury Bond ETF", Category: "etf"},
	{Symbol: "BTCUSD", Name: "Bitcoin", Category: "crypto", Popular: true},
	{Symbol: "ETHUSD", Name: "Ethereum", Category: "crypto", Popular: true},
	{Symbol: "GC=F", Name: "Gold Futures", Category: "commodity", Popular: true},
	{Symbol: "CL=F", Name: "Crude Oil Futures", Category: "commodity"},
	{Symbol: "^GSPC", Name: "S&P 500 Index", Category: "index"},
	{Symbol: "^VIX", Name: "CBOE Volatility Index", Category: "index"},
}

// SymbolFilter narrows a catalog. Zero values match everything.
type SymbolFilter struct {
	Category    string
	Query       string // case-insensitive substring of symbol or name
	PopularOnly bool
}

// FilterSymbols returns the entries of list matching f, in catalog order.
func FilterSymbols(list []SymbolInfo, f SymbolFilter) []SymbolInfo {
	q := strings.ToLower(strings.TrimSpace(f.Query))
	cat := strings.ToLower(strings.TrimSpace(f.Category))
	out := make([]SymbolInfo, 0, len(list))
	for _, s := range list {
		if f.PopularOnly && !s.Popular {
			continue
		}
		if cat != "" && s.Category != cat {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(s.Symbol), q) && !strings.Contains(strings.ToLower(s.Name), q) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// LookupSymbol finds an entry by ticker.
func LookupSymbol(list []SymbolInfo, symbol string) (SymbolInfo, bool) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	for _, s := range list {
		if s.Symbol == symbol {
			return s, true
		}
	}
	return SymbolInfo{}, false
}

// LoadSymbols loads a catalog from a JSON file.
func LoadSymbols(filePath string) (*SymbolList, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read symbols file: %w", err)
	}

	var list SymbolList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("failed to parse symbols file: %w", err)
	}
	for _, s := range list.Symbols {
		if _, ok := SymbolCategories[s.Category]; !ok {
			return nil, fmt.Errorf("symbol %s has unknown category %q", s.Symbol, s.Category)
		}
	}
	return &list, nil
}
