package backtest

import "fmt"

// ValidationError is returned for configs rejected before any data fetch.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InsufficientDataError is returned when the series is shorter than the long window.
type InsufficientDataError struct {
	Symbol string
	Need   int
	Have   int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("Not enough data for %s. Need at least %d days of data, got %d.", e.Symbol, e.Need, e.Have)
}
