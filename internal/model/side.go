package model

// Side is the direction of a fill.
// Keep these values stable; they are persisted in result files and CSV output.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}
