package backtest

import (
	"encoding/csv"
	"os"
	"strconv"
)

func WriteTradesCSV(path string, trades []Trade) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(f, &err)

	w := csv.NewWriter(f)

	header := []string{
		"date",
		"symbol",
		"side",
		"price",
		"qty",
		"pnl",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, t := range trades {
		pnl := ""
		if t.PnL != nil {
			pnl = fmtFloat(*t.PnL)
		}
		row := []string{
			t.Date,
			t.Symbol,
			string(t.Side),
			fmtFloat(t.Price),
			strconv.FormatInt(t.Qty, 10),
			pnl,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func WriteEquityCSV(path string, curve []EquityPoint) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer closeFile(f, &err)

	w := csv.NewWriter(f)

	if err := w.Write([]string{"date", "value"}); err != nil {
		return err
	}
	for _, p := range curve {
		if err := w.Write([]string{p.Date, fmtFloat(p.Value)}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// closeFile closes f and reports the close error unless an earlier one is set.
func closeFile(f *os.File, err *error) {
	if cerr := f.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
