package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"paper-trader/internal/analysis"
	"paper-trader/internal/data"
	"paper-trader/internal/model"
)

func rankCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "rank",
		Usage: "rank saved bar files by perfect-foresight return",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:     "data",
				Usage:    "bars JSON files or directories of them",
				Required: true,
			},
		},
		Action: func(c *cli.Context) error {
			bySymbol := map[string][]model.Bar{}
			for _, p := range c.StringSlice("data") {
				files, err := barFiles(p)
				if err != nil {
					return err
				}
				for _, f := range files {
					resp, err := data.LoadBarsJSON(f)
					if err != nil {
						return err
					}
					sym := strings.ToUpper(resp.Symbol)
					if sym == "" {
						sym = strings.ToUpper(strings.TrimSuffix(filepath.Base(f), ".json"))
					}
					bySymbol[sym] = append(bySymbol[sym], resp.Bars...)
				}
			}

			tw := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "rank\tsymbol\tcount\tp05/p95\tvol%\tbuy&hold%\toracle%")
			for i, r := range analysis.RankByOracleReturn(bySymbol) {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%.2f/%.2f\t%.2f\t%.2f\t%.2f\n",
					i+1,
					r.Symbol,
					r.Count,
					r.P05Close,
					r.P95Close,
					r.Volatility,
					r.BuyHoldReturnPct,
					r.OracleReturnPct)
			}
			return tw.Flush()
		},
	}
}

// barFiles expands a directory into its .json files.
func barFiles(p string) ([]string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{p}, nil
	}
	entries, err := os.ReadDir(p)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		out = append(out, filepath.Join(p, e.Name()))
	}
	return out, nil
}
