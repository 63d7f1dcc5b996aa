package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"paper-trader/internal/store"
)

func resultsCommand(e *env) *cli.Command {
	results := func() *store.ResultStore {
		return store.NewResultStore(e.cfg.BacktestDir(), e.logger)
	}
	return &cli.Command{
		Name:  "results",
		Usage: "inspect stored backtest results",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list results, newest first",
				Action: func(c *cli.Context) error {
					list, err := results().List(c.Context)
					if err != nil {
						return err
					}
					tw := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
					fmt.Fprintln(tw, "id\tcreated\tsymbol\twindows\treturn%\ttrades")
					for _, r := range list {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%.2f\t%d\n",
							r.ID,
							r.CreatedAt.Format("2006-01-02 15:04"),
							r.Config.Symbol(),
							r.Config.ShortWindow,
							r.Config.LongWindow,
							r.Metrics.TotalReturnPct,
							r.Metrics.TotalTrades)
					}
					return tw.Flush()
				},
			},
			{
				Name:      "show",
				Usage:     "print a result's metrics and trades",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "id")
					if err != nil {
						return err
					}
					res, err := results().Get(c.Context, id)
					if err != nil {
						return err
					}
					printMetrics(e, res)
					fmt.Fprintln(e.out)
					tw := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
					fmt.Fprintln(tw, "date\tside\tqty\tprice\tpnl")
					for _, t := range res.Trades {
						pnl := ""
						if t.PnL != nil {
							pnl = fmt.Sprintf("%.2f", *t.PnL)
						}
						fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%s\n", t.Date, t.Side, t.Qty, t.Price, pnl)
					}
					return tw.Flush()
				},
			},
			{
				Name:      "delete",
				Usage:     "delete a stored result",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "id")
					if err != nil {
						return err
					}
					if err := results().Delete(c.Context, id); err != nil {
						return err
					}
					fmt.Fprintf(e.out, "Deleted %s\n", id)
					return nil
				},
			},
		},
	}
}

func requireArg(c *cli.Context, name string) (string, error) {
	if c.NArg() < 1 {
		return "", fmt.Errorf("missing <%s> argument", name)
	}
	return c.Args().First(), nil
}
