package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"paper-trader/internal/bot"
)

func botCommand(e *env) *cli.Command {
	controller := func() *bot.Controller {
		return bot.NewController(e.cfg.Storage.DataDir, e.cfg.Serverless(), e.logger)
	}

	subs := []*cli.Command{
		{
			Name:  "status",
			Usage: "print the bot control state",
			Action: func(c *cli.Context) error {
				st, err := controller().Status(c.Context)
				if err != nil {
					return err
				}
				printState(e, st)
				return nil
			},
		},
		{
			Name:      "symbols",
			Usage:     "replace the bot watchlist",
			ArgsUsage: "<SYMBOL>...",
			Action: func(c *cli.Context) error {
				var symbols []string
				for _, a := range c.Args().Slice() {
					symbols = append(symbols, strings.Split(a, ",")...)
				}
				st, err := controller().SetSymbols(c.Context, symbols)
				if err != nil {
					return err
				}
				fmt.Fprintf(e.out, "Watchlist: %s\n", strings.Join(st.Symbols, ", "))
				return nil
			},
		},
	}
	for _, a := range []bot.Action{bot.ActionStart, bot.ActionPause, bot.ActionStop} {
		action := a
		subs = append(subs, &cli.Command{
			Name:  string(action),
			Usage: fmt.Sprintf("%s the bot", action),
			Action: func(c *cli.Context) error {
				st, msg, err := controller().Apply(c.Context, action)
				if err != nil {
					return err
				}
				fmt.Fprintln(e.out, msg)
				printState(e, st)
				return nil
			},
		})
	}

	return &cli.Command{
		Name:        "bot",
		Usage:       "control the local trading bot",
		Subcommands: subs,
	}
}

func printState(e *env, st bot.ControlState) {
	fmt.Fprintf(e.out, "status:  %s\n", st.Status)
	fmt.Fprintf(e.out, "mode:    %s\n", st.Mode)
	fmt.Fprintf(e.out, "symbols: %s\n", strings.Join(st.Symbols, ", "))
	fmt.Fprintf(e.out, "updated: %s\n", st.LastUpdated.Format("2006-01-02 15:04:05 MST"))
	if st.Error != nil {
		fmt.Fprintf(e.out, "error:   %s\n", *st.Error)
	}
}
