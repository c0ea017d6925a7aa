package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/atmx/stock-game/internal/results"
	"github.com/atmx/stock-game/internal/trade"
)

type startCmd struct {
	capital string
	trades  int
}

func (*startCmd) Name() string     { return "start" }
func (*startCmd) Synopsis() string { return "start a new game" }
func (*startCmd) Usage() string {
	return `stockgame start [-capital <amount>] [-trades <n>]

  Starts a new five-day game, replacing any game in progress. Without flags
  the server's saved settings are used; given flags are saved for later games.
`
}

func (p *startCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.capital, "capital", "", "Starting capital.")
	f.IntVar(&p.trades, "trades", 0, "Trades allowed per day.")
}

func (p *startCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var req *trade.StartRequest
	if p.capital != "" || p.trades != 0 {
		req = &trade.StartRequest{TradesPerDay: p.trades}
		if p.capital != "" {
			c, err := decimal.NewFromString(p.capital)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: invalid capital %q\n", p.capital)
				return subcommands.ExitUsageError
			}
			req.StartingCapital = c
		}
	}

	st, err := newClient().Start(ctx, req)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(statusMarkdown(st, nil))
	return subcommands.ExitSuccess
}

type statusCmd struct{}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "show the current day, cash and holdings" }
func (*statusCmd) Usage() string {
	return `stockgame status
`
}
func (*statusCmd) SetFlags(*flag.FlagSet) {}

func (*statusCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	c := newClient()
	st, err := c.Game(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	holdings, err := c.Holdings(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(statusMarkdown(st, holdings))
	return subcommands.ExitSuccess
}

type advanceCmd struct{}

func (*advanceCmd) Name() string     { return "advance" }
func (*advanceCmd) Synopsis() string { return "move to the next trading day" }
func (*advanceCmd) Usage() string {
	return `stockgame advance

  Revalues the portfolio at the next day's prices and resets the daily trade
  quota. Reaching day 5 ends the game.
`
}
func (*advanceCmd) SetFlags(*flag.FlagSet) {}

func (*advanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	resp, err := newClient().Advance(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if resp.Notice != "" {
		fmt.Fprintln(os.Stderr, resp.Notice)
	}
	printMarkdown(statusMarkdown(resp.State, nil))
	return subcommands.ExitSuccess
}

type resetCmd struct{}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "discard the game and start over" }
func (*resetCmd) Usage() string {
	return `stockgame reset
`
}
func (*resetCmd) SetFlags(*flag.FlagSet) {}

func (*resetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	st, err := newClient().Reset(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(statusMarkdown(st, nil))
	return subcommands.ExitSuccess
}

type resultsCmd struct{}

func (*resultsCmd) Name() string     { return "results" }
func (*resultsCmd) Synopsis() string { return "show profit/loss, best and worst trades and tips" }
func (*resultsCmd) Usage() string {
	return `stockgame results
`
}
func (*resultsCmd) SetFlags(*flag.FlagSet) {}

func (*resultsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rep, err := newClient().Results(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(results.Markdown(rep))
	return subcommands.ExitSuccess
}

type exportCmd struct {
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "download the results as an Excel workbook" }
func (*exportCmd) Usage() string {
	return `stockgame export [-o <file>]
`
}

func (p *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.output, "o", "stock-game-results.xlsx", "Output file.")
}

func (p *exportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	data, err := newClient().ResultsXLSX(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := os.WriteFile(p.output, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not write %s: %v\n", p.output, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "Results written to %s\n", p.output)
	return subcommands.ExitSuccess
}
