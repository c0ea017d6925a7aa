package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/atmx/stock-game/internal/client"
	"github.com/atmx/stock-game/internal/market"
	"github.com/atmx/stock-game/internal/model"
)

type marketCmd struct{}

func (*marketCmd) Name() string     { return "market" }
func (*marketCmd) Synopsis() string { return "list companies and today's prices" }
func (*marketCmd) Usage() string {
	return `stockgame market [<ticker>]

  Without argument, lists every company with its price on the current day.
  With a ticker, shows the company's details and price history so far.
`
}
func (*marketCmd) SetFlags(*flag.FlagSet) {}

func (*marketCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	c := newClient()

	if f.NArg() > 0 {
		id, err := market.NormalizeTicker(f.Arg(0))
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return subcommands.ExitUsageError
		}
		co, err := c.Company(ctx, id)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		printMarkdown(companyMarkdown(co))
		return subcommands.ExitSuccess
	}

	ms, err := c.Market(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	day := model.FirstDay
	st, err := c.Game(ctx)
	var apiErr *client.APIError
	switch {
	case err == nil:
		day = min(st.CurrentDay, model.LastDay)
	case errors.As(err, &apiErr) && apiErr.Code == "no_game":
	default:
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(marketMarkdown(market.New(ms), day))
	return subcommands.ExitSuccess
}

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "replace the market data with a CSV file" }
func (*importCmd) Usage() string {
	return `stockgame import <file.csv>

  The file needs the columns Company Name, Ticker Symbol and Day 1 to Day 5;
  Sector and Description are optional. Refused while a game is in progress.
`
}
func (*importCmd) SetFlags(*flag.FlagSet) {}

func (*importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: expected a CSV file")
		return subcommands.ExitUsageError
	}
	data, err := os.ReadFile(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	ms, err := newClient().ImportMarket(ctx, data)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "Imported %d companies\n", len(ms.Companies))
	return subcommands.ExitSuccess
}
