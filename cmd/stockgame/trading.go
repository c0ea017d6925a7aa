package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/atmx/stock-game/internal/market"
	"github.com/atmx/stock-game/internal/trade"
)

// parseTrade reads the "<ticker> <shares>" arguments of buy and sell.
func parseTrade(f *flag.FlagSet) (string, decimal.Decimal, error) {
	if f.NArg() != 2 {
		return "", decimal.Zero, fmt.Errorf("expected <ticker> <shares>")
	}
	id, err := market.NormalizeTicker(f.Arg(0))
	if err != nil {
		return "", decimal.Zero, err
	}
	shares, err := decimal.NewFromString(f.Arg(1))
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("invalid share count %q", f.Arg(1))
	}
	return id, shares, nil
}

func printTrade(resp trade.TradeResponse) {
	tx := resp.Transaction
	fmt.Printf("%s %s %s @ %s = %s\n",
		strings.ToUpper(string(tx.Type)), tx.Shares, tx.CompanyID, tx.Price.StringFixed(2), tx.Amount().StringFixed(2))
	printMarkdown(statusMarkdown(resp.State, nil))
}

type buyCmd struct{}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "buy shares at today's price" }
func (*buyCmd) Usage() string {
	return `stockgame buy <ticker> <shares>

Usage Examples:
$ stockgame buy EMAAR 100
`
}
func (*buyCmd) SetFlags(*flag.FlagSet) {}

func (*buyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, shares, err := parseTrade(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	resp, err := newClient().Buy(ctx, id, shares)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printTrade(resp)
	return subcommands.ExitSuccess
}

type sellCmd struct{}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell shares at today's price" }
func (*sellCmd) Usage() string {
	return `stockgame sell <ticker> <shares>
`
}
func (*sellCmd) SetFlags(*flag.FlagSet) {}

func (*sellCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	id, shares, err := parseTrade(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	resp, err := newClient().Sell(ctx, id, shares)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printTrade(resp)
	return subcommands.ExitSuccess
}
