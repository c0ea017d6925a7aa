// Command stockgame plays the stock trading game against a stockgame server.
package main

import (
	"context"
	"flag"
	"os"
	"path"
	"time"

	"github.com/google/subcommands"

	"github.com/atmx/stock-game/internal/client"
	"github.com/atmx/stock-game/internal/config"
)

var (
	serverURL     string
	clientTimeout time.Duration
)

func newClient() *client.Client {
	return client.New(serverURL, clientTimeout)
}

func main() {
	cfg := config.MustLoad()
	flag.StringVar(&serverURL, "server", cfg.Client.Server, "Base URL of the game server")
	flag.DurationVar(&clientTimeout, "timeout", cfg.Client.Timeout, "Request timeout")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&startCmd{}, "game")
	commander.Register(&statusCmd{}, "game")
	commander.Register(&advanceCmd{}, "game")
	commander.Register(&resetCmd{}, "game")
	commander.Register(&resultsCmd{}, "game")
	commander.Register(&exportCmd{}, "game")

	commander.Register(&buyCmd{}, "trading")
	commander.Register(&sellCmd{}, "trading")

	commander.Register(&marketCmd{}, "market")
	commander.Register(&importCmd{}, "market")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
