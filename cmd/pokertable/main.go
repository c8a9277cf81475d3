package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Serve    ServeCmd         `cmd:"" help:"Run the table server"`
	Hands    HandsCmd         `cmd:"" help:"Show a player's recent hands"`
	Watch    WatchCmd         `cmd:"" help:"Follow a table's activity on a running server"`
	Simulate SimulateCmd      `cmd:"" help:"Play bot-only tables in memory and check table invariants"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("pokertable"),
		kong.Description("Authoritative poker table server for 2-7 lowball and hold'em"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
