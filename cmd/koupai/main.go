package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Server  ServerCmd        `cmd:"" help:"Run the room server"`
	Client  ClientCmd        `cmd:"" help:"Connect as an interactive player"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("koupai"),
		kong.Description("Knock-and-showdown flush card game over WebSocket"),
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
