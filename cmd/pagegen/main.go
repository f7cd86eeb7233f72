package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pagegen/cmd/pagegen/commands"
	pgerrors "git.home.luguber.info/inful/pagegen/internal/errors"
	"git.home.luguber.info/inful/pagegen/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Must(&cli,
		kong.Name("pagegen"),
		kong.Description("Generate a static site from a route tree, templates and data collections."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	err = kctx.Run(&commands.Global{Logger: slog.Default(), Stdout: os.Stdout}, &cli)
	pgerrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
