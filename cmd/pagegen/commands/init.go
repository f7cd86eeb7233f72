package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/pagegen/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing files"`
	Output string `short:"o" name:"output" help:"Directory to create the site in"`
}

func (i *InitCmd) Run(g *Global, root *CLI) error {
	// If the user specified a directory, place the config there as "pagegen.yaml".
	if i.Output != "" {
		return RunInit(g, filepath.Join(i.Output, config.DefaultFileName), i.Force)
	}
	return RunInit(g, root.Config, i.Force)
}

func RunInit(g *Global, configPath string, force bool) error {
	w := g.out()
	_, _ = fmt.Fprintln(w, "Initializing pagegen site")
	_, _ = fmt.Fprintf(w, "Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		_, _ = fmt.Fprintln(w, "Initialization failed")
		return err
	}
	_, _ = fmt.Fprintf(w, "Initialized successfully; run 'pagegen -c %s build'\n", configPath)
	return nil
}
