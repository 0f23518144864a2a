package command

import (
	"github.com/urfave/cli/v2"

	"github.com/merkle-kv/merklekv/internal/cli/repl"
)

// REPLCommand starts the interactive shell.
func REPLCommand() *cli.Command {
	return &cli.Command{
		Name:    "repl",
		Aliases: []string{"shell"},
		Usage:   "Start an interactive shell against the server",
		Action: func(c *cli.Context) error {
			client, err := dial(c)
			if err != nil {
				return err
			}
			defer client.Close()

			return repl.New(client).Run()
		},
	}
}
