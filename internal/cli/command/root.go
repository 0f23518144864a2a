package command

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/merkle-kv/merklekv/internal/cli/connection"
	"github.com/merkle-kv/merklekv/internal/infra/buildinfo"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "merklekv-cli",
		Usage:   "MerkleKV command-line client",
		Version: buildinfo.Get().String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			GetCommand(),
			SetCommand(),
			DelCommand(),
			KeysCommand(),
			CountCommand(),
			IncrCommand(),
			DecrCommand(),
			AppendCommand(),
			PrependCommand(),
			TruncateCommand(),
			SyncCommand(),
			StatsCommand(),
			PingCommand(),
			REPLCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "MerkleKV server address",
			EnvVars: []string{"MERKLEKV_SERVER"},
			Value:   "127.0.0.1:7379",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "Command round-trip timeout",
			Value:   5 * time.Second,
		},
	}
}

// dial connects to the server named by the global flags.
func dial(c *cli.Context) (*connection.Client, error) {
	return connection.Dial(c.String("server"), c.Duration("timeout"))
}
