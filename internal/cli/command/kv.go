package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/merkle-kv/merklekv/internal/cli/connection"
)

// GetCommand fetches a value by key.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get the value stored under a key",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("usage: get <key>")
			}
			client, err := dial(c)
			if err != nil {
				return err
			}
			defer client.Close()

			value, err := client.Get(c.Args().First())
			if errors.Is(err, connection.ErrNotFound) {
				return cli.Exit("(not found)", 1)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, value)
			return nil
		},
	}
}

// SetCommand stores a value under a key. Value arguments are joined
// with spaces.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Store a value under a key",
		ArgsUsage: "<key> <value>...",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return errors.New("usage: set <key> <value>")
			}
			value := strings.Join(c.Args().Slice()[1:], " ")
			return roundTrip(c, "SET "+c.Args().First()+" "+value)
		},
	}
}

// DelCommand removes a key.
func DelCommand() *cli.Command {
	return &cli.Command{
		Name:      "del",
		Aliases:   []string{"delete"},
		Usage:     "Delete a key",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("usage: del <key>")
			}
			return roundTrip(c, "DEL "+c.Args().First())
		},
	}
}

// KeysCommand lists all keys, one per line.
func KeysCommand() *cli.Command {
	return &cli.Command{
		Name:  "keys",
		Usage: "List all keys",
		Action: func(c *cli.Context) error {
			client, err := dial(c)
			if err != nil {
				return err
			}
			defer client.Close()

			keys, err := client.Keys()
			if err != nil {
				return err
			}
			for _, k := range keys {
				fmt.Fprintln(c.App.Writer, k)
			}
			return nil
		},
	}
}

// CountCommand prints the number of keys.
func CountCommand() *cli.Command {
	return &cli.Command{
		Name:  "count",
		Usage: "Count stored keys",
		Action: func(c *cli.Context) error {
			return roundTrip(c, "COUNT")
		},
	}
}

// IncrCommand increments a numeric value.
func IncrCommand() *cli.Command {
	return stepCommand("incr", "Increment a numeric value", "INCR")
}

// DecrCommand decrements a numeric value.
func DecrCommand() *cli.Command {
	return stepCommand("decr", "Decrement a numeric value", "DECR")
}

func stepCommand(name, usage, wire string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<key> [amount]",
		Action: func(c *cli.Context) error {
			switch c.NArg() {
			case 1:
				return roundTrip(c, wire+" "+c.Args().First())
			case 2:
				return roundTrip(c, wire+" "+c.Args().First()+" "+c.Args().Get(1))
			default:
				return fmt.Errorf("usage: %s <key> [amount]", name)
			}
		},
	}
}

// AppendCommand appends text to a value.
func AppendCommand() *cli.Command {
	return editCommand("append", "Append text to a value", "APPEND")
}

// PrependCommand prepends text to a value.
func PrependCommand() *cli.Command {
	return editCommand("prepend", "Prepend text to a value", "PREPEND")
}

func editCommand(name, usage, wire string) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<key> <text>...",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return fmt.Errorf("usage: %s <key> <text>", name)
			}
			text := strings.Join(c.Args().Slice()[1:], " ")
			return roundTrip(c, wire+" "+c.Args().First()+" "+text)
		},
	}
}

// TruncateCommand removes all keys.
func TruncateCommand() *cli.Command {
	return &cli.Command{
		Name:  "truncate",
		Usage: "Remove all keys",
		Action: func(c *cli.Context) error {
			return roundTrip(c, "TRUNCATE")
		},
	}
}

// SyncCommand forces a durable flush on the server.
func SyncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Flush the storage engine to disk",
		Action: func(c *cli.Context) error {
			return roundTrip(c, "SYNC")
		},
	}
}

// StatsCommand prints storage statistics.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show storage statistics",
		Action: func(c *cli.Context) error {
			return roundTrip(c, "STATS")
		},
	}
}

// PingCommand checks server liveness.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:  "ping",
		Usage: "Check that the server is reachable",
		Action: func(c *cli.Context) error {
			return roundTrip(c, "PING")
		},
	}
}

// roundTrip dials, sends one command, and prints the response line.
func roundTrip(c *cli.Context, cmd string) error {
	client, err := dial(c)
	if err != nil {
		return err
	}
	defer client.Close()

	resp, err := client.Do(cmd)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, resp)
	return nil
}
