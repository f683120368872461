package command

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvmesh-go/internal/resp"
)

// ErrReply marks a command whose server reply was an error frame. The reply
// itself is already printed.
var ErrReply = errors.New("server returned an error")

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get the value of a key",
		ArgsUsage: "KEY",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("get requires exactly one argument: KEY")
			}
			return send(c, "GET", c.Args().First())
		},
	}
}

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Set a key to a value",
		ArgsUsage: "KEY VALUE",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("set requires exactly two arguments: KEY VALUE")
			}
			return send(c, "SET", c.Args().Get(0), c.Args().Get(1))
		},
	}
}

// RawCommand returns the raw command, which sends its arguments verbatim.
func RawCommand() *cli.Command {
	return &cli.Command{
		Name:      "raw",
		Usage:     "Send an arbitrary command and print the reply",
		ArgsUsage: "ARG...",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("raw requires at least one argument")
			}
			return send(c, c.Args().Slice()...)
		},
	}
}

func send(c *cli.Context, args ...string) error {
	client := GetClient(c)
	if client == nil {
		return fmt.Errorf("client not initialized")
	}

	reply, err := client.Do(c.Context, args...)
	if err != nil {
		return err
	}
	if err := GetFormatter(c).Format(c.App.Writer, reply); err != nil {
		return err
	}
	if _, ok := reply.(resp.ErrorString); ok {
		return ErrReply
	}
	return nil
}
