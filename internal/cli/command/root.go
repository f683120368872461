package command

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/kvmesh-go/internal/cli/connection"
	"github.com/yndnr/kvmesh-go/internal/cli/output"
	"github.com/yndnr/kvmesh-go/internal/cli/repl"
	"github.com/yndnr/kvmesh-go/internal/infra/buildinfo"
)

const (
	metaClient    = "client"
	metaFormatter = "formatter"
)

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "kvmesh-cli",
		Usage:   "kvmesh command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			GetCommand(),
			SetCommand(),
			RawCommand(),
		},
		Before: before,
		After:  after,
		Action: interactive,
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "kvmesh server address",
			EnvVars: []string{"KVMESH_SERVER"},
			Value:   "127.0.0.1:6379",
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Aliases: []string{"t"},
			Usage:   "Dial and reply timeout",
			EnvVars: []string{"KVMESH_TIMEOUT"},
			Value:   connection.DefaultTimeout,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: raw, json, yaml",
			Value:   string(output.FormatRaw),
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server  string
	Timeout time.Duration
	Output  string
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Server:  c.String("server"),
		Timeout: c.Duration("timeout"),
		Output:  c.String("output"),
	}
}

func before(c *cli.Context) error {
	flags := ParseGlobalFlags(c)

	formatter, err := output.NewFormatter(output.Format(flags.Output))
	if err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = make(map[string]any)
	}
	c.App.Metadata[metaClient] = connection.NewClient(flags.Server, flags.Timeout)
	c.App.Metadata[metaFormatter] = formatter
	return nil
}

func after(c *cli.Context) error {
	if client := GetClient(c); client != nil {
		return client.Close()
	}
	return nil
}

// GetClient retrieves the server client from context.
func GetClient(c *cli.Context) *connection.Client {
	if client, ok := c.App.Metadata[metaClient].(*connection.Client); ok {
		return client
	}
	return nil
}

// GetFormatter retrieves the reply formatter from context.
func GetFormatter(c *cli.Context) output.Formatter {
	if f, ok := c.App.Metadata[metaFormatter].(output.Formatter); ok {
		return f
	}
	return output.RawFormatter{}
}

// interactive starts the REPL when kvmesh-cli runs without a command.
func interactive(c *cli.Context) error {
	if c.NArg() > 0 {
		return fmt.Errorf("unknown command %q", c.Args().First())
	}

	client := GetClient(c)
	if client == nil {
		return fmt.Errorf("client not initialized")
	}

	r := repl.New(client, GetFormatter(c), client.Addr(),
		repl.WithIO(os.Stdin, c.App.Writer),
	)
	return r.Run(c.Context)
}
