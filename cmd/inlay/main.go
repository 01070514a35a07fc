// Command inlay drives the inlay hint cache: it replays scripted editor sessions and
// shows the hints a language server reports for a file.
package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"
)

var version = "dev"

func main() {
	app := &cli.Command{
		Name:    "inlay",
		Version: version,
		Usage:   "Inlay hint cache tooling",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "config file (default: nearest .inlay.yaml)",
				Sources: cli.EnvVars("INLAY_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level: debug, info, warn or error (overrides config)",
				Sources: cli.EnvVars("INLAY_LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			replayCommand(),
			hintsCommand(),
		},
	}

	err := app.Run(context.Background(), os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
