package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/carlmjohnson/versioninfo"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "skyrepost",
		Usage:   "curated bluesky repost bot",
		Version: versioninfo.Short(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to the curation config document",
				Value: "config.json",
			},
			&cli.StringFlag{
				Name:  "state",
				Usage: "path to the run-state document (default: XDG state dir)",
			},
			&cli.StringFlag{
				Name:    "pds-host",
				Usage:   "method, hostname, and port of PDS instance",
				EnvVars: []string{"ATP_PDS_HOST"},
			},
			&cli.StringFlag{
				Name:    "handle",
				Usage:   "account handle for login",
				EnvVars: []string{"BSKY_USERNAME", "ATP_AUTH_HANDLE"},
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "account app password for login",
				EnvVars: []string{"BSKY_PASSWORD", "ATP_AUTH_PASSWORD"},
			},
		},
	}
	app.Commands = []*cli.Command{
		cmdRun,
		cmdServe,
	}
	return app.Run(args)
}
