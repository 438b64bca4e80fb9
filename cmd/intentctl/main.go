package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "intentctl",
		Usage:     "Command-line client for the intent crime records service",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "intent server URL",
				Value:   "http://localhost:8888",
				EnvVars: []string{"INTENT_SERVER"},
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print raw JSON instead of tables",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List crimes, newest first",
				Action: listCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "solved", Usage: "Only solved (true) or unsolved (false) crimes"},
					&cli.StringFlag{Name: "q", Usage: "Case-insensitive search in title and details"},
					&cli.StringFlag{Name: "from", Usage: "Earliest date, inclusive (ISO-8601)"},
					&cli.StringFlag{Name: "to", Usage: "Latest date, inclusive (ISO-8601); a bare date covers the whole day"},
				},
			},
			{
				Name:      "get",
				Usage:     "Show a crime",
				ArgsUsage: "<id>",
				Action:    getCommand,
			},
			{
				Name:   "add",
				Usage:  "Record a new crime",
				Action: addCommand,
				Flags:  append([]cli.Flag{&cli.StringFlag{Name: "title", Usage: "Crime title", Required: true}}, recordFlags()...),
			},
			{
				Name:      "update",
				Usage:     "Change fields of an existing crime",
				ArgsUsage: "<id>",
				Action:    updateCommand,
				Flags:     append([]cli.Flag{&cli.StringFlag{Name: "title", Usage: "Crime title"}}, recordFlags()...),
			},
			{
				Name:      "delete",
				Usage:     "Delete a crime",
				ArgsUsage: "<id>",
				Action:    deleteCommand,
			},
			{
				Name:   "clear",
				Usage:  "Delete every crime",
				Action: clearCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "Confirm deleting every crime"},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show collection statistics",
				Action: statsCommand,
			},
			{
				Name:      "theme",
				Usage:     "Show the selected theme, or select one",
				ArgsUsage: "[key]",
				Action:    themeCommand,
			},
			{
				Name:   "themes",
				Usage:  "List available themes",
				Action: themesCommand,
			},
			{
				Name:  "backup",
				Usage: "Manage storage backups",
				Subcommands: []*cli.Command{
					{Name: "create", Usage: "Create a backup", Action: backupCreateCommand},
					{Name: "list", Usage: "List backups", Action: backupListCommand},
					{Name: "restore", Usage: "Restore a backup", ArgsUsage: "<name>", Action: backupRestoreCommand},
				},
			},
			{
				Name:   "health",
				Usage:  "Show server health",
				Action: healthCommand,
			},
		},
	}
}

func recordFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "details", Usage: "Free-form details"},
		&cli.StringFlag{Name: "date", Usage: "When it happened (ISO-8601, defaults to now on add)"},
		&cli.BoolFlag{Name: "solved", Usage: "Mark as solved"},
		&cli.StringFlag{Name: "photo", Usage: "Photo URI (file://, content://, http(s)://, data:image/)"},
	}
}
