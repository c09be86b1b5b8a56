package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitcommits-go/config"
)

// ConfigCmd returns the config command.
func ConfigCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the configuration file",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a configuration file with default values",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Destination file; .yaml/.yml writes YAML, anything else JSON",
						Value:   ".gitcommits.json",
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing file",
					},
				},
				Action: configInitAction,
			},
		},
	}
}

func configInitAction(c *cli.Context) error {
	path := c.String("output")
	if !c.Bool("force") {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	printStatus(c.App.ErrWriter, "Wrote %s", path)
	return nil
}
