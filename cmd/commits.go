package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitcommits-go/internal/output"
	"github.com/masmgr/gitcommits-go/internal/service"
)

// CommitsCmd returns the commits command.
func CommitsCmd() *cli.Command {
	flags := append(commonFlags(),
		&cli.StringFlag{
			Name:     "repo",
			Aliases:  []string{"r"},
			Usage:    "Repository: local path or clone URL, owner/repo, or a hosting URL",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "type",
			Aliases: []string{"t"},
			Usage:   "Repository type (local, github, bitbucket); defaults to the config value",
		},
		&cli.StringFlag{
			Name:    "branch",
			Aliases: []string{"b"},
			Usage:   "Branch to read; defaults to the config value",
		},
		&cli.StringFlag{
			Name:  "username",
			Usage: "Keep commits whose author name matches (case-insensitive)",
		},
		&cli.StringFlag{
			Name:  "email",
			Usage: "Keep commits whose author email matches (case-insensitive)",
		},
		&cli.StringFlag{
			Name:  "since",
			Usage: "Keep commits on or after this date (YYYY-MM-DD or RFC 3339)",
		},
		&cli.StringFlag{
			Name:  "until",
			Usage: "Keep commits on or before this date (YYYY-MM-DD or RFC 3339)",
		},
		&cli.StringFlag{
			Name:    "auth-token",
			Usage:   "Access token for private repositories",
			EnvVars: []string{"GITCOMMITS_AUTH_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "auth-username",
			Usage:   "Username paired with the access token",
			EnvVars: []string{"GITCOMMITS_AUTH_USERNAME"},
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (console, json, csv, markdown, ci)",
			Value:   "console",
		},
		&cli.IntFlag{
			Name:    "top",
			Aliases: []string{"n"},
			Usage:   "Number of commits to show (0 shows all)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output file path (default: stdout)",
		},
		&cli.BoolFlag{
			Name:  "show-files",
			Usage: "List changed files under each commit (console, markdown)",
		},
		&cli.BoolFlag{
			Name:  "summary",
			Usage: "Add author and most-changed-file tables (console, markdown)",
		},
	)

	return &cli.Command{
		Name:    "commits",
		Aliases: []string{"c"},
		Usage:   "Retrieve commit history with optional author and date filters",
		Flags:   flags,
		Action:  commitsAction,
	}
}

// requestFromFlags builds the retrieval request from command flags.
func requestFromFlags(c *cli.Context) (service.Request, error) {
	since, err := parseDateFlag(c.String("since"))
	if err != nil {
		return service.Request{}, fmt.Errorf("invalid since date: %w", err)
	}
	until, err := parseUntilFlag(c.String("until"))
	if err != nil {
		return service.Request{}, fmt.Errorf("invalid until date: %w", err)
	}
	return service.Request{
		RepoPath:     c.String("repo"),
		RepoType:     c.String("type"),
		Username:     c.String("username"),
		Email:        c.String("email"),
		StartDate:    since,
		EndDate:      until,
		Branch:       c.String("branch"),
		AuthToken:    c.String("auth-token"),
		AuthUsername: c.String("auth-username"),
	}, nil
}

func commitsAction(c *cli.Context) error {
	req, err := requestFromFlags(c)
	if err != nil {
		return err
	}

	cmdCtx, err := NewCommandContext(c)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(c.Context)
	defer stop()

	resp, err := cmdCtx.Service.Fetch(ctx, req)
	if err != nil {
		return err
	}

	// The console report prints warnings itself.
	opts := OutputOptions(c)
	if opts.Format != output.FormatConsole || opts.OutputPath != "" {
		printWarnings(os.Stderr, resp.Warnings)
	}

	return writeCommitReport(c, resp)
}
