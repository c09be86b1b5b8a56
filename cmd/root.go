package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitcommits-go/config"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "gitcommits",
		Usage:   "Retrieve filtered commit history from local, GitHub and Bitbucket repositories",
		Version: "1.0.0",
		Commands: []*cli.Command{
			CommitsCmd(),
			ServeCmd(),
			ConfigCmd(),
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file (JSON or YAML)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error); overrides the config file",
				EnvVars: []string{"GITCOMMITS_LOG_LEVEL"},
			},
		},
	}
}

// Flags shared by every command that talks to a backend.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "include",
			Usage: "Glob patterns of changed files to keep (can be specified multiple times)",
		},
		&cli.StringSliceFlag{
			Name:  "exclude",
			Usage: "Glob patterns of changed files to drop (can be specified multiple times)",
		},
		&cli.StringFlag{
			Name:  "temp-dir",
			Usage: "Base directory for temporary clones",
		},
	}
}

const dateLayout = "2006-01-02"

// parseDateFlag parses a date string flag. RFC 3339 timestamps are accepted too.
func parseDateFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", s)
	}
	return &t, nil
}

// parseUntilFlag is parseDateFlag where a bare date covers the whole day.
func parseUntilFlag(s string) (*time.Time, error) {
	t, err := parseDateFlag(s)
	if err != nil || t == nil {
		return t, err
	}
	if _, perr := time.Parse(dateLayout, s); perr == nil {
		end := t.Add(24*time.Hour - time.Nanosecond)
		return &end, nil
	}
	return t, nil
}

// loadConfig loads configuration from file or defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	configPath := c.String("config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Apply overrides from CLI
	if includes := c.StringSlice("include"); len(includes) > 0 {
		cfg.Filters.Include = includes
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.Filters.Exclude = excludes
	}
	if dir := c.String("temp-dir"); dir != "" {
		cfg.Clone.TempDir = dir
	}
	if level := c.String("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newLogger builds the process logger. Logs go to stderr so reports on
// stdout stay machine-readable.
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if level == "" {
		level = "warn"
	}
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// Run executes the CLI application.
func Run() {
	if err := App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
