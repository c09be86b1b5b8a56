package cmd

import (
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/masmgr/gitcommits-go/internal/server"
)

// ServeCmd returns the serve command.
func ServeCmd() *cli.Command {
	flags := append(commonFlags(),
		&cli.StringFlag{
			Name:    "addr",
			Aliases: []string{"a"},
			Usage:   "Listen address; defaults to the config value",
			EnvVars: []string{"GITCOMMITS_ADDR"},
		},
		&cli.DurationFlag{
			Name:  "request-timeout",
			Usage: "Upper bound for one retrieval request; defaults to the config value",
		},
	)

	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve POST /commits/ over HTTP",
		Flags:  flags,
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	cmdCtx, err := NewCommandContext(c)
	if err != nil {
		return err
	}

	addr := cmdCtx.Config.Server.Addr
	if v := c.String("addr"); v != "" {
		addr = v
	}
	timeout := time.Duration(cmdCtx.Config.Server.RequestTimeoutSeconds) * time.Second
	if c.IsSet("request-timeout") {
		timeout = c.Duration("request-timeout")
	}

	ctx, stop := signalContext(c.Context)
	defer stop()

	srv := server.New(cmdCtx.Service, server.Options{
		RequestTimeout: timeout,
		Logger:         cmdCtx.Logger,
	})
	printStatus(os.Stderr, "Serving POST /commits/ on %s", addr)
	return srv.ListenAndServe(ctx, addr)
}
