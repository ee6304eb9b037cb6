// epubsage is a command line tool for inspecting EPUB files and
// extracting their structured content.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/Abdullah-Wex/epubsage/config"
)

// env carries shared state between command setup and actions.
type env struct {
	cfg *config.Config
	log *zap.Logger
}

type envKey struct{}

func envFromContext(ctx context.Context) *env {
	if e, ok := ctx.Value(envKey{}).(*env); ok {
		return e
	}
	return &env{cfg: config.Default(), log: zap.NewNop()}
}

// initializeAppContext prepares configuration and logging after the
// command line has been parsed.
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	e := envFromContext(ctx)

	var err error
	if e.cfg, err = config.Load(cmd.String("config")); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if cmd.Bool("debug") {
		e.cfg.Logging.Level = "debug"
	}
	if e.log, err = e.cfg.Logging.Prepare(); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, _ *cli.Command) error {
	e := envFromContext(ctx)
	if e.log != nil {
		_ = e.log.Sync()
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(
		context.WithValue(context.Background(), envKey{}, &env{}),
		os.Interrupt, syscall.SIGTERM)

	app := &cli.Command{
		Name:            "epubsage",
		Usage:           "inspect EPUB files and extract their structured content",
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "enable debug logging"},
		},
		Commands: []*cli.Command{
			infoCommand(),
			metadataCommand(),
			tocCommand(),
			chaptersCommand(),
			spineCommand(),
			manifestCommand(),
			listCommand(),
			imagesCommand(),
			coverCommand(),
			extractCommand(),
			searchCommand(),
			statsCommand(),
			validateCommand(),
		},
	}

	var err error
	defer func() {
		stop()
		if err != nil {
			fmt.Fprintf(os.Stderr, "epubsage: %v\n", err)
			os.Exit(1)
		}
	}()
	err = app.Run(ctx, os.Args)
}
