package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/simp-lee/epubreader/config"
)

type envKey struct{}

// localEnv keeps everything the commands need in a single place.
type localEnv struct {
	Cfg *config.Config
	Log *zap.Logger

	start time.Time
}

func envFromContext(ctx context.Context) *localEnv {
	if env, ok := ctx.Value(envKey{}).(*localEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func contextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &localEnv{Log: zap.NewNop(), start: time.Now()})
}

// initializeAppContext prepares application context before command execution but
// after command line has been parsed
func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var err error

	env := envFromContext(ctx)

	configFile := cmd.String("config")
	if env.Cfg, err = config.LoadConfiguration(configFile); err != nil {
		return ctx, fmt.Errorf("unable to prepare configuration: %w", err)
	}
	if env.Log, err = env.Cfg.Logging.Prepare(cmd.Bool("debug")); err != nil {
		return ctx, fmt.Errorf("unable to prepare logs: %w", err)
	}

	env.Log.Debug("Program started", zap.Strings("args", os.Args), zap.String("runtime", runtime.Version()))
	if len(configFile) == 0 {
		env.Log.Debug("Using defaults (no configuration file)")
	}
	return ctx, nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) error {
	env := envFromContext(ctx)
	env.Log.Debug("Program ended", zap.Duration("elapsed", time.Since(env.start)), zap.Strings("parsed args", cmd.Args().Slice()))
	// Sync fails on non-file console streams; nothing useful can be done about it.
	_ = env.Log.Sync()
	return nil
}

var errWasHandled bool

// exitErrHandler is called before the application context is destroyed, so
// subcommand errors can still go through the logger.
func exitErrHandler(ctx context.Context, _ *cli.Command, err error) {
	env := envFromContext(ctx)
	if env.Cfg != nil {
		env.Log.Error("Program ended with error", zap.Error(err))
		errWasHandled = true
	}
}

func usageErrorHandler(_ context.Context, _ *cli.Command, err error, _ bool) error {
	return err
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:            "epubdump",
		Usage:           "inspects ePub files: navigation, flattened chapter content, archive entries and images",
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		OnUsageError:    usageErrorHandler,
		ExitErrHandler:  exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (YAML)"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log debug messages to the console"},
		},
		Commands: []*cli.Command{
			{
				Name:      "nav",
				Usage:     "Prints title, author, publication details and the numbered navigation entries",
				ArgsUsage: "BOOK",
				Action:    runNav,
			},
			{
				Name:      "chapter",
				Usage:     "Prints the flattened content of one chapter, one item per line",
				ArgsUsage: "BOOK INDEX",
				Action:    runChapter,
			},
			{
				Name:      "ls",
				Usage:     "Lists archive entries in natural order",
				ArgsUsage: "BOOK",
				Action:    runList,
			},
			{
				Name:      "images",
				Usage:     "Exports the images referenced by every chapter, grouped per chapter",
				ArgsUsage: "BOOK [BOOK...]",
				Action:    runImages,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: ".", Usage: "write images under `DIR`"},
					&cli.BoolFlag{Name: "cover", Usage: "also export the detected cover image"},
				},
			},
			{
				Name:      "dumpconfig",
				Usage:     "Dumps either default or actual configuration (YAML)",
				ArgsUsage: "[DESTINATION]",
				Action:    runDumpConfig,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "default", Usage: "output default embedded configuration"},
				},
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(contextWithEnv(context.Background()), os.Interrupt, syscall.SIGTERM)

	var err error
	// NOTE: os.Exit is called at the end of main to set exit code, make sure
	// there are no other deferred functions after that
	defer func() {
		stop()
		if err != nil {
			if !errWasHandled {
				fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
			}
			os.Exit(1)
		}
	}()
	err = newApp().Run(ctx, os.Args)
}
