package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/twosync/internal/buildinfo"
	"github.com/dmitrijs2005/twosync/internal/client/config"
	"github.com/dmitrijs2005/twosync/internal/logging"
	"github.com/spf13/cobra"
)

// newApp is a test seam for NewApp.
var newApp = NewApp

// NewRootCmd builds the twosync command tree. Configuration is loaded and the
// App constructed once, before any subcommand runs. The App is closed when the
// subcommand returns, whether or not it failed.
func NewRootCmd() *cobra.Command {
	var app *App

	closeApp := func() error {
		if app == nil {
			return nil
		}
		err := app.Close()
		app = nil
		return err
	}

	root := &cobra.Command{
		Use:           "twosync",
		Short:         "Mirror a Twos account locally and index it for OpenAI assistants",
		Version:       buildinfo.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			cfg, err := config.Load(config.Sources{
				File:     config.ConfigFile(flags),
				EnvFiles: []string{".env"},
				Flags:    flags,
			})
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			log, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
			if err != nil {
				return err
			}

			app, err = newApp(cmd.Context(), cfg, log)
			return err
		},
	}
	config.RegisterFlags(root.PersistentFlags())

	run := func(fn func(ctx context.Context, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) (err error) {
			defer func() { err = errors.Join(err, closeApp()) }()
			return fn(cmd.Context(), args)
		}
	}

	var clearCreds bool
	credentialsCmd := &cobra.Command{
		Use:   "credentials",
		Short: "Store the Twos and OpenAI credentials",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, _ []string) error {
			if clearCreds {
				return app.ClearCredentials(ctx)
			}
			return app.Credentials(ctx)
		}),
	}
	credentialsCmd.Flags().BoolVar(&clearCreds, "clear", false, "remove every stored credential")

	root.AddCommand(
		&cobra.Command{
			Use:   "sync",
			Short: "Replace the local cache with a fresh Twos export",
			Args:  cobra.NoArgs,
			RunE:  run(func(ctx context.Context, _ []string) error { return app.Sync(ctx) }),
		},
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"l"},
			Short:   "List cached entries",
			Args:    cobra.NoArgs,
			RunE:    run(func(ctx context.Context, _ []string) error { return app.List(ctx) }),
		},
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show one cached entry with its posts",
			Args:  cobra.ExactArgs(1),
			RunE:  run(func(ctx context.Context, args []string) error { return app.Show(ctx, args[0]) }),
		},
		&cobra.Command{
			Use:   "search [query]",
			Short: "Search cached entries and posts",
			RunE: run(func(ctx context.Context, args []string) error {
				return app.Search(ctx, strings.Join(args, " "))
			}),
		},
		&cobra.Command{
			Use:   "index",
			Short: "Rebuild the OpenAI vector store and assistant",
			Args:  cobra.NoArgs,
			RunE:  run(func(ctx context.Context, _ []string) error { return app.Index(ctx) }),
		},
		&cobra.Command{
			Use:   "assistant",
			Short: "Create an assistant over the current vector store",
			Args:  cobra.NoArgs,
			RunE:  run(func(ctx context.Context, _ []string) error { return app.Assistant(ctx) }),
		},
		&cobra.Command{
			Use:   "thread [message]",
			Short: "Start a conversation thread over the current vector store",
			RunE: run(func(ctx context.Context, args []string) error {
				return app.Thread(ctx, strings.Join(args, " "))
			}),
		},
		credentialsCmd,
		&cobra.Command{
			Use:   "status",
			Short: "Show sync state and stored resource IDs",
			Args:  cobra.NoArgs,
			RunE:  run(func(ctx context.Context, _ []string) error { return app.Status(ctx) }),
		},
		&cobra.Command{
			Use:   "shell",
			Short: "Run an interactive session",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, _ []string) error {
				printlnFn("Welcome to twosync (type 'help' for commands)")
				runREPL(ctx, app, app.statusLine, bufio.NewScanner(app.reader))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Args:  cobra.NoArgs,
			// no database needed
			PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
			Run: func(cmd *cobra.Command, _ []string) {
				buildinfo.PrintBuildData(cmd.OutOrStdout())
			},
		},
	)

	return root
}

// statusLine renders both pipeline states for the REPL prompt.
func (a *App) statusLine() string {
	return fmt.Sprintf("(cache:%s index:%s)", a.cache.Status().Get(), a.index.Status().Get())
}
