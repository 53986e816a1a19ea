// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/invowk/modcat/internal/sshserver"

	"github.com/spf13/cobra"
)

type serveOptions struct {
	host     string
	port     int
	tokenTTL time.Duration
	hostKey  string
	label    string
}

func newServeCommand(app *App) *cobra.Command {
	opts := serveOptions{}
	defaults := sshserver.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog read-only over SSH",
		Long: `Serve the catalog read-only over SSH.

The server prints an access token; clients log in with it as the password
and run list, show, count or requires as the SSH command. A session without
a command lists every module. The server stops on interrupt.`,
		Example: `  modcat serve --port 2222
  ssh -p 2222 modcat@127.0.0.1 show shop`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.fail(cmd, runServe(cmd, app, opts))
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", defaults.Host.String(), "address to listen on")
	cmd.Flags().IntVarP(&opts.port, "port", "p", int(defaults.Port), "port to listen on (0 picks a free port)")
	cmd.Flags().DurationVar(&opts.tokenTTL, "token-ttl", defaults.TokenTTL, "lifetime of the printed access token")
	cmd.Flags().StringVar(&opts.hostKey, "host-key", "", "PEM host key file, created if missing (default: ephemeral key)")
	cmd.Flags().StringVar(&opts.label, "label", "cli", "name recorded with the access token")

	return cmd
}

func runServe(cmd *cobra.Command, app *App, opts serveOptions) error {
	ctx := cmd.Context()

	// Open once up front so configuration and database errors surface here
	// rather than in every remote session.
	s, err := app.open(ctx)
	if err != nil {
		return err
	}
	logger := s.logger.WithPrefix("ssh")
	_ = s.Close()

	srv := sshserver.New(sshserver.Config{
		Host:        sshserver.HostAddress(opts.host),
		Port:        sshserver.ListenPort(opts.port),
		TokenTTL:    opts.tokenTTL,
		HostKeyPath: opts.hostKey,
	}, app.catalogHandler(), sshserver.WithLogger(logger))

	if err := srv.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if stopErr := srv.Stop(); stopErr != nil {
			logger.Warn("stop failed", "error", stopErr)
		}
	}()

	info, err := srv.GetConnectionInfo(opts.label)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s Serving catalog on %s\n", successIcon, CmdStyle.Render(srv.Address()))
	fmt.Fprintf(out, "  %s ssh -p %d %s@%s list\n", keyStyle.Render("connect"), info.Port, info.User, info.Host)
	fmt.Fprintf(out, "  %s %s\n", keyStyle.Render("token"), info.Token)
	fmt.Fprintf(out, "  %s %s\n", keyStyle.Render("expires"), info.ExpireAt.Format(time.RFC3339))

	select {
	case <-ctx.Done():
		return nil
	case err, ok := <-srv.Err():
		if !ok {
			return nil
		}
		return err
	}
}

// catalogHandler runs remote session commands against the read-only command
// tree. Each session gets its own App bound to the session streams; the
// catalog cache is shared with the serving App.
func (a *App) catalogHandler() sshserver.Handler {
	return func(ctx context.Context, args []string, stdout, stderr io.Writer) int {
		remote := &App{
			Config:     a.Config,
			OpenStore:  a.OpenStore,
			Fs:         a.Fs,
			Cache:      a.Cache,
			stdout:     stdout,
			stderr:     stderr,
			configPath: a.configPath,
		}

		root := newCatalogCommand(remote)
		root.SetArgs(args)
		err := root.ExecuteContext(ctx)
		if err == nil {
			return 0
		}

		fmt.Fprintf(stderr, "%s %s\n", errorIcon, err)
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}
		return ExitFailure
	}
}

// newCatalogCommand builds the command tree served to remote sessions.
func newCatalogCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "modcat",
		Short:         "Read-only module catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)

	root.AddCommand(
		newListCommand(app),
		newShowCommand(app),
		newCountCommand(app),
		newRequiresCommand(app),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "modcat "+getVersionString())
		},
	}
}
