// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command feddict-cli is the terminal client of the FedDict glossary: an
// interactive browser plus admin subcommands.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/feddict/feddict/internal/admin"
	"github.com/feddict/feddict/internal/apiclient"
	"github.com/feddict/feddict/internal/auth"
	"github.com/feddict/feddict/internal/cliconfig"
	"github.com/feddict/feddict/internal/model"
	"github.com/feddict/feddict/internal/version"
)

const logFileName = "feddict-cli.log"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	err := a.rootCmd().ExecuteContext(ctx)
	a.Close()
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error: "+errorMessage(err))
		os.Exit(1)
	}
}

// app holds what the subcommands share. It is populated by the root
// command's PersistentPreRunE.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	// flags
	configPath string
	apiURL     string
	verbose    bool

	cfg     *cliconfig.File
	api     *apiclient.Client
	session *auth.Session
	logger  *slog.Logger
	logFile *os.File
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "feddict-cli",
		Short: "Terminal client for the FedDict glossary",
		Long: `feddict-cli browses the FedDict glossary and runs admin actions
against the glossary backend.

Run "feddict-cli browse" for the interactive browser. Admin commands need
a session created with "feddict-cli login".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd.Context())
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVar(&a.configPath, "config", cliconfig.DefaultPath(), "path of the CLI config file")
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "glossary API base URL (overrides the config file)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging to the log file")

	root.AddCommand(
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.browseCmd(),
		a.listCmd(),
		a.categoriesCmd(),
		a.addCmd(),
		a.updateCmd(),
		a.deleteCmd(),
		a.bulkDeleteCmd(),
		a.deleteAllCmd(),
		a.uploadCmd(),
		a.cleanupCmd(),
		a.statsCmd(),
		a.versionCmd(),
	)
	return root
}

// setup loads the config file, opens the log file and restores the session.
func (a *app) setup(ctx context.Context) error {
	cfg, err := cliconfig.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	apiURL := cfg.APIURL
	if a.apiURL != "" {
		apiURL = a.apiURL
	}

	// The TUI owns the terminal, so logs go to a file.
	logPath := cfg.LogFile
	if logPath == "" {
		logPath = filepath.Join(filepath.Dir(a.configPath), logFileName)
	}
	if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	a.logFile = f
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))

	a.api = apiclient.New(apiURL,
		apiclient.WithTimeout(cfg.TimeoutDuration()),
		apiclient.WithUserAgent(version.Get().UserAgent()),
		apiclient.WithLogger(a.logger),
	)
	a.session = auth.NewSession(cliconfig.NewStore(a.configPath, cfg), a.api, a.logger)
	if err := a.session.Restore(ctx); err != nil {
		return err
	}
	return nil
}

// Close releases the log file.
func (a *app) Close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

func (a *app) adminService() *admin.Service {
	return admin.NewService(a.api, a.session,
		admin.WithLogger(a.logger),
		admin.WithAuditor(logAuditor{logger: a.logger}),
	)
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

// errorMessage renders err for the terminal.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, admin.ErrNotAuthenticated):
		return "Not logged in. Run \"feddict-cli login\" first."
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid username or password"
	case apiclient.IsUnauthorized(err):
		return "Session expired. Run \"feddict-cli login\" again."
	}
	return apiclient.UserMessage(err, err.Error())
}

// logAuditor writes admin actions to the CLI log file.
type logAuditor struct {
	logger *slog.Logger
}

func (l logAuditor) Record(ctx context.Context, level, category, message, username string, metadata map[string]any) {
	lvl := slog.LevelInfo
	if level != model.EventLevelInfo {
		lvl = slog.LevelWarn
	}
	l.logger.Log(ctx, lvl, message, "category", category, "username", username, "metadata", metadata)
}
