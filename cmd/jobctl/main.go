// jobctl is a command line client of the job board api.
// It keeps the session in a yaml file between runs and drops it on idle or absolute timeout.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/nkiryanov/jobboard/internal/client"
	"github.com/nkiryanov/jobboard/internal/logger"
	"github.com/nkiryanov/jobboard/internal/session"
)

const defaultServer = "http://localhost:8000"

type options struct {
	Server      string
	SessionPath string
	LogLevel    string
}

func defaultOptions(getenv func(string) string) options {
	o := options{
		Server:   defaultServer,
		LogLevel: logger.LevelWarn,
	}
	if v := getenv("JOBBOARD_SERVER"); v != "" {
		o.Server = v
	}
	if v := getenv("JOBBOARD_SESSION"); v != "" {
		o.SessionPath = v
	} else if dir, err := os.UserConfigDir(); err == nil {
		o.SessionPath = filepath.Join(dir, "jobboard", "session.yaml")
	}
	return o
}

func usage(out io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(out, "Usage: jobctl [flags] <command> [command flags]") // nolint:errcheck
	fmt.Fprintln(out, "\nCommands:")                                     // nolint:errcheck
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-20s %s\n", name, commands[name].help) // nolint:errcheck
	}
	fmt.Fprintln(out, "\nFlags:")    // nolint:errcheck
	fmt.Fprint(out, fs.FlagUsages()) // nolint:errcheck
}

func run(ctx context.Context, args []string, out io.Writer, getenv func(string) string) error {
	o := defaultOptions(getenv)

	fs := pflag.NewFlagSet("jobctl", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)
	fs.StringVar(&o.Server, "server", o.Server, "Job board server address")
	fs.StringVar(&o.SessionPath, "session", o.SessionPath, "File to keep the session in")
	fs.StringVarP(&o.LogLevel, "log-level", "l", o.LogLevel, "Logging level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		usage(out, fs)
		return err
	}

	name := fs.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		usage(out, fs)
		if name == "" {
			return errors.New("command is required")
		}
		return fmt.Errorf("unknown command %q", name)
	}
	if o.SessionPath == "" {
		return errors.New("session file path is required")
	}

	l, err := logger.NewTextLogger(o.LogLevel)
	if err != nil {
		return err
	}

	bus := session.NewBus()
	m, err := session.NewManager(session.Config{
		Logger: l,
		OnLogout: func(reason string) {
			fmt.Fprintln(out, reason) // nolint:errcheck
		},
	}, session.NewFileStore(o.SessionPath), bus)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	// Drop session which timed out since the last run
	if m.State().Authenticated {
		m.Focus()
	}
	m.Touch()

	runCtx, cancel := context.WithCancel(ctx)
	stopped := m.Run(runCtx)
	defer func() {
		cancel()
		<-stopped
	}()

	a := &app{
		client:  client.New(o.Server, m, bus, l),
		session: m,
		out:     out,
	}

	return cmd.run(ctx, a, fs.Args()[1:])
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Getenv); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err) // nolint:errcheck
		stop()
		os.Exit(1)
	}
}
