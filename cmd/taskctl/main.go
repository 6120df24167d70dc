// Command taskctl is a terminal client for the task manager API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/example/task-manager/client"
	"github.com/example/task-manager/client/session"
	"github.com/example/task-manager/client/snapshot"
	"github.com/example/task-manager/domain/user"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "taskctl:", err)
		if client.IsAuthError(err) {
			fmt.Fprintln(os.Stderr, "Run `taskctl login` to sign in again.")
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("taskctl", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	configPath := fs.String("config", DefaultConfigPath(), "config file")
	fs.Usage = func() { usage(out, fs) }
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() == 0 {
		usage(out, fs)
		return nil
	}

	cmd, ok := commands[fs.Arg(0)]
	if !ok {
		return fmt.Errorf("unknown command %q", fs.Arg(0))
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		return err
	}
	a, err := openApp(cfg, out)
	if err != nil {
		return err
	}
	defer a.close()

	return cmd.run(ctx, a, fs.Args()[1:])
}

func usage(out io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(out, "Usage: taskctl [--config FILE] <command> [flags]")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(out, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, fs.FlagUsages())
}

// app holds what every command needs.
type app struct {
	cfg      *Config
	out      io.Writer
	sessions *session.Store
	snap     *snapshot.Store
	api      *client.Client
	sess     session.Session
}

func openApp(cfg *Config, out io.Writer) (*app, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	sessions, err := session.Open(filepath.Join(cfg.DataDir, "credentials"))
	if err != nil {
		return nil, err
	}
	snap, err := snapshot.Open(filepath.Join(cfg.DataDir, "snapshot.db"))
	if err != nil {
		return nil, err
	}
	a, err := newApp(cfg, out, sessions, snap)
	if err != nil {
		snap.Close()
		return nil, err
	}
	return a, nil
}

// newApp wires the API client to the stored session. Renewed tokens are
// written back as soon as they arrive.
func newApp(cfg *Config, out io.Writer, sessions *session.Store, snap *snapshot.Store) (*app, error) {
	a := &app{cfg: cfg, out: out, sessions: sessions, snap: snap}

	sess, err := sessions.Load()
	switch {
	case errors.Is(err, session.ErrNoSession):
		sess = session.Session{Server: cfg.Server}
	case err != nil:
		return nil, err
	}
	a.sess = sess

	a.api = client.New(cfg.Server,
		client.WithTimeout(cfg.Timeout),
		client.WithTokens(sess.Tokens),
		client.OnTokens(a.saveTokens),
	)
	return a, nil
}

func (a *app) saveTokens(p user.TokenPair) {
	a.sess.Server = a.cfg.Server
	a.sess.Tokens = p
	if err := a.sessions.Save(a.sess); err != nil {
		fmt.Fprintln(os.Stderr, "taskctl: warning:", err)
	}
}

func (a *app) close() {
	if a.snap != nil {
		a.snap.Close()
	}
}
