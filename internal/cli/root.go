// Package cli implements the linear command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pkg/browser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/eugener/linear/internal/app"
	"github.com/eugener/linear/internal/cache"
	"github.com/eugener/linear/internal/config"
	"github.com/eugener/linear/internal/graphql"
	"github.com/eugener/linear/internal/telemetry"
)

// Options configures a single CLI invocation.
type Options struct {
	Args    []string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	Version string
	OpenURL func(url string) error // default opens the system browser
}

// session holds flags and the lazily built dependencies of one invocation.
type session struct {
	configPath string
	debug      bool
	noColor    bool
	noCache    bool

	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
	version string
	openURL func(string) error

	cfg      *config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	metrics  *telemetry.Metrics
	closers  []func(context.Context) error
	store    cache.Store
	svc      *app.Service
}

// Run executes the command line in opts and returns the process exit code.
// Errors are printed to Stderr as "error: <msg>".
func Run(ctx context.Context, opts Options) int {
	s := newSession(opts)
	root := newRootCommand(s)
	root.SetArgs(opts.Args)
	root.SetIn(s.stdin)
	root.SetOut(s.stdout)
	root.SetErr(s.stderr)

	err := root.ExecuteContext(ctx)
	s.close()
	if err != nil {
		fmt.Fprintf(s.stderr, "error: %s\n", describe(err))
		return 1
	}
	return 0
}

func newSession(opts Options) *session {
	s := &session{
		stdin:   opts.Stdin,
		stdout:  opts.Stdout,
		stderr:  opts.Stderr,
		version: opts.Version,
		openURL: opts.OpenURL,
	}
	if s.stdin == nil {
		s.stdin = os.Stdin
	}
	if s.stdout == nil {
		s.stdout = os.Stdout
	}
	if s.stderr == nil {
		s.stderr = os.Stderr
	}
	if s.version == "" {
		s.version = "dev"
	}
	if s.openURL == nil {
		s.openURL = browser.OpenURL
	}
	return s
}

func newRootCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "linear",
		Short:         "Browse Linear issues from the terminal",
		Long:          "linear lists and shows Linear issues and teams. Responses are cached on disk for a short time so repeated commands stay fast.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       s.version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Completion requests parse flags themselves; setup runs from the
			// completion callback once --config is known.
			if cmd.Name() == cobra.ShellCompRequestCmd || cmd.Name() == cobra.ShellCompNoDescRequestCmd {
				return nil
			}
			return s.setup(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&s.configPath, "config", "", "path to the config file (default $XDG_CONFIG_HOME/linear/config.yaml)")
	cmd.PersistentFlags().BoolVar(&s.debug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&s.noColor, "no-color", false, "disable colored output")
	cmd.PersistentFlags().BoolVar(&s.noCache, "no-cache", false, "bypass the query cache")

	cmd.AddCommand(
		newMeCmd(s),
		newLsCmd(s),
		newIssueCmd(s),
		newTeamCmd(s),
		newCacheCmd(s),
		newVersionCmd(s),
		newCompletionCmd(cmd),
	)
	cmd.SetVersionTemplate("linear {{.Version}}\n")
	return cmd
}

// setup loads config and builds logging and telemetry. It is idempotent so
// completion callbacks, which skip the pre-run hooks, can call it too.
func (s *session) setup(ctx context.Context) error {
	if s.cfg != nil {
		return nil
	}

	var (
		cfg *config.Config
		err error
	)
	if s.configPath != "" {
		cfg, err = config.Load(s.configPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}
	if s.debug {
		cfg.Log.Level = "debug"
	}
	if s.noColor {
		cfg.Output.Color = "never"
	}

	log, logCloser := telemetry.NewLogger(telemetry.LogOptions{
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
		Writer: s.stderr,
	})
	s.closers = append(s.closers, func(context.Context) error { return logCloser.Close() })
	s.cfg = cfg
	s.log = log
	s.registry = prometheus.NewRegistry()
	s.metrics = telemetry.NewMetrics(s.registry)

	if cfg.Telemetry.Tracing.Enabled {
		shutdown, err := telemetry.SetupTracing(ctx, telemetry.TracingOptions{
			Endpoint:   cfg.Telemetry.Tracing.Endpoint,
			Insecure:   cfg.Telemetry.Tracing.Insecure,
			SampleRate: cfg.Telemetry.Tracing.SampleRate,
			Version:    s.version,
		})
		if err != nil {
			return err
		}
		s.closers = append(s.closers, shutdown)
	}

	log.Debug("config loaded", "api_url", cfg.API.URL, "cache_backend", cfg.Cache.Backend,
		"cache_ttl", cfg.Cache.TTL, "cache_enabled", cfg.Cache.CachingEnabled() && !s.noCache)
	return nil
}

// close flushes metrics and telemetry, then releases the log file. Closers
// run in reverse order of registration.
func (s *session) close() {
	if s.cfg == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if path := s.cfg.Telemetry.Metrics.Textfile; path != "" {
		if err := telemetry.WriteTextfile(path, s.registry); err != nil {
			s.log.Warn("metrics textfile write failed", "path", path, "error", err)
		}
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			s.log.Warn("shutdown", "error", err)
		}
	}
}

// describe formats err for the terminal. GraphQL error lists get one line
// per message.
func describe(err error) string {
	var remote *graphql.RemoteError
	if errors.As(err, &remote) && len(remote.Errors) > 1 {
		var b strings.Builder
		b.WriteString("request failed:")
		for _, m := range remote.Errors {
			b.WriteString("\n- " + m.String())
		}
		return b.String()
	}
	return err.Error()
}
