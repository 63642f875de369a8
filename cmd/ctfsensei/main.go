// Package main provides the CLI entrypoint for ctfsensei.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/ctfsensei/internal/api"
	"github.com/verte-zerg/ctfsensei/internal/catalog"
	"github.com/verte-zerg/ctfsensei/internal/config"
	"github.com/verte-zerg/ctfsensei/internal/generator"
	"github.com/verte-zerg/ctfsensei/internal/ledger"
	"github.com/verte-zerg/ctfsensei/internal/model"
	"github.com/verte-zerg/ctfsensei/internal/session"
	"github.com/verte-zerg/ctfsensei/internal/stats"
	"github.com/verte-zerg/ctfsensei/internal/statsui"
	"github.com/verte-zerg/ctfsensei/internal/store"
	"github.com/verte-zerg/ctfsensei/internal/tui"
)

const (
	defaultLogLevel     = "info"
	defaultHistoryWidth = 80
)

type clientOptions struct {
	apiURL   string
	username string
	guest    bool
	timeout  time.Duration
}

type historyOptions struct {
	category string
	since    string
	last     int
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &clientOptions{}
	rootCmd := &cobra.Command{
		Use:           "ctfsensei",
		Short:         "Terminal CTF challenge trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlayCmd(cmd, opts)
		},
	}

	bindClientFlags(rootCmd, opts)
	rootCmd.AddCommand(newCatalogCmd(opts))
	rootCmd.AddCommand(newStatusCmd(opts))
	rootCmd.AddCommand(newStatsCmd(opts))
	rootCmd.AddCommand(newHistoryCmd(opts))
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func bindClientFlags(cmd *cobra.Command, opts *clientOptions) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api-url", api.DefaultBaseURL, "challenge service base URL")
	flags.StringVar(&opts.username, "username", "", "player name (2-20 characters)")
	flags.BoolVar(&opts.guest, "guest", false, "play under a generated guest name")
	flags.DurationVar(&opts.timeout, "timeout", api.DefaultTimeout, "timeout for a single service call")
}

func runPlayCmd(cmd *cobra.Command, opts *clientOptions) error {
	cfg, err := loadConfig(cmd, *opts)
	if err != nil {
		return err
	}
	gen := generator.New()
	if opts.guest {
		cfg.Username = gen.GuestName()
	}

	logger, closeLog, err := openLogger(config.DefaultLogPath(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := api.New(cfg.APIURL, api.WithTimeout(cfg.Timeout), api.WithLogger(logger))
	if err != nil {
		return errors.Wrap(err, "failed to create client")
	}

	st := openStoreBestEffort(logger)
	if st != nil {
		defer closeStore(st)
	}

	sessOpts := []session.Option{
		session.WithLogger(logger),
		session.WithSuccessMarker(cfg.SuccessMarker),
	}
	uiOpts := tui.Options{
		Catalog:   catalog.NewLoader(client, logger),
		Status:    client,
		Generator: gen,
		Username:  cfg.Username,
		Timeout:   cfg.Timeout,
		Logger:    logger,
	}
	if st != nil {
		sessOpts = append(sessOpts, session.WithRecorder(st))
		uiOpts.Profile = st
		uiOpts.History = st
		if opts.guest {
			uiOpts.Profile = nil
		}
	}
	uiOpts.Session = session.New(client, ledger.New(), sessOpts...)

	logger.Info("session started", "api", client.BaseURL(), "user", cfg.Username)
	program := tea.NewProgram(tui.NewModel(uiOpts), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return errors.Wrap(err, "failed to run TUI")
	}
	return nil
}

func newCatalogCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List difficulties and categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *opts)
			if err != nil {
				return err
			}
			client, err := api.New(cfg.APIURL, api.WithTimeout(cfg.Timeout))
			if err != nil {
				return errors.Wrap(err, "failed to create client")
			}
			cat, err := catalog.NewLoader(client, nil).LoadAll(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "failed to load catalog")
			}
			return writeCatalog(cmd, cat)
		},
	}
}

func writeCatalog(cmd *cobra.Command, cat catalog.Catalog) error {
	out := cmd.OutOrStdout()
	sections := []struct {
		title string
		items []string
	}{
		{"Difficulties", cat.Difficulties},
		{"Categories", cat.Categories},
	}
	for i, s := range sections {
		if i > 0 {
			if _, err := fmt.Fprintln(out); err != nil {
				return errors.Wrap(err, "failed to write output")
			}
		}
		if _, err := fmt.Fprintf(out, "%s:\n", s.title); err != nil {
			return errors.Wrap(err, "failed to write output")
		}
		for _, item := range s.items {
			if _, err := fmt.Fprintf(out, "  %s\n", item); err != nil {
				return errors.Wrap(err, "failed to write output")
			}
		}
	}
	return nil
}

func newStatusCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check that the challenge service is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, *opts)
			if err != nil {
				return err
			}
			client, err := api.New(cfg.APIURL, api.WithTimeout(cfg.Timeout))
			if err != nil {
				return errors.Wrap(err, "failed to create client")
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				logErrln(api.UserMessage(err))
				return errors.Wrap(err, "failed to check status")
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", client.BaseURL(), status); err != nil {
				return errors.Wrap(err, "failed to write output")
			}
			return nil
		},
	}
}

func newStatsCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [username]",
		Short: "Show service stats and the leaderboard",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, *opts)
			if err != nil {
				return err
			}
			username := cfg.Username
			if len(args) == 1 {
				username = strings.TrimSpace(args[0])
			}

			logger, closeLog, err := openLogger(config.DefaultLogPath(), cfg.LogLevel)
			if err != nil {
				return err
			}
			defer closeLog()

			client, err := api.New(cfg.APIURL, api.WithTimeout(cfg.Timeout), api.WithLogger(logger))
			if err != nil {
				return errors.Wrap(err, "failed to create client")
			}

			var history stats.HistorySource
			if st := openStoreBestEffort(logger); st != nil {
				defer closeStore(st)
				history = st
				if username == "" {
					username = lastUsername(cmd.Context(), st, logger)
				}
			}

			program := tea.NewProgram(statsui.NewModel(client, history, username, cfg.Timeout), tea.WithAltScreen())
			if _, err := program.Run(); err != nil {
				return errors.Wrap(err, "failed to run stats TUI")
			}
			return nil
		},
	}
}

func newHistoryCmd(opts *clientOptions) *cobra.Command {
	hopts := &historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the local attempt history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistoryCmd(cmd, opts.username, *hopts)
		},
	}
	cmd.Flags().StringVar(&hopts.category, "category", "", "only attempts in this category")
	cmd.Flags().StringVar(&hopts.since, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&hopts.last, "last", 0, "limit to the last N attempts")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, username string, hopts historyOptions) error {
	cfg, err := historyConfig(username, hopts)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return errors.Wrap(err, "failed to open db")
	}
	defer closeStore(st)

	report, err := stats.BuildHistoryReport(cmd.Context(), st, cfg, time.Now())
	if err != nil {
		return errors.Wrap(err, "failed to build history")
	}
	if err := report.Render(cmd.OutOrStdout(), terminalWidth()); err != nil {
		return errors.Wrap(err, "failed to write output")
	}
	return nil
}

func historyConfig(username string, hopts historyOptions) (model.HistoryConfig, error) {
	if hopts.last < 0 {
		return model.HistoryConfig{}, errors.New("--last must be >= 0")
	}
	cfg := model.HistoryConfig{
		Username: strings.TrimSpace(username),
		Category: strings.TrimSpace(hopts.category),
		Last:     hopts.last,
	}
	if hopts.since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", hopts.since, time.Local)
		if err != nil {
			return model.HistoryConfig{}, errors.Wrap(err, "invalid --since value")
		}
		cfg.Since = &parsed
	}
	return cfg, nil
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultHistoryWidth
	}
	return width
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return errors.Wrap(err, "failed to stat config")
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return errors.Wrap(err, "failed to write config")
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrap(err, "failed to open editor")
	}
	return nil
}

// loadConfig merges .env, environment, the TOML file and flags.
func loadConfig(cmd *cobra.Command, opts clientOptions) (model.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return model.Config{}, err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, errors.Wrap(err, "failed to load config")
	}
	envCfg, err := config.LoadEnv()
	if err != nil {
		return model.Config{}, errors.Wrap(err, "failed to load environment")
	}
	return resolveConfig(cmd, opts, fileCfg, envCfg)
}

// resolveConfig applies precedence: flags, then environment, then file,
// then defaults.
func resolveConfig(cmd *cobra.Command, opts clientOptions, fileCfg config.FileConfig, envCfg config.EnvConfig) (model.Config, error) {
	client := fileCfg.Client
	applyStringConfig(cmd, "api-url", &opts.apiURL, client.APIURL)
	applyStringConfig(cmd, "api-url", &opts.apiURL, envString(envCfg.APIURL))
	applyStringConfig(cmd, "username", &opts.username, client.Username)
	applyStringConfig(cmd, "username", &opts.username, envString(envCfg.Username))

	if client.Timeout != nil {
		d, err := time.ParseDuration(*client.Timeout)
		if err != nil {
			return model.Config{}, errors.Wrapf(err, "invalid timeout %q in config", *client.Timeout)
		}
		applyDurationConfig(cmd, "timeout", &opts.timeout, &d)
	}
	if envCfg.Timeout > 0 {
		applyDurationConfig(cmd, "timeout", &opts.timeout, &envCfg.Timeout)
	}

	cfg := model.Config{
		APIURL:        strings.TrimSpace(opts.apiURL),
		Username:      strings.TrimSpace(opts.username),
		Timeout:       opts.timeout,
		LogLevel:      defaultLogLevel,
		SuccessMarker: session.DefaultSuccessMarker,
	}
	if client.LogLevel != nil {
		cfg.LogLevel = *client.LogLevel
	}
	if envCfg.LogLevel != "" {
		cfg.LogLevel = envCfg.LogLevel
	}
	if client.SuccessMarker != nil && *client.SuccessMarker != "" {
		cfg.SuccessMarker = *client.SuccessMarker
	}
	if err := validateConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg model.Config) error {
	if cfg.APIURL == "" {
		return errors.New("--api-url must not be empty")
	}
	if cfg.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}
	if cfg.Username != "" {
		if _, err := tui.ValidateUsername(cfg.Username); err != nil {
			return errors.Wrapf(err, "invalid username %q", cfg.Username)
		}
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyDurationConfig(cmd *cobra.Command, name string, target, value *time.Duration) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func envString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, errors.Wrapf(err, "invalid log level %q", s)
	}
	return level, nil
}

// openLogger writes structured logs to path. The terminal is left to the UI.
func openLogger(path, levelName string) (*slog.Logger, func(), error) {
	level, err := parseLogLevel(levelName)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, errors.Wrap(err, "failed to create log directory")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open log file")
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	closeFn := func() {
		if cerr := f.Close(); cerr != nil {
			logErrf("failed to close log: %v\n", cerr)
		}
	}
	return logger, closeFn, nil
}

func openStoreBestEffort(logger *slog.Logger) *store.Store {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		logger.Warn("local history disabled", "error", err)
		return nil
	}
	return st
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func lastUsername(ctx context.Context, st *store.Store, logger *slog.Logger) string {
	name, err := st.LastUsername(ctx)
	if err != nil {
		logger.Warn("load last username failed", "error", err)
		return ""
	}
	return name
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# ctfsensei configuration
# Uncomment a value to enable it. Environment variables and CLI flags
# override config values.

[client]
# api-url = %q     # Challenge service base URL
# username = "player"                   # Player name (2-20 characters)
# timeout = %q                       # Timeout for a single service call
# log-level = %q                     # debug, info, warn or error
# success-marker = %q          # Text that marks a correct verdict
`,
		api.DefaultBaseURL,
		api.DefaultTimeout.String(),
		defaultLogLevel,
		session.DefaultSuccessMarker,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
