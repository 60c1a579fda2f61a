// Package main provides the CLI entrypoint for visits.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"lessonvisit/internal/core"
	"lessonvisit/internal/repository"
	"lessonvisit/internal/rulebook"
	"lessonvisit/internal/store"
	"lessonvisit/pkg/schema"
)

// errRejected signals that a checked value was refused. The verdict has
// already been printed.
var errRejected = errors.New("value rejected")

type rootFlags struct {
	dataDir  string
	store    string
	rulebook string
}

// app is the wiring shared by all subcommands.
type app struct {
	cfg    *core.Config
	logger core.Logger
	rules  *schema.Rulebook
	store  core.RecordStore
	close  func() error
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
	}

	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errRejected) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:           "visits",
		Short:         "Plan lesson visits within the rulebook quotas",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (overrides VISITS_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&flags.store, "store", "", "record store: yaml or sqlite (overrides VISITS_STORE)")
	rootCmd.PersistentFlags().StringVar(&flags.rulebook, "rulebook", "", "rulebook YAML file (overrides VISITS_RULEBOOK)")

	rootCmd.AddCommand(newCheckCmd(flags))
	rootCmd.AddCommand(newEditCmd(flags))
	rootCmd.AddCommand(newListCmd(flags))
	rootCmd.AddCommand(newDeleteCmd(flags))
	rootCmd.AddCommand(newRulebookCmd(flags))

	return rootCmd
}

// loadConfig reads the configuration and applies command-line overrides.
func loadConfig(flags *rootFlags) (*core.Config, error) {
	cfg, err := core.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if flags.dataDir != "" {
		cfg.DataDir = flags.dataDir
	}
	if flags.store != "" {
		cfg.Store = flags.store
	}
	if flags.rulebook != "" {
		cfg.RulebookPath = flags.rulebook
	}
	return cfg, nil
}

// openApp loads the configuration, the rulebook and the configured store.
func openApp(flags *rootFlags) (*app, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	logger := core.NewLogger(cfg.LogLevel)

	rules, err := rulebook.Load(cfg.RulebookPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load rulebook: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, rules: rules, close: func() error { return nil }}
	switch cfg.Store {
	case core.StoreSQLite:
		st, err := store.Open(filepath.Join(cfg.DataDir, store.FileName))
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		a.store = st
		a.close = st.Close
	case core.StoreYAML:
		a.store = repository.NewRepository(cfg.DataDir)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
	logger.Debug("store opened", "store", cfg.Store, "data_dir", cfg.DataDir)
	return a, nil
}

func (a *app) editor() (*core.Editor, error) {
	return core.NewEditor(a.store, a.rules, a.logger)
}

// lock returns the lock guarding the data directory. It sits next to the
// directory for both store backends.
func (a *app) lock(holder string) *repository.FileLock {
	return repository.NewFileLock(filepath.Clean(a.cfg.DataDir)+".lock", holder)
}

func (a *app) shutdown() {
	if err := a.close(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to close store: %v\n", err)
	}
}

// withLock runs fn while holding the data directory lock.
func (a *app) withLock(holder string, fn func() error) (err error) {
	lock := a.lock(holder)
	if err := lock.Acquire(); err != nil {
		return &core.LockError{Operation: "acquire", Message: "records are in use", Err: err}
	}
	defer func() {
		if relErr := lock.Release(); relErr != nil && err == nil {
			err = &core.LockError{Operation: "release", Message: "could not release lock", Err: relErr}
		}
	}()
	return fn()
}

func parseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a date (YYYY-MM-DD)", s)
	}
	return d, nil
}
