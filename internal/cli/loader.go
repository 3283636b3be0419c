package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/vecsynth/internal/config"
	"github.com/roach88/vecsynth/internal/example"
	"github.com/roach88/vecsynth/internal/querysql"
	"github.com/roach88/vecsynth/internal/store"
	"github.com/roach88/vecsynth/internal/synth"
)

// flagKeys maps command-line flags to the config keys they override.
// Only flags a command actually defines are bound.
var flagKeys = []struct {
	flag string
	key  string
}{
	{"max-depth", config.KeyMaxDepth},
	{"limits", config.KeyLimits},
	{"max-candidates", config.KeyMaxCandidates},
	{"timeout", config.KeyTimeout},
	{"cumulative", config.KeyCumulative},
	{"distance-sort-keys", config.KeyDistanceSortKeys},
	{"matching", config.KeyMatching},
	{"driver", config.KeyStoreDriver},
	{"dsn", config.KeyStoreDSN},
	{"log-level", config.KeyLogLevel},
}

// addSearchFlags registers the flags that tune the enumeration grammar.
func addSearchFlags(cmd *cobra.Command) {
	defaults := synth.DefaultOptions()
	cmd.Flags().IntSlice("limits", defaults.Limits, "Limit literal set")
	cmd.Flags().Bool("cumulative", defaults.Cumulative, "draw children from every shallower depth")
	cmd.Flags().Bool("distance-sort-keys", defaults.DistanceSortKeys, "order by distances to query vectors")
}

// addBudgetFlags registers the flags that bound a search.
func addBudgetFlags(cmd *cobra.Command) {
	defaults := synth.DefaultOptions()
	cmd.Flags().Int("max-depth", defaults.MaxDepth, "deepest level searched")
	cmd.Flags().Int("max-candidates", defaults.MaxCandidates, "stop after this many candidates (0 = unlimited)")
	cmd.Flags().Duration("timeout", defaults.Timeout, "stop after this much time (0 = none)")
	cmd.Flags().String("matching", "greedy", "oracle row matching (greedy|exact)")
}

// addStoreFlags registers the flags that select the database.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("driver", string(querysql.SQLite), "store driver (sqlite|postgres)")
	cmd.Flags().String("dsn", ":memory:", "SQLite path or PostgreSQL connection string")
}

// loadConfig layers the config file, VECSYNTH_* environment, and the
// command's flags.
func loadConfig(opts *RootOptions, cmd *cobra.Command) (*config.Config, error) {
	loader := config.NewLoader()
	for _, fk := range flagKeys {
		flag := cmd.Flags().Lookup(fk.flag)
		if flag == nil {
			continue
		}
		if err := loader.BindFlag(fk.key, flag); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to bind flags", err)
		}
	}

	cfg, err := loader.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// setupLogging installs a text handler on w as the default logger.
// --verbose forces debug level; otherwise log.level applies.
func setupLogging(w io.Writer, opts *RootOptions, cfg *config.Config) *slog.Logger {
	level, err := cfg.LogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// commandContext returns the command's context, cancelled on SIGINT or
// SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// loadExample loads an example file, reporting failures as command errors.
func loadExample(path string) (*example.Example, error) {
	ex, err := example.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load example", err)
	}
	return ex, nil
}

// openStore opens the database the config selects.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	dialect, err := cfg.Dialect()
	if err != nil {
		return nil, err
	}
	switch dialect {
	case querysql.Postgres:
		return store.OpenPostgres(ctx, cfg.Store.DSN)
	default:
		return store.Open(cfg.Store.DSN)
	}
}

// exampleExtensions lists the file types example.Load understands.
var exampleExtensions = []string{".yaml", ".yml", ".cue"}

// findExampleFiles returns every example file under dir, in lexical order,
// optionally restricted to base names matching filter.
func findExampleFiles(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if !isExampleExt(ext) {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

func isExampleExt(ext string) bool {
	for _, e := range exampleExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
