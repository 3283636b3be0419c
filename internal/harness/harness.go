package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/vecsynth/internal/example"
	"github.com/roach88/vecsynth/internal/oracle"
	"github.com/roach88/vecsynth/internal/querysql"
	"github.com/roach88/vecsynth/internal/store"
	"github.com/roach88/vecsynth/internal/synth"
	"github.com/roach88/vecsynth/internal/testutil"
)

// Config controls how examples are run.
type Config struct {
	// Options are the search options. The zero value means
	// synth.DefaultOptions(); otherwise a zero MaxDepth means
	// synth.DefaultMaxDepth and every other field is kept.
	Options synth.Options

	// Matching selects the oracle's row pairing.
	Matching oracle.Matching

	// Logger receives synthesis logs. nil discards them.
	Logger *slog.Logger
}

// Harness is the example execution engine.
type Harness struct {
	cfg Config
}

// New creates a Harness.
func New(cfg Config) *Harness {
	cfg.Options = withDefaults(cfg.Options)
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{cfg: cfg}
}

func withDefaults(o synth.Options) synth.Options {
	if o.MaxDepth == 0 && o.Limits == nil && o.MaxCandidates == 0 && o.Timeout == 0 &&
		!o.Cumulative && !o.DistanceSortKeys {
		return synth.DefaultOptions()
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = synth.DefaultMaxDepth
	}
	return o
}

// Run executes an example with the default Config.
func Run(ctx context.Context, ex *example.Example) (*Result, error) {
	return New(Config{}).Run(ctx, ex)
}

// RunFile loads an example file and runs it.
func (h *Harness) RunFile(ctx context.Context, path string) (*Result, error) {
	ex, err := example.Load(path)
	if err != nil {
		return nil, err
	}
	return h.Run(ctx, ex)
}

// Run loads the example inputs into a fresh in-memory store, searches for
// the target, and checks the example's expectations.
//
// Returns an error only when the example cannot be run at all; failed
// expectations are reported through Result.Errors.
func (h *Harness) Run(ctx context.Context, ex *example.Example) (*Result, error) {
	inputs, err := ex.InputTables()
	if err != nil {
		return nil, err
	}
	target, err := ex.TargetTable()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.Load(ctx, inputs...); err != nil {
		return nil, fmt.Errorf("load inputs: %w", err)
	}

	s := synth.New(
		querysql.NewTranslator(st.Dialect()),
		st,
		oracle.Oracle{Matching: h.cfg.Matching},
		synth.WithOptions(h.cfg.Options),
		synth.WithLogger(h.cfg.Logger.With("example", ex.Name)),
		synth.WithRunIDGenerator(testutil.NewFixedRunIDGenerator(ex.RunID)),
	)

	run, err := s.Run(ctx, inputs, target, ex.Vectors())
	if err != nil {
		return nil, fmt.Errorf("example %q: %w", ex.Name, err)
	}

	result := NewResult(ex.Name, run)
	for _, failure := range checkExpectations(ex.Expect, run) {
		result.AddError(failure.Error())
	}
	return result, nil
}
