package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/vecsynth/internal/example"
	"github.com/roach88/vecsynth/internal/oracle"
	"github.com/roach88/vecsynth/internal/queryast"
	"github.com/roach88/vecsynth/internal/querysql"
	"github.com/roach88/vecsynth/internal/synth"
)

// SynthOptions holds flags for the synth command.
type SynthOptions struct {
	*RootOptions
	Tree bool

	// RunIDs overrides the run ID generator (for testing).
	// If nil, defaults to synth.UUIDv7Generator.
	RunIDs synth.RunIDGenerator
}

// SolutionOutput is one solution in command output.
type SolutionOutput struct {
	ID        string `json:"id"`
	SQL       string `json:"sql"`
	Query     string `json:"query"`
	Depth     int    `json:"depth"`
	Candidate int    `json:"candidate"`
}

// SynthOutput is the synth command's result payload.
type SynthOutput struct {
	Example    string           `json:"example"`
	RunID      string           `json:"run_id"`
	Target     string           `json:"target_digest"`
	Solutions  []SolutionOutput `json:"solutions"`
	Candidates int              `json:"candidates"`
	Skipped    int              `json:"skipped"`
	Depth      int              `json:"depth"`
	Exhausted  bool             `json:"exhausted"`
	ElapsedMS  int64            `json:"elapsed_ms"`
}

// NewSynthCommand creates the synth command.
func NewSynthCommand(rootOpts *RootOptions) *cobra.Command {
	return newSynthCommand(&SynthOptions{RootOptions: rootOpts})
}

func newSynthCommand(opts *SynthOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth <example-file>",
		Short: "Synthesize queries for an example",
		Long: `Search for queries that turn an example's input tables into its target table.

The inputs are loaded into the configured store (an in-memory SQLite database
by default), and candidates are enumerated by increasing depth until one
depth yields solutions or the budget runs out.

Exit codes:
  0 - At least one solution found
  1 - No solution found
  2 - Command error (bad example, store unavailable, etc.)

Examples:
  vecsynth synth testdata/examples/items.yaml
  vecsynth synth two-nearest.cue --max-depth 3 --tree
  vecsynth synth items.yaml --driver postgres --dsn postgres://localhost/vecsynth`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSynth(opts, args[0], cmd)
		},
	}

	addSearchFlags(cmd)
	addBudgetFlags(cmd)
	addStoreFlags(cmd)
	cmd.Flags().BoolVar(&opts.Tree, "tree", false, "print each solution as an operator tree")

	return cmd
}

func runSynth(opts *SynthOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	logger := setupLogging(cmd.ErrOrStderr(), opts.RootOptions, cfg)

	ex, err := loadExample(path)
	if err != nil {
		_ = formatter.Error(example.Code(err), err.Error(), nil)
		return err
	}
	matching, err := cfg.Matching()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid matching", err)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open store", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing store", "error", closeErr)
		}
	}()

	inputs, err := ex.InputTables()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid example inputs", err)
	}
	target, err := ex.TargetTable()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid example target", err)
	}
	if err := st.Load(ctx, inputs...); err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load inputs", err)
	}
	formatter.VerboseLog("Loaded %d input table(s) into %s store", len(inputs), st.Dialect())

	synthOpts := []synth.Option{
		synth.WithOptions(cfg.SynthOptions()),
		synth.WithLogger(logger),
	}
	if opts.RunIDs != nil {
		synthOpts = append(synthOpts, synth.WithRunIDGenerator(opts.RunIDs))
	}
	s := synth.New(
		querysql.NewTranslator(st.Dialect()),
		st,
		oracle.Oracle{Matching: matching},
		synthOpts...,
	)

	res, err := s.Run(ctx, inputs, target, ex.Vectors())
	if err != nil {
		return synthError(formatter, err)
	}

	out := newSynthOutput(ex.Name, res)
	if len(res.Solutions) == 0 {
		return outputNoSolution(formatter, out)
	}

	if formatter.JSON() {
		return formatter.Encode(CLIResponse{Status: "ok", Data: out, RunID: out.RunID})
	}
	outputSynthText(formatter, out, res, opts.Tree)
	return nil
}

func synthError(formatter *OutputFormatter, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		_ = formatter.Error(ErrCodeSynthesis, "synthesis interrupted", nil)
		return WrapExitError(ExitCommandError, "synthesis interrupted", err)
	case synth.IsInvalidArgument(err):
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid synthesis arguments", err)
	default:
		_ = formatter.Error(ErrCodeSynthesis, err.Error(), nil)
		return WrapExitError(ExitCommandError, "synthesis failed", err)
	}
}

func newSynthOutput(name string, res *synth.Result) SynthOutput {
	out := SynthOutput{
		Example:    name,
		RunID:      res.RunID,
		Target:     res.TargetDigest,
		Solutions:  make([]SolutionOutput, len(res.Solutions)),
		Candidates: res.Candidates,
		Skipped:    res.Skipped,
		Depth:      res.Depth,
		Exhausted:  res.Exhausted,
		ElapsedMS:  res.Elapsed.Milliseconds(),
	}
	for i, sol := range res.Solutions {
		out.Solutions[i] = SolutionOutput{
			ID:        sol.ID,
			SQL:       sol.SQL,
			Query:     sol.Query.String(),
			Depth:     sol.Depth,
			Candidate: sol.Candidate,
		}
	}
	return out
}

func outputNoSolution(formatter *OutputFormatter, out SynthOutput) error {
	message := fmt.Sprintf("no solution found in %d candidates up to depth %d", out.Candidates, out.Depth)
	if out.Exhausted {
		message = fmt.Sprintf("search budget exhausted after %d candidates without a solution", out.Candidates)
	}

	if formatter.JSON() {
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Data:   out,
			RunID:  out.RunID,
			Error:  &CLIError{Code: ErrCodeNoSolution, Message: message},
		}); err != nil {
			return err
		}
	} else {
		formatter.Printf("Run: %s\n", out.RunID)
		formatter.Printf("Target: %s\n", out.Target)
		formatter.Printf("✗ %s\n", message)
	}
	return NewExitError(ExitFailure, message)
}

func outputSynthText(formatter *OutputFormatter, out SynthOutput, res *synth.Result, tree bool) {
	formatter.Printf("Run: %s\n", out.RunID)
	formatter.Printf("Target: %s\n", out.Target)
	formatter.Printf("Found %d solution(s) at depth %d (%d candidates, %d skipped, %dms)\n",
		len(out.Solutions), out.Depth, out.Candidates, out.Skipped, out.ElapsedMS)
	if out.Exhausted {
		formatter.Printf("Search budget exhausted; results may be incomplete.\n")
	}
	formatter.Printf("\n")

	for i, sol := range out.Solutions {
		formatter.Printf("[%d] %s\n", i+1, sol.SQL)
		if tree {
			for _, line := range strings.Split(strings.TrimRight(queryast.Print(res.Solutions[i].Query), "\n"), "\n") {
				formatter.Printf("      %s\n", line)
			}
		}
	}
}
