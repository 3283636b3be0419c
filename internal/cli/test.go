package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/vecsynth/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden reports
	Filter string // example filter (glob pattern)
}

// ExampleResult holds the result of a single example run.
type ExampleResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Examples []ExampleResult `json:"examples"`
	Passed   int             `json:"passed"`
	Failed   int             `json:"failed"`
	Total    int             `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <examples-dir>",
		Short: "Run every example and check its expectations",
		Long: `Run each example in a directory against a fresh in-memory SQLite store and
check the expectations it declares.

When <examples-dir>/golden/<name>.golden exists, the run's canonical JSON
report must also match it byte for byte. --update rewrites the golden
reports instead of comparing.

Exit codes:
  0 - All examples passed
  1 - One or more examples failed
  2 - Command error (invalid paths, etc.)

Examples:
  vecsynth test testdata/examples
  vecsynth test testdata/examples --filter "two-*"
  vecsynth test testdata/examples --update`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	addSearchFlags(cmd)
	addBudgetFlags(cmd)
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden reports")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter examples by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return NewExitError(ExitCommandError, fmt.Sprintf("examples directory not found: %s", dir))
	}

	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	logger := setupLogging(cmd.ErrOrStderr(), opts.RootOptions, cfg)
	matching, err := cfg.Matching()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid matching", err)
	}

	files, err := findExampleFiles(dir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find examples", err)
	}

	result := TestResult{
		Examples: make([]ExampleResult, 0, len(files)),
		Total:    len(files),
	}
	if len(files) == 0 {
		if formatter.JSON() {
			return formatter.Success(result)
		}
		formatter.Printf("No examples found.\n")
		return nil
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	h := harness.New(harness.Config{
		Options:  cfg.SynthOptions(),
		Matching: matching,
		Logger:   logger,
	})

	for _, file := range files {
		er := runExample(ctx, h, file, opts.Update)
		result.Examples = append(result.Examples, er)
		if er.Pass {
			result.Passed++
			formatter.Printf("✓ %s\n", er.Name)
		} else {
			result.Failed++
			formatter.Printf("✗ %s\n", er.Name)
			for _, e := range er.Errors {
				formatter.Printf("  %s\n", strings.ReplaceAll(e, "\n", "\n  "))
			}
		}
	}

	if formatter.JSON() {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(formatter, result)
}

// runExample runs one example file through the harness and, when a golden
// report exists or --update is set, compares or rewrites it.
func runExample(ctx context.Context, h *harness.Harness, file string, update bool) ExampleResult {
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	er := ExampleResult{Name: name, File: file}

	result, err := h.RunFile(ctx, file)
	if err != nil {
		er.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return er
	}
	er.Name = result.Example

	report, err := harness.NewReport(result).MarshalCanonical()
	if err != nil {
		er.Errors = []string{fmt.Sprintf("failed to build report: %v", err)}
		return er
	}

	goldenPath := goldenFilePath(file)
	if update {
		if err := writeGolden(goldenPath, report); err != nil {
			er.Errors = []string{fmt.Sprintf("failed to update golden report: %v", err)}
			return er
		}
	} else if want, err := os.ReadFile(goldenPath); err == nil {
		if !bytes.Equal(want, report) {
			result.AddError("report does not match golden file (run with --update to regenerate)")
		}
	} else if !os.IsNotExist(err) {
		result.AddError(fmt.Sprintf("failed to read golden report: %v", err))
	}

	er.Pass = result.Pass
	er.Errors = result.Errors
	if len(er.Errors) == 0 {
		er.Errors = nil
	}
	return er
}

// goldenFilePath returns the path of the golden report for an example file.
func goldenFilePath(file string) string {
	base := filepath.Base(file)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(file), "golden", name+".golden")
}

func writeGolden(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeTestFailed,
			Message: fmt.Sprintf("%d example(s) failed", result.Failed),
		}
	}
	if err := formatter.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d example(s) failed", result.Failed))
	}
	return nil
}

func outputTestText(formatter *OutputFormatter, result TestResult) error {
	formatter.Printf("\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d example(s) failed", result.Failed))
	}
	formatter.Printf("✓ All examples passed\n")
	return nil
}
