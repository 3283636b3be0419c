package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/vecsynth/internal/example"
)

// FileValidation is the outcome of validating one example file.
type FileValidation struct {
	File    string `json:"file"`
	Name    string `json:"name,omitempty"`
	Valid   bool   `json:"valid"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool             `json:"valid"`
	Files []FileValidation `json:"files"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <example-file>...",
		Short: "Validate example files without searching",
		Long: `Validate example files without running a search.

Checks syntax, unknown fields, required fields, column types, and that
every row matches its table's columns. YAML (.yaml, .yml) and CUE (.cue)
files are accepted.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	result := ValidationResult{Valid: true, Files: make([]FileValidation, 0, len(paths))}
	for _, path := range paths {
		formatter.VerboseLog("Validating %s", path)
		fv := validateFile(path)
		if !fv.Valid {
			result.Valid = false
		}
		result.Files = append(result.Files, fv)
	}

	if formatter.JSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.Valid {
			resp.Status = "error"
			resp.Error = &CLIError{Code: firstCode(result), Message: "validation failed"}
		}
		if err := formatter.Encode(resp); err != nil {
			return err
		}
	} else {
		for _, fv := range result.Files {
			if fv.Valid {
				formatter.Printf("✓ %s (%s)\n", fv.File, fv.Name)
				continue
			}
			if fv.Line > 0 {
				formatter.Printf("✗ %s:%d [%s] %s\n", fv.File, fv.Line, fv.Code, fv.Message)
			} else {
				formatter.Printf("✗ %s [%s] %s\n", fv.File, fv.Code, fv.Message)
			}
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, "validation failed")
	}
	return nil
}

func validateFile(path string) FileValidation {
	ex, err := example.Load(path)
	if err == nil {
		return FileValidation{File: path, Name: ex.Name, Valid: true}
	}

	fv := FileValidation{File: path, Code: example.Code(err), Message: err.Error()}
	var le *example.LoadError
	if errors.As(err, &le) {
		fv.Message = le.Message
		if le.Pos.IsValid() {
			fv.Line = le.Pos.Line()
		}
	}
	return fv
}

func firstCode(result ValidationResult) string {
	for _, fv := range result.Files {
		if !fv.Valid {
			return fv.Code
		}
	}
	return example.ErrCodeGeneric
}
