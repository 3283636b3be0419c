package example

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
)

// Error codes, shared with the CLI's diagnostic output.
const (
	ErrCodeGeneric           = "E001" // Generic/unknown error
	ErrCodeNotFound          = "E005" // Path not found
	ErrCodeParseFailed       = "E004" // YAML or CUE syntax error
	ErrCodeBuildFailed       = "E006" // CUE evaluation or schema failure
	ErrCodeUnsupportedFormat = "E008" // Unknown file extension
	ErrCodeInvalidType       = "E104" // Unknown column type
	ErrCodeMissingField      = "E201" // Required field absent
	ErrCodeRaggedRow         = "E202" // Row length differs from column count
	ErrCodeInvalidCell       = "E203" // Cell cannot be converted to its column type
)

// LoadError is a structured example loading failure.
type LoadError struct {
	Code    string
	Message string
	File    string    // Source file, if known
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Code returns the LoadError code of err, or ErrCodeGeneric if err is not
// (or does not wrap) a LoadError.
func Code(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	return ErrCodeGeneric
}

func loadErrorf(code, format string, args ...any) *LoadError {
	return &LoadError{Code: code, Message: fmt.Sprintf(format, args...)}
}
