package example

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

// Load reads an example file, choosing the decoder by extension
// (.yaml/.yml or .cue), then validates it.
func Load(path string) (*Example, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: "example file not found", File: path}
		}
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("failed to read example file: %v", err), File: path}
	}

	var ex *Example
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		ex, err = ParseYAML(data)
	case ".cue":
		ex, err = ParseCUE(data, path)
	default:
		return nil, &LoadError{
			Code:    ErrCodeUnsupportedFormat,
			Message: fmt.Sprintf("unsupported example format %q (want .yaml, .yml, or .cue)", filepath.Ext(path)),
			File:    path,
		}
	}
	if err != nil {
		return nil, withFile(err, path)
	}
	return ex, nil
}

// ParseYAML decodes and validates a YAML example.
// Unknown fields are rejected (catches typos like "query_vector:").
func ParseYAML(data []byte) (*Example, error) {
	var ex Example
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&ex); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, loadErrorf(ErrCodeMissingField, "example file is empty")
		}
		return nil, loadErrorf(ErrCodeParseFailed, "failed to parse YAML: %v", err)
	}

	if err := ex.Validate(); err != nil {
		return nil, err
	}
	return &ex, nil
}

// schema constrains CUE examples. Definitions are closed, so unknown
// fields fail unification the way KnownFields does for YAML.
const schema = `
#Column: {
	name: string & !=""
	type: string
}

#Table: {
	name?:   string
	columns: [...#Column]
	rows:    [...[..._]]
}

#Expect: {
	depth?:       int & >=1
	first?:       string
	contains?:    [...string]
	no_solution?: bool
}

#Example: {
	name:         string & !=""
	description?: string
	inputs:       [#Table, ...#Table]
	target:       #Table
	query_vectors?: [...[...number]]
	expect?:      #Expect
	run_id?:      string
}
`

// ParseCUE evaluates a CUE example against the example schema, decodes it,
// and validates it. filename is used in error positions.
func ParseCUE(data []byte, filename string) (*Example, error) {
	ctx := cuecontext.New()

	def := ctx.CompileString(schema).LookupPath(cue.ParsePath("#Example"))
	if err := def.Err(); err != nil {
		return nil, loadErrorf(ErrCodeGeneric, "compiling example schema: %v", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, cueLoadError(ErrCodeParseFailed, err)
	}

	v = def.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(ErrCodeBuildFailed, err)
	}

	var ex Example
	if err := v.Decode(&ex); err != nil {
		return nil, cueLoadError(ErrCodeBuildFailed, err)
	}

	if err := ex.Validate(); err != nil {
		return nil, err
	}
	return &ex, nil
}

// cueLoadError converts a CUE error into a LoadError carrying the first
// error's position.
func cueLoadError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: err.Error()}
	var ce cueerrors.Error
	if errors.As(err, &ce) {
		le.Pos = ce.Position()
		le.Message = cueerrors.Details(err, nil)
		le.Message = strings.TrimSpace(le.Message)
	}
	return le
}

func withFile(err error, path string) error {
	var le *LoadError
	if errors.As(err, &le) && le.File == "" {
		cp := *le
		cp.File = path
		return &cp
	}
	return err
}
