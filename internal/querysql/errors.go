package querysql

import (
	"errors"
	"fmt"
)

// UnsupportedKindError reports an AST node kind outside the translatable
// subset. The synthesizer treats it as a skip, not a failure.
type UnsupportedKindError struct {
	Kind string
}

func (e *UnsupportedKindError) Error() string {
	return fmt.Sprintf("unsupported node kind: %s", e.Kind)
}

// IsUnsupportedKind checks if an error is an UnsupportedKindError.
func IsUnsupportedKind(err error) bool {
	var target *UnsupportedKindError
	return errors.As(err, &target)
}
