package synth

import (
	"fmt"
	"strings"
)

// Capability is a grammar nonterminal. It decides which productions may
// build a node, not what the node does at runtime.
type Capability int

const (
	// CapQuery is the top level: anything Limitable, optionally limited.
	CapQuery Capability = iota
	// CapOrderable is a relation that may be sorted: a table scan or a
	// selection.
	CapOrderable
	// CapLimitable is anything Orderable, or the result of ordering.
	CapLimitable
	// CapExpression is a scalar or vector valued expression.
	CapExpression
	// CapFilter is a boolean condition.
	CapFilter
)

// Capabilities lists every capability in declaration order.
var Capabilities = []Capability{CapQuery, CapOrderable, CapLimitable, CapExpression, CapFilter}

func (c Capability) String() string {
	switch c {
	case CapQuery:
		return "query"
	case CapOrderable:
		return "orderable"
	case CapLimitable:
		return "limitable"
	case CapExpression:
		return "expression"
	case CapFilter:
		return "filter"
	default:
		return fmt.Sprintf("Capability(%d)", int(c))
	}
}

// ParseCapability maps a name such as "query" or "Expression" to a
// Capability.
func ParseCapability(s string) (Capability, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, c := range Capabilities {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown capability %q (valid: query, orderable, limitable, expression, filter)", s)
}
