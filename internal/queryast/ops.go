package queryast

import "fmt"

// DistanceOp is a vector distance operator.
type DistanceOp int

const (
	L2 DistanceOp = iota
	Cosine
	NegativeInnerProduct
	L1
	Hamming
	Jaccard
)

// DistanceOps lists every distance operator in declaration order.
// The enumerator iterates this slice, so its order is part of the
// enumeration order.
var DistanceOps = []DistanceOp{L2, Cosine, NegativeInnerProduct, L1, Hamming, Jaccard}

// Symbol returns the pgvector operator spelling, e.g. "<->".
func (op DistanceOp) Symbol() string {
	switch op {
	case L2:
		return "<->"
	case Cosine:
		return "<=>"
	case NegativeInnerProduct:
		return "<#>"
	case L1:
		return "<+>"
	case Hamming:
		return "<~>"
	case Jaccard:
		return "<%>"
	default:
		return fmt.Sprintf("<distance(%d)>", int(op))
	}
}

func (op DistanceOp) String() string {
	switch op {
	case L2:
		return "l2"
	case Cosine:
		return "cosine"
	case NegativeInnerProduct:
		return "negative_inner_product"
	case L1:
		return "l1"
	case Hamming:
		return "hamming"
	case Jaccard:
		return "jaccard"
	default:
		return fmt.Sprintf("DistanceOp(%d)", int(op))
	}
}

// Valid reports whether op is a declared operator.
func (op DistanceOp) Valid() bool {
	return op >= L2 && op <= Jaccard
}

// CompareOp is a scalar comparison operator.
type CompareOp int

const (
	Eq CompareOp = iota
	Gt
	Lt
	Ge
	Le
	Ne
)

// CompareOps lists every comparison operator in declaration order.
var CompareOps = []CompareOp{Eq, Gt, Lt, Ge, Le, Ne}

// Symbol returns the SQL spelling of the operator.
func (op CompareOp) Symbol() string {
	switch op {
	case Eq:
		return "="
	case Gt:
		return ">"
	case Lt:
		return "<"
	case Ge:
		return ">="
	case Le:
		return "<="
	case Ne:
		return "!="
	default:
		return fmt.Sprintf("<compare(%d)>", int(op))
	}
}

func (op CompareOp) String() string {
	return op.Symbol()
}

// Valid reports whether op is a declared operator.
func (op CompareOp) Valid() bool {
	return op >= Eq && op <= Ne
}

// SortOrder is the direction of an ORDER BY key.
type SortOrder int

const (
	Asc SortOrder = iota
	Desc
)

// SortOrders lists both orders, ascending first.
var SortOrders = []SortOrder{Asc, Desc}

func (o SortOrder) String() string {
	switch o {
	case Asc:
		return "ASC"
	case Desc:
		return "DESC"
	default:
		return fmt.Sprintf("SortOrder(%d)", int(o))
	}
}

// Valid reports whether o is ASC or DESC.
func (o SortOrder) Valid() bool {
	return o == Asc || o == Desc
}

// AggregateFunc is an SQL aggregate function.
type AggregateFunc int

const (
	Sum AggregateFunc = iota
	Count
	Avg
	Min
	Max
)

func (f AggregateFunc) String() string {
	switch f {
	case Sum:
		return "SUM"
	case Count:
		return "COUNT"
	case Avg:
		return "AVG"
	case Min:
		return "MIN"
	case Max:
		return "MAX"
	default:
		return fmt.Sprintf("AggregateFunc(%d)", int(f))
	}
}

// Valid reports whether f is a declared aggregate.
func (f AggregateFunc) Valid() bool {
	return f >= Sum && f <= Max
}
