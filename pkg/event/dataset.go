// Package event defines the tabular event container the decision-tree learner
// consumes: a fixed schema of named, equal-length floating-point columns plus
// an optional livetime scalar. The host application owns the production
// container; Dataset is the contract the learner requires of it, and Table is
// a reference implementation used by this module's own tests and the
// bdttrain demonstration command.
package event

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownFeature is returned when a requested column name is absent from a
// Dataset.
var ErrUnknownFeature = errors.New("event: unknown feature column")

// ErrDuplicateFeature is returned when a Table is constructed with a repeated
// column name.
var ErrDuplicateFeature = errors.New("event: duplicate feature column")

// ErrColumnLength is returned when a column's length does not match the
// Dataset's declared event count.
var ErrColumnLength = errors.New("event: column length mismatch")

// Dataset is the contract a host container must satisfy to be trained or
// scored against. Implementations need only provide random-indexed column
// access; learners and models select columns by name through their own
// feature-name lists, so they do not depend on the order FeatureNames returns.
type Dataset interface {
	// FeatureNames returns the ordered, unique column names available.
	FeatureNames() []string
	// Len returns the number of events (rows).
	Len() int
	// Column returns the dense column for name, or ok=false if absent.
	Column(name string) (values []float64, ok bool)
	// Livetime returns the dataset's optional livetime scalar.
	Livetime() (value float64, ok bool)
}

// Table is a minimal in-memory Dataset.
type Table struct {
	names    []string
	columns  map[string][]float64
	nominal  map[string]bool
	n        int
	livetime *float64
}

// NewTable builds a Table from named columns. All columns must share the same
// length; names must be unique. nominal may be nil.
func NewTable(columns map[string][]float64, nominal []string, livetime *float64) (*Table, error) {
	if len(columns) == 0 {
		return &Table{columns: map[string][]float64{}, nominal: map[string]bool{}}, nil
	}

	n := -1
	names := make([]string, 0, len(columns))
	for name, values := range columns {
		if n == -1 {
			n = len(values)
		} else if len(values) != n {
			return nil, fmt.Errorf("%w: column %q has length %d, want %d", ErrColumnLength, name, len(values), n)
		}
		names = append(names, name)
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateFeature, name)
		}
		seen[name] = true
	}

	nominalSet := make(map[string]bool, len(nominal))
	for _, name := range nominal {
		nominalSet[name] = true
	}

	cols := make(map[string][]float64, len(columns))
	for name, values := range columns {
		cp := make([]float64, len(values))
		copy(cp, values)
		cols[name] = cp
	}

	return &Table{names: names, columns: cols, nominal: nominalSet, n: n, livetime: livetime}, nil
}

func (t *Table) FeatureNames() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

func (t *Table) Len() int { return t.n }

func (t *Table) Column(name string) ([]float64, bool) {
	v, ok := t.columns[name]
	return v, ok
}

func (t *Table) Livetime() (float64, bool) {
	if t.livetime == nil {
		return 0, false
	}
	return *t.livetime, true
}

// IsNominal reports whether name was declared as a nominal (non-training)
// column.
func (t *Table) IsNominal(name string) bool { return t.nominal[name] }

// Project builds a new Table containing exactly the named columns, in the
// given order, preserving row order. Fails with ErrUnknownFeature if any name
// is absent from d.
func Project(d Dataset, names []string) (*Table, error) {
	cols := make(map[string][]float64, len(names))
	for _, name := range names {
		values, ok := d.Column(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFeature, name)
		}
		cols[name] = values
	}

	out := &Table{
		names:   append([]string(nil), names...),
		columns: cols,
		nominal: map[string]bool{},
		n:       d.Len(),
	}
	if lt, ok := d.Livetime(); ok {
		v := lt
		out.livetime = &v
	}
	return out, nil
}

// Subset returns a new Table containing only even-indexed rows (keepEven
// true) or odd-indexed rows (keepEven false), a simple holdout split.
func Subset(d Dataset, keepEven bool) *Table {
	names := d.FeatureNames()
	n := d.Len()

	keepIdx := make([]int, 0, (n+1)/2)
	start := 0
	if !keepEven {
		start = 1
	}
	for i := start; i < n; i += 2 {
		keepIdx = append(keepIdx, i)
	}

	cols := make(map[string][]float64, len(names))
	for _, name := range names {
		src, _ := d.Column(name)
		dst := make([]float64, len(keepIdx))
		for j, idx := range keepIdx {
			dst[j] = src[idx]
		}
		cols[name] = dst
	}

	out := &Table{
		names:   append([]string(nil), names...),
		columns: cols,
		nominal: map[string]bool{},
		n:       len(keepIdx),
	}
	if lt, ok := d.Livetime(); ok {
		v := lt
		out.livetime = &v
	}
	return out
}

// Row extracts the feature vector for a single event across names, in order.
func Row(d Dataset, names []string, idx int) []float64 {
	out := make([]float64, len(names))
	for i, name := range names {
		col, _ := d.Column(name)
		out[i] = col[idx]
	}
	return out
}

// Finite reports whether every component of row is a finite number (not NaN,
// not +/-Inf).
func Finite(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
