// Package prune implements the three tree-surgery strategies of §4.3: same
// leaf collapsing, cost-complexity weakest-link pruning, and statistical
// error pruning. Each mutates a *tree.Model's node tree in place by
// converting internal nodes into leaves via Node.Prune.
//
// Like impurity.Separation, the three strategies are a closed set modeled as
// concrete types satisfying one small interface rather than a deep class
// hierarchy (spec Design Notes).
package prune

import "github.com/evtboost/bdt/pkg/tree"

// Pruner mutates a trained model's tree in place.
type Pruner interface {
	Prune(m *tree.Model)
}
