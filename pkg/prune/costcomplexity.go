package prune

import (
	"math"

	"github.com/evtboost/bdt/pkg/impurity"
	"github.com/evtboost/bdt/pkg/tree"
)

// CostComplexityPruner implements weakest-link pruning (§4.3): it repeatedly
// removes the internal node with the smallest effective alpha (the gini cost
// increase per leaf removed), building a prune sequence on a disposable copy
// of the tree, then applies the leading Strength percent of that sequence to
// the real tree.
//
// Strength is a percentage in [0, 100]: 0 prunes nothing, 100 prunes the
// entire weakest-link sequence (collapsing to the root).
type CostComplexityPruner struct {
	Strength float64
}

var gini = impurity.MustOf(impurity.Gini)

// path identifies a node by its sequence of left(false)/right(true) moves
// from the root, so the same node can be located in both the disposable
// copy and the real tree.
type path []bool

func nodeAt(root *tree.Node, p path) *tree.Node {
	n := root
	for _, right := range p {
		if right {
			n = n.Right
		} else {
			n = n.Left
		}
	}
	return n
}

// cost is c(t) = w_total(t) * gini(purity(t)), the node's gini impurity
// scaled by its weight mass.
func cost(n *tree.Node) float64 {
	return (n.WSig + n.WBg) * gini(n.Purity())
}

// weakestLink finds the internal node in the subtree rooted at root with the
// smallest alpha = (cost(t) - cost(left) - cost(right)) / (nleaves(t) - 1),
// returning its path and alpha. Leaves have alpha = +Inf and are never
// selected. Ties resolve to the first found in pre-order.
func weakestLink(root *tree.Node) (path, float64, bool) {
	var bestPath path
	bestAlpha := math.Inf(1)
	found := false

	var walk func(n *tree.Node, p path)
	walk = func(n *tree.Node, p path) {
		if n.IsLeaf() {
			return
		}
		alpha := (cost(n) - cost(n.Left) - cost(n.Right)) / float64(n.NLeaves()-1)
		if alpha < bestAlpha {
			bestAlpha = alpha
			bestPath = append(path(nil), p...)
			found = true
		}
		walk(n.Left, append(p, false))
		walk(n.Right, append(p, true))
	}
	walk(root, nil)
	return bestPath, bestAlpha, found
}

// Prune computes the weakest-link sequence on a disposable clone of m.Root
// and applies its leading Strength percent to the real tree.
func (p CostComplexityPruner) Prune(m *tree.Model) {
	cp := m.Root.Clone()

	var sequence []path
	for {
		best, _, ok := weakestLink(cp)
		if !ok {
			break
		}
		sequence = append(sequence, best)
		nodeAt(cp, best).Prune()
	}

	nPrune := int(p.Strength / 100 * float64(len(sequence)))
	if nPrune > len(sequence) {
		nPrune = len(sequence)
	}
	for i := 0; i < nPrune; i++ {
		nodeAt(m.Root, sequence[i]).Prune()
	}
}
