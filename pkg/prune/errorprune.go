package prune

import (
	"math"

	"github.com/evtboost/bdt/pkg/tree"
)

// ErrorPruner implements statistical error pruning (§4.3): a node is
// collapsed when its own estimated misclassification error, inflated by a
// confidence margin controlled by Strength, would be no worse than the
// weighted-average estimated error of its subtree.
type ErrorPruner struct {
	Strength float64
}

// nodeError estimates n's misclassification error with an s-sigma upper
// margin: f is the leaf's own majority-class fraction, df its binomial
// standard error, and the result is capped at 1.
func nodeError(n *tree.Node, s float64) float64 {
	total := n.WSig + n.WBg
	if total <= 0 {
		return 1
	}
	purity := n.WSig / total
	f := math.Max(purity, 1-purity)
	df := math.Sqrt(f * (1 - f) / total)
	e := 1 - (f - s*df)
	if e > 1 {
		e = 1
	}
	return e
}

// Prune walks m.Root post-order, collapsing any internal node whose subtree
// error is no better than its own node error.
func (p ErrorPruner) Prune(m *tree.Model) {
	errorPruneVisit(m.Root, p.Strength)
}

// errorPruneVisit returns the estimated error of the subtree rooted at n
// after any pruning performed during the walk.
func errorPruneVisit(n *tree.Node, s float64) float64 {
	if n.IsLeaf() {
		return nodeError(n, s)
	}

	leftErr := errorPruneVisit(n.Left, s)
	rightErr := errorPruneVisit(n.Right, s)
	ne := nodeError(n, s)

	wLeft := n.Left.WSig + n.Left.WBg
	wRight := n.Right.WSig + n.Right.WBg
	wTotal := wLeft + wRight

	subtreeErr := ne
	if wTotal > 0 {
		subtreeErr = (wLeft*leftErr + wRight*rightErr) / wTotal
	}

	if subtreeErr >= ne {
		n.Prune()
		return ne
	}
	return subtreeErr
}
