// Package tree implements the single decision-tree learner: histogram-binned
// split search over a weighted two-class dataset, and the resulting DTNode/
// DTModel tree used for scoring and variable-importance accounting.
//
// The recursive split-then-recurse shape and the stack-free double recursion
// follow wlattner/rf/tree.Classifier.fit and bestSplit, generalized from a
// single unweighted class-count scan to the spec's weighted histogram scan
// over signal/background events independently.
package tree

// Node is a decision-tree node: either a leaf carrying aggregated class
// weights/counts and a label, or an internal split carrying a feature/cut and
// two exclusively-owned children. Nodes are immutable once built except via
// Prune, which converts an internal node into a leaf in place.
type Node struct {
	// Present on every node.
	WSig, WBg float64 // aggregated weighted signal/background weight
	NSig, NBg int     // raw (unweighted) counts
	SepIndex  float64 // impurity at this node, computed at construction
	Label     int     // +1 or -1, sign(WSig - WBg); ties resolve to -1

	// Present only on internal nodes; Left == nil iff this is a leaf.
	FeatureIdx int // index into the owning DTModel's FeatureNames
	CutVal     float64
	SepGain    float64
	Left       *Node
	Right      *Node
}

// IsLeaf reports whether n is a leaf (no children).
func (n *Node) IsLeaf() bool {
	return n.Left == nil
}

// Purity returns w_sig / (w_sig + w_bg). Callers must not call this on a node
// with zero total weight (an invariant violation per §7 — such a node should
// never have been constructed).
func (n *Node) Purity() float64 {
	total := n.WSig + n.WBg
	if total <= 0 {
		return 0
	}
	return n.WSig / total
}

// MaxDepth returns the depth of the deepest leaf beneath n (a leaf has
// MaxDepth 0).
func (n *Node) MaxDepth() int {
	if n.IsLeaf() {
		return 0
	}
	l, r := n.Left.MaxDepth(), n.Right.MaxDepth()
	if l > r {
		return l + 1
	}
	return r + 1
}

// TreeSize returns the total node count (leaves + internal) in the subtree
// rooted at n.
func (n *Node) TreeSize() int {
	if n.IsLeaf() {
		return 1
	}
	return 1 + n.Left.TreeSize() + n.Right.TreeSize()
}

// NLeaves returns the number of leaves in the subtree rooted at n.
func (n *Node) NLeaves() int {
	if n.IsLeaf() {
		return 1
	}
	return n.Left.NLeaves() + n.Right.NLeaves()
}

// newLeaf builds a leaf from aggregated class weights/counts and a
// precomputed separation index.
func newLeaf(wSig, wBg float64, nSig, nBg int, sepIndex float64) *Node {
	return &Node{
		WSig:     wSig,
		WBg:      wBg,
		NSig:     nSig,
		NBg:      nBg,
		SepIndex: sepIndex,
		Label:    labelFor(wSig, wBg),
	}
}

// labelFor derives +1/-1 from sign(wSig - wBg); ties resolve to -1.
func labelFor(wSig, wBg float64) int {
	if wSig > wBg {
		return 1
	}
	return -1
}

// Prune converts an internal node into a leaf in place: both children are
// dropped and the label is re-derived from the node's own aggregated
// weights (which an internal node already carries, summed from its
// descendants at construction time). Pruning a leaf is a no-op.
func (n *Node) Prune() {
	if n.IsLeaf() {
		return
	}
	n.Left = nil
	n.Right = nil
	n.FeatureIdx = 0
	n.CutVal = 0
	n.SepGain = 0
	n.Label = labelFor(n.WSig, n.WBg)
}

// Clone deep-copies the subtree rooted at n. Used by CostComplexityPruner to
// build a disposable copy to compute the weakest-link prune order against,
// leaving the real tree untouched until the final prune sequence is applied.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	cp := *n
	cp.Left = n.Left.Clone()
	cp.Right = n.Right.Clone()
	return &cp
}

// Route returns the child an event with the given value for n's split
// feature descends into: left iff value < n.CutVal. Calling Route on a leaf
// returns nil; callers must check IsLeaf first.
func (n *Node) Route(value float64) *Node {
	if value < n.CutVal {
		return n.Left
	}
	return n.Right
}
