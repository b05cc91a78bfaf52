package prune

import "github.com/evtboost/bdt/pkg/tree"

// SameLeafPruner collapses any internal node whose two children are both
// leaves carrying the same label: the split changes no decision, so it is
// pure overhead (§4.3). Idempotent: a second pass over an already-collapsed
// tree is a no-op.
type SameLeafPruner struct{}

// Prune walks m.Root post-order, collapsing same-label leaf pairs bottom-up
// so a collapse can expose a new same-label pair one level up.
func (SameLeafPruner) Prune(m *tree.Model) {
	sameLeafVisit(m.Root)
}

func sameLeafVisit(n *tree.Node) {
	if n.IsLeaf() {
		return
	}
	sameLeafVisit(n.Left)
	sameLeafVisit(n.Right)
	if n.Left.IsLeaf() && n.Right.IsLeaf() && n.Left.Label == n.Right.Label {
		n.Prune()
	}
}
