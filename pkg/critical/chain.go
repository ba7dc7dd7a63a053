package critical

import (
	"maps"
	"slices"

	"github.com/critlens/critlens/pkg/trace"
)

// ChainNode is one entry in the assembled forest: a request together with
// the requests it triggered that survived criticality filtering.
//
// Nodes are created lazily on first reference (whether first seen as a
// parent or as a child) and shared by identity thereafter: every reference
// to the same request id resolves to the same node instance. Children are
// keyed by the child's request id.
type ChainNode struct {
	Request  *trace.RequestRecord
	Children map[string]*ChainNode
}

func newChainNode() *ChainNode {
	return &ChainNode{Children: make(map[string]*ChainNode)}
}

// addChild links child under n, keyed by the child's request id.
// Re-adding the same child is a no-op (nodes are shared by identity).
func (n *ChainNode) addChild(id string, child *ChainNode) {
	n.Children[id] = child
}

// ChildIDs returns the ids of n's children in sorted order.
// The sort is for deterministic iteration only; consumers must rely on key
// identity, not position.
func (n *ChainNode) ChildIDs() []string {
	return slices.Sorted(maps.Keys(n.Children))
}

// Forest maps root request ids to their chain trees. In the common case it
// holds exactly one entry: the root document. A Forest is immutable once
// returned by [Assemble].
type Forest map[string]*ChainNode

// RootIDs returns the forest's root request ids in sorted order.
func (f Forest) RootIDs() []string {
	return slices.Sorted(maps.Keys(f))
}

// NodeCount returns the total number of nodes reachable from the forest's
// roots.
func (f Forest) NodeCount() int {
	n := 0
	f.Walk(func(*ChainNode, int) { n++ })
	return n
}

// Walk visits every node reachable from the forest's roots in depth-first
// order, passing each node and its depth (roots are depth 0). Sibling order
// follows sorted child ids for determinism.
func (f Forest) Walk(fn func(node *ChainNode, depth int)) {
	for _, id := range f.RootIDs() {
		walkNode(f[id], 0, fn)
	}
}

func walkNode(n *ChainNode, depth int, fn func(*ChainNode, int)) {
	fn(n, depth)
	for _, id := range n.ChildIDs() {
		walkNode(n.Children[id], depth+1, fn)
	}
}

// Stats summarizes an assembled forest for reporting.
type Stats struct {
	// NodeCount is the total number of requests in the forest.
	NodeCount int `json:"node_count"`
	// ChainCount is the number of distinct root-to-leaf chains.
	ChainCount int `json:"chain_count"`
	// LongestChain is the number of requests on the longest chain.
	LongestChain int `json:"longest_chain"`
	// LongestChainDuration is the summed request duration along the chain
	// with the largest total, in the recorder's clock units.
	LongestChainDuration float64 `json:"longest_chain_duration"`
}

// Summarize computes chain statistics for a forest.
func Summarize(f Forest) Stats {
	var s Stats
	s.NodeCount = f.NodeCount()
	for _, id := range f.RootIDs() {
		summarizeNode(f[id], 1, 0, &s)
	}
	return s
}

func summarizeNode(n *ChainNode, length int, elapsed float64, s *Stats) {
	elapsed += n.Request.Duration()
	if len(n.Children) == 0 {
		s.ChainCount++
		s.LongestChain = max(s.LongestChain, length)
		s.LongestChainDuration = max(s.LongestChainDuration, elapsed)
		return
	}
	for _, id := range n.ChildIDs() {
		summarizeNode(n.Children[id], length+1, elapsed, s)
	}
}
