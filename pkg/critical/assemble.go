package critical

import (
	"github.com/critlens/critlens/pkg/trace"
)

// Assemble builds the critical request dependency forest for one recorded
// trace.
//
// Records that fail the criticality predicate are discarded (the root
// document is always retained). Each surviving record attaches under the
// request that initiated it, provided that initiator itself survived;
// redirect hops attach under the previous hop of their chain, and
// dependents of a redirect chain attach under the chain's terminal hop.
// Any subtree that cannot be traced back to the root document through an
// unbroken chain of critical requests is absent from the result.
//
// An empty record list yields an empty forest. Malformed input (duplicate
// ids, zero or multiple initiator-less records) fails fast with the
// registry's sentinel errors.
//
// Assemble is deterministic: forward and reversed record orderings produce
// structurally identical forests.
func Assemble(records []trace.RequestRecord) (Forest, error) {
	reg, err := trace.NewRegistry(records)
	if err != nil {
		return nil, err
	}
	return AssembleRegistry(reg), nil
}

// AssembleRegistry builds the forest from an already-normalized registry.
func AssembleRegistry(reg *trace.Registry) Forest {
	root := reg.Root()
	if root == nil {
		return Forest{}
	}

	chains := CollapseRedirects(reg)

	retained := func(rec *trace.RequestRecord) bool {
		if rec.ID == root.ID {
			return true
		}
		return IsCritical(chains.Effective(rec), root)
	}

	// Arena of nodes keyed by request id. Nodes are created on first
	// reference from either side of an edge, so attachment never depends
	// on the order records were recorded in.
	nodes := make(map[string]*ChainNode, reg.Len())
	node := func(rec *trace.RequestRecord) *ChainNode {
		n, ok := nodes[rec.ID]
		if !ok {
			n = newChainNode()
			n.Request = rec
			nodes[rec.ID] = n
		}
		return n
	}

	for _, rec := range reg.Records() {
		if rec.ID == root.ID {
			node(rec)
			continue
		}
		if !retained(rec) {
			continue
		}
		parent := resolveParent(reg, chains, rec)
		if parent == nil || !retained(parent) {
			// Broken or missing ancestor chain: the record stays out of
			// the forest entirely (connectivity pruning).
			continue
		}
		node(parent).addChild(rec.ID, node(rec))
	}

	// Only the tree hanging off the root document is exposed; everything
	// attached under an ancestor that never reaches the root is pruned by
	// construction.
	return Forest{root.ID: node(root)}
}

// resolveParent finds the record rec should attach under: the previous hop
// for mid-chain redirect records, otherwise the resolved initiator - with
// dependents of a redirect chain landing on the chain's terminal hop.
// Returns nil when no ancestor can be resolved.
func resolveParent(reg *trace.Registry, chains *Chains, rec *trace.RequestRecord) *trace.RequestRecord {
	if src, ok := chains.PrevHop(rec.ID); ok {
		parent, _ := reg.Get(src)
		return parent
	}
	init, ok := reg.ResolveInitiator(rec)
	if !ok {
		return nil
	}
	parent, _ := reg.Get(chains.Terminal(init.ID))
	return parent
}
