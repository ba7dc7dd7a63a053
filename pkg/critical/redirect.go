package critical

import (
	"github.com/critlens/critlens/pkg/trace"
)

// Chains is the result of collapsing redirect hops into logical resources.
//
// A redirect chain is the sequence of records linked through
// RedirectDestination, from the first hop (the URL the page actually asked
// for) to the terminal hop (the resource that finally answered). In the
// assembled tree the chain appears as a spine: the first hop attaches to
// the chain's initiator, and each later hop nests as the previous hop's
// sole child. Dependents of the chain attach under the terminal hop.
type Chains struct {
	reg *trace.Registry

	// source maps a hop id to the id of the hop that redirected into it.
	source map[string]string
	// terminal maps every hop id to the terminal hop id of its chain.
	terminal map[string]string
	// effective holds normalized copies of mid-chain hops that lack their
	// own resource type or priority and inherit the terminal hop's.
	effective map[string]*trace.RequestRecord
}

// CollapseRedirects normalizes the registry's redirect chains.
//
// Mid-chain hops often lack a declared resource type or priority (the
// recorder only learns those from the terminal response); such hops inherit
// the terminal hop's values so that a redirect into a critical resource
// keeps the whole chain on the critical path, while hops that do declare
// their own values are classified on those.
func CollapseRedirects(reg *trace.Registry) *Chains {
	c := &Chains{
		reg:       reg,
		source:    make(map[string]string),
		terminal:  make(map[string]string),
		effective: make(map[string]*trace.RequestRecord),
	}

	for _, rec := range reg.Records() {
		if !rec.IsRedirect() {
			continue
		}
		if _, ok := reg.Get(rec.RedirectDestination); ok {
			c.source[rec.RedirectDestination] = rec.ID
		}
	}

	for _, rec := range reg.Records() {
		if !rec.IsRedirect() {
			continue
		}
		term := c.followToTerminal(rec)
		c.terminal[rec.ID] = term.ID

		norm := *rec
		if norm.ResourceType == trace.ResourceUnknown || norm.ResourceType == "" {
			norm.ResourceType = term.ResourceType
		}
		if norm.Priority == trace.PriorityUnknown || norm.Priority == "" {
			norm.Priority = term.Priority
		}
		c.effective[rec.ID] = &norm
	}

	return c
}

// followToTerminal walks RedirectDestination links to the chain's terminal
// hop. Dangling destinations terminate the walk at the last resolvable hop;
// a destination cycle (malformed input) terminates at the first revisit.
func (c *Chains) followToTerminal(rec *trace.RequestRecord) *trace.RequestRecord {
	seen := map[string]bool{rec.ID: true}
	cur := rec
	for cur.IsRedirect() {
		next, ok := c.reg.Get(cur.RedirectDestination)
		if !ok || seen[next.ID] {
			break
		}
		seen[next.ID] = true
		cur = next
	}
	return cur
}

// Effective returns the record to use for classification: a normalized copy
// for mid-chain hops that inherited the terminal hop's type and priority,
// or the record itself otherwise.
func (c *Chains) Effective(rec *trace.RequestRecord) *trace.RequestRecord {
	if norm, ok := c.effective[rec.ID]; ok {
		return norm
	}
	return rec
}

// PrevHop returns the id of the hop that redirected into the given record,
// if the record is a non-first hop of a redirect chain.
func (c *Chains) PrevHop(id string) (string, bool) {
	src, ok := c.source[id]
	return src, ok
}

// Terminal returns the terminal hop id for a record. For records that are
// not redirect hops this is the record's own id: attaching a dependent to a
// chain always lands on the hop that finally produced the resource.
func (c *Chains) Terminal(id string) string {
	if term, ok := c.terminal[id]; ok {
		return term
	}
	return id
}
