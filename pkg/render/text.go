package render

import (
	"bytes"
	"fmt"

	"github.com/critlens/critlens/pkg/critical"
)

// Text renders the forest as an indented chain tree for terminal output.
// Each line shows the request URL, resource type, and duration; indentation
// reflects chain depth.
func Text(f critical.Forest) []byte {
	var buf bytes.Buffer
	f.Walk(func(n *critical.ChainNode, depth int) {
		rec := n.Request
		for range depth {
			buf.WriteString("  ")
		}
		if depth > 0 {
			buf.WriteString("└─ ")
		}
		fmt.Fprintf(&buf, "%s [%s", rec.URL, rec.ResourceType)
		if d := rec.Duration(); d > 0 {
			fmt.Fprintf(&buf, ", %.0fms", d)
		}
		buf.WriteString("]\n")
	})

	stats := critical.Summarize(f)
	fmt.Fprintf(&buf, "\n%d requests on %d chains, longest chain %d requests (%.0fms)\n",
		stats.NodeCount, stats.ChainCount, stats.LongestChain, stats.LongestChainDuration)
	return buf.Bytes()
}
