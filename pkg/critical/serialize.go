package critical

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/critlens/critlens/pkg/trace"
)

// SerializedNode is the rendered form of one chain node: the request plus a
// mapping from child request id to rendered child. Key order within
// Children is insignificant; consumers must rely on key identity only.
type SerializedNode struct {
	Request  *trace.RequestRecord       `json:"request"`
	Children map[string]*SerializedNode `json:"children,omitempty"`
}

// Serialize renders an assembled forest into the nested parent→children
// shape consumed by downstream reporting. It is purely structural: no
// filtering happens here, and serializing the same forest twice yields
// identical output.
func Serialize(f Forest) map[string]*SerializedNode {
	out := make(map[string]*SerializedNode, len(f))
	for id, n := range f {
		out[id] = serializeNode(n)
	}
	return out
}

func serializeNode(n *ChainNode) *SerializedNode {
	sn := &SerializedNode{Request: n.Request}
	if len(n.Children) == 0 {
		return sn
	}
	sn.Children = make(map[string]*SerializedNode, len(n.Children))
	for id, child := range n.Children {
		sn.Children[id] = serializeNode(child)
	}
	return sn
}

// WriteJSON serializes the forest and writes it to w as indented JSON.
func WriteJSON(f Forest, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Serialize(f)); err != nil {
		return fmt.Errorf("encode forest: %w", err)
	}
	return nil
}

// MarshalJSON serializes the forest to JSON bytes.
func MarshalJSON(f Forest) ([]byte, error) {
	data, err := json.MarshalIndent(Serialize(f), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode forest: %w", err)
	}
	return data, nil
}

// UnmarshalForest reconstructs a forest from bytes produced by
// [MarshalJSON]. Round-tripping preserves structure exactly.
func UnmarshalForest(data []byte) (Forest, error) {
	var nodes map[string]*SerializedNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("decode forest: %w", err)
	}
	f := make(Forest, len(nodes))
	for id, sn := range nodes {
		f[id] = deserializeNode(sn)
	}
	return f, nil
}

func deserializeNode(sn *SerializedNode) *ChainNode {
	n := newChainNode()
	n.Request = sn.Request
	for id, child := range sn.Children {
		n.Children[id] = deserializeNode(child)
	}
	return n
}
