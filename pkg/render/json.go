package render

import (
	"encoding/json"
	"fmt"

	"github.com/critlens/critlens/pkg/critical"
)

// Report is the JSON artifact shape: the serialized forest plus chain
// statistics for the audit consumer.
type Report struct {
	Chains map[string]*critical.SerializedNode `json:"chains"`
	Stats  critical.Stats                      `json:"stats"`
}

// JSON renders the forest as an indented JSON report.
func JSON(f critical.Forest) ([]byte, error) {
	report := Report{
		Chains: critical.Serialize(f),
		Stats:  critical.Summarize(f),
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return data, nil
}
