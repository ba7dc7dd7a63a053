package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// ResourceType classifies what kind of resource a request fetched.
// The set mirrors the categories reported by browser debugging protocols.
// Values outside the known set decode to ResourceUnknown.
type ResourceType string

// Known resource types.
const (
	ResourceDocument   ResourceType = "document"
	ResourceScript     ResourceType = "script"
	ResourceStylesheet ResourceType = "stylesheet"
	ResourceImage      ResourceType = "image"
	ResourceMedia      ResourceType = "media"
	ResourceFont       ResourceType = "font"
	ResourceXHR        ResourceType = "xhr"
	ResourceFetch      ResourceType = "fetch"
	ResourceWebSocket  ResourceType = "websocket"
	ResourceManifest   ResourceType = "manifest"
	ResourceOther      ResourceType = "other"
	ResourceUnknown    ResourceType = "unknown"
)

var resourceTypes = map[ResourceType]bool{
	ResourceDocument:   true,
	ResourceScript:     true,
	ResourceStylesheet: true,
	ResourceImage:      true,
	ResourceMedia:      true,
	ResourceFont:       true,
	ResourceXHR:        true,
	ResourceFetch:      true,
	ResourceWebSocket:  true,
	ResourceManifest:   true,
	ResourceOther:      true,
}

// ParseResourceType maps a wire string to a ResourceType.
// Unrecognized values map to ResourceUnknown rather than failing, so new
// protocol resource types fail closed (non-critical) instead of crashing.
func ParseResourceType(s string) ResourceType {
	rt := ResourceType(s)
	if resourceTypes[rt] {
		return rt
	}
	return ResourceUnknown
}

// UnmarshalJSON decodes a resource type, mapping unknown values to
// ResourceUnknown.
func (rt *ResourceType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("resource type: %w", err)
	}
	*rt = ParseResourceType(s)
	return nil
}

// Priority is the fetch priority the browser assigned to a request.
// Priorities form a total order: VeryLow < Low < Medium < High < VeryHigh.
// Values outside the known set decode to PriorityUnknown, which orders
// below every known priority.
type Priority string

// Known priorities, lowest to highest.
const (
	PriorityVeryLow  Priority = "very-low"
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityVeryHigh Priority = "very-high"
	PriorityUnknown  Priority = "unknown"
)

var priorityLevels = map[Priority]int{
	PriorityVeryLow:  1,
	PriorityLow:      2,
	PriorityMedium:   3,
	PriorityHigh:     4,
	PriorityVeryHigh: 5,
}

// ParsePriority maps a wire string to a Priority.
// Unrecognized values map to PriorityUnknown.
func ParsePriority(s string) Priority {
	p := Priority(s)
	if _, ok := priorityLevels[p]; ok {
		return p
	}
	return PriorityUnknown
}

// Level returns the priority's position in the total order.
// PriorityUnknown returns 0, below every known priority.
func (p Priority) Level() int {
	return priorityLevels[p]
}

// AtLeast reports whether p orders at or above other.
func (p Priority) AtLeast(other Priority) bool {
	return p.Level() >= other.Level()
}

// UnmarshalJSON decodes a priority, mapping unknown values to
// PriorityUnknown.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("priority: %w", err)
	}
	*p = ParsePriority(s)
	return nil
}

// Initiator kinds reported by the recorder.
const (
	InitiatorParser  = "parser"
	InitiatorScript  = "script"
	InitiatorPreload = "preload"
	InitiatorOther   = "other"
)

// Initiator is a back-reference describing what triggered a request: the
// parser encountering a tag, a script issuing a fetch, a preload hint.
// The URL identifies the triggering request; Kind identifies the mechanism.
type Initiator struct {
	Kind string `json:"kind"`
	URL  string `json:"url"`
}

// RequestRecord is one observed network fetch.
//
// Ids are unique per request but not stable across redirects: each hop of a
// redirect chain is a separate record, linked forward through
// RedirectDestination. Exactly one record in a well-formed trace has no
// initiator; it is the root document.
type RequestRecord struct {
	ID                   string       `json:"id"`
	URL                  string       `json:"url"`
	ResourceType         ResourceType `json:"resource_type"`
	Priority             Priority     `json:"priority"`
	FrameID              string       `json:"frame_id"`
	Initiator            *Initiator   `json:"initiator,omitempty"`
	StartTime            float64      `json:"start_time"`
	ResponseReceivedTime float64      `json:"response_received_time"`
	StatusCode           int          `json:"status_code"`
	MimeType             string       `json:"mime_type,omitempty"`

	// RedirectDestination is the id of the record this request redirected
	// into, empty for terminal (non-redirecting) requests.
	RedirectDestination string `json:"redirect_destination,omitempty"`

	IsLinkPreload bool `json:"is_link_preload"`
	Finished      bool `json:"finished"`
}

// IsRedirect reports whether the record is a non-terminal redirect hop.
func (r *RequestRecord) IsRedirect() bool {
	return r.RedirectDestination != ""
}

// Duration returns the elapsed time between request start and response
// receipt in the recorder's clock units, or 0 if the response never arrived.
func (r *RequestRecord) Duration() float64 {
	if r.ResponseReceivedTime <= r.StartTime {
		return 0
	}
	return r.ResponseReceivedTime - r.StartTime
}

// tracePayload is the wire envelope the recorder emits.
type tracePayload struct {
	Records []RequestRecord `json:"records"`
}

// ReadRecords decodes a recorded trace from r.
// The input may be either a bare JSON array of records or an object with a
// top-level "records" field (the recorder's envelope format).
func ReadRecords(r io.Reader) ([]RequestRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}
	return DecodeRecords(data)
}

// DecodeRecords decodes a recorded trace from raw JSON.
func DecodeRecords(data []byte) ([]RequestRecord, error) {
	var records []RequestRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var payload tracePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("decode trace: %w", err)
	}
	return payload.Records, nil
}

// ReadRecordsFile reads and decodes a recorded trace from a file.
func ReadRecordsFile(path string) ([]RequestRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace %s: %w", path, err)
	}
	defer f.Close()
	return ReadRecords(f)
}
