package trace

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidRequestID is returned by [NewRegistry] when a record has an
	// empty id. Every record must carry a non-empty identifier.
	ErrInvalidRequestID = errors.New("request ID must not be empty")

	// ErrDuplicateRequestID is returned by [NewRegistry] when two records
	// share an id. Request ids must be unique within one trace.
	ErrDuplicateRequestID = errors.New("duplicate request ID")

	// ErrNoRootRequest is returned by [NewRegistry] when a non-empty trace
	// contains no record without an initiator. A well-formed trace has
	// exactly one such record: the root document.
	ErrNoRootRequest = errors.New("trace has no root request")

	// ErrMultipleRootRequests is returned by [NewRegistry] when more than
	// one record lacks an initiator. This indicates a corrupted or merged
	// trace and is not recoverable locally.
	ErrMultipleRootRequests = errors.New("trace has multiple root requests")
)

// Registry is an addressable view over one recorded trace.
//
// It maps request ids to records, indexes records by URL for initiator
// resolution, and identifies the root document. Construction is tolerant of
// out-of-order input: a record may reference initiators or redirect
// destinations that appear later in the list.
//
// A Registry is immutable after construction and safe for concurrent reads.
type Registry struct {
	byID  map[string]*RequestRecord
	byURL map[string][]*RequestRecord // sorted by start time, then id
	root  *RequestRecord
}

// NewRegistry normalizes a flat record list into a Registry.
//
// Returns ErrInvalidRequestID or ErrDuplicateRequestID for malformed
// records, and ErrNoRootRequest or ErrMultipleRootRequests when the trace
// does not contain exactly one initiator-less record. An empty record list
// is valid and yields a registry with no root.
func NewRegistry(records []RequestRecord) (*Registry, error) {
	reg := &Registry{
		byID:  make(map[string]*RequestRecord, len(records)),
		byURL: make(map[string][]*RequestRecord),
	}

	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			return nil, ErrInvalidRequestID
		}
		if _, exists := reg.byID[rec.ID]; exists {
			return nil, ErrDuplicateRequestID
		}
		reg.byID[rec.ID] = rec
		reg.byURL[rec.URL] = append(reg.byURL[rec.URL], rec)

		if rec.Initiator == nil {
			if reg.root != nil {
				return nil, ErrMultipleRootRequests
			}
			reg.root = rec
		}
	}

	if len(records) > 0 && reg.root == nil {
		return nil, ErrNoRootRequest
	}

	for _, recs := range reg.byURL {
		slices.SortFunc(recs, compareRecords)
	}

	return reg, nil
}

// compareRecords orders records by start time, breaking ties by id so the
// ordering is total and input-order independent.
func compareRecords(a, b *RequestRecord) int {
	switch {
	case a.StartTime < b.StartTime:
		return -1
	case a.StartTime > b.StartTime:
		return 1
	}
	return slices.Compare([]byte(a.ID), []byte(b.ID))
}

// Root returns the root document record, or nil for an empty trace.
// The root is the sole record without an initiator.
func (r *Registry) Root() *RequestRecord {
	return r.root
}

// Get returns the record with the given id.
func (r *Registry) Get(id string) (*RequestRecord, bool) {
	rec, ok := r.byID[id]
	return rec, ok
}

// ByURL returns the earliest-starting record fetched from the given URL.
// When several requests hit the same URL, the first one observed is the one
// an initiator back-reference resolves to; the tie-break on id keeps the
// choice deterministic regardless of input ordering.
func (r *Registry) ByURL(url string) (*RequestRecord, bool) {
	recs := r.byURL[url]
	if len(recs) == 0 {
		return nil, false
	}
	return recs[0], true
}

// ResolveInitiator returns the record that triggered rec, following the
// initiator back-reference by URL. Returns false when rec has no initiator
// or the initiator's URL does not appear in the trace (a missing ancestor,
// which callers treat as "no critical ancestor" rather than an error).
func (r *Registry) ResolveInitiator(rec *RequestRecord) (*RequestRecord, bool) {
	if rec.Initiator == nil || rec.Initiator.URL == "" {
		return nil, false
	}
	parent, ok := r.ByURL(rec.Initiator.URL)
	if !ok || parent.ID == rec.ID {
		return nil, false
	}
	return parent, true
}

// Len returns the number of records in the registry.
func (r *Registry) Len() int {
	return len(r.byID)
}

// Records returns all records ordered by start time (ties broken by id).
// The ordering is deterministic and independent of input order.
func (r *Registry) Records() []*RequestRecord {
	recs := slices.Collect(maps.Values(r.byID))
	slices.SortFunc(recs, compareRecords)
	return recs
}
