// Package trace models recorded network requests and normalizes them into
// an addressable registry.
//
// # Overview
//
// An external recorder (a browser driven over its debugging protocol, a HAR
// export, or a telemetry extension) observes every network fetch a page makes
// and emits one [RequestRecord] per request. Records arrive as a flat,
// possibly out-of-order list: a record may reference an initiator that
// appears later in the list, and redirect hops may be interleaved with
// unrelated requests.
//
// The [Registry] normalizes that list into an id-addressable mapping,
// indexes records by URL for initiator resolution, and locates the root
// document (the single record with no initiator and the earliest start
// time). Malformed inputs - duplicate ids, zero or multiple candidate
// roots - fail fast with sentinel errors rather than producing a guessed
// tree.
//
// # Enumerations
//
// Resource types and priorities arrive as loosely-typed strings on the wire.
// This package represents them as closed enumerations with an explicit
// unknown variant: values the decoder does not recognize parse to
// [ResourceUnknown] or [PriorityUnknown] instead of failing, so future
// protocol additions degrade gracefully (unknown values are never treated
// as rendering-critical downstream).
//
// # Basic Usage
//
//	records, err := trace.ReadRecords(f)
//	if err != nil {
//	    return err
//	}
//	reg, err := trace.NewRegistry(records)
//	if err != nil {
//	    return err
//	}
//	root := reg.Root()
package trace
