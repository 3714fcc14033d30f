// Package engine implements the auction lifecycle: create, bid, cancel,
// and the time-step-driven matching that closes auctions at expiry.
//
// The engine is the single write path into the store. Operations are
// strictly serialized; each one validates fully against the registry,
// stages every mutation across registry, execution queue, and
// participant index in one batch, and commits the batch once. All nodes
// executing the same operation sequence against the same starting state
// reach the same resulting state.
//
// Keyspace layout:
//
//	meta/next_id                    8-byte big-endian id allocator
//	meta/height                     8-byte big-endian last processed height
//	auction/<id>                    JSON auction record
//	queue/<height>/<id>             presence marker, one per open auction
//	party/<account>                 JSON participant record
//
// Numeric key segments are zero-padded to 20 digits so lexicographic
// order equals numeric order.
package engine
