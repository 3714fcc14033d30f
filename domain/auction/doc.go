// Package auction holds the data model for the double-auction market:
// auction records, bids, tiers, the events the engine emits, and the
// domain error taxonomy.
//
// Everything in this package is plain data. Validation, state
// transitions, and storage all live in the engine; nothing here touches
// a store or a clock.
package auction
