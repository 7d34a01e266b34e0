// Package merge combines the mirror rules of any number of
// ImageContentSourcePolicy manifests into one canonical manifest.
//
// Rules are keyed by source. Mirrors for a source are merged as an ordered
// set: a mirror keeps the position at which it was first seen, and later
// duplicates are dropped. The canonical output lists rules sorted by source
// so that repeated runs over the same inputs produce identical bytes.
//
// When two inputs list the same mirrors in conflicting orders, the order of
// the input processed first wins.
package merge
