// Package source loads ImageContentSourcePolicy manifests from local files
// and from live cluster listings.
//
// Both kinds of source are decoded the same way, so the merge cannot tell
// them apart. Documents that lack a consumed field are skipped with a
// warning; only unreadable sources fail a load.
package source
