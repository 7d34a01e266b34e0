// Package apply commits a merged manifest to the cluster.
//
// The applier calls the cluster client exactly once per manifest. A failed
// apply is reported as a *FailedError carrying the diagnostic text of the
// cluster tool; it is never retried.
package apply
