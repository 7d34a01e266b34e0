// Package reconcile drives one merge-and-apply run against a live cluster.
//
// A run moves through these states:
//
//	Idle -> Loading -> Merging -> BackingUp -> AwaitingConfirmation -> Applying -> Applied
//	                                                                 \-> Aborted
//
// Any error before the confirmation moves the run to Failed, as does a
// failed apply. Live state is always backed up before the operator is
// asked, and nothing is applied without a Proceed decision. An empty diff
// ends the run as Aborted without asking.
package reconcile
