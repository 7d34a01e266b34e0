// Package cluster talks to the live cluster on behalf of the merge
// workflow.
//
// Two backends are provided. [Kubectl] shells out to kubectl or oc and is
// the default, matching what operators already have configured. [API]
// uses client-go directly with a dynamic client and server-side apply.
// Both list resources as a YAML document stream and apply a YAML stream as
// one batch. Neither retries: a failed apply is reported with the tool's
// diagnostic output and left to the operator.
package cluster
