// Package s3 provides a client for S3-compatible object storage.
//
// It mirrors backup files of live cluster state to a bucket so a copy
// survives the loss of the machine that ran the merge. The bucket is
// created on first use when it does not exist.
package s3
