package s3

import "context"

// MetadataRunID is the object metadata key holding the run identifier.
const MetadataRunID = "icspmerge-run-id"

// BucketUploader uploads backup files to one bucket.
type BucketUploader struct {
	client *Client
	bucket string
	runID  string
}

// NewBucketUploader creates an uploader tagging every object with runID.
func NewBucketUploader(client *Client, bucket, runID string) *BucketUploader {
	return &BucketUploader{client: client, bucket: bucket, runID: runID}
}

// Upload stores data under key.
func (u *BucketUploader) Upload(ctx context.Context, key string, data []byte) error {
	var metadata map[string]string
	if u.runID != "" {
		metadata = map[string]string{MetadataRunID: u.runID}
	}
	return u.client.PutObject(ctx, u.bucket, key, data, metadata)
}
