package archive

import (
	"context"
	"errors"

	"gocloud.dev/blob"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

var ErrBucketURLRequired = errors.New("bucket url is required")

// OpenBucket opens the cold-storage bucket named by a gocloud URL such
// as file:///var/archive, s3://bucket, gs://bucket, azblob://bucket,
// or mem:// for testing
func OpenBucket(ctx context.Context, url string) (*blob.Bucket, error) {
	if url == "" {
		return nil, ErrBucketURLRequired
	}
	return blob.OpenBucket(ctx, url)
}
