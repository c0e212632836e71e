// Package objectstore addresses file bytes by opaque key. Backends: S3
// (or any S3-compatible endpoint such as MinIO), Backblaze B2 and an
// in-memory store.
package objectstore

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sparkdrive/internal/common"
)

type Store interface {
	// Put writes data under key, replacing any previous content.
	Put(ctx context.Context, key string, data []byte) error
	// PresignGet returns a URL that downloads key until ttl elapses.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

func upstream(err error, op, key string) error {
	return common.WrapError(common.KindUpstreamUnavailable, err, "object store: %s %s", op, key)
}
