package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/kurin/blazer/b2"
)

// b2Object is the part of *b2.Object the store needs.
type b2Object interface {
	write(ctx context.Context, r io.Reader) error
	authURL(ctx context.Context, ttl time.Duration) (*url.URL, error)
	delete(ctx context.Context) error
}

type blazerObject struct {
	o *b2.Object
}

func (b blazerObject) write(ctx context.Context, r io.Reader) error {
	w := b.o.NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (b blazerObject) authURL(ctx context.Context, ttl time.Duration) (*url.URL, error) {
	return b.o.AuthURL(ctx, ttl, "GET")
}

func (b blazerObject) delete(ctx context.Context) error {
	return b.o.Delete(ctx)
}

// isNotExist is a seam over b2.IsNotExist.
var isNotExist = b2.IsNotExist

// B2Store keeps blobs in a Backblaze B2 bucket.
type B2Store struct {
	object func(key string) b2Object
}

func NewB2Store(ctx context.Context, keyID, applicationKey, bucketName string) (*B2Store, error) {
	client, err := b2.NewClient(ctx, keyID, applicationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create B2 client: %w", err)
	}
	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %s: %w", bucketName, err)
	}
	return &B2Store{
		object: func(key string) b2Object { return blazerObject{o: bucket.Object(key)} },
	}, nil
}

func (s *B2Store) Put(ctx context.Context, key string, data []byte) error {
	if err := s.object(key).write(ctx, bytes.NewReader(data)); err != nil {
		return upstream(err, "put", key)
	}
	return nil
}

func (s *B2Store) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.object(key).authURL(ctx, ttl)
	if err != nil {
		return "", upstream(err, "presign", key)
	}
	return u.String(), nil
}

func (s *B2Store) Delete(ctx context.Context, key string) error {
	if err := s.object(key).delete(ctx); err != nil {
		if isNotExist(err) {
			return nil
		}
		return upstream(err, "delete", key)
	}
	return nil
}
