package storage

import (
	"context"
	"io"
)

type PutInput struct {
	Key         string // logical prefix, e.g. "<connector>/<refund_id>/<flow>"
	ContentType string
	Size        int64
}

type PutResult struct {
	Key string
	URL string
}

// Storage archives raw dispatch payloads for audit. Writes are best-effort
// from the caller's point of view; nothing in the refund pipeline depends on
// a successful archive.
type Storage interface {
	Put(ctx context.Context, r io.Reader, in PutInput) (PutResult, error)
	Delete(ctx context.Context, key string) error
}
