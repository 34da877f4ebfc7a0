// Package blob stores ciphertext payloads in object storage. The database
// keeps only a storage key per file; the IV-prefixed ciphertext itself lives
// here.
package blob

import "context"

type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
