package models

import "time"

// FileRecord describes an uploaded file. The IV-prefixed ciphertext lives in
// the blob store under StorageKey; only metadata and the wrapped key are kept
// in the database. Records are immutable once created, except for deletion.
type FileRecord struct {
	ID string
	// OwnerID is the uploading principal. The KMS selects its private key
	// by the owner's identity, so it is carried alongside the username.
	OwnerID       string
	OwnerUsername string
	FileName      string
	// StorageKey locates the ciphertext blob in object storage.
	StorageKey string
	// WrappedKey is the base64 RSA-OAEP ciphertext of the raw AES key.
	WrappedKey string
	CreatedAt  time.Time
}
