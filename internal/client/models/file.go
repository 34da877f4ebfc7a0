// Package models defines the client-side view of API resources.
package models

// File is a file record as the API reports it.
type File struct {
	ID        string
	FileName  string
	Owner     string
	CreatedAt string
	// Permission is the caller's access level when the server includes it
	// (single-file lookups).
	Permission string
}

// SharedFile is a file someone else shared with the caller.
type SharedFile struct {
	File
	ShareID string
}

// Download carries the encrypted payload of a file: the caller still has to
// unwrap the key through the KMS and decrypt locally.
type Download struct {
	FileName      string
	Owner         string
	CiphertextB64 string
	WrappedKey    string
}

// Share is a grant on one of the caller's files.
type Share struct {
	ID         string
	FileID     string
	Grantee    string
	Permission string
}

// Link is a generated share link.
type Link struct {
	Token string
	URL   string
}
