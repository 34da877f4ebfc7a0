package models

import (
	"time"

	"github.com/mayankramina/secure-file-share/internal/common"
)

// ShareGrant authorizes a grantee on a file. A (FileID, GranteeID) pair is
// unique. A DOWNLOAD grant must have a matching KMS access entry for
// (file owner, grantee); any other grant must not.
type ShareGrant struct {
	ID              string
	FileID          string
	GranteeID       string
	GranteeUsername string
	Permission      common.Permission
	GrantedBy       string
	CreatedAt       time.Time
}

// AccessEntry is a KMS access-list membership: grantee may unwrap keys
// wrapped for key owner. Consulted only inside the KMS during Decrypt.
type AccessEntry struct {
	KeyOwnerID string
	GranteeID  string
	CreatedAt  time.Time
}
