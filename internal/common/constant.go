package common

// Permission is the level of access a share grant confers.
type Permission string

const (
	// PermissionView allows the grantee to see file metadata only.
	PermissionView Permission = "VIEW"
	// PermissionDownload additionally allows the grantee to fetch the
	// ciphertext and unwrap the file key through the KMS.
	PermissionDownload Permission = "DOWNLOAD"
)

// Valid reports whether p is one of the known permission levels.
func (p Permission) Valid() bool {
	return p == PermissionView || p == PermissionDownload
}
