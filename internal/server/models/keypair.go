package models

import "time"

// KeyPair is the KMS-custodied RSA key pair for one user, PEM-encoded.
// The private key never leaves the KMS package.
type KeyPair struct {
	UserID     string
	PublicPEM  string
	PrivatePEM string
	CreatedAt  time.Time
}
