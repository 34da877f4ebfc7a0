// Package auth issues and verifies the JWT access tokens that carry the
// session principal. The principal is passed explicitly into services as a
// value; nothing reads identity from ambient/global state.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mayankramina/secure-file-share/internal/common"
)

// Principal identifies the authenticated caller of a request. It is
// extracted once by the HTTP middleware and handed down to services.
type Principal struct {
	UserID   string
	Username string
}

// Claims carries the registered claims plus the principal fields.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"uid"`
	Username string `json:"username"`
}

// GenerateToken mints an HS256 access token for the given principal.
func GenerateToken(p Principal, secretKey []byte, validity time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validity)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		UserID:   p.UserID,
		Username: p.Username,
	})

	return token.SignedString(secretKey)
}

// PrincipalFromToken verifies the token signature and expiry and returns the
// embedded principal. Invalid or expired tokens yield common.ErrUnauthorized.
func PrincipalFromToken(tokenString string, secretKey []byte) (Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrUnauthorized
		}
		return secretKey, nil
	})
	if err != nil || !token.Valid || claims.UserID == "" {
		return Principal{}, common.ErrUnauthorized
	}

	return Principal{UserID: claims.UserID, Username: claims.Username}, nil
}
