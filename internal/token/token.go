// Package token produces and verifies the signed identity assertion stored on
// each session. Tokens carry no expiry claim: lifetime is governed entirely by
// session revocation, so every validity check must still consult the store.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers signature mismatch, malformed structure, and any
// other decoding failure. Callers must treat all of these as "not currently
// authenticatable", never as retryable.
var ErrInvalidToken = errors.New("invalid token")

// Claims binds a user to an app. Subject carries the user id as a string.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	AppID    string `json:"appId"`
}

// Codec signs and verifies tokens with a process-wide symmetric secret.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Encode signs a claims set for the given user and app. No expiry is set.
func (c *Codec) Encode(userID int64, username, appID string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatInt(userID, 10),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
		Username: username,
		AppID:    appID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies the signature and returns the claims. Staleness is
// irrelevant since no expiry claim exists; a valid signature is trusted for
// identity regardless of age.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// UserID parses the subject claim back into a numeric user id.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}
