package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenClaims is the JWT payload for an authenticated user.
type AccessTokenClaims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AccessTokenPayload carries the inputs for minting an access token.
type AccessTokenPayload struct {
	UserID   int64
	Username string
	JTI      string
}
