package tokens

import (
	"github.com/golang-jwt/jwt/v5"
)

type AccessClaims struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	jwt.RegisteredClaims
}

// ResetClaims carry only the user id; the signing secret is derived per
// user, so the token stops verifying as soon as the password changes.
type ResetClaims struct {
	UserID uint `json:"userId"`
	jwt.RegisteredClaims
}
