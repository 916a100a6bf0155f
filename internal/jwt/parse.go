package jwt

import (
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// leeway para exp/nbf entre nodos con relojes levemente corridos.
const leeway = 30 * time.Second

// Parse valida firma EdDSA, iss, exp y nbf. Cualquier falla de firma o
// tiempo es ErrInvalidToken; un iss ajeno es ErrInvalidIssuer.
func (i *Issuer) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwtv5.ParseWithClaims(token, claims, i.Keyfunc(),
		jwtv5.WithValidMethods([]string{"EdDSA"}),
		jwtv5.WithLeeway(leeway),
		jwtv5.WithTimeFunc(i.Now),
		jwtv5.WithExpirationRequired(),
	)
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if i.Iss != "" && claims.Issuer != i.Iss {
		return nil, ErrInvalidIssuer
	}
	return claims, nil
}
