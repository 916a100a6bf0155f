package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidIssuer = errors.New("invalid_issuer")
	ErrInvalidToken  = errors.New("invalid_jwt")
)

// Issuer firma los tokens de sesión.
type Issuer struct {
	Iss       string        // "iss"
	Keys      *KeySet       // clave activa
	AccessTTL time.Duration // TTL de la sesión (ej: 1h)
	Now       func() time.Time
}

func NewIssuer(iss string, keys *KeySet, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{Iss: iss, Keys: keys, AccessTTL: ttl, Now: time.Now}
}

// Claims de la sesión. Email va plano para que el front no tenga que pedir /me.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwtv5.RegisteredClaims
}

// IssueAccess emite un token de sesión para sub.
func (i *Issuer) IssueAccess(sub, email string) (string, time.Time, error) {
	now := i.Now().UTC()
	exp := now.Add(i.AccessTTL)

	claims := Claims{
		Email: email,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    i.Iss,
			Subject:   sub,
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, claims)
	tk.Header["kid"] = i.Keys.KID
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.Keys.Priv)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Keyfunc valida el kid contra la clave activa.
func (i *Issuer) Keyfunc() jwtv5.Keyfunc {
	return func(t *jwtv5.Token) (any, error) {
		if kid, _ := t.Header["kid"].(string); kid != "" && kid != i.Keys.KID {
			return nil, errors.New("kid_unknown")
		}
		return i.Keys.Pub, nil
	}
}
