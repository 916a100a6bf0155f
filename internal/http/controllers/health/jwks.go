package health

import (
	"net/http"

	jwtx "github.com/dropDatabas3/prova/internal/jwt"
)

// JWKSController publica la clave pública de sesión (/.well-known/jwks.json)
// para que otros servicios validen los access tokens.
type JWKSController struct {
	keys *jwtx.KeySet
}

func NewJWKSController(keys *jwtx.KeySet) *JWKSController {
	return &JWKSController{keys: keys}
}

func (c *JWKSController) JWKS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(c.keys.JWKSJSON())
}
