package jwt

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testIssuer(t *testing.T) *Issuer {
	t.Helper()
	seed := make([]byte, ed25519.SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}
	ks, err := KeySetFromSeed(base64.StdEncoding.EncodeToString(seed))
	require.NoError(t, err)
	return NewIssuer("https://prova.test", ks, time.Hour)
}

func TestIssueAndParse(t *testing.T) {
	iss := testIssuer(t)
	tok, exp, err := iss.IssueAccess("user-1", "jane@example.com")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	c, err := iss.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, "user-1", c.Subject)
	require.Equal(t, "jane@example.com", c.Email)
	require.Equal(t, "https://prova.test", c.Issuer)
}

func TestParse_Expired(t *testing.T) {
	iss := testIssuer(t)
	base := time.Now()
	iss.Now = func() time.Time { return base }
	tok, _, err := iss.IssueAccess("user-1", "")
	require.NoError(t, err)

	iss.Now = func() time.Time { return base.Add(2 * time.Hour) }
	_, err = iss.Parse(tok)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParse_WrongKeyOrIssuer(t *testing.T) {
	iss := testIssuer(t)
	tok, _, err := iss.IssueAccess("user-1", "")
	require.NoError(t, err)

	dev, err := NewDevEd25519()
	require.NoError(t, err)
	other := NewIssuer("https://prova.test", dev, time.Hour)
	_, err = other.Parse(tok)
	require.ErrorIs(t, err, ErrInvalidToken)

	sameKey := NewIssuer("https://otro.test", iss.Keys, time.Hour)
	_, err = sameKey.Parse(tok)
	require.ErrorIs(t, err, ErrInvalidIssuer)

	_, err = iss.Parse("no.es.jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestKeySetFromSeed_Invalid(t *testing.T) {
	_, err := KeySetFromSeed("AAAA")
	require.Error(t, err)
	_, err = KeySetFromSeed("%%%")
	require.Error(t, err)
}

func TestJWKS(t *testing.T) {
	iss := testIssuer(t)
	var out struct {
		Keys []map[string]string `json:"keys"`
	}
	require.NoError(t, json.Unmarshal(iss.Keys.JWKSJSON(), &out))
	require.Len(t, out.Keys, 1)
	require.Equal(t, "OKP", out.Keys[0]["kty"])
	require.Equal(t, iss.Keys.KID, out.Keys[0]["kid"])
}
