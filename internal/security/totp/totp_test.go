package totp

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// RFC 6238 appendix B, SHA1 seed "12345678901234567890" truncated to 6 digits.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestCode_RFC6238Vectors(t *testing.T) {
	vectors := map[int64]string{
		59:         "287082",
		1111111109: "081804",
		1111111111: "050471",
		1234567890: "005924",
		2000000000: "279037",
	}
	for unix, want := range vectors {
		got, err := Code(rfcSecret, time.Unix(unix, 0))
		require.NoError(t, err)
		require.Equal(t, want, got, "t=%d", unix)
	}
}

func TestGenerateSecret(t *testing.T) {
	s1, err := GenerateSecret()
	require.NoError(t, err)
	s2, err := GenerateSecret()
	require.NoError(t, err)

	require.Len(t, s1, 32) // 20 bytes -> 32 base32 chars, no padding
	require.NotContains(t, s1, "=")
	require.NotEqual(t, s1, s2)

	raw, err := decodeSecret(s1)
	require.NoError(t, err)
	require.Len(t, raw, SecretSize)
}

func TestProvisioningURI_EmbedsSecret(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)

	uri, err := ProvisioningURI("jane@example.com", "Prova", secret)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "otpauth://totp/"))

	u, err := url.Parse(uri)
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, secret, q.Get("secret"))
	require.Equal(t, "Prova", q.Get("issuer"))
	require.Equal(t, "SHA1", q.Get("algorithm"))
	require.Equal(t, "6", q.Get("digits"))
	require.Equal(t, "30", q.Get("period"))
	require.Equal(t, "/Prova:jane@example.com", u.Path)
}

func TestProvisioningURI_Errors(t *testing.T) {
	_, err := ProvisioningURI("", "Prova", rfcSecret)
	require.ErrorIs(t, err, ErrMissingLabel)

	_, err = ProvisioningURI("user", "Prova", "not base32 !!")
	require.ErrorIs(t, err, ErrBadSecret)
}

func TestVerify_RoundTrip(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)
	at := time.Date(2026, 3, 1, 12, 0, 10, 0, time.UTC)

	code, err := Code(secret, at)
	require.NoError(t, err)
	require.True(t, Verify(code, secret, at, DefaultSkew))

	// adjacent steps are accepted, two steps away is not
	require.True(t, Verify(code, secret, at.Add(Period*time.Second), DefaultSkew))
	require.True(t, Verify(code, secret, at.Add(-Period*time.Second), DefaultSkew))
	require.False(t, Verify(code, secret, at.Add(2*Period*time.Second), DefaultSkew))
	require.False(t, Verify(code, secret, at.Add(Period*time.Second), 0))
}

func TestVerify_FailsClosed(t *testing.T) {
	at := time.Unix(59, 0)
	require.False(t, Verify("287082", "", at, DefaultSkew))
	require.False(t, Verify("287082", "%%%", at, DefaultSkew))
	require.False(t, Verify("", rfcSecret, at, DefaultSkew))
	require.False(t, Verify("12345", rfcSecret, at, DefaultSkew))
	require.False(t, Verify("abcdef", rfcSecret, at, DefaultSkew))
	require.False(t, Verify("000000", rfcSecret, at, DefaultSkew))
	require.True(t, Verify(" 287082 ", strings.ToLower(rfcSecret), at, DefaultSkew))
}

func TestEngine_UsesClock(t *testing.T) {
	at := time.Unix(1111111109, 0)
	e := NewEngine("Prova", DefaultSkew)
	e.Now = func() time.Time { return at }
	require.True(t, e.Verify("081804", rfcSecret))
	e.Now = func() time.Time { return at.Add(time.Hour) }
	require.False(t, e.Verify("081804", rfcSecret))
}
