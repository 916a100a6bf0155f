package secretbox

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func testKey(seed byte) []byte {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = seed + byte(i)
	}
	return raw
}

func TestSealOpen_RoundTrip(t *testing.T) {
	box, err := New(base64.StdEncoding.EncodeToString(testKey(1)))
	require.NoError(t, err)
	require.True(t, box.Enabled())

	msg := "JBSWY3DPEHPK3PXP"
	ct, err := box.Seal(msg)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ct, Prefix))
	require.NotContains(t, ct, msg)

	pt, err := box.Open(ct)
	require.NoError(t, err)
	require.Equal(t, msg, pt)
}

func TestNew_HexKey(t *testing.T) {
	box, err := New(hex.EncodeToString(testKey(7)))
	require.NoError(t, err)
	require.True(t, box.Enabled())

	_, err = New("corta")
	require.Error(t, err)
}

func TestOpen_DetectsTamper(t *testing.T) {
	box, err := New(base64.StdEncoding.EncodeToString(testKey(200)))
	require.NoError(t, err)

	ct, err := box.Seal("top secret")
	require.NoError(t, err)
	parts := strings.Split(strings.TrimPrefix(ct, Prefix), "|")
	require.Len(t, parts, 2)

	bs, err := base64.StdEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	bs[0] ^= 0x01
	corrupted := Prefix + parts[0] + "|" + base64.StdEncoding.EncodeToString(bs)

	_, err = box.Open(corrupted)
	require.Error(t, err)
}

func TestPassthrough(t *testing.T) {
	plain, err := New("")
	require.NoError(t, err)
	require.False(t, plain.Enabled())

	out, err := plain.Seal("abc")
	require.NoError(t, err)
	require.Equal(t, "abc", out)

	// filas viejas en texto plano se leen con cualquier box
	keyed, err := New(base64.StdEncoding.EncodeToString(testKey(3)))
	require.NoError(t, err)
	out, err = keyed.Open("abc")
	require.NoError(t, err)
	require.Equal(t, "abc", out)

	sealed, err := keyed.Seal("abc")
	require.NoError(t, err)
	_, err = plain.Open(sealed)
	require.ErrorIs(t, err, ErrNoKey)
}
