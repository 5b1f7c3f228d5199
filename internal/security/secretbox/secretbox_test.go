package secretbox

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i + 1)
	}
	return raw
}

func TestBox_RoundTrip(t *testing.T) {
	box, err := New(base64.StdEncoding.EncodeToString(testKey()))
	require.NoError(t, err)

	ct, err := box.Encrypt("s3cr3t-del-client")
	require.NoError(t, err)
	assert.Contains(t, ct, "|")

	pt, err := box.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t-del-client", pt)
}

func TestBox_NonceIsRandom(t *testing.T) {
	box, err := New(hex.EncodeToString(testKey()))
	require.NoError(t, err)

	a, _ := box.Encrypt("x")
	b, _ := box.Encrypt("x")
	assert.NotEqual(t, a, b)
}

func TestBox_DetectsTamper(t *testing.T) {
	box, err := New(base64.RawStdEncoding.EncodeToString(testKey()))
	require.NoError(t, err)

	ct, err := box.Encrypt("top secret")
	require.NoError(t, err)
	parts := strings.Split(ct, "|")
	require.Len(t, parts, 2)

	bs, err := base64.StdEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	bs[0] ^= 0xFF
	_, err = box.Decrypt(parts[0] + "|" + base64.StdEncoding.EncodeToString(bs))
	assert.Error(t, err)
}

func TestBox_WrongKey(t *testing.T) {
	a, err := New(base64.StdEncoding.EncodeToString(testKey()))
	require.NoError(t, err)
	other := testKey()
	other[0] = 99
	b, err := New(base64.StdEncoding.EncodeToString(other))
	require.NoError(t, err)

	ct, err := a.Encrypt("hola")
	require.NoError(t, err)
	_, err = b.Decrypt(ct)
	assert.Error(t, err)
}

func TestBox_Format(t *testing.T) {
	box, err := New(string(make([]byte, 32)))
	require.NoError(t, err)

	_, err = box.Decrypt("sin-separador")
	assert.ErrorIs(t, err, ErrFormat)
}

func TestParseKey(t *testing.T) {
	_, err := ParseKey("")
	assert.Error(t, err)
	_, err = ParseKey("corta")
	assert.Error(t, err)

	k, err := ParseKey("  " + base64.StdEncoding.EncodeToString(testKey()) + "\n")
	require.NoError(t, err)
	assert.Equal(t, testKey(), k)
}
