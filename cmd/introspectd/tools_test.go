package main

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-introspect/internal/security/secretbox"
	"github.com/dropDatabas3/hellojohn-introspect/internal/security/subject"
	tokens "github.com/dropDatabas3/hellojohn-introspect/internal/security/token"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	root := newRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)
	require.NoError(t, root.Execute())
	return strings.TrimSpace(out.String())
}

func TestSubjectCmd(t *testing.T) {
	got := run(t, "subject", "acc-1", "rs.example.com", "--salt", "s")
	assert.Equal(t, subject.New(subject.Config{PairwiseSalt: "s"}).Compute("acc-1", "rs.example.com"), got)
}

func TestEncryptCmd(t *testing.T) {
	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	enc := run(t, "encrypt-secret", "shh", "--key", key)

	box, err := secretbox.New(key)
	require.NoError(t, err)
	plain, err := box.Decrypt(enc)
	require.NoError(t, err)
	assert.Equal(t, "shh", plain)
}

func TestTokenCmd(t *testing.T) {
	out := run(t, "token")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2)
	tok := strings.TrimPrefix(lines[0], "token=")
	assert.Equal(t, "token_hash="+tokens.SHA256Base64URL(tok), lines[1])
}

func TestMigrateDryRun(t *testing.T) {
	out := run(t, "migrate", "--dry-run")
	assert.Contains(t, out, "0001 ")
}
