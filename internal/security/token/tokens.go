// Package tokens agrupa helpers sobre valores de token opacos.
// Los stores nunca indexan por el valor crudo, sólo por su hash.
package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// GenerateOpaqueToken genera un token opaco aleatorio (base64url sin padding).
func GenerateOpaqueToken(nBytes int) (string, error) {
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SHA256Base64URL devuelve sha256(input) en base64url sin padding (clave de lookup en DB/Redis).
func SHA256Base64URL(s string) string {
	sum := sha256.Sum256([]byte(s))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Fingerprint es un prefijo corto del hash, apto para logs.
func Fingerprint(s string) string {
	if s == "" {
		return ""
	}
	return SHA256Base64URL(s)[:12]
}
