package validation

import (
	"regexp"
	"strings"
)

// scope-token (RFC 6749 §3.3): 1*( %x21 / %x23-5B / %x5D-7E ).
// Excluye espacio, comillas dobles y backslash.
var scopeTokenRe = regexp.MustCompile(`^[\x21\x23-\x5B\x5D-\x7E]+$`)

// client_id: VSCHAR (RFC 6749 apéndice A.1), 1..255.
var clientIDRe = regexp.MustCompile(`^[\x20-\x7E]{1,255}$`)

// ValidScopeToken reporta si name es un scope-token válido.
func ValidScopeToken(name string) bool {
	return scopeTokenRe.MatchString(name)
}

// ValidScope valida un scope completo: tokens separados por un espacio.
// El scope vacío es válido (token sin scope).
func ValidScope(scope string) bool {
	if scope == "" {
		return true
	}
	for _, tok := range strings.Split(scope, " ") {
		if !ValidScopeToken(tok) {
			return false
		}
	}
	return true
}

// ValidClientID reporta si id es un client_id aceptable.
func ValidClientID(id string) bool {
	return clientIDRe.MatchString(id) && strings.TrimSpace(id) == id
}
