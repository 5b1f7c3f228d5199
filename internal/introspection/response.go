package introspection

// Response es el body JSON del endpoint (RFC 7662 §2.2).
// Los campos vacíos se omiten; sólo active se emite siempre.
type Response struct {
	Active   bool   `json:"active"`
	ClientID string `json:"client_id,omitempty"`
	Exp      int64  `json:"exp,omitempty"`
	Iat      int64  `json:"iat,omitempty"`
	Sid      string `json:"sid,omitempty"`
	Iss      string `json:"iss,omitempty"`
	Jti      string `json:"jti,omitempty"`
	Scope    string `json:"scope,omitempty"`
	Sub      string `json:"sub,omitempty"`

	// Deprecated: se mantiene por compatibilidad, se elimina en la próxima versión mayor.
	TokenType string `json:"token_type,omitempty"`
}

// InactiveResponse devuelve un body nuevo {"active":false}.
func InactiveResponse() *Response {
	return &Response{Active: false}
}
