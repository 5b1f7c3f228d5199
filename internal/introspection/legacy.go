package introspection

import "github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"

// TODO: eliminar token_type junto con la próxima versión mayor del protocolo.

var legacyLabels = map[repository.TokenKind]string{
	repository.KindAccessToken:       "access_token",
	repository.KindClientCredentials: "client_credentials",
	repository.KindRefreshToken:      "refresh_token",
}

// LegacyTokenType devuelve la etiqueta deprecada para kind, o "" si no hay.
func LegacyTokenType(kind repository.TokenKind) string {
	return legacyLabels[kind]
}

// AnnotateLegacy agrega token_type (deprecado) cuando hay un resultado activo.
func AnnotateLegacy(resp *Response, res Result) {
	if resp == nil || !res.Active() {
		return
	}
	resp.TokenType = LegacyTokenType(res.Token.Kind)
}
