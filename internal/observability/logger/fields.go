package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field { return zap.String("request_id", v) }

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field { return zap.String("method", v) }

// Path crea un campo para el path del request.
func Path(v string) zap.Field { return zap.String("path", v) }

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field { return zap.Int("status", v) }

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }

// Duration crea un campo para una duración.
func Duration(v time.Duration) zap.Field { return zap.Duration("duration", v) }

// Bytes crea un campo para los bytes de respuesta.
func Bytes(v int) zap.Field { return zap.Int("bytes", v) }

// ClientIP crea un campo para la IP del cliente.
func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - INTROSPECCIÓN
// =================================================================================

// ClientID crea un campo para el client OAuth que hace el request.
func ClientID(v string) zap.Field { return zap.String("client_id", v) }

// OwnerClientID es el client dueño del token introspectado.
func OwnerClientID(v string) zap.Field { return zap.String("owner_client_id", v) }

// AuthMethod es el método con el que se autenticó el client.
func AuthMethod(v string) zap.Field { return zap.String("auth_method", v) }

// TokenKind es el store que resolvió el token.
func TokenKind(v string) zap.Field { return zap.String("token_kind", v) }

// Hint es el token_type_hint recibido.
func Hint(v string) zap.Field { return zap.String("token_type_hint", v) }

// Jti es el identificador del token resuelto.
func Jti(v string) zap.Field { return zap.String("jti", v) }

// TokenFP es el fingerprint del token (nunca el valor crudo).
func TokenFP(v string) zap.Field { return zap.String("token_fp", v) }

// State es el estado terminal de la máquina de introspección.
func State(v string) zap.Field { return zap.String("state", v) }

// Active es el veredicto.
func Active(v bool) zap.Field { return zap.Bool("active", v) }

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field { return zap.String("component", v) }

// Op crea un campo para la operación actual.
func Op(v string) zap.Field { return zap.String("op", v) }

// Layer crea un campo para la capa (controller, service, store).
func Layer(v string) zap.Field { return zap.String("layer", v) }

// Err crea un campo para un error.
func Err(err error) zap.Field { return zap.Error(err) }

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field { return zap.Any(key, v) }

// String crea un campo string genérico.
func String(key, v string) zap.Field { return zap.String(key, v) }
