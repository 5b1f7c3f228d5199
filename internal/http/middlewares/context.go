package middlewares

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
)

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	ctxClientKey    ctxKey = "client"
)

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto ("" si no hay).
func GetRequestID(ctx context.Context) string {
	if s, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return s
	}
	return ""
}

// WithClient inyecta el client autenticado del request.
func WithClient(ctx context.Context, c *repository.Client) context.Context {
	return context.WithValue(ctx, ctxClientKey, c)
}

// GetClient obtiene el client autenticado (nil si clientauth no corrió).
func GetClient(ctx context.Context) *repository.Client {
	c, _ := ctx.Value(ctxClientKey).(*repository.Client)
	return c
}

// ClientIP extrae la IP del cliente, considerando proxies.
func ClientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		first, _, _ := strings.Cut(xf, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
