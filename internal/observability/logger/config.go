package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configura el logger.
type Config struct {
	// Env define el entorno: "dev" (consola con colores) o "prod" (JSON).
	// Default: "dev"
	Env string

	// Level define el nivel mínimo de log: "debug", "info", "warn", "error".
	// Default: "info"
	Level string

	// ServiceName es el nombre del servicio para incluir en logs.
	ServiceName string

	// Version es la versión del servicio.
	Version string
}

// build arma el logger. Todo lo que no sea "dev" (staging, prod) sale en JSON.
func build(cfg Config) *zap.Logger {
	zcfg := zap.NewDevelopmentConfig()
	opts := []zap.Option{zap.AddCaller()}

	if env := strings.ToLower(strings.TrimSpace(cfg.Env)); env != "" && env != "dev" {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		// los verdicts se usan como rastro: sin sampling
		zcfg.Sampling = nil
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	} else {
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zcfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		zcfg.DisableStacktrace = true
	}
	zcfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	zcfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	fields := make([]zap.Field, 0, 2)
	if cfg.ServiceName != "" {
		fields = append(fields, zap.String("service", cfg.ServiceName))
	}
	if cfg.Version != "" {
		fields = append(fields, zap.String("version", cfg.Version))
	}
	opts = append(opts, zap.Fields(fields...))

	l, err := zcfg.Build(opts...)
	if err != nil {
		l = zap.NewExample()
	}
	return l
}

// parseLevel acepta los niveles de zap más "warning"; cualquier otro cae a info.
func parseLevel(lvl string) zapcore.Level {
	lvl = strings.ToLower(strings.TrimSpace(lvl))
	if lvl == "warning" {
		lvl = "warn"
	}
	l, err := zapcore.ParseLevel(lvl)
	if err != nil || lvl == "" {
		return zapcore.InfoLevel
	}
	return l
}
