// Package logger envuelve zap: un singleton de proceso y un logger por request
// guardado en el contexto.
//
// El middleware de logging arma el logger del request (request_id, method,
// path) y clientauth lo enriquece con el client autenticado. Las capas de
// abajo lo recuperan con From(ctx) y agregan layer/op:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("Introspect"))
//	log.Debug("introspection verdict", logger.Active(true))
//
// "dev" escribe consola con colores, "prod" JSON. Un token crudo nunca va a
// los logs: se usa TokenFP.
package logger
