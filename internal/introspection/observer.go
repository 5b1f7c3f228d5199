package introspection

import (
	"context"
	"time"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
)

// LookupOutcome clasifica el resultado de una consulta a un store.
type LookupOutcome string

const (
	LookupHit   LookupOutcome = "hit"
	LookupMiss  LookupOutcome = "miss"
	LookupError LookupOutcome = "error"
)

// Verdict es lo que el core expone hacia afuera una vez decidido un request:
// qué variante de token (si alguna) se resolvió y autorizó.
type Verdict struct {
	RequesterID string
	Hint        Hint
	Resolved    repository.TokenKind // "" si no se encontró
	Authorized  *repository.Token    // nil si inactive
	Final       State                // último estado de negocio antes de LEGACY_ANNOTATE
	Active      bool
}

// Observer recibe eventos del core. Lo implementan métricas y el audit log.
// Debe ser seguro para uso concurrente: ObserveLookup se llama desde goroutines.
type Observer interface {
	ObserveLookup(kind repository.TokenKind, outcome LookupOutcome, elapsed time.Duration)
	ObserveVerdict(ctx context.Context, v Verdict)
}

// NopObserver descarta todo.
type NopObserver struct{}

func (NopObserver) ObserveLookup(repository.TokenKind, LookupOutcome, time.Duration) {}
func (NopObserver) ObserveVerdict(context.Context, Verdict)                          {}

// Observers encadena varios observers.
type Observers []Observer

func (o Observers) ObserveLookup(kind repository.TokenKind, outcome LookupOutcome, elapsed time.Duration) {
	for _, x := range o {
		x.ObserveLookup(kind, outcome, elapsed)
	}
}

func (o Observers) ObserveVerdict(ctx context.Context, v Verdict) {
	for _, x := range o {
		x.ObserveVerdict(ctx, v)
	}
}
