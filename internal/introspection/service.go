package introspection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/hellojohn-introspect/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-introspect/internal/observability/logger"
	tokens "github.com/dropDatabas3/hellojohn-introspect/internal/security/token"
)

// Service errors
var (
	// ErrMissingToken: el parámetro token vino vacío. La capa HTTP ya lo
	// valida; el service lo rechaza igual antes de tocar un store.
	ErrMissingToken = errors.New("introspection: token is required")

	// ErrNoRequester: se llamó sin client autenticado.
	ErrNoRequester = errors.New("introspection: requesting client is required")
)

// Request son los parámetros aceptados del endpoint.
type Request struct {
	Token string
	Hint  string // token_type_hint crudo
}

// Outcome es el resultado de un request: body listo y lo que los
// colaboradores de afuera (audit, métricas) necesitan saber.
type Outcome struct {
	Response *Response
	Result   Result  // Inactive o Active(token, sub)
	Trail    []State // estados recorridos, START … RESPONSE_READY
}

// Deps son las dependencias del service.
type Deps struct {
	Stores   Stores
	Grants   Grants
	Clients  repository.ClientDirectory
	Masker   SubjectMasker
	Observer Observer
}

// Service orquesta Resolver → Gate → DisclosureBuilder → legacy.
type Service struct {
	resolver *Resolver
	builder  *DisclosureBuilder
	obs      Observer
}

// NewService crea el Service.
func NewService(deps Deps) *Service {
	obs := deps.Observer
	if obs == nil {
		obs = NopObserver{}
	}
	return &Service{
		resolver: NewResolver(deps.Stores, deps.Grants, obs),
		builder:  NewDisclosureBuilder(deps.Clients, deps.Masker),
		obs:      obs,
	}
}

// Resolver expone el resolver (lo usa /readyz para saber qué stores están activos).
func (s *Service) Resolver() *Resolver { return s.resolver }

// exchange es el valor por request que recorren las etapas.
type exchange struct {
	req       Request
	hint      Hint
	requester *repository.Client

	resolved *repository.Token
	decision State // NOT_FOUND, INVALID, DENIED o GRANTED
	result   Result
	response *Response
	trail    []State
}

// enter avanza la máquina. Una transición ilegal es un bug del pipeline.
func (ex *exchange) enter(s State) {
	if from := ex.state(); !canTransition(from, s) {
		panic(fmt.Sprintf("introspection: illegal transition %s -> %s", from, s))
	}
	ex.trail = append(ex.trail, s)
}

func (ex *exchange) state() State {
	return ex.trail[len(ex.trail)-1]
}

// done: alguna etapa ya fijó la respuesta (activa o inactive).
func (ex *exchange) done() bool {
	return ex.response != nil
}

func (ex *exchange) inactive() {
	ex.enter(StateInactive)
	ex.result = Inactive
	ex.response = InactiveResponse()
}

type stage func(ctx context.Context, ex *exchange) error

// Introspect ejecuta el pipeline completo para un request.
// Siempre devuelve una respuesta para rechazos de negocio; sólo devuelve error
// para parámetros inválidos o fallas de infraestructura.
func (s *Service) Introspect(ctx context.Context, req Request, requester *repository.Client) (*Outcome, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("introspection"),
		logger.Op("Introspect"),
	)

	if requester == nil {
		return nil, ErrNoRequester
	}
	if strings.TrimSpace(req.Token) == "" {
		return nil, ErrMissingToken
	}

	ex := &exchange{
		req:       req,
		hint:      ParseHint(req.Hint),
		requester: requester,
		trail:     []State{StateStart},
	}

	for _, st := range []stage{s.resolve, s.authorize, s.disclose} {
		if ex.done() {
			break
		}
		if err := st(ctx, ex); err != nil {
			log.Debug("introspection aborted",
				logger.State(string(ex.state())),
				logger.TokenFP(tokens.Fingerprint(req.Token)),
				logger.Err(err),
			)
			return nil, err
		}
	}

	final := ex.decision
	ex.enter(StateLegacyAnnotate)
	AnnotateLegacy(ex.response, ex.result)
	ex.enter(StateResponseReady)

	v := Verdict{
		RequesterID: requester.ClientID,
		Hint:        ex.hint,
		Authorized:  ex.result.Token,
		Final:       final,
		Active:      ex.result.Active(),
	}
	if ex.resolved != nil {
		v.Resolved = ex.resolved.Kind
	}
	s.obs.ObserveVerdict(ctx, v)

	log.Debug("introspection verdict",
		logger.ClientID(requester.ClientID),
		logger.Hint(string(ex.hint)),
		logger.TokenKind(string(v.Resolved)),
		logger.TokenFP(tokens.Fingerprint(req.Token)),
		logger.State(string(final)),
		logger.Active(v.Active),
	)

	return &Outcome{
		Response: ex.response,
		Result:   ex.result,
		Trail:    ex.trail,
	}, nil
}

func (s *Service) resolve(ctx context.Context, ex *exchange) error {
	ex.enter(StateResolving)
	tok, err := s.resolver.Resolve(ctx, ex.req.Token, ex.hint)
	if err != nil {
		return err
	}
	if tok == nil {
		ex.decision = StateNotFound
		ex.enter(StateNotFound)
		ex.inactive()
		return nil
	}
	ex.resolved = tok
	ex.enter(StateFound)
	return nil
}

func (s *Service) authorize(ctx context.Context, ex *exchange) error {
	ex.enter(StateValidityCheck)
	res, st := Authorize(ex.resolved, ex.requester)
	if st == StateInvalid {
		ex.decision = st
		ex.enter(StateInvalid)
		ex.inactive()
		return nil
	}
	ex.enter(StateValid)
	ex.enter(StateOwnershipCheck)

	if st == StateGranted {
		sub, err := s.builder.Subject(ctx, res.Token, ex.requester)
		switch {
		case errors.Is(err, errOwnerGone):
			// token huérfano: su client dueño ya no está registrado
			st = StateDenied
		case err != nil:
			return err
		default:
			res.Subject = sub
		}
	}

	ex.decision = st
	ex.enter(st)
	if st == StateDenied {
		ex.inactive()
		return nil
	}
	ex.result = res
	return nil
}

func (s *Service) disclose(_ context.Context, ex *exchange) error {
	ex.enter(StateBuildActive)
	ex.response = s.builder.Response(ex.result)
	return nil
}
