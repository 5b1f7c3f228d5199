package introspection

// State es un estado de la máquina por request.
//
//	START → RESOLVING → {NOT_FOUND | FOUND}
//	FOUND → VALIDITY_CHECK → {INVALID → INACTIVE | VALID → OWNERSHIP_CHECK}
//	OWNERSHIP_CHECK → {DENIED → INACTIVE | GRANTED → BUILD_ACTIVE}
//	NOT_FOUND → INACTIVE
//	INACTIVE | BUILD_ACTIVE → LEGACY_ANNOTATE → RESPONSE_READY
//
// El dueño de un token ajeno se resuelve en OWNERSHIP_CHECK; si ya no está
// registrado el token termina en DENIED.
type State string

const (
	StateStart          State = "START"
	StateResolving      State = "RESOLVING"
	StateNotFound       State = "NOT_FOUND"
	StateFound          State = "FOUND"
	StateValidityCheck  State = "VALIDITY_CHECK"
	StateInvalid        State = "INVALID"
	StateValid          State = "VALID"
	StateOwnershipCheck State = "OWNERSHIP_CHECK"
	StateDenied         State = "DENIED"
	StateGranted        State = "GRANTED"
	StateBuildActive    State = "BUILD_ACTIVE"
	StateInactive       State = "INACTIVE"
	StateLegacyAnnotate State = "LEGACY_ANNOTATE"
	StateResponseReady  State = "RESPONSE_READY"
)

// transitions enumera los sucesores legales de cada estado.
var transitions = map[State][]State{
	StateStart:          {StateResolving},
	StateResolving:      {StateNotFound, StateFound},
	StateFound:          {StateValidityCheck},
	StateValidityCheck:  {StateInvalid, StateValid},
	StateInvalid:        {StateInactive},
	StateValid:          {StateOwnershipCheck},
	StateOwnershipCheck: {StateDenied, StateGranted},
	StateDenied:         {StateInactive},
	StateGranted:        {StateBuildActive},
	StateNotFound:       {StateInactive},
	StateBuildActive:    {StateLegacyAnnotate},
	StateInactive:       {StateLegacyAnnotate},
	StateLegacyAnnotate: {StateResponseReady},
}

// canTransition reporta si from → to es legal.
func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
