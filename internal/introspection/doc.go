// Package introspection implementa el núcleo del endpoint RFC 7662.
//
// Un request recorre cuatro etapas en orden fijo:
//
//	Resolver → Gate → DisclosureBuilder → legacy token_type
//
// Resolver ubica el token entre los tres stores disjuntos (AccessToken,
// ClientCredentials, RefreshToken) con un orden sesgado por token_type_hint.
// Gate decide active/inactive (validez + ownership para clients públicos).
// DisclosureBuilder calcula el sub pairwise y arma el body.
//
// Los rechazos de negocio (no encontrado, expirado, revocado, ownership) son
// indistinguibles: todos producen exactamente {"active":false}. Las fallas de
// store o directorio NO se convierten en inactive, se devuelven envueltas en
// ErrLookup / ErrDirectory para que la capa HTTP responda 5xx.
package introspection
