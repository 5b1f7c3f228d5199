// Package repository define los tipos y contratos de dominio de la introspección:
// tokens por kind, clients y las dos consultas que el core hace sobre ellos.
//
// Los stores (internal/store/{memory,redis,pg,cached}) implementan TokenFinder y
// ClientDirectory. El core sólo conoce estas interfaces.
//
// Reglas de los finders:
//   - ctx primero; cancelarlo aborta el lookup
//   - ausencia = ErrNotFound (o un wrap); cualquier otro error es falla de infraestructura
//   - un mismo token opaco existe a lo sumo en un store
package repository
