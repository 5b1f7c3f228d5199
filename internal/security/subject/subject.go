// Package subject calcula el identificador de sujeto que se expone a un client.
//
// Con sector identifier el sub es pairwise: sha256(sector ‖ account ‖ salt) en hex,
// estable para el par (account, sector) y no correlacionable entre sectores.
// Sin sector identifier se expone el account id tal cual (subject type "public").
package subject

import (
	"crypto/sha256"
	"encoding/hex"
)

// Config configura el masker. Se inyecta en construcción, nunca se lee de un global.
type Config struct {
	// PairwiseSalt se mezcla en el hash. Cambiarlo rota todos los sub pairwise.
	PairwiseSalt string
}

// Masker es la primitiva de pseudonimización. Es pura y segura para uso concurrente.
type Masker struct {
	salt string
}

// New crea un Masker.
func New(cfg Config) *Masker {
	return &Masker{salt: cfg.PairwiseSalt}
}

// Compute devuelve el sub para accountID visto desde sectorIdentifier.
// accountID vacío (ej: client credentials) produce "", que se omite en la respuesta.
func (m *Masker) Compute(accountID, sectorIdentifier string) string {
	if accountID == "" {
		return ""
	}
	if sectorIdentifier == "" {
		return accountID
	}
	h := sha256.New()
	h.Write([]byte(sectorIdentifier))
	h.Write([]byte(accountID))
	h.Write([]byte(m.salt))
	return hex.EncodeToString(h.Sum(nil))
}
