package domain

import (
	"time"

	"github.com/google/uuid"
)

// Report is a saved report template: author-provided markup whose
// placeholder tables are populated on each render.
type Report struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"nome"`
	HTML      string    `json:"html"`
	CreatedAt time.Time `json:"criado_em"`
}
