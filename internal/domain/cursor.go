package domain

import "time"

// HistoryCursor es la posición de paginación hacia atrás en la historia.
// Cumple doble función: cursor de request y clave de detección de loops —
// dos requests consecutivos que producen el mismo cursor señalan agotamiento,
// nunca se repite la petición.
type HistoryCursor struct {
	OldestTimestamp   time.Time
	OldestID          string
	FilterFingerprint string
}

// Equal compara dos cursores campo a campo.
func (c HistoryCursor) Equal(o HistoryCursor) bool {
	return c.OldestTimestamp.Equal(o.OldestTimestamp) &&
		c.OldestID == o.OldestID &&
		c.FilterFingerprint == o.FilterFingerprint
}

// IsZero devuelve true si el cursor no apunta a ninguna posición.
func (c HistoryCursor) IsZero() bool {
	return c.OldestTimestamp.IsZero() && c.OldestID == ""
}
