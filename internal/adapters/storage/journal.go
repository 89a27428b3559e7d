package storage

// journal.go — journal SQLite de eventos para warm start.
//
// Estrategia:
//   - `events`: UNA fila por evento (UPSERT por id). El payload completo va
//     como JSON; id y detected_at son columnas propias para el prune y la
//     carga ordenada.
//   - Prune automático al abrir: todo lo anterior al horizonte se borra —
//     la ventana en memoria es la autoridad, el journal solo la precalienta.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alejandrodnm/whaleterm/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
    id          TEXT PRIMARY KEY,
    detected_at INTEGER NOT NULL,  -- unix millis
    kind        TEXT    NOT NULL,
    payload     TEXT    NOT NULL   -- evento completo serializado
);

CREATE INDEX IF NOT EXISTS idx_events_detected ON events(detected_at DESC);
`

// Journal implementa ports.Journal usando SQLite (pure Go, sin CGo).
type Journal struct {
	db *sql.DB
}

// NewJournal abre (o crea) la base de datos y poda lo anterior al horizonte.
func NewJournal(path string, horizon time.Duration) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewJournal: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewJournal: apply schema: %w", err)
	}

	j := &Journal{db: db}
	j.prune(context.Background(), horizon)
	return j, nil
}

// SaveEvents hace upsert de los eventos por ID.
func (j *Journal) SaveEvents(ctx context.Context, events []domain.SignalEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveEvents: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (id, detected_at, kind, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload = excluded.payload
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveEvents: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("storage.SaveEvents: marshal %s: %w", e.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.DetectedAt.UnixMilli(), e.Kind.String(), string(payload)); err != nil {
			return fmt.Errorf("storage.SaveEvents: upsert %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

// LoadRecent devuelve los eventos persistidos dentro del horizonte,
// más recientes primero.
func (j *Journal) LoadRecent(ctx context.Context, horizon time.Duration) ([]domain.SignalEvent, error) {
	cutoff := time.Now().Add(-horizon).UnixMilli()

	rows, err := j.db.QueryContext(ctx, `
		SELECT payload FROM events
		WHERE detected_at >= ?
		ORDER BY detected_at DESC
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("storage.LoadRecent: query: %w", err)
	}
	defer rows.Close()

	var events []domain.SignalEvent
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("storage.LoadRecent: scan: %w", err)
		}
		var e domain.SignalEvent
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			// Un payload corrupto no invalida el resto del journal.
			continue
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// prune borra los eventos anteriores al horizonte.
func (j *Journal) prune(ctx context.Context, horizon time.Duration) {
	cutoff := time.Now().Add(-horizon).UnixMilli()
	if _, err := j.db.ExecContext(ctx, `DELETE FROM events WHERE detected_at < ?`, cutoff); err != nil {
		// El prune es mantenimiento, no bloquea el arranque.
		return
	}
}

// Close cierra la conexión limpiamente.
func (j *Journal) Close() error { return j.db.Close() }
