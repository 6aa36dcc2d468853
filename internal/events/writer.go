// Package events appends simulation telemetry rows to the run log.
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type Writer struct {
	DB *sql.DB
}

type EventPayload map[string]any

// Append writes one telemetry row inside the caller's transaction.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, runID string, tick int, evtType, entityKind, entityID string, payload EventPayload) error {
	if payload == nil {
		payload = EventPayload{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO events(run_id,tick,type,entity_kind,entity_id,payload_json) VALUES (?,?,?,?,?,?)`,
		runID, tick, evtType, entityKind, nullable(entityID), string(data))
	return err
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
