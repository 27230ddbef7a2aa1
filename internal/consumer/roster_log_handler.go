package consumer

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RosterLogHandler appends consumed roster events to the enrollment history table.
type RosterLogHandler struct {
	pool *pgxpool.Pool
}

// NewRosterLogHandler constructs a handler backed by the provided pool.
func NewRosterLogHandler(pool *pgxpool.Pool) *RosterLogHandler {
	return &RosterLogHandler{pool: pool}
}

// Handle stores the event payload in the roster_event_log table.
func (h *RosterLogHandler) Handle(ctx context.Context, msg Message) error {
	_, err := h.pool.Exec(ctx,
		`INSERT INTO roster_event_log (event_type, schema_id, schema_subject, topic, partition, record_offset, payload, received_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		msg.EventType,
		msg.SchemaID,
		msg.SchemaSubject,
		msg.Topic,
		msg.Partition,
		msg.Offset,
		msg.Payload,
		msg.Timestamp,
	)
	return err
}
