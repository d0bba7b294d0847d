package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// enqueue appends an outbox entry for a mutation that has already been
// written to the local store. The ordering matters: the record write
// is durable before the entry exists, so a crash in between leaves a
// record the next sync simply has not announced yet, never an entry
// pointing at nothing.
func enqueue(ctx context.Context, store storage.Store, userID, table, op, recordID string, payload any) error {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode outbox payload: %w", err)
		}
		data = b
	}

	entry := &models.OutboxEntry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Table:     table,
		Op:        op,
		RecordID:  recordID,
		Payload:   data,
		CreatedAt: time.Now().UnixMilli(),
	}
	return store.AppendOutbox(ctx, entry)
}
