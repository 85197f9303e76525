package database

import (
	"context"

	"github.com/google/uuid"
)

type UpsertOrderSequenceParams struct {
	OutletID uuid.UUID
	DateKey  string
}

// UpsertOrderSequence atomically claims the next per-(outlet, day) sequence
// number. The ON CONFLICT increment takes the counter's row lock, so two
// concurrent order creations in the same outlet/day can never read the same
// value. Must run inside the order-creation transaction so a rollback also
// releases the claimed number.
const upsertOrderSequence = `
INSERT INTO order_sequences (outlet_id, date_key, seq)
VALUES ($1, $2, 1)
ON CONFLICT (outlet_id, date_key)
DO UPDATE SET seq = order_sequences.seq + 1
RETURNING seq`

func (q *Queries) UpsertOrderSequence(ctx context.Context, arg UpsertOrderSequenceParams) (int32, error) {
	var seq int32
	err := q.db.QueryRow(ctx, upsertOrderSequence, arg.OutletID, arg.DateKey).Scan(&seq)
	return seq, err
}
