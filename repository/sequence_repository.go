package repository

import (
	"context"
	"database/sql"
	"time"
)

// Sequence names.
const (
	SeqOrders   = "orders"
	SeqPartners = "partners"
	SeqRates    = "rates"
)

type SequenceRepository struct {
	db DBTX
}

func NewSequenceRepository(db *sql.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *SequenceRepository) WithTx(tx *sql.Tx) *SequenceRepository {
	return &SequenceRepository{db: tx}
}

// Next increments the named sequence and returns the new value. Unknown sequences start at 1.
func (r *SequenceRepository) Next(ctx context.Context, name string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var v int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO id_sequences (name, value) VALUES (?, 1)
ON CONFLICT (name) DO UPDATE SET value = value + 1
RETURNING value`, name).Scan(&v)
	return v, err
}

// Set moves the named sequence to value; the next call to Next returns value+1.
func (r *SequenceRepository) Set(ctx context.Context, name string, value int64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
INSERT INTO id_sequences (name, value) VALUES (?, ?)
ON CONFLICT (name) DO UPDATE SET value = excluded.value`, name, value)
	return err
}
