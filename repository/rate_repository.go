package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"ironingOrderManagement/models"
)

// RateRepository stores per-cloth prices. At most one Active rate may exist per cloth type,
// compared through models.ClothKey.
type RateRepository struct {
	db DBTX
}

func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *RateRepository) WithTx(tx *sql.Tx) *RateRepository {
	return &RateRepository{db: tx}
}

const rateColumns = `id, cloth_type, price_per_unit, min_qty, status`

func (r *RateRepository) Create(ctx context.Context, rt *models.Rate) error {
	if rt == nil {
		return errors.New("rate is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `INSERT INTO rates (id, cloth_type, cloth_key, price_per_unit, min_qty, status) VALUES (?,?,?,?,?,?)`,
		rt.ID, rt.ClothType, models.ClothKey(rt.ClothType), rt.PricePerUnit.String(), rt.MinQty, string(rt.Status))
	if err != nil {
		return fmt.Errorf("insert rate %s: %w", rt.ID, err)
	}
	return nil
}

func (r *RateRepository) Update(ctx context.Context, rt *models.Rate) error {
	if rt == nil {
		return errors.New("rate is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE rates SET cloth_type = ?, cloth_key = ?, price_per_unit = ?, min_qty = ?, status = ? WHERE id = ?`,
		rt.ClothType, models.ClothKey(rt.ClothType), rt.PricePerUnit.String(), rt.MinQty, string(rt.Status), rt.ID)
	if err != nil {
		return fmt.Errorf("update rate %s: %w", rt.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update rate %s: %w", rt.ID, sql.ErrNoRows)
	}
	return nil
}

func (r *RateRepository) GetByID(ctx context.Context, id string) (*models.Rate, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rt, err := scanRate(r.db.QueryRowContext(ctx, `SELECT `+rateColumns+` FROM rates WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rt, nil
}

// FindActiveByClothType returns the Active rate for a cloth type, or (nil, nil).
func (r *RateRepository) FindActiveByClothType(ctx context.Context, clothType string) (*models.Rate, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rt, err := scanRate(r.db.QueryRowContext(ctx, `SELECT `+rateColumns+` FROM rates WHERE cloth_key = ? AND status = ?`,
		models.ClothKey(clothType), string(models.RateActive)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rt, nil
}

// List returns rates in insertion order.
func (r *RateRepository) List(ctx context.Context) ([]models.Rate, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+rateColumns+` FROM rates ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Rate
	for rows.Next() {
		rt, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rt)
	}
	return out, rows.Err()
}

func scanRate(row rowScanner) (*models.Rate, error) {
	var rt models.Rate
	var price, status string
	if err := row.Scan(&rt.ID, &rt.ClothType, &price, &rt.MinQty, &status); err != nil {
		return nil, err
	}
	var err error
	if rt.PricePerUnit, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("rate %s: price %q: %w", rt.ID, price, err)
	}
	rt.Status = models.RateStatus(status)
	return &rt, nil
}
