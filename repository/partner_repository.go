package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ironingOrderManagement/models"
)

type PartnerRepository struct {
	db DBTX
}

func NewPartnerRepository(db *sql.DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *PartnerRepository) WithTx(tx *sql.Tx) *PartnerRepository {
	return &PartnerRepository{db: tx}
}

const partnerColumns = `id, name, contact, email, phone, status, assigned_orders`

func (r *PartnerRepository) Create(ctx context.Context, p *models.Partner) error {
	if p == nil {
		return errors.New("partner is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `INSERT INTO partners (`+partnerColumns+`) VALUES (?,?,?,?,?,?,?)`,
		p.ID, p.Name, p.Contact, p.Email, p.Phone, string(p.Status), p.AssignedOrders)
	if err != nil {
		return fmt.Errorf("insert partner %s: %w", p.ID, err)
	}
	return nil
}

func (r *PartnerRepository) Update(ctx context.Context, p *models.Partner) error {
	if p == nil {
		return errors.New("partner is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE partners SET name = ?, contact = ?, email = ?, phone = ?, status = ?, assigned_orders = ? WHERE id = ?`,
		p.Name, p.Contact, p.Email, p.Phone, string(p.Status), p.AssignedOrders, p.ID)
	if err != nil {
		return fmt.Errorf("update partner %s: %w", p.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update partner %s: %w", p.ID, sql.ErrNoRows)
	}
	return nil
}

func (r *PartnerRepository) GetByID(ctx context.Context, id string) (*models.Partner, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	p, err := scanPartner(r.db.QueryRowContext(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// List returns partners in insertion order.
func (r *PartnerRepository) List(ctx context.Context) ([]models.Partner, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+partnerColumns+` FROM partners ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Partner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanPartner(row rowScanner) (*models.Partner, error) {
	var p models.Partner
	var status string
	if err := row.Scan(&p.ID, &p.Name, &p.Contact, &p.Email, &p.Phone, &status, &p.AssignedOrders); err != nil {
		return nil, err
	}
	p.Status = models.PartnerStatus(status)
	return &p, nil
}
