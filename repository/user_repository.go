package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ironingOrderManagement/models"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *UserRepository) WithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

// Create inserts a user with a caller-chosen id.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	if u == nil {
		return errors.New("user is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `INSERT INTO users (id, name, role, email) VALUES (?,?,?,?)`,
		u.ID, u.Name, string(u.Role), u.Email)
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u models.User
	var role string
	err := r.db.QueryRowContext(ctx, `SELECT id, name, role, email FROM users WHERE id = ?`, id).Scan(&u.ID, &u.Name, &role, &u.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

// FirstByRole returns the first seeded user with the given role, by id.
func (r *UserRepository) FirstByRole(ctx context.Context, role models.Role) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u models.User
	var got string
	err := r.db.QueryRowContext(ctx, `SELECT id, name, role, email FROM users WHERE role = ? ORDER BY rowid LIMIT 1`, string(role)).
		Scan(&u.ID, &u.Name, &got, &u.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Role = models.Role(got)
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT id, name, role, email FROM users ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.User
	for rows.Next() {
		var u models.User
		var role string
		if err := rows.Scan(&u.ID, &u.Name, &role, &u.Email); err != nil {
			return nil, err
		}
		u.Role = models.Role(role)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
