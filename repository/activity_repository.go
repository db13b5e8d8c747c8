package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ironingOrderManagement/models"
)

// ActivityRepository is the append-only activity log. The schema rejects updates and deletes.
type ActivityRepository struct {
	db DBTX
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// WithTx returns a copy bound to tx.
func (r *ActivityRepository) WithTx(tx *sql.Tx) *ActivityRepository {
	return &ActivityRepository{db: tx}
}

const activityColumns = `id, type, entity, role, actor_id, actor, timestamp, severity`

func (r *ActivityRepository) Append(ctx context.Context, a *models.Activity) error {
	if a == nil {
		return errors.New("activity is nil")
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `INSERT INTO activities (`+activityColumns+`) VALUES (?,?,?,?,?,?,?,?)`,
		a.ID, string(a.Type), a.Entity, string(a.Role), a.ActorID, a.Actor, formatTime(a.Timestamp), string(a.Severity))
	if err != nil {
		return fmt.Errorf("append activity %s: %w", a.ID, err)
	}
	return nil
}

// List returns up to limit entries, newest first. A non-positive limit returns everything.
func (r *ActivityRepository) List(ctx context.Context, limit int) ([]models.Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `SELECT ` + activityColumns + ` FROM activities ORDER BY timestamp DESC, seq DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return r.query(ctx, query, args...)
}

// ListByEntity returns the entries recorded against one entity, oldest first.
func (r *ActivityRepository) ListByEntity(ctx context.Context, entity string) ([]models.Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.query(ctx, `SELECT `+activityColumns+` FROM activities WHERE entity = ? ORDER BY timestamp, seq`, entity)
}

func (r *ActivityRepository) query(ctx context.Context, query string, args ...any) ([]models.Activity, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Activity
	for rows.Next() {
		var a models.Activity
		var typ, role, ts, severity string
		if err := rows.Scan(&a.ID, &typ, &a.Entity, &role, &a.ActorID, &a.Actor, &ts, &severity); err != nil {
			return nil, err
		}
		a.Type = models.ActivityType(typ)
		a.Role = models.Role(role)
		a.Severity = models.Severity(severity)
		if a.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
