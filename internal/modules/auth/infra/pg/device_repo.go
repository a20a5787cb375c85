package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"deviceauth/internal/modules/auth/domain"
)

type DeviceRepo struct{ db *pgxpool.Pool }

func NewDeviceRepo(db *pgxpool.Pool) *DeviceRepo { return &DeviceRepo{db: db} }

const deviceCols = `id, user_id, name, user_agent, is_active, revoked_at, last_active_at, created_at, updated_at`

func scanDevice(row interface{ Scan(dest ...any) error }) (*domain.Device, error) {
	var d domain.Device
	if err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.UserAgent, &d.IsActive,
		&d.RevokedAt, &d.LastActiveAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

// Upsert: новая строка либо перепривязка владельца + реактивация.
// Метаданные домердживаются, NULL-ы не затирают имеющиеся значения.
func (r *DeviceRepo) Upsert(ctx context.Context, p domain.UpsertDeviceParams) (*domain.Device, error) {
	q := `
INSERT INTO devices (id, user_id, name, user_agent)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
  user_id    = EXCLUDED.user_id,
  name       = COALESCE(EXCLUDED.name, devices.name),
  user_agent = COALESCE(EXCLUDED.user_agent, devices.user_agent),
  is_active  = true,
  revoked_at = NULL,
  updated_at = now()
RETURNING ` + deviceCols
	row := r.db.QueryRow(ctx, q, p.ID, p.UserID, p.Name, p.UserAgent)
	return scanDevice(row)
}

func (r *DeviceRepo) GetByID(ctx context.Context, id string) (*domain.Device, error) {
	row := r.db.QueryRow(ctx, `SELECT `+deviceCols+` FROM devices WHERE id=$1`, id)
	return scanDevice(row)
}

func (r *DeviceRepo) ListByUser(ctx context.Context, userID string) ([]domain.Device, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+deviceCols+` FROM devices WHERE user_id=$1 ORDER BY last_active_at DESC`, userID)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []domain.Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, mapErr(rows.Err())
}

func (r *DeviceRepo) Revoke(ctx context.Context, deviceID string, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE devices SET is_active=false, revoked_at=COALESCE(revoked_at, $2), updated_at=$2 WHERE id=$1`,
		deviceID, at)
	return mapErr(err)
}

func (r *DeviceRepo) Touch(ctx context.Context, deviceID string, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE devices SET last_active_at=$2 WHERE id=$1`, deviceID, at)
	return mapErr(err)
}
