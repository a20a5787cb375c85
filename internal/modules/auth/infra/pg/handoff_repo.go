package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"deviceauth/internal/modules/auth/domain"
)

type HandoffRepo struct{ db *pgxpool.Pool }

func NewHandoffRepo(db *pgxpool.Pool) *HandoffRepo { return &HandoffRepo{db: db} }

const handoffCols = `id, device_id, poll_token_hash, code, user_id, provider_session_id,
       expires_at, used, used_at, created_at`

func scanHandoff(row interface{ Scan(dest ...any) error }) (*domain.HandoffCode, error) {
	var h domain.HandoffCode
	if err := row.Scan(&h.ID, &h.DeviceID, &h.PollTokenHash, &h.Code, &h.UserID, &h.ProviderSessionID,
		&h.ExpiresAt, &h.Used, &h.UsedAt, &h.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &h, nil
}

// StartAttempt: прежние непотреблённые попытки устройства удаляются в той же
// транзакции — инвариант "одна невыполненная попытка на device_id".
func (r *HandoffRepo) StartAttempt(ctx context.Context, h domain.HandoffCode) (*domain.HandoffCode, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM handoff_codes WHERE device_id=$1 AND used=false`, h.DeviceID); err != nil {
		return nil, mapErr(err)
	}

	row := tx.QueryRow(ctx,
		`INSERT INTO handoff_codes (id, device_id, poll_token_hash, expires_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+handoffCols,
		h.ID, h.DeviceID, h.PollTokenHash, h.ExpiresAt)
	out, err := scanHandoff(row)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (r *HandoffRepo) Attach(ctx context.Context, p domain.AttachCodeParams) (*domain.HandoffCode, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE handoff_codes
		    SET code=$2, user_id=$3, provider_session_id=$4, expires_at=$5
		  WHERE device_id=$1 AND used=false AND code IS NULL AND expires_at > now()
		 RETURNING `+handoffCols,
		p.DeviceID, p.Code, p.UserID, p.ProviderSessionID, p.ExpiresAt)
	return scanHandoff(row)
}

func (r *HandoffRepo) Latest(ctx context.Context, deviceID string) (*domain.HandoffCode, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+handoffCols+`
		   FROM handoff_codes
		  WHERE device_id=$1 AND used=false
		  ORDER BY created_at DESC
		  LIMIT 1`, deviceID)
	return scanHandoff(row)
}

// Consume — SELECT ... FOR UPDATE + conditional UPDATE в одной транзакции:
// из двух конкурентных обменов used выставит ровно один.
func (r *HandoffRepo) Consume(ctx context.Context, code, deviceID string, at time.Time) (*domain.HandoffCode, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`SELECT `+handoffCols+` FROM handoff_codes WHERE code=$1 FOR UPDATE`, code)
	h, err := scanHandoff(row)
	if err != nil {
		return nil, err
	}

	if h.Used {
		return nil, domain.ErrCodeUsed
	}
	if h.DeviceID != deviceID {
		return nil, domain.ErrDeviceMismatch
	}
	if at.After(h.ExpiresAt) {
		return nil, domain.ErrCodeExpired
	}

	if _, err := tx.Exec(ctx,
		`UPDATE handoff_codes SET used=true, used_at=$2 WHERE id=$1`, h.ID, at); err != nil {
		return nil, mapErr(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, mapErr(err)
	}

	h.Used = true
	t := at
	h.UsedAt = &t
	return h, nil
}

func (r *HandoffRepo) PurgeExpired(ctx context.Context, before time.Time) (int, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM handoff_codes WHERE expires_at < $1`, before)
	return int(ct.RowsAffected()), mapErr(err)
}
