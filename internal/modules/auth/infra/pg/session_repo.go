package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"deviceauth/internal/modules/auth/domain"
)

type SessionRepo struct{ db *pgxpool.Pool }

func NewSessionRepo(db *pgxpool.Pool) *SessionRepo { return &SessionRepo{db: db} }

const sessionCols = `id, user_id, device_id, refresh_token_hash, previous_refresh_token_hash,
       expires_at, refresh_expires_at, revoked_at, last_active_at, ip_address, user_agent, created_at`

func scanSession(row interface{ Scan(dest ...any) error }) (*domain.Session, error) {
	var s domain.Session
	if err := row.Scan(&s.ID, &s.UserID, &s.DeviceID, &s.RefreshTokenHash, &s.PreviousRefreshTokenHash,
		&s.ExpiresAt, &s.RefreshExpiresAt, &s.RevokedAt, &s.LastActiveAt, &s.IPAddress, &s.UserAgent, &s.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (r *SessionRepo) Create(ctx context.Context, s domain.Session) (*domain.Session, error) {
	q := `INSERT INTO sessions (id, user_id, device_id, refresh_token_hash, expires_at, refresh_expires_at, ip_address, user_agent)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	      RETURNING ` + sessionCols
	row := r.db.QueryRow(ctx, q, s.ID, s.UserID, s.DeviceID, s.RefreshTokenHash,
		s.ExpiresAt, s.RefreshExpiresAt, s.IPAddress, s.UserAgent)
	out, err := scanSession(row)
	if err != nil && isUniqueViolation(err) {
		// коллизия refresh-хеша; секрет случайный, так что это retryable
		return nil, domain.ErrUnavailable
	}
	return out, err
}

func (r *SessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sessionCols+` FROM sessions WHERE id=$1`, id)
	return scanSession(row)
}

// Rotate — единственный UPDATE с предикатом на текущий хеш: из конкурентных
// запросов строку меняет ровно один, остальные получают ноль строк и ErrNotFound.
func (r *SessionRepo) Rotate(ctx context.Context, oldHash, newHash string, expiresAt, refreshExpiresAt time.Time) (*domain.Session, error) {
	q := `UPDATE sessions
	         SET previous_refresh_token_hash = refresh_token_hash,
	             refresh_token_hash = $2,
	             expires_at = $3,
	             refresh_expires_at = $4,
	             last_active_at = now()
	       WHERE refresh_token_hash = $1
	         AND revoked_at IS NULL
	         AND refresh_expires_at > now()
	      RETURNING ` + sessionCols
	row := r.db.QueryRow(ctx, q, oldHash, newHash, expiresAt, refreshExpiresAt)
	return scanSession(row)
}

func (r *SessionRepo) FindByRefreshHash(ctx context.Context, hash string) (*domain.Session, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sessionCols+` FROM sessions WHERE refresh_token_hash=$1`, hash)
	return scanSession(row)
}

func (r *SessionRepo) FindByPreviousHash(ctx context.Context, hash string) (*domain.Session, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sessionCols+` FROM sessions WHERE previous_refresh_token_hash=$1`, hash)
	return scanSession(row)
}

func (r *SessionRepo) Revoke(ctx context.Context, sessionID string, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE sessions SET revoked_at=COALESCE(revoked_at, $2) WHERE id=$1`, sessionID, at)
	return mapErr(err)
}

func (r *SessionRepo) RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int, error) {
	ct, err := r.db.Exec(ctx,
		`UPDATE sessions SET revoked_at=$2 WHERE user_id=$1 AND revoked_at IS NULL`, userID, at)
	return int(ct.RowsAffected()), mapErr(err)
}

func (r *SessionRepo) RevokeAllForDevice(ctx context.Context, deviceID string, at time.Time) (int, error) {
	ct, err := r.db.Exec(ctx,
		`UPDATE sessions SET revoked_at=$2 WHERE device_id=$1 AND revoked_at IS NULL`, deviceID, at)
	return int(ct.RowsAffected()), mapErr(err)
}

func (r *SessionRepo) RevokeForUserDevice(ctx context.Context, userID, deviceID string, at time.Time) (int, error) {
	ct, err := r.db.Exec(ctx,
		`UPDATE sessions SET revoked_at=$3 WHERE user_id=$1 AND device_id=$2 AND revoked_at IS NULL`,
		userID, deviceID, at)
	return int(ct.RowsAffected()), mapErr(err)
}

func (r *SessionRepo) Touch(ctx context.Context, sessionID string, at time.Time) error {
	_, err := r.db.Exec(ctx, `UPDATE sessions SET last_active_at=$2 WHERE id=$1`, sessionID, at)
	return mapErr(err)
}
