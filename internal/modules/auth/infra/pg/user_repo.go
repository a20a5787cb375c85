package pg

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"deviceauth/internal/modules/auth/domain"
)

type UserRepo struct{ db *pgxpool.Pool }

func NewUserRepo(db *pgxpool.Pool) *UserRepo { return &UserRepo{db: db} }

const userCols = `id, provider_id, email, first_name, last_name, deleted_at, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.ProviderID, &u.Email, &u.FirstName, &u.LastName,
		&u.DeletedAt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// Create — идемпотентный upsert по provider_id: повторный вызов с тем же
// subject id возвращает ту же строку (гонка с webhook-синком).
func (r *UserRepo) Create(ctx context.Context, p domain.CreateUserParams) (*domain.User, error) {
	q := `
INSERT INTO users (provider_id, email, first_name, last_name)
VALUES ($1, LOWER($2), $3, $4)
ON CONFLICT (provider_id) DO UPDATE SET updated_at = now()
RETURNING ` + userCols
	row := r.db.QueryRow(ctx, q, p.ProviderID, p.Email, p.FirstName, p.LastName)
	return scanUser(row)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id=$1`, id)
	return scanUser(row)
}

func (r *UserRepo) GetByProviderID(ctx context.Context, providerID string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE provider_id=$1`, providerID)
	return scanUser(row)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email=LOWER($1)`,
		strings.TrimSpace(email))
	return scanUser(row)
}

func (r *UserRepo) Restore(ctx context.Context, id, providerID string) (*domain.User, error) {
	q := `UPDATE users SET provider_id=$2, deleted_at=NULL, updated_at=now()
	      WHERE id=$1
	      RETURNING ` + userCols
	row := r.db.QueryRow(ctx, q, id, providerID)
	return scanUser(row)
}
