package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/staysuite/guestgate/internal/domain"
)

type TokenRepo interface {
	Create(ctx context.Context, t *domain.AccessToken) (*domain.AccessToken, error)
	GetByToken(ctx context.Context, token string) (*domain.AccessToken, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AccessToken, error)
	Deactivate(ctx context.Context, id uuid.UUID) (bool, error)
	FindActiveByGuestEmail(ctx context.Context, email string, propertyID uuid.UUID, now time.Time) (*domain.AccessToken, error)
	TightenExpiredWindows(ctx context.Context, now time.Time) (int64, error)
}

type TokenRepoImpl struct{ pool *pgxpool.Pool }

func NewTokenRepo(pool *pgxpool.Pool) *TokenRepoImpl { return &TokenRepoImpl{pool: pool} }

const tokenCols = `id, property_id, tenant_id, token,
guest_name, guest_email, booking_id,
checkin_date, checkout_date, valid_from, valid_until,
is_active, daily_chat_limit, created_at, updated_at`

func (r *TokenRepoImpl) Create(ctx context.Context, t *domain.AccessToken) (*domain.AccessToken, error) {
	const q = `INSERT INTO access_tokens (
    id, property_id, tenant_id, token,
    guest_name, guest_email, booking_id,
    checkin_date, checkout_date, valid_from, valid_until,
    is_active, daily_chat_limit
  ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
  RETURNING ` + tokenCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var out domain.AccessToken
	err := r.pool.QueryRow(ctx, q,
		t.ID, t.PropertyID, t.TenantID, t.Token,
		t.GuestName, t.GuestEmail, t.BookingID,
		t.CheckinDate, t.CheckoutDate, t.ValidFrom, t.ValidUntil,
		t.IsActive, t.DailyChatLimit,
	).Scan(
		&out.ID, &out.PropertyID, &out.TenantID, &out.Token,
		&out.GuestName, &out.GuestEmail, &out.BookingID,
		&out.CheckinDate, &out.CheckoutDate, &out.ValidFrom, &out.ValidUntil,
		&out.IsActive, &out.DailyChatLimit, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *TokenRepoImpl) GetByToken(ctx context.Context, token string) (*domain.AccessToken, error) {
	const q = `SELECT ` + tokenCols + ` FROM access_tokens WHERE token=$1`
	return r.getOne(ctx, q, token)
}

func (r *TokenRepoImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.AccessToken, error) {
	const q = `SELECT ` + tokenCols + ` FROM access_tokens WHERE id=$1`
	return r.getOne(ctx, q, id)
}

func (r *TokenRepoImpl) getOne(ctx context.Context, q string, arg any) (*domain.AccessToken, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.AccessToken
	err := r.pool.QueryRow(ctx, q, arg).Scan(
		&t.ID, &t.PropertyID, &t.TenantID, &t.Token,
		&t.GuestName, &t.GuestEmail, &t.BookingID,
		&t.CheckinDate, &t.CheckoutDate, &t.ValidFrom, &t.ValidUntil,
		&t.IsActive, &t.DailyChatLimit, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TokenRepoImpl) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	const q = `UPDATE access_tokens SET is_active=false, updated_at=now() WHERE id=$1 AND is_active`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	ct, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// FindActiveByGuestEmail returns the newest still-valid token for the
// guest's email on a property. Used by the re-access flow only.
func (r *TokenRepoImpl) FindActiveByGuestEmail(ctx context.Context, email string, propertyID uuid.UUID, now time.Time) (*domain.AccessToken, error) {
	const q = `SELECT ` + tokenCols + ` FROM access_tokens
  WHERE lower(guest_email)=lower($1) AND property_id=$2 AND is_active AND valid_until >= $3
  ORDER BY created_at DESC LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.AccessToken
	err := r.pool.QueryRow(ctx, q, email, propertyID, now).Scan(
		&t.ID, &t.PropertyID, &t.TenantID, &t.Token,
		&t.GuestName, &t.GuestEmail, &t.BookingID,
		&t.CheckinDate, &t.CheckoutDate, &t.ValidFrom, &t.ValidUntil,
		&t.IsActive, &t.DailyChatLimit, &t.CreatedAt, &t.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TightenExpiredWindows shortens valid_until to the end of the checkout day
// for tokens whose checkout has passed but whose window still reaches beyond
// it. Shortening only; windows are never extended here.
func (r *TokenRepoImpl) TightenExpiredWindows(ctx context.Context, now time.Time) (int64, error) {
	const q = `UPDATE access_tokens
  SET valid_until = (checkout_date::date + interval '1 day' - interval '1 millisecond') AT TIME ZONE 'UTC',
      updated_at = now()
  WHERE checkout_date::date < $1::date
    AND valid_until > (checkout_date::date + interval '1 day' - interval '1 millisecond') AT TIME ZONE 'UTC'`

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	ct, err := r.pool.Exec(ctx, q, now.UTC())
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
