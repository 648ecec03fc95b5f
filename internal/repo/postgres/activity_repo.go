package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/staysuite/guestgate/internal/domain"
)

type ActivityRepo interface {
	Record(ctx context.Context, a *domain.SuspiciousActivity) error
}

type ActivityRepoImpl struct{ pool *pgxpool.Pool }

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepoImpl { return &ActivityRepoImpl{pool: pool} }

func (r *ActivityRepoImpl) Record(ctx context.Context, a *domain.SuspiciousActivity) error {
	const q = `INSERT INTO suspicious_activity
  (property_id, token, activity_type, details, severity, ip_address)
  VALUES ($1,$2,$3,$4,$5,$6)`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err := r.pool.Exec(ctx, q,
		a.PropertyID, a.Token, a.ActivityType, a.Details, a.Severity, a.IPAddress)
	return err
}
