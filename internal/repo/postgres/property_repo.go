package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/staysuite/guestgate/internal/domain"
)

type PropertyRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Property, error)
}

type PropertyRepoImpl struct{ pool *pgxpool.Pool }

func NewPropertyRepo(pool *pgxpool.Pool) *PropertyRepoImpl { return &PropertyRepoImpl{pool: pool} }

const propertyCols = `id, tenant_id, slug, name, guide, created_at, updated_at`

func (r *PropertyRepoImpl) GetByID(ctx context.Context, id uuid.UUID) (*domain.Property, error) {
	const q = `SELECT ` + propertyCols + ` FROM properties WHERE id=$1`
	return r.getOne(ctx, q, id)
}

func (r *PropertyRepoImpl) GetBySlug(ctx context.Context, slug string) (*domain.Property, error) {
	const q = `SELECT ` + propertyCols + ` FROM properties WHERE slug=$1`
	return r.getOne(ctx, q, slug)
}

func (r *PropertyRepoImpl) getOne(ctx context.Context, q string, arg any) (*domain.Property, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var p domain.Property
	err := r.pool.QueryRow(ctx, q, arg).Scan(
		&p.ID, &p.TenantID, &p.Slug, &p.Name, &p.Guide, &p.CreatedAt, &p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
