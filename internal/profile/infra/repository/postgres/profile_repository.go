package postgres

import (
	"context"
	"errors"

	"github.com/cristianortiz/thriftbid/internal/profile/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileRepository implements domain.ProfileRepository for PostgreSQL.
type ProfileRepository struct {
	pool *pgxpool.Pool
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// GetByID fetches a profile by its ID.
func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	query := `SELECT id, full_name, created_at FROM profiles WHERE id = $1`

	p := &domain.Profile{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.FullName, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}
