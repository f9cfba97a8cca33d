package repository

import (
	"context"
	"errors"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CartRepository interface {
	// GetOrCreate returns the user's cart, creating it on first use. A user
	// never ends up with two carts.
	GetOrCreate(ctx context.Context, userID int64) (*domain.Cart, error)
	GetByUserID(ctx context.Context, userID int64) (*domain.Cart, error)
	Save(ctx context.Context, c *domain.Cart) error
}

type cartRepository struct {
	pool *pgxpool.Pool
}

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &cartRepository{pool: pool}
}

const cartCols = `id, user_id, tours, rooms, created_at, updated_at`

func scanCart(row rowScanner) (*domain.Cart, error) {
	var c domain.Cart
	if err := row.Scan(&c.ID, &c.UserID, &c.Tours, &c.Rooms, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Tours = orEmpty(c.Tours)
	c.Rooms = orEmpty(c.Rooms)
	return &c, nil
}

func (r *cartRepository) GetOrCreate(ctx context.Context, userID int64) (*domain.Cart, error) {
	const q = `
		INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING ` + cartCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanCart(r.pool.QueryRow(ctx, q, userID))
}

func (r *cartRepository) GetByUserID(ctx context.Context, userID int64) (*domain.Cart, error) {
	const q = `SELECT ` + cartCols + ` FROM carts WHERE user_id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	c, err := scanCart(r.pool.QueryRow(ctx, q, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (r *cartRepository) Save(ctx context.Context, c *domain.Cart) error {
	const q = `UPDATE carts SET tours = $2, rooms = $3, updated_at = now() WHERE id = $1 RETURNING updated_at`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := r.pool.QueryRow(ctx, q, c.ID, orEmpty(c.Tours), orEmpty(c.Rooms)).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}
