package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	FindActiveByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	SetToken(ctx context.Context, id int64, token string) error
	UpdateProfile(ctx context.Context, id int64, upd *domain.ProfileUpdate) (*domain.User, error)
	UpdatePassword(ctx context.Context, id int64, hash, token string) error
	SetStatus(ctx context.Context, id int64, status domain.UserStatus) error
	SoftDelete(ctx context.Context, id int64) error
	List(ctx context.Context, f domain.ListFilter) ([]domain.User, int64, error)
	Count(ctx context.Context) (int64, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userCols = `id, full_name, email, password_hash, token, phone, avatar, status, deleted, created_at, updated_at`

func scanUser(row rowScanner) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Token, &u.Phone, &u.Avatar,
		&u.Status, &u.Deleted, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a user and returns domain.ErrEmailTaken when a live user
// already owns the email.
func (r *userRepository) Create(ctx context.Context, in *domain.User) (*domain.User, error) {
	const q = `
		INSERT INTO users (full_name, email, password_hash, token, phone, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, in.FullName, in.Email, in.PasswordHash, in.Token, in.Phone, domain.StatusActive))
	if isUniqueViolation(err) {
		return nil, domain.ErrEmailTaken
	}
	return u, err
}

func (r *userRepository) FindActiveByEmail(ctx context.Context, email string) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE lower(email) = lower($1) AND deleted = false`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1 AND deleted = false`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) SetToken(ctx context.Context, id int64, token string) error {
	const q = `UPDATE users SET token = $2, updated_at = now() WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id, token)
	return err
}

func (r *userRepository) UpdateProfile(ctx context.Context, id int64, upd *domain.ProfileUpdate) (*domain.User, error) {
	const q = `
		UPDATE users
		SET
			full_name = COALESCE($2, full_name),
			phone = COALESCE($3, phone),
			avatar = COALESCE($4, avatar),
			updated_at = now()
		WHERE id = $1 AND deleted = false
		RETURNING ` + userCols

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	u, err := scanUser(r.pool.QueryRow(ctx, q, id, upd.FullName, upd.Phone, upd.Avatar))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, hash, token string) error {
	const q = `UPDATE users SET password_hash = $2, token = $3, updated_at = now() WHERE id = $1 AND deleted = false`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id, hash, token)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) SetStatus(ctx context.Context, id int64, status domain.UserStatus) error {
	// Deactivating also drops the live session.
	const q = `
		UPDATE users
		SET status = $2,
		    token = CASE WHEN $2 = 'active' THEN token ELSE '' END,
		    updated_at = now()
		WHERE id = $1 AND deleted = false`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) SoftDelete(ctx context.Context, id int64) error {
	const q = `UPDATE users SET deleted = true, token = '', updated_at = now() WHERE id = $1 AND deleted = false`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, f domain.ListFilter) ([]domain.User, int64, error) {
	limit, offset := clampPage(f.Limit, f.Offset)
	where := `deleted = false
		AND ($1 = '' OR full_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		AND ($2 = '' OR status = $2)`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	keyword := strings.TrimSpace(f.Keyword)
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users WHERE `+where, keyword, f.Status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+userCols+` FROM users WHERE `+where+` ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		keyword, f.Status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users WHERE deleted = false`).Scan(&n)
	return n, err
}
