package repository

import (
	"context"
	"errors"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AccountRepository interface {
	Create(ctx context.Context, a *domain.Account) (*domain.Account, error)
	FindActiveByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	SetToken(ctx context.Context, id int64, token string) error
	Update(ctx context.Context, a *domain.Account) (*domain.Account, error)
	SoftDelete(ctx context.Context, id int64) error
	List(ctx context.Context, f domain.ListFilter) ([]domain.Account, int64, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

const accountCols = `id, full_name, email, password_hash, token, phone, avatar, role_id, status, deleted, created_at, updated_at`

func scanAccount(row rowScanner) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.FullName, &a.Email, &a.PasswordHash, &a.Token, &a.Phone, &a.Avatar,
		&a.RoleID, &a.Status, &a.Deleted, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *accountRepository) Create(ctx context.Context, in *domain.Account) (*domain.Account, error) {
	const q = `
		INSERT INTO accounts (full_name, email, password_hash, phone, avatar, role_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + accountCols

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	a, err := scanAccount(r.pool.QueryRow(ctx, q, in.FullName, in.Email, in.PasswordHash, in.Phone, in.Avatar, in.RoleID, string(in.Status)))
	if isUniqueViolation(err) {
		return nil, domain.ErrEmailTaken
	}
	return a, err
}

func (r *accountRepository) FindActiveByEmail(ctx context.Context, email string) (*domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM accounts WHERE lower(email) = lower($1) AND deleted = false`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	a, err := scanAccount(r.pool.QueryRow(ctx, q, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *accountRepository) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	const q = `SELECT ` + accountCols + ` FROM accounts WHERE id = $1 AND deleted = false`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	a, err := scanAccount(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *accountRepository) SetToken(ctx context.Context, id int64, token string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `UPDATE accounts SET token = $2, updated_at = now() WHERE id = $1`, id, token)
	return err
}

// Update writes every editable column. An empty PasswordHash keeps the current one.
func (r *accountRepository) Update(ctx context.Context, in *domain.Account) (*domain.Account, error) {
	const q = `
		UPDATE accounts
		SET full_name = $2,
		    email = $3,
		    password_hash = CASE WHEN $4 = '' THEN password_hash ELSE $4 END,
		    phone = $5,
		    avatar = $6,
		    role_id = $7,
		    status = $8,
		    token = CASE WHEN $8 = 'active' THEN token ELSE '' END,
		    updated_at = now()
		WHERE id = $1 AND deleted = false
		RETURNING ` + accountCols

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	a, err := scanAccount(r.pool.QueryRow(ctx, q, in.ID, in.FullName, in.Email, in.PasswordHash, in.Phone, in.Avatar, in.RoleID, string(in.Status)))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	case isUniqueViolation(err):
		return nil, domain.ErrEmailTaken
	}
	return a, err
}

func (r *accountRepository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE accounts SET deleted = true, token = '', updated_at = now() WHERE id = $1 AND deleted = false`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *accountRepository) List(ctx context.Context, f domain.ListFilter) ([]domain.Account, int64, error) {
	limit, offset := clampPage(f.Limit, f.Offset)
	where := `deleted = false
		AND ($1 = '' OR full_name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		AND ($2 = '' OR status = $2)`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM accounts WHERE `+where, f.Keyword, f.Status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE `+where+` ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		f.Keyword, f.Status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []domain.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *a)
	}
	return out, total, rows.Err()
}
