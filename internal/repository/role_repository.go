package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoleRepository interface {
	Create(ctx context.Context, in *domain.RoleInput) (*domain.Role, error)
	Update(ctx context.Context, id int64, in *domain.RoleInput) (*domain.Role, error)
	FindByID(ctx context.Context, id int64) (*domain.Role, error)
	List(ctx context.Context) ([]*domain.Role, error)
	SoftDelete(ctx context.Context, id int64) error
	// SetPermissions replaces the permission lists of several roles atomically.
	SetPermissions(ctx context.Context, items []domain.RolePermissions) error
}

type roleRepository struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &roleRepository{pool: pool}
}

const roleCols = `id, title, description, permissions, deleted, created_at, updated_at`

func scanRole(row rowScanner) (*domain.Role, error) {
	var r domain.Role
	if err := row.Scan(&r.ID, &r.Title, &r.Description, &r.Permissions, &r.Deleted, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Permissions = orEmpty(r.Permissions)
	return &r, nil
}

func (r *roleRepository) Create(ctx context.Context, in *domain.RoleInput) (*domain.Role, error) {
	const q = `INSERT INTO roles (title, description, permissions) VALUES ($1, $2, $3) RETURNING ` + roleCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return scanRole(r.pool.QueryRow(ctx, q, in.Title, in.Description, orEmpty(in.Permissions)))
}

func (r *roleRepository) Update(ctx context.Context, id int64, in *domain.RoleInput) (*domain.Role, error) {
	const q = `
		UPDATE roles
		SET title = $2, description = $3, permissions = $4, updated_at = now()
		WHERE id = $1 AND deleted = false
		RETURNING ` + roleCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	role, err := scanRole(r.pool.QueryRow(ctx, q, id, in.Title, in.Description, orEmpty(in.Permissions)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return role, err
}

func (r *roleRepository) FindByID(ctx context.Context, id int64) (*domain.Role, error) {
	const q = `SELECT ` + roleCols + ` FROM roles WHERE id = $1 AND deleted = false`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	role, err := scanRole(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return role, err
}

func (r *roleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	const q = `SELECT ` + roleCols + ` FROM roles WHERE deleted = false ORDER BY id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []*domain.Role{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *roleRepository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE roles SET deleted = true, updated_at = now() WHERE id = $1 AND deleted = false`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		_, err = tx.Exec(ctx, `UPDATE accounts SET role_id = NULL, updated_at = now() WHERE role_id = $1`, id)
		return err
	})
}

func (r *roleRepository) SetPermissions(ctx context.Context, items []domain.RolePermissions) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, it := range items {
			tag, err := tx.Exec(ctx,
				`UPDATE roles SET permissions = $2, updated_at = now() WHERE id = $1 AND deleted = false`,
				it.ID, orEmpty(it.Permissions))
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("role %d: %w", it.ID, domain.ErrNotFound)
			}
		}
		return nil
	})
}
