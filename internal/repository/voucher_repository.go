package repository

import (
	"context"
	"errors"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VoucherRepository interface {
	Create(ctx context.Context, in *domain.VoucherInput) (*domain.Voucher, error)
	Update(ctx context.Context, id int64, in *domain.VoucherInput) (*domain.Voucher, error)
	GetByID(ctx context.Context, id int64) (*domain.Voucher, error)
	GetByCode(ctx context.Context, code string) (*domain.Voucher, error)
	List(ctx context.Context, limit, offset int) ([]domain.Voucher, int64, error)
	SoftDelete(ctx context.Context, id int64) error
}

type voucherRepository struct {
	pool *pgxpool.Pool
}

func NewVoucherRepository(pool *pgxpool.Pool) VoucherRepository {
	return &voucherRepository{pool: pool}
}

const voucherCols = `id, code, title, discount_percent, quantity, start_date, end_date, status, deleted, created_at, updated_at`

func scanVoucher(row rowScanner) (*domain.Voucher, error) {
	var v domain.Voucher
	err := row.Scan(&v.ID, &v.Code, &v.Title, &v.DiscountPercent, &v.Quantity, &v.StartDate, &v.EndDate,
		&v.Status, &v.Deleted, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *voucherRepository) Create(ctx context.Context, in *domain.VoucherInput) (*domain.Voucher, error) {
	const q = `
		INSERT INTO vouchers (code, title, discount_percent, quantity, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + voucherCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	v, err := scanVoucher(r.pool.QueryRow(ctx, q, in.Code, in.Title, in.DiscountPercent, in.Quantity,
		in.StartDate, in.EndDate, string(in.Status)))
	if isUniqueViolation(err) {
		return nil, domain.ErrConflict
	}
	return v, err
}

func (r *voucherRepository) Update(ctx context.Context, id int64, in *domain.VoucherInput) (*domain.Voucher, error) {
	const q = `
		UPDATE vouchers
		SET code = $2, title = $3, discount_percent = $4, quantity = $5, start_date = $6, end_date = $7,
		    status = $8, updated_at = now()
		WHERE id = $1 AND deleted = false
		RETURNING ` + voucherCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	v, err := scanVoucher(r.pool.QueryRow(ctx, q, id, in.Code, in.Title, in.DiscountPercent, in.Quantity,
		in.StartDate, in.EndDate, string(in.Status)))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	case isUniqueViolation(err):
		return nil, domain.ErrConflict
	}
	return v, err
}

func (r *voucherRepository) GetByID(ctx context.Context, id int64) (*domain.Voucher, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	v, err := scanVoucher(r.pool.QueryRow(ctx, `SELECT `+voucherCols+` FROM vouchers WHERE id = $1 AND deleted = false`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

func (r *voucherRepository) GetByCode(ctx context.Context, code string) (*domain.Voucher, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	v, err := scanVoucher(r.pool.QueryRow(ctx, `SELECT `+voucherCols+` FROM vouchers WHERE code = $1 AND deleted = false`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return v, err
}

func (r *voucherRepository) List(ctx context.Context, limit, offset int) ([]domain.Voucher, int64, error) {
	limit, offset = clampPage(limit, offset)
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM vouchers WHERE deleted = false`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+voucherCols+` FROM vouchers WHERE deleted = false ORDER BY end_date DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []domain.Voucher{}
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *v)
	}
	return out, total, rows.Err()
}

func (r *voucherRepository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE vouchers SET deleted = true, updated_at = now() WHERE id = $1 AND deleted = false`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
