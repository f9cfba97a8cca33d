package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepository interface {
	// Place reserves stock, redeems the voucher and inserts the order in one
	// transaction. It fails with domain.ErrOutOfStock or
	// domain.ErrVoucherUnavailable without side effects.
	Place(ctx context.Context, o *domain.Order) error
	// Transition moves an order to status to if its current status is in
	// from. Leaving a stock-holding status returns seats, rooms and the
	// voucher. changed is false when the order was not in an allowed status.
	Transition(ctx context.Context, code string, from []domain.OrderStatus, to domain.OrderStatus) (o *domain.Order, changed bool, err error)
	SetPaymentRef(ctx context.Context, code, ref string) error
	GetByCode(ctx context.Context, code string) (*domain.Order, error)
	List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error)
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error)
	PaidRevenue(ctx context.Context) (int64, error)
}

type orderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

const orderCols = `id, code, user_id, customer, tours, rooms, voucher_code, discount_percent, subtotal, total, status, payment_ref, created_at, updated_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.Code, &o.UserID, &o.Customer, &o.Tours, &o.Rooms, &o.VoucherCode, &o.DiscountPercent,
		&o.Subtotal, &o.Total, &o.Status, &o.PaymentRef, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Tours = orEmpty(o.Tours)
	o.Rooms = orEmpty(o.Rooms)
	return &o, nil
}

func (r *orderRepository) Place(ctx context.Context, o *domain.Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, t := range o.Tours {
			tag, err := tx.Exec(ctx, `
				UPDATE tour_departures d SET stock = d.stock - $3
				FROM tours t
				WHERE d.tour_id = $1 AND d.depart_at = $2 AND d.stock >= $3
				  AND t.id = d.tour_id AND t.deleted = false AND t.status = 'active'`,
				t.TourID, t.DepartAt, t.Quantity)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%s: %w", t.Title, domain.ErrOutOfStock)
			}
		}

		for _, rm := range o.Rooms {
			tag, err := tx.Exec(ctx, `
				UPDATE rooms SET available = available - $2, updated_at = now()
				WHERE id = $1 AND available >= $2 AND status = 'active'`,
				rm.RoomID, rm.Quantity)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("%s %s: %w", rm.HotelName, rm.RoomName, domain.ErrOutOfStock)
			}
		}

		if o.VoucherCode != "" {
			err := tx.QueryRow(ctx, `
				UPDATE vouchers SET quantity = quantity - 1, updated_at = now()
				WHERE code = $1 AND deleted = false AND status = 'active'
				  AND start_date <= now() AND end_date >= now() AND quantity > 0
				RETURNING discount_percent`, o.VoucherCode).Scan(&o.DiscountPercent)
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrVoucherUnavailable
			}
			if err != nil {
				return err
			}
		}
		o.ComputeTotals()

		return tx.QueryRow(ctx, `
			INSERT INTO orders (code, user_id, customer, tours, rooms, voucher_code, discount_percent, subtotal, total, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id, created_at, updated_at`,
			o.Code, o.UserID, o.Customer, orEmpty(o.Tours), orEmpty(o.Rooms), o.VoucherCode, o.DiscountPercent,
			o.Subtotal, o.Total, string(o.Status)).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	})
}

func (r *orderRepository) Transition(ctx context.Context, code string, from []domain.OrderStatus, to domain.OrderStatus) (*domain.Order, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var out *domain.Order
	var changed bool
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		o, err := scanOrder(tx.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE code = $1 FOR UPDATE`, code))
		if err != nil {
			return err
		}
		out = o

		allowed := false
		for _, s := range from {
			if o.Status == s {
				allowed = true
				break
			}
		}
		if !allowed || o.Status == to {
			return nil
		}

		if o.Status.HoldsStock() && !to.HoldsStock() {
			if err := restock(ctx, tx, o); err != nil {
				return err
			}
		}

		if err := tx.QueryRow(ctx,
			`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1 RETURNING updated_at`,
			o.ID, string(to)).Scan(&o.UpdatedAt); err != nil {
			return err
		}
		o.Status = to
		changed = true
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return out, changed, nil
}

func restock(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	for _, t := range o.Tours {
		if _, err := tx.Exec(ctx,
			`UPDATE tour_departures SET stock = stock + $3 WHERE tour_id = $1 AND depart_at = $2`,
			t.TourID, t.DepartAt, t.Quantity); err != nil {
			return err
		}
	}
	for _, rm := range o.Rooms {
		if _, err := tx.Exec(ctx,
			`UPDATE rooms SET available = available + $2, updated_at = now() WHERE id = $1`,
			rm.RoomID, rm.Quantity); err != nil {
			return err
		}
	}
	if o.VoucherCode != "" {
		if _, err := tx.Exec(ctx,
			`UPDATE vouchers SET quantity = quantity + 1, updated_at = now() WHERE code = $1 AND deleted = false`,
			o.VoucherCode); err != nil {
			return err
		}
	}
	return nil
}

func (r *orderRepository) SetPaymentRef(ctx context.Context, code, ref string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := r.pool.Exec(ctx, `UPDATE orders SET payment_ref = $2, updated_at = now() WHERE code = $1`, code, ref)
	return err
}

func (r *orderRepository) GetByCode(ctx context.Context, code string) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE code = $1`, code))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return o, err
}

func (r *orderRepository) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	limit, offset := clampPage(f.Limit, f.Offset)
	where := `($1::bigint IS NULL OR user_id = $1) AND ($2 = '' OR status = $2)`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders WHERE `+where, f.UserID, f.Status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+orderCols+` FROM orders WHERE `+where+` ORDER BY created_at DESC LIMIT $3 OFFSET $4`,
		f.UserID, f.Status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *o)
	}
	return out, total, rows.Err()
}

func (r *orderRepository) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[domain.OrderStatus]int64{
		domain.OrderPending: 0, domain.OrderPaid: 0, domain.OrderFailed: 0, domain.OrderCanceled: 0,
	}
	for rows.Next() {
		var s domain.OrderStatus
		var n int64
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}

func (r *orderRepository) PaidRevenue(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(sum(total), 0)::bigint FROM orders WHERE status = 'paid'`).Scan(&n)
	return n, err
}
