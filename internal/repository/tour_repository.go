package repository

import (
	"context"
	"errors"
	"time"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TourRepository interface {
	List(ctx context.Context, f domain.TourFilter) ([]domain.Tour, int64, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Tour, error)
	GetByID(ctx context.Context, id int64) (*domain.Tour, error)
	Create(ctx context.Context, slug string, in *domain.TourInput) (*domain.Tour, error)
	Update(ctx context.Context, id int64, slug string, in *domain.TourInput) (*domain.Tour, error)
	SoftDelete(ctx context.Context, id int64) error
	SlugExists(ctx context.Context, slug string, exceptID int64) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type tourRepository struct {
	pool *pgxpool.Pool
}

func NewTourRepository(pool *pgxpool.Pool) TourRepository {
	return &tourRepository{pool: pool}
}

const tourCols = `id, title, slug, description, thumbnail, images, price, discount, status, position, deleted, created_at, updated_at`

var tourOrder = map[string]string{
	"price_asc":  "price * (100 - discount) ASC, id DESC",
	"price_desc": "price * (100 - discount) DESC, id DESC",
	"newest":     "created_at DESC",
	"position":   "position DESC, id DESC",
}

func scanTour(row rowScanner) (*domain.Tour, error) {
	var t domain.Tour
	err := row.Scan(&t.ID, &t.Title, &t.Slug, &t.Description, &t.Thumbnail, &t.Images, &t.Price, &t.Discount,
		&t.Status, &t.Position, &t.Deleted, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.Images = orEmpty(t.Images)
	t.Departures = []domain.Departure{}
	return &t, nil
}

func (r *tourRepository) List(ctx context.Context, f domain.TourFilter) ([]domain.Tour, int64, error) {
	limit, offset := clampPage(f.Limit, f.Offset)
	order, ok := tourOrder[f.Sort]
	if !ok {
		order = tourOrder["position"]
	}
	where := `deleted = false
		AND ($1 = '' OR title ILIKE '%' || $1 || '%')
		AND ($2 = '' OR status = $2)`
	status := f.Status
	if f.OnlyLive {
		status = string(domain.ItemActive)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM tours WHERE `+where, f.Keyword, status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+tourCols+` FROM tours WHERE `+where+` ORDER BY `+order+` LIMIT $3 OFFSET $4`,
		f.Keyword, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tours := []domain.Tour{}
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, 0, err
		}
		tours = append(tours, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachDepartures(ctx, tours, f.OnlyLive); err != nil {
		return nil, 0, err
	}
	return tours, total, nil
}

// attachDepartures loads departures for every tour with a single query.
func (r *tourRepository) attachDepartures(ctx context.Context, tours []domain.Tour, upcomingOnly bool) error {
	if len(tours) == 0 {
		return nil
	}
	ids := make([]int64, len(tours))
	index := make(map[int64]int, len(tours))
	for i, t := range tours {
		ids[i] = t.ID
		index[t.ID] = i
	}

	var after time.Time
	if upcomingOnly {
		after = time.Now()
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, tour_id, depart_at, stock FROM tour_departures
		WHERE tour_id = ANY($1) AND depart_at > $2
		ORDER BY depart_at`, ids, after)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var d domain.Departure
		var tourID int64
		if err := rows.Scan(&d.ID, &tourID, &d.DepartAt, &d.Stock); err != nil {
			return err
		}
		i := index[tourID]
		tours[i].Departures = append(tours[i].Departures, d)
	}
	return rows.Err()
}

func (r *tourRepository) getOne(ctx context.Context, where string, arg any) (*domain.Tour, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	t, err := scanTour(r.pool.QueryRow(ctx, `SELECT `+tourCols+` FROM tours WHERE `+where+` AND deleted = false`, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	one := []domain.Tour{*t}
	if err := r.attachDepartures(ctx, one, false); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (r *tourRepository) GetBySlug(ctx context.Context, slug string) (*domain.Tour, error) {
	return r.getOne(ctx, `slug = $1`, slug)
}

func (r *tourRepository) GetByID(ctx context.Context, id int64) (*domain.Tour, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *tourRepository) Create(ctx context.Context, slug string, in *domain.TourInput) (*domain.Tour, error) {
	const q = `
		INSERT INTO tours (title, slug, description, thumbnail, images, price, discount, status, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var id int64
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, q, in.Title, slug, in.Description, in.Thumbnail, orEmpty(in.Images),
			in.Price, in.Discount, string(in.Status), in.Position).Scan(&id)
		if err != nil {
			return err
		}
		return syncDepartures(ctx, tx, id, in.Departures)
	})
	if isUniqueViolation(err) {
		return nil, domain.ErrConflict
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *tourRepository) Update(ctx context.Context, id int64, slug string, in *domain.TourInput) (*domain.Tour, error) {
	const q = `
		UPDATE tours
		SET title = $2, slug = $3, description = $4, thumbnail = $5, images = $6,
		    price = $7, discount = $8, status = $9, position = $10, updated_at = now()
		WHERE id = $1 AND deleted = false`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, q, id, in.Title, slug, in.Description, in.Thumbnail, orEmpty(in.Images),
			in.Price, in.Discount, string(in.Status), in.Position)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return syncDepartures(ctx, tx, id, in.Departures)
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, nil
	case isUniqueViolation(err):
		return nil, domain.ErrConflict
	case err != nil:
		return nil, err
	}
	return r.GetByID(ctx, id)
}

// syncDepartures makes the stored departures of a tour equal to want.
func syncDepartures(ctx context.Context, tx pgx.Tx, tourID int64, want []domain.DepartureInput) error {
	keep := make([]time.Time, 0, len(want))
	for _, d := range want {
		_, err := tx.Exec(ctx, `
			INSERT INTO tour_departures (tour_id, depart_at, stock) VALUES ($1, $2, $3)
			ON CONFLICT (tour_id, depart_at) DO UPDATE SET stock = EXCLUDED.stock`,
			tourID, d.DepartAt, d.Stock)
		if err != nil {
			return err
		}
		keep = append(keep, d.DepartAt)
	}
	_, err := tx.Exec(ctx, `DELETE FROM tour_departures WHERE tour_id = $1 AND NOT (depart_at = ANY($2))`, tourID, keep)
	return err
}

func (r *tourRepository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE tours SET deleted = true, updated_at = now() WHERE id = $1 AND deleted = false`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *tourRepository) SlugExists(ctx context.Context, slug string, exceptID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tours WHERE slug = $1 AND id <> $2)`, slug, exceptID).Scan(&exists)
	return exists, err
}

func (r *tourRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM tours WHERE deleted = false`).Scan(&n)
	return n, err
}
