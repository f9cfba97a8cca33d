package repository

import (
	"context"
	"errors"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HotelRepository interface {
	List(ctx context.Context, f domain.HotelFilter) ([]domain.Hotel, int64, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Hotel, error)
	GetByID(ctx context.Context, id int64) (*domain.Hotel, error)
	Create(ctx context.Context, slug string, in *domain.HotelInput) (*domain.Hotel, error)
	Update(ctx context.Context, id int64, slug string, in *domain.HotelInput) (*domain.Hotel, error)
	SoftDelete(ctx context.Context, id int64) error
	SlugExists(ctx context.Context, slug string, exceptID int64) (bool, error)
	Count(ctx context.Context) (int64, error)

	GetRoom(ctx context.Context, hotelID, roomID int64) (*domain.Room, error)
	CreateRoom(ctx context.Context, hotelID int64, in *domain.RoomInput) (*domain.Room, error)
	UpdateRoom(ctx context.Context, hotelID, roomID int64, in *domain.RoomInput) (*domain.Room, error)
	DeleteRoom(ctx context.Context, hotelID, roomID int64) error
}

type hotelRepository struct {
	pool *pgxpool.Pool
}

func NewHotelRepository(pool *pgxpool.Pool) HotelRepository {
	return &hotelRepository{pool: pool}
}

const (
	hotelCols = `id, name, slug, description, address, city, thumbnail, images, status, deleted, created_at, updated_at`
	roomCols  = `id, hotel_id, name, price, available, status, created_at, updated_at`
)

func scanHotel(row rowScanner) (*domain.Hotel, error) {
	var h domain.Hotel
	err := row.Scan(&h.ID, &h.Name, &h.Slug, &h.Description, &h.Address, &h.City, &h.Thumbnail, &h.Images,
		&h.Status, &h.Deleted, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	h.Images = orEmpty(h.Images)
	h.Rooms = []domain.Room{}
	return &h, nil
}

func scanRoom(row rowScanner) (*domain.Room, error) {
	var rm domain.Room
	if err := row.Scan(&rm.ID, &rm.HotelID, &rm.Name, &rm.Price, &rm.Available, &rm.Status, &rm.CreatedAt, &rm.UpdatedAt); err != nil {
		return nil, err
	}
	return &rm, nil
}

func (r *hotelRepository) List(ctx context.Context, f domain.HotelFilter) ([]domain.Hotel, int64, error) {
	limit, offset := clampPage(f.Limit, f.Offset)
	where := `deleted = false
		AND ($1 = '' OR name ILIKE '%' || $1 || '%')
		AND ($2 = '' OR city ILIKE $2)
		AND ($3 = '' OR status = $3)`
	status := f.Status
	if f.OnlyLive {
		status = string(domain.ItemActive)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM hotels WHERE `+where, f.Keyword, f.City, status).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+hotelCols+` FROM hotels WHERE `+where+` ORDER BY id DESC LIMIT $4 OFFSET $5`,
		f.Keyword, f.City, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	hotels := []domain.Hotel{}
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, 0, err
		}
		hotels = append(hotels, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.attachRooms(ctx, hotels, f.OnlyLive); err != nil {
		return nil, 0, err
	}
	return hotels, total, nil
}

func (r *hotelRepository) attachRooms(ctx context.Context, hotels []domain.Hotel, activeOnly bool) error {
	if len(hotels) == 0 {
		return nil
	}
	ids := make([]int64, len(hotels))
	index := make(map[int64]int, len(hotels))
	for i, h := range hotels {
		ids[i] = h.ID
		index[h.ID] = i
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+roomCols+` FROM rooms WHERE hotel_id = ANY($1) AND ($2 = false OR status = 'active') ORDER BY price, id`,
		ids, activeOnly)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return err
		}
		i := index[rm.HotelID]
		hotels[i].Rooms = append(hotels[i].Rooms, *rm)
	}
	return rows.Err()
}

func (r *hotelRepository) getOne(ctx context.Context, where string, arg any) (*domain.Hotel, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	h, err := scanHotel(r.pool.QueryRow(ctx, `SELECT `+hotelCols+` FROM hotels WHERE `+where+` AND deleted = false`, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	one := []domain.Hotel{*h}
	if err := r.attachRooms(ctx, one, false); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (r *hotelRepository) GetBySlug(ctx context.Context, slug string) (*domain.Hotel, error) {
	return r.getOne(ctx, `slug = $1`, slug)
}

func (r *hotelRepository) GetByID(ctx context.Context, id int64) (*domain.Hotel, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *hotelRepository) Create(ctx context.Context, slug string, in *domain.HotelInput) (*domain.Hotel, error) {
	const q = `
		INSERT INTO hotels (name, slug, description, address, city, thumbnail, images, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + hotelCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	h, err := scanHotel(r.pool.QueryRow(ctx, q, in.Name, slug, in.Description, in.Address, in.City, in.Thumbnail,
		orEmpty(in.Images), string(in.Status)))
	if isUniqueViolation(err) {
		return nil, domain.ErrConflict
	}
	return h, err
}

func (r *hotelRepository) Update(ctx context.Context, id int64, slug string, in *domain.HotelInput) (*domain.Hotel, error) {
	const q = `
		UPDATE hotels
		SET name = $2, slug = $3, description = $4, address = $5, city = $6, thumbnail = $7,
		    images = $8, status = $9, updated_at = now()
		WHERE id = $1 AND deleted = false
		RETURNING id`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var got int64
	err := r.pool.QueryRow(ctx, q, id, in.Name, slug, in.Description, in.Address, in.City, in.Thumbnail,
		orEmpty(in.Images), string(in.Status)).Scan(&got)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	case isUniqueViolation(err):
		return nil, domain.ErrConflict
	case err != nil:
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *hotelRepository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `UPDATE hotels SET deleted = true, updated_at = now() WHERE id = $1 AND deleted = false`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *hotelRepository) SlugExists(ctx context.Context, slug string, exceptID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM hotels WHERE slug = $1 AND id <> $2)`, slug, exceptID).Scan(&exists)
	return exists, err
}

func (r *hotelRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var n int64
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM hotels WHERE deleted = false`).Scan(&n)
	return n, err
}

func (r *hotelRepository) GetRoom(ctx context.Context, hotelID, roomID int64) (*domain.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rm, err := scanRoom(r.pool.QueryRow(ctx, `SELECT `+roomCols+` FROM rooms WHERE id = $1 AND hotel_id = $2`, roomID, hotelID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rm, err
}

func (r *hotelRepository) CreateRoom(ctx context.Context, hotelID int64, in *domain.RoomInput) (*domain.Room, error) {
	const q = `
		INSERT INTO rooms (hotel_id, name, price, available, status)
		SELECT $1, $2, $3, $4, $5 WHERE EXISTS (SELECT 1 FROM hotels WHERE id = $1 AND deleted = false)
		RETURNING ` + roomCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rm, err := scanRoom(r.pool.QueryRow(ctx, q, hotelID, in.Name, in.Price, in.Available, string(in.Status)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rm, err
}

func (r *hotelRepository) UpdateRoom(ctx context.Context, hotelID, roomID int64, in *domain.RoomInput) (*domain.Room, error) {
	const q = `
		UPDATE rooms SET name = $3, price = $4, available = $5, status = $6, updated_at = now()
		WHERE id = $1 AND hotel_id = $2
		RETURNING ` + roomCols
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rm, err := scanRoom(r.pool.QueryRow(ctx, q, roomID, hotelID, in.Name, in.Price, in.Available, string(in.Status)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rm, err
}

func (r *hotelRepository) DeleteRoom(ctx context.Context, hotelID, roomID int64) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, `DELETE FROM rooms WHERE id = $1 AND hotel_id = $2`, roomID, hotelID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
