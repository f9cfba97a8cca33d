package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/internal/repository"
	"github.com/diagnosis/tourhub/internal/utils"
)

type CatalogService interface {
	ListTours(ctx context.Context, f domain.TourFilter) ([]domain.Tour, int64, error)
	TourBySlug(ctx context.Context, slug string) (*domain.Tour, error)
	GetTour(ctx context.Context, id int64) (*domain.Tour, error)
	CreateTour(ctx context.Context, in *domain.TourInput) (*domain.Tour, error)
	UpdateTour(ctx context.Context, id int64, in *domain.TourInput) (*domain.Tour, error)
	DeleteTour(ctx context.Context, id int64) error

	ListHotels(ctx context.Context, f domain.HotelFilter) ([]domain.Hotel, int64, error)
	HotelBySlug(ctx context.Context, slug string) (*domain.Hotel, error)
	GetHotel(ctx context.Context, id int64) (*domain.Hotel, error)
	CreateHotel(ctx context.Context, in *domain.HotelInput) (*domain.Hotel, error)
	UpdateHotel(ctx context.Context, id int64, in *domain.HotelInput) (*domain.Hotel, error)
	DeleteHotel(ctx context.Context, id int64) error

	CreateRoom(ctx context.Context, hotelID int64, in *domain.RoomInput) (*domain.Room, error)
	UpdateRoom(ctx context.Context, hotelID, roomID int64, in *domain.RoomInput) (*domain.Room, error)
	DeleteRoom(ctx context.Context, hotelID, roomID int64) error
}

type catalogService struct {
	tours  repository.TourRepository
	hotels repository.HotelRepository
}

func NewCatalogService(tours repository.TourRepository, hotels repository.HotelRepository) CatalogService {
	return &catalogService{tours: tours, hotels: hotels}
}

func (s *catalogService) ListTours(ctx context.Context, f domain.TourFilter) ([]domain.Tour, int64, error) {
	f.Limit, f.Offset = pageOrDefault(f.Limit, f.Offset)
	f.Keyword = strings.TrimSpace(f.Keyword)
	return s.tours.List(ctx, f)
}

// TourBySlug serves the storefront, so hidden tours are not found and only
// upcoming departures are listed.
func (s *catalogService) TourBySlug(ctx context.Context, slug string) (*domain.Tour, error) {
	t, err := s.tours.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load tour: %w", err)
	}
	if !t.IsBookable() {
		return nil, domain.ErrNotFound
	}
	now := time.Now()
	upcoming := t.Departures[:0:0]
	for _, d := range t.Departures {
		if d.DepartAt.After(now) {
			upcoming = append(upcoming, d)
		}
	}
	t.Departures = upcoming
	return t, nil
}

func (s *catalogService) GetTour(ctx context.Context, id int64) (*domain.Tour, error) {
	t, err := s.tours.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load tour: %w", err)
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (s *catalogService) CreateTour(ctx context.Context, in *domain.TourInput) (*domain.Tour, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	slug, err := utils.UniqueSlug(ctx, in.Title, func(ctx context.Context, c string) (bool, error) {
		return s.tours.SlugExists(ctx, c, 0)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build slug: %w", err)
	}
	return s.tours.Create(ctx, slug, in)
}

func (s *catalogService) UpdateTour(ctx context.Context, id int64, in *domain.TourInput) (*domain.Tour, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	slug, err := utils.UniqueSlug(ctx, in.Title, func(ctx context.Context, c string) (bool, error) {
		return s.tours.SlugExists(ctx, c, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build slug: %w", err)
	}
	t, err := s.tours.Update(ctx, id, slug, in)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (s *catalogService) DeleteTour(ctx context.Context, id int64) error {
	return s.tours.SoftDelete(ctx, id)
}

func (s *catalogService) ListHotels(ctx context.Context, f domain.HotelFilter) ([]domain.Hotel, int64, error) {
	f.Limit, f.Offset = pageOrDefault(f.Limit, f.Offset)
	f.Keyword = strings.TrimSpace(f.Keyword)
	f.City = strings.TrimSpace(f.City)
	return s.hotels.List(ctx, f)
}

func (s *catalogService) HotelBySlug(ctx context.Context, slug string) (*domain.Hotel, error) {
	h, err := s.hotels.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to load hotel: %w", err)
	}
	if !h.IsBookable() {
		return nil, domain.ErrNotFound
	}
	live := h.Rooms[:0:0]
	for _, rm := range h.Rooms {
		if rm.Status == domain.ItemActive {
			live = append(live, rm)
		}
	}
	h.Rooms = live
	return h, nil
}

func (s *catalogService) GetHotel(ctx context.Context, id int64) (*domain.Hotel, error) {
	h, err := s.hotels.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load hotel: %w", err)
	}
	if h == nil {
		return nil, domain.ErrNotFound
	}
	return h, nil
}

func (s *catalogService) CreateHotel(ctx context.Context, in *domain.HotelInput) (*domain.Hotel, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	slug, err := utils.UniqueSlug(ctx, in.Name, func(ctx context.Context, c string) (bool, error) {
		return s.hotels.SlugExists(ctx, c, 0)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build slug: %w", err)
	}
	return s.hotels.Create(ctx, slug, in)
}

func (s *catalogService) UpdateHotel(ctx context.Context, id int64, in *domain.HotelInput) (*domain.Hotel, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	slug, err := utils.UniqueSlug(ctx, in.Name, func(ctx context.Context, c string) (bool, error) {
		return s.hotels.SlugExists(ctx, c, id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build slug: %w", err)
	}
	h, err := s.hotels.Update(ctx, id, slug, in)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, domain.ErrNotFound
	}
	return h, nil
}

func (s *catalogService) DeleteHotel(ctx context.Context, id int64) error {
	return s.hotels.SoftDelete(ctx, id)
}

func (s *catalogService) CreateRoom(ctx context.Context, hotelID int64, in *domain.RoomInput) (*domain.Room, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	rm, err := s.hotels.CreateRoom(ctx, hotelID, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	if rm == nil {
		return nil, domain.ErrNotFound
	}
	return rm, nil
}

func (s *catalogService) UpdateRoom(ctx context.Context, hotelID, roomID int64, in *domain.RoomInput) (*domain.Room, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	rm, err := s.hotels.UpdateRoom(ctx, hotelID, roomID, in)
	if err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}
	if rm == nil {
		return nil, domain.ErrNotFound
	}
	return rm, nil
}

func (s *catalogService) DeleteRoom(ctx context.Context, hotelID, roomID int64) error {
	return s.hotels.DeleteRoom(ctx, hotelID, roomID)
}
