package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/internal/repository"
	"golang.org/x/sync/errgroup"
)

type CartService interface {
	Detail(ctx context.Context, userID int64) (*domain.CartDetail, error)
	AddTour(ctx context.Context, userID int64, req *domain.AddTourRequest) (*domain.CartDetail, error)
	UpdateTour(ctx context.Context, userID int64, req *domain.AddTourRequest) (*domain.CartDetail, error)
	RemoveTour(ctx context.Context, userID int64, req *domain.RemoveTourRequest) (*domain.CartDetail, error)
	AddRoom(ctx context.Context, userID int64, req *domain.AddRoomRequest) (*domain.CartDetail, error)
	UpdateRoom(ctx context.Context, userID int64, req *domain.AddRoomRequest) (*domain.CartDetail, error)
	RemoveRoom(ctx context.Context, userID int64, req *domain.RemoveRoomRequest) (*domain.CartDetail, error)
}

type cartService struct {
	carts  repository.CartRepository
	tours  repository.TourRepository
	hotels repository.HotelRepository
	now    func() time.Time
}

func NewCartService(carts repository.CartRepository, tours repository.TourRepository, hotels repository.HotelRepository) CartService {
	return &cartService{carts: carts, tours: tours, hotels: hotels, now: time.Now}
}

func (s *cartService) load(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return cart, nil
}

func (s *cartService) save(ctx context.Context, cart *domain.Cart) (*domain.CartDetail, error) {
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}
	return s.detail(ctx, cart)
}

func (s *cartService) Detail(ctx context.Context, userID int64) (*domain.CartDetail, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, cart)
}

// detail joins every cart line with live catalogue data. Tours and hotels are
// fetched concurrently, each id once.
func (s *cartService) detail(ctx context.Context, cart *domain.Cart) (*domain.CartDetail, error) {
	var mu sync.Mutex
	tours := map[int64]*domain.Tour{}
	hotels := map[int64]*domain.Hotel{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, id := range uniqueIDs(len(cart.Tours), func(i int) int64 { return cart.Tours[i].TourID }) {
		id := id
		g.Go(func() error {
			t, err := s.tours.GetByID(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			tours[id] = t
			mu.Unlock()
			return nil
		})
	}
	for _, id := range uniqueIDs(len(cart.Rooms), func(i int) int64 { return cart.Rooms[i].HotelID }) {
		id := id
		g.Go(func() error {
			h, err := s.hotels.GetByID(gctx, id)
			if err != nil {
				return err
			}
			mu.Lock()
			hotels[id] = h
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}

	now := s.now()
	out := &domain.CartDetail{
		ID:    cart.ID,
		Tours: make([]domain.CartTourLine, 0, len(cart.Tours)),
		Rooms: make([]domain.CartRoomLine, 0, len(cart.Rooms)),
	}
	for _, l := range cart.Tours {
		line := domain.CartTourLine{CartTour: l}
		if t := tours[l.TourID]; t != nil {
			line.Title, line.Slug, line.Thumbnail = t.Title, t.Slug, t.Thumbnail
			line.UnitPrice = t.UnitPrice()
			if d, ok := t.Departure(l.DepartAt); ok {
				line.Stock = d.Stock
				line.Available = t.IsBookable() && d.DepartAt.After(now) && l.Quantity <= d.Stock
			}
		}
		line.LineTotal = line.UnitPrice * int64(l.Quantity)
		if line.Available {
			out.Total += line.LineTotal
		}
		out.Tours = append(out.Tours, line)
	}
	for _, l := range cart.Rooms {
		line := domain.CartRoomLine{CartRoom: l, Nights: domain.Nights(l.CheckIn, l.CheckOut)}
		if h := hotels[l.HotelID]; h != nil {
			line.HotelName = h.Name
			if rm, ok := h.Room(l.RoomID); ok {
				line.RoomName = rm.Name
				line.UnitPrice = rm.Price
				line.Stock = rm.Available
				line.Available = h.IsBookable() && rm.Status == domain.ItemActive && l.Quantity <= rm.Available
			}
		}
		line.LineTotal = line.UnitPrice * int64(line.Nights) * int64(l.Quantity)
		if line.Available {
			out.Total += line.LineTotal
		}
		out.Rooms = append(out.Rooms, line)
	}
	return out, nil
}

func uniqueIDs(n int, at func(int) int64) []int64 {
	seen := make(map[int64]bool, n)
	out := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		id := at(i)
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// checkTour verifies the tour departure can hold quantity seats right now.
func (s *cartService) checkTour(ctx context.Context, tourID int64, at time.Time, quantity int) error {
	if quantity < 1 {
		return domain.Invalid("quantity must be at least 1")
	}
	t, err := s.tours.GetByID(ctx, tourID)
	if err != nil {
		return fmt.Errorf("failed to load tour: %w", err)
	}
	if !t.IsBookable() {
		return domain.Invalid("tour is not available")
	}
	d, ok := t.Departure(at)
	if !ok {
		return domain.Invalid("departure does not exist")
	}
	if !d.DepartAt.After(s.now()) {
		return domain.Invalid("departure has already left")
	}
	if quantity > d.Stock {
		return fmt.Errorf("only %d seats left: %w", d.Stock, domain.ErrOutOfStock)
	}
	return nil
}

func (s *cartService) AddTour(ctx context.Context, userID int64, req *domain.AddTourRequest) (*domain.CartDetail, error) {
	if req.Quantity < 1 {
		return nil, domain.Invalid("quantity must be at least 1")
	}
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	qty := req.Quantity
	if i := cart.FindTour(req.TourID, req.DepartAt); i >= 0 {
		qty += cart.Tours[i].Quantity
	}
	if err := s.checkTour(ctx, req.TourID, req.DepartAt, qty); err != nil {
		return nil, err
	}

	cart.SetTour(domain.CartTour{TourID: req.TourID, DepartAt: req.DepartAt, Quantity: qty})
	return s.save(ctx, cart)
}

func (s *cartService) UpdateTour(ctx context.Context, userID int64, req *domain.AddTourRequest) (*domain.CartDetail, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.FindTour(req.TourID, req.DepartAt) < 0 {
		return nil, domain.ErrNotFound
	}
	if err := s.checkTour(ctx, req.TourID, req.DepartAt, req.Quantity); err != nil {
		return nil, err
	}

	cart.SetTour(domain.CartTour{TourID: req.TourID, DepartAt: req.DepartAt, Quantity: req.Quantity})
	return s.save(ctx, cart)
}

func (s *cartService) RemoveTour(ctx context.Context, userID int64, req *domain.RemoveTourRequest) (*domain.CartDetail, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !cart.RemoveTour(req.TourID, req.DepartAt) {
		return nil, domain.ErrNotFound
	}
	return s.save(ctx, cart)
}

// checkRoom verifies the stay dates and that the room has quantity units.
func (s *cartService) checkRoom(ctx context.Context, hotelID, roomID int64, in, out time.Time, quantity int) error {
	if quantity < 1 {
		return domain.Invalid("quantity must be at least 1")
	}
	if in.IsZero() || out.IsZero() {
		return domain.Invalid("checkIn and checkOut are required")
	}
	if domain.Nights(in, out) < 1 {
		return domain.Invalid("checkOut must be after checkIn")
	}
	if domain.Nights(s.now(), in) < 0 {
		return domain.Invalid("checkIn must not be in the past")
	}

	h, err := s.hotels.GetByID(ctx, hotelID)
	if err != nil {
		return fmt.Errorf("failed to load hotel: %w", err)
	}
	if !h.IsBookable() {
		return domain.Invalid("hotel is not available")
	}
	rm, ok := h.Room(roomID)
	if !ok || rm.Status != domain.ItemActive {
		return domain.Invalid("room is not available")
	}
	if quantity > rm.Available {
		return fmt.Errorf("only %d rooms left: %w", rm.Available, domain.ErrOutOfStock)
	}
	return nil
}

func (s *cartService) AddRoom(ctx context.Context, userID int64, req *domain.AddRoomRequest) (*domain.CartDetail, error) {
	if req.Quantity < 1 {
		return nil, domain.Invalid("quantity must be at least 1")
	}
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	qty := req.Quantity
	if i := cart.FindRoom(req.RoomID, req.CheckIn, req.CheckOut); i >= 0 {
		qty += cart.Rooms[i].Quantity
	}
	if err := s.checkRoom(ctx, req.HotelID, req.RoomID, req.CheckIn, req.CheckOut, qty); err != nil {
		return nil, err
	}

	cart.SetRoom(domain.CartRoom{
		HotelID:  req.HotelID,
		RoomID:   req.RoomID,
		Quantity: qty,
		CheckIn:  req.CheckIn,
		CheckOut: req.CheckOut,
	})
	return s.save(ctx, cart)
}

func (s *cartService) UpdateRoom(ctx context.Context, userID int64, req *domain.AddRoomRequest) (*domain.CartDetail, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	i := cart.FindRoom(req.RoomID, req.CheckIn, req.CheckOut)
	if i < 0 {
		return nil, domain.ErrNotFound
	}
	line := cart.Rooms[i]
	if err := s.checkRoom(ctx, line.HotelID, line.RoomID, line.CheckIn, line.CheckOut, req.Quantity); err != nil {
		return nil, err
	}

	line.Quantity = req.Quantity
	cart.SetRoom(line)
	return s.save(ctx, cart)
}

func (s *cartService) RemoveRoom(ctx context.Context, userID int64, req *domain.RemoveRoomRequest) (*domain.CartDetail, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !cart.RemoveRoom(req.RoomID, req.CheckIn, req.CheckOut) {
		return nil, domain.ErrNotFound
	}
	return s.save(ctx, cart)
}
