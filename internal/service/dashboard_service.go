package service

import (
	"context"
	"fmt"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/internal/repository"
	"golang.org/x/sync/errgroup"
)

type DashboardService interface {
	Stats(ctx context.Context) (*domain.DashboardStats, error)
}

type dashboardService struct {
	users  repository.UserRepository
	tours  repository.TourRepository
	hotels repository.HotelRepository
	orders repository.OrderRepository
}

func NewDashboardService(users repository.UserRepository, tours repository.TourRepository,
	hotels repository.HotelRepository, orders repository.OrderRepository) DashboardService {
	return &dashboardService{users: users, tours: tours, hotels: hotels, orders: orders}
}

func (s *dashboardService) Stats(ctx context.Context) (*domain.DashboardStats, error) {
	var stats domain.DashboardStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.Users, err = s.users.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Tours, err = s.tours.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Hotels, err = s.hotels.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.OrdersByState, err = s.orders.CountByStatus(gctx)
		return err
	})
	g.Go(func() (err error) {
		stats.PaidRevenue, err = s.orders.PaidRevenue(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load dashboard: %w", err)
	}
	return &stats, nil
}
