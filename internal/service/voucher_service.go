package service

import (
	"context"
	"fmt"
	"time"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/internal/repository"
)

type VoucherService interface {
	// Preview returns a voucher the storefront may apply right now.
	Preview(ctx context.Context, code string) (*domain.VoucherView, error)

	List(ctx context.Context, limit, offset int) ([]domain.VoucherView, int64, error)
	Get(ctx context.Context, id int64) (*domain.VoucherView, error)
	Create(ctx context.Context, in *domain.VoucherInput) (*domain.VoucherView, error)
	Update(ctx context.Context, id int64, in *domain.VoucherInput) (*domain.VoucherView, error)
	Delete(ctx context.Context, id int64) error
}

type voucherService struct {
	vouchers repository.VoucherRepository
	now      func() time.Time
}

func NewVoucherService(vouchers repository.VoucherRepository) VoucherService {
	return &voucherService{vouchers: vouchers, now: time.Now}
}

func (s *voucherService) Preview(ctx context.Context, code string) (*domain.VoucherView, error) {
	code = domain.NormalizeVoucherCode(code)
	if code == "" {
		return nil, domain.ErrVoucherUnavailable
	}
	v, err := s.vouchers.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to load voucher: %w", err)
	}
	now := s.now()
	if !v.Usable(now) {
		return nil, domain.ErrVoucherUnavailable
	}
	view := v.View(now)
	return &view, nil
}

func (s *voucherService) List(ctx context.Context, limit, offset int) ([]domain.VoucherView, int64, error) {
	limit, offset = pageOrDefault(limit, offset)
	items, total, err := s.vouchers.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list vouchers: %w", err)
	}
	now := s.now()
	out := make([]domain.VoucherView, 0, len(items))
	for i := range items {
		out = append(out, items[i].View(now))
	}
	return out, total, nil
}

func (s *voucherService) Get(ctx context.Context, id int64) (*domain.VoucherView, error) {
	v, err := s.vouchers.GetByID(ctx, id)
	return s.view(v, err)
}

func (s *voucherService) Create(ctx context.Context, in *domain.VoucherInput) (*domain.VoucherView, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	v, err := s.vouchers.Create(ctx, in)
	return s.view(v, err)
}

func (s *voucherService) Update(ctx context.Context, id int64, in *domain.VoucherInput) (*domain.VoucherView, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	v, err := s.vouchers.Update(ctx, id, in)
	return s.view(v, err)
}

func (s *voucherService) Delete(ctx context.Context, id int64) error {
	return s.vouchers.SoftDelete(ctx, id)
}

func (s *voucherService) view(v *domain.Voucher, err error) (*domain.VoucherView, error) {
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, domain.ErrNotFound
	}
	view := v.View(s.now())
	return &view, nil
}
