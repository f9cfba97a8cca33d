package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/internal/service"
)

func TestVoucherPreview(t *testing.T) {
	now := time.Now()
	repo := newMockVoucherRepo(
		&domain.Voucher{ID: 1, Code: "LIVE", DiscountPercent: 15, Quantity: 3, Status: domain.VoucherActive,
			StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)},
		&domain.Voucher{ID: 2, Code: "PAUSED", DiscountPercent: 15, Quantity: 3, Status: domain.VoucherPaused,
			StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)},
		&domain.Voucher{ID: 3, Code: "GONE", DiscountPercent: 15, Quantity: 3, Status: domain.VoucherActive,
			StartDate: now.Add(-48 * time.Hour), EndDate: now.Add(-time.Hour)},
		&domain.Voucher{ID: 4, Code: "USEDUP", DiscountPercent: 15, Quantity: 0, Status: domain.VoucherActive,
			StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)},
	)
	svc := service.NewVoucherService(repo)

	v, err := svc.Preview(context.Background(), " live ")
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if v.Code != "LIVE" || v.Status != domain.VoucherActive {
		t.Errorf("view = %+v", v)
	}

	for _, code := range []string{"PAUSED", "GONE", "USEDUP", "NOPE", ""} {
		if _, err := svc.Preview(context.Background(), code); !errors.Is(err, domain.ErrVoucherUnavailable) {
			t.Errorf("%q: err = %v, want ErrVoucherUnavailable", code, err)
		}
	}

	gone, err := svc.Get(context.Background(), 3)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if gone.Status != domain.VoucherExpired {
		t.Errorf("status = %s, want expired", gone.Status)
	}
	if _, err := svc.Get(context.Background(), 99); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing voucher: err = %v", err)
	}
}

func TestVoucherCreateValidates(t *testing.T) {
	svc := service.NewVoucherService(newMockVoucherRepo())
	_, err := svc.Create(context.Background(), &domain.VoucherInput{Code: "X", DiscountPercent: 0})
	if _, ok := domain.IsValidation(err); !ok {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestDashboardStats(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, 1)
	res := f.checkout(t, 1, "")
	f.svc.HandleReturn(context.Background(), res.OrderCode, "")

	users := newMockUserRepo()
	svc := service.NewDashboardService(users, f.tours, f.hotels, f.orders)
	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Tours != 1 || stats.Hotels != 1 || stats.Users != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.OrdersByState[domain.OrderPaid] != 1 || stats.PaidRevenue != res.Total {
		t.Errorf("orders = %v revenue = %d", stats.OrdersByState, stats.PaidRevenue)
	}
}
