package domain

import (
	"strings"
	"time"
)

type VoucherStatus string

const (
	VoucherActive  VoucherStatus = "active"
	VoucherPaused  VoucherStatus = "paused"
	VoucherExpired VoucherStatus = "expired"
)

type Voucher struct {
	ID              int64         `json:"id"`
	Code            string        `json:"code"`
	Title           string        `json:"title"`
	DiscountPercent int           `json:"discountPercent"`
	Quantity        int           `json:"quantity"`
	StartDate       time.Time     `json:"startDate"`
	EndDate         time.Time     `json:"endDate"`
	Status          VoucherStatus `json:"status"`
	Deleted         bool          `json:"-"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// EffectiveStatus is the stored status, except that a voucher whose end date
// has passed is always expired.
func (v *Voucher) EffectiveStatus(now time.Time) VoucherStatus {
	if v.EndDate.Before(now) {
		return VoucherExpired
	}
	return v.Status
}

// Usable reports whether the voucher can be redeemed at now.
func (v *Voucher) Usable(now time.Time) bool {
	return v != nil && !v.Deleted &&
		v.EffectiveStatus(now) == VoucherActive &&
		!now.Before(v.StartDate) &&
		v.Quantity > 0
}

// VoucherView is a voucher as shown to clients, with the status resolved.
type VoucherView struct {
	Voucher
	Status VoucherStatus `json:"status"`
}

func (v *Voucher) View(now time.Time) VoucherView {
	return VoucherView{Voucher: *v, Status: v.EffectiveStatus(now)}
}

func NormalizeVoucherCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type VoucherInput struct {
	Code            string        `json:"code"`
	Title           string        `json:"title"`
	DiscountPercent int           `json:"discountPercent"`
	Quantity        int           `json:"quantity"`
	StartDate       time.Time     `json:"startDate"`
	EndDate         time.Time     `json:"endDate"`
	Status          VoucherStatus `json:"status"`
}

func (in *VoucherInput) Validate() error {
	in.Code = NormalizeVoucherCode(in.Code)
	if in.Code == "" {
		return Invalid("code is required")
	}
	if in.DiscountPercent < 1 || in.DiscountPercent > 100 {
		return Invalid("discountPercent must be between 1 and 100")
	}
	if in.Quantity < 0 {
		return Invalid("quantity must not be negative")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return Invalid("startDate and endDate are required")
	}
	if !in.EndDate.After(in.StartDate) {
		return Invalid("endDate must be after startDate")
	}
	if in.Status == "" {
		in.Status = VoucherActive
	}
	if in.Status != VoucherActive && in.Status != VoucherPaused {
		return Invalid("status must be active or paused")
	}
	return nil
}
