package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderPaid     OrderStatus = "paid"
	OrderFailed   OrderStatus = "failed"
	OrderCanceled OrderStatus = "canceled"
)

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderPending, OrderPaid, OrderFailed, OrderCanceled:
		return OrderStatus(s), true
	default:
		return "", false
	}
}

// HoldsStock reports whether an order in this status still owns the seats and
// rooms it decremented.
func (s OrderStatus) HoldsStock() bool {
	return s == OrderPending || s == OrderPaid
}

type Customer struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Note     string `json:"note"`
}

// OrderTour is a priced snapshot taken at checkout; catalogue edits never
// reach it.
type OrderTour struct {
	TourID    int64     `json:"tourId"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	DepartAt  time.Time `json:"departAt"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unitPrice"`
}

type OrderRoom struct {
	HotelID   int64     `json:"hotelId"`
	RoomID    int64     `json:"roomId"`
	HotelName string    `json:"hotelName"`
	RoomName  string    `json:"roomName"`
	CheckIn   time.Time `json:"checkIn"`
	CheckOut  time.Time `json:"checkOut"`
	Nights    int       `json:"nights"`
	Quantity  int       `json:"quantity"`
	UnitPrice int64     `json:"unitPrice"`
}

func (r OrderRoom) LineTotal() int64 {
	return r.UnitPrice * int64(r.Nights) * int64(r.Quantity)
}

type Order struct {
	ID              int64       `json:"id"`
	Code            string      `json:"code"`
	UserID          int64       `json:"userId"`
	Customer        Customer    `json:"customer"`
	Tours           []OrderTour `json:"tours"`
	Rooms           []OrderRoom `json:"rooms"`
	VoucherCode     string      `json:"voucherCode,omitempty"`
	DiscountPercent int         `json:"discountPercent"`
	Subtotal        int64       `json:"subtotal"`
	Total           int64       `json:"total"`
	Status          OrderStatus `json:"status"`
	PaymentRef      string      `json:"-"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// ComputeTotals fills Subtotal and Total from the line snapshots and the
// voucher percentage.
func (o *Order) ComputeTotals() {
	var sub int64
	for _, t := range o.Tours {
		sub += t.UnitPrice * int64(t.Quantity)
	}
	for _, r := range o.Rooms {
		sub += r.LineTotal()
	}
	o.Subtotal = sub
	o.Total = DiscountedPrice(sub, o.DiscountPercent)
}

// NewOrderCode returns a short, human-friendly unique order reference.
func NewOrderCode() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TH" + strings.ToUpper(id[:10])
}

type CheckoutRequest struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Note        string `json:"note"`
	VoucherCode string `json:"voucherCode"`
}

type CheckoutResult struct {
	OrderCode  string `json:"orderCode"`
	PaymentURL string `json:"paymentUrl"`
	Total      int64  `json:"total"`
}

type OrderFilter struct {
	UserID *int64
	Status string
	Limit  int
	Offset int
}
