package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/internal/payment"
	"github.com/diagnosis/tourhub/internal/repository"
	"github.com/diagnosis/tourhub/internal/utils"
	"github.com/diagnosis/tourhub/pkg/events"
	"github.com/diagnosis/tourhub/pkg/logger"
)

type OrderService interface {
	// Checkout turns the user's cart into a pending order, reserving stock,
	// and opens a hosted payment page for it.
	Checkout(ctx context.Context, userID int64, req *domain.CheckoutRequest) (*domain.CheckoutResult, error)
	// HandleReturn settles an order when the buyer comes back from the payment
	// page and reports the outcome for the result page.
	HandleReturn(ctx context.Context, orderCode, sessionID string) (domain.PaymentResult, *domain.Order)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error

	ListMine(ctx context.Context, userID int64, limit, offset int) ([]domain.Order, int64, error)
	GetMine(ctx context.Context, userID int64, code string) (*domain.Order, error)
	List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error)
	Get(ctx context.Context, code string) (*domain.Order, error)
	SetStatus(ctx context.Context, code, status string) (*domain.Order, error)
}

type orderService struct {
	orders    repository.OrderRepository
	carts     repository.CartRepository
	tours     repository.TourRepository
	hotels    repository.HotelRepository
	vouchers  repository.VoucherRepository
	gateway   payment.Gateway
	eventBus  events.Publisher
	publicURL string
	now       func() time.Time
}

func NewOrderService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	tours repository.TourRepository,
	hotels repository.HotelRepository,
	vouchers repository.VoucherRepository,
	gateway payment.Gateway,
	eventBus events.Publisher,
	publicURL string,
) OrderService {
	return &orderService{
		orders:    orders,
		carts:     carts,
		tours:     tours,
		hotels:    hotels,
		vouchers:  vouchers,
		gateway:   gateway,
		eventBus:  eventBus,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

func (s *orderService) Checkout(ctx context.Context, userID int64, req *domain.CheckoutRequest) (*domain.CheckoutResult, error) {
	customer, err := normalizeCustomer(req)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.IsEmpty() {
		checkoutFailures.WithLabelValues("empty_cart").Inc()
		return nil, domain.ErrEmptyCart
	}

	order := &domain.Order{
		Code:     domain.NewOrderCode(),
		UserID:   userID,
		Customer: customer,
		Status:   domain.OrderPending,
	}
	if err := s.snapshot(ctx, cart, order); err != nil {
		return nil, err
	}

	if code := domain.NormalizeVoucherCode(req.VoucherCode); code != "" {
		v, err := s.vouchers.GetByCode(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to load voucher: %w", err)
		}
		if !v.Usable(s.now()) {
			checkoutFailures.WithLabelValues("voucher").Inc()
			return nil, domain.ErrVoucherUnavailable
		}
		order.VoucherCode = v.Code
		order.DiscountPercent = v.DiscountPercent
	}
	order.ComputeTotals()

	if err := s.orders.Place(ctx, order); err != nil {
		switch {
		case errors.Is(err, domain.ErrOutOfStock):
			checkoutFailures.WithLabelValues("stock").Inc()
			return nil, err
		case errors.Is(err, domain.ErrVoucherUnavailable):
			checkoutFailures.WithLabelValues("voucher").Inc()
			return nil, err
		}
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	orderTransitions.WithLabelValues(string(domain.OrderPending)).Inc()
	logger.InfoContext(ctx, "Order placed", "order_code", order.Code, "total", order.Total)
	s.publish(ctx, events.OrderCreated, order)

	if order.Total == 0 {
		result, _ := s.settle(ctx, order.Code, domain.PaymentSuccess)
		return &domain.CheckoutResult{OrderCode: order.Code, Total: 0, PaymentURL: s.returnURL(order.Code, string(result))}, nil
	}

	sess, err := s.gateway.CreateCheckout(ctx, payment.CheckoutInput{
		OrderCode:   order.Code,
		Email:       order.Customer.Email,
		Description: describe(order),
		Amount:      order.Total,
		SuccessURL:  s.returnURL(order.Code, "") + "&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   s.returnURL(order.Code, "cancel"),
	})
	if err != nil {
		logger.ErrorContext(ctx, "Payment session failed, releasing order", "error", err, "order_code", order.Code)
		s.release(ctx, order.Code)
		checkoutFailures.WithLabelValues("gateway").Inc()
		return nil, fmt.Errorf("failed to open payment page: %w", err)
	}
	if err := s.orders.SetPaymentRef(ctx, order.Code, sess.ID); err != nil {
		logger.ErrorContext(ctx, "Failed to store payment reference, releasing order", "error", err, "order_code", order.Code)
		if xerr := s.gateway.Expire(ctx, sess.ID); xerr != nil {
			logger.WarnContext(ctx, "Failed to expire payment session", "error", xerr, "session_id", sess.ID)
		}
		s.release(ctx, order.Code)
		checkoutFailures.WithLabelValues("payment_ref").Inc()
		return nil, fmt.Errorf("failed to store payment reference: %w", err)
	}

	return &domain.CheckoutResult{OrderCode: order.Code, PaymentURL: sess.URL, Total: order.Total}, nil
}

// release fails a pending order so its stock and voucher go back.
func (s *orderService) release(ctx context.Context, code string) {
	if _, _, err := s.orders.Transition(ctx, code, []domain.OrderStatus{domain.OrderPending}, domain.OrderFailed); err != nil {
		logger.ErrorContext(ctx, "Failed to release order", "error", err, "order_code", code)
	}
}

func normalizeCustomer(req *domain.CheckoutRequest) (domain.Customer, error) {
	c := domain.Customer{
		FullName: strings.TrimSpace(req.FullName),
		Email:    utils.NormalizeEmail(req.Email),
		Phone:    utils.NormalizePhone(req.Phone),
		Note:     strings.TrimSpace(req.Note),
	}
	switch {
	case c.FullName == "":
		return c, domain.Invalid("fullName is required")
	case !utils.IsValidEmail(c.Email):
		return c, domain.Invalid("email is invalid")
	case c.Phone == "" || !utils.IsValidPhone(c.Phone):
		return c, domain.Invalid("phone is invalid")
	}
	return c, nil
}

// snapshot copies every cart line into the order at today's prices.
func (s *orderService) snapshot(ctx context.Context, cart *domain.Cart, order *domain.Order) error {
	now := s.now()
	order.Tours = make([]domain.OrderTour, 0, len(cart.Tours))
	order.Rooms = make([]domain.OrderRoom, 0, len(cart.Rooms))

	for _, l := range cart.Tours {
		t, err := s.tours.GetByID(ctx, l.TourID)
		if err != nil {
			return fmt.Errorf("failed to load tour: %w", err)
		}
		if !t.IsBookable() {
			return domain.Invalid("a tour in your cart is no longer available")
		}
		d, ok := t.Departure(l.DepartAt)
		if !ok || !d.DepartAt.After(now) {
			return domain.Invalid("%s: departure is no longer available", t.Title)
		}
		order.Tours = append(order.Tours, domain.OrderTour{
			TourID:    t.ID,
			Title:     t.Title,
			Slug:      t.Slug,
			DepartAt:  l.DepartAt,
			Quantity:  l.Quantity,
			UnitPrice: t.UnitPrice(),
		})
	}

	for _, l := range cart.Rooms {
		h, err := s.hotels.GetByID(ctx, l.HotelID)
		if err != nil {
			return fmt.Errorf("failed to load hotel: %w", err)
		}
		if !h.IsBookable() {
			return domain.Invalid("a hotel in your cart is no longer available")
		}
		rm, ok := h.Room(l.RoomID)
		if !ok || rm.Status != domain.ItemActive {
			return domain.Invalid("%s: room is no longer available", h.Name)
		}
		if domain.Nights(now, l.CheckIn) < 0 {
			return domain.Invalid("%s: check-in date has passed", h.Name)
		}
		order.Rooms = append(order.Rooms, domain.OrderRoom{
			HotelID:   h.ID,
			RoomID:    rm.ID,
			HotelName: h.Name,
			RoomName:  rm.Name,
			CheckIn:   l.CheckIn,
			CheckOut:  l.CheckOut,
			Nights:    domain.Nights(l.CheckIn, l.CheckOut),
			Quantity:  l.Quantity,
			UnitPrice: rm.Price,
		})
	}
	return nil
}

func describe(o *domain.Order) string {
	n := len(o.Tours) + len(o.Rooms)
	if n == 1 {
		if len(o.Tours) == 1 {
			return o.Tours[0].Title
		}
		return o.Rooms[0].HotelName + " - " + o.Rooms[0].RoomName
	}
	return fmt.Sprintf("TourHub order %s (%d items)", o.Code, n)
}

func (s *orderService) returnURL(code, status string) string {
	u := s.publicURL + "/api/v1/payments/return?orderCode=" + url.QueryEscape(code)
	if status != "" {
		u += "&status=" + url.QueryEscape(status)
	}
	return u
}

func (s *orderService) HandleReturn(ctx context.Context, orderCode, sessionID string) (domain.PaymentResult, *domain.Order) {
	orderCode = strings.TrimSpace(orderCode)
	if orderCode == "" {
		return domain.PaymentInvalid, nil
	}
	order, err := s.orders.GetByCode(ctx, orderCode)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load order on payment return", "error", err, "order_code", orderCode)
		return domain.PaymentError, nil
	}
	if order == nil {
		return domain.PaymentInvalid, nil
	}
	if order.Status != domain.OrderPending {
		return resultOf(order.Status), order
	}

	ref := order.PaymentRef
	if ref == "" {
		ref = sessionID
	}
	if ref == "" {
		return domain.PaymentError, order
	}

	sess, err := s.gateway.Lookup(ctx, ref)
	if err != nil {
		logger.ErrorContext(ctx, "Payment lookup failed", "error", err, "order_code", orderCode)
		return domain.PaymentError, order
	}
	if sess.OrderCode != "" && sess.OrderCode != order.Code {
		logger.WarnContext(ctx, "Payment session belongs to another order", "order_code", orderCode, "session_order", sess.OrderCode)
		return domain.PaymentInvalid, order
	}

	result, settled := s.settle(ctx, order.Code, domain.ResultForGateway(sess.State))
	if settled != nil {
		order = settled
	}
	return result, order
}

func (s *orderService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return domain.Invalid("invalid webhook: %v", err)
	}
	if ev == nil || ev.OrderCode == "" {
		return nil
	}
	if ev.State == domain.GatewayOpen || ev.State == domain.GatewayProcessing {
		logger.InfoContext(ctx, "Payment webhook left order pending", "order_code", ev.OrderCode, "state", ev.State)
		return nil
	}

	result, _ := s.settle(ctx, ev.OrderCode, domain.ResultForGateway(ev.State))
	logger.InfoContext(ctx, "Payment webhook processed", "order_code", ev.OrderCode, "result", result)
	return nil
}

// settle applies a payment outcome to a pending order. Orders already settled
// keep their state; the returned result always reflects the stored status.
func (s *orderService) settle(ctx context.Context, code string, want domain.PaymentResult) (domain.PaymentResult, *domain.Order) {
	var to domain.OrderStatus
	switch want {
	case domain.PaymentSuccess:
		to = domain.OrderPaid
	case domain.PaymentFail:
		to = domain.OrderFailed
	default:
		return want, nil
	}

	order, changed, err := s.orders.Transition(ctx, code, []domain.OrderStatus{domain.OrderPending}, to)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to update order status", "error", err, "order_code", code)
		return domain.PaymentError, nil
	}
	if order == nil {
		return domain.PaymentInvalid, nil
	}
	if !changed {
		return resultOf(order.Status), order
	}

	orderTransitions.WithLabelValues(string(to)).Inc()
	logger.InfoContext(ctx, "Order settled", "order_code", code, "status", to)

	switch to {
	case domain.OrderPaid:
		s.clearOrderedLines(ctx, order)
		s.publish(ctx, events.OrderPaid, order)
	case domain.OrderFailed:
		if order.PaymentRef != "" {
			if err := s.gateway.Expire(ctx, order.PaymentRef); err != nil {
				logger.WarnContext(ctx, "Failed to expire payment session", "error", err, "order_code", code)
			}
		}
		s.publish(ctx, events.OrderFailed, order)
	}
	return resultOf(order.Status), order
}

func resultOf(status domain.OrderStatus) domain.PaymentResult {
	switch status {
	case domain.OrderPaid:
		return domain.PaymentSuccess
	case domain.OrderFailed, domain.OrderCanceled:
		return domain.PaymentFail
	default:
		return domain.PaymentError
	}
}

func (s *orderService) clearOrderedLines(ctx context.Context, order *domain.Order) {
	cart, err := s.carts.GetByUserID(ctx, order.UserID)
	if err != nil || cart == nil {
		if err != nil {
			logger.ErrorContext(ctx, "Failed to load cart after payment", "error", err, "order_code", order.Code)
		}
		return
	}
	cart.RemoveOrdered(order)
	if err := s.carts.Save(ctx, cart); err != nil {
		logger.ErrorContext(ctx, "Failed to clear cart after payment", "error", err, "order_code", order.Code)
	}
}

func (s *orderService) publish(ctx context.Context, subject string, o *domain.Order) {
	event := events.OrderEvent{
		OrderCode: o.Code,
		UserID:    o.UserID,
		Email:     o.Customer.Email,
		FullName:  o.Customer.FullName,
		Total:     o.Total,
		Status:    string(o.Status),
		At:        s.now(),
	}
	if err := s.eventBus.Publish(ctx, subject, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish order event", "error", err, "subject", subject, "order_code", o.Code)
	}
}

func (s *orderService) ListMine(ctx context.Context, userID int64, limit, offset int) ([]domain.Order, int64, error) {
	limit, offset = pageOrDefault(limit, offset)
	return s.orders.List(ctx, domain.OrderFilter{UserID: &userID, Limit: limit, Offset: offset})
}

func (s *orderService) GetMine(ctx context.Context, userID int64, code string) (*domain.Order, error) {
	o, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (s *orderService) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	if f.Status != "" {
		if _, ok := domain.ParseOrderStatus(f.Status); !ok {
			return nil, 0, domain.Invalid("invalid status %q", f.Status)
		}
	}
	f.Limit, f.Offset = pageOrDefault(f.Limit, f.Offset)
	return s.orders.List(ctx, f)
}

func (s *orderService) Get(ctx context.Context, code string) (*domain.Order, error) {
	o, err := s.orders.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if o == nil {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

// SetStatus lets staff cancel an order or mark a pending one as paid
// (settled outside the gateway).
func (s *orderService) SetStatus(ctx context.Context, code, status string) (*domain.Order, error) {
	to, ok := domain.ParseOrderStatus(status)
	if !ok {
		return nil, domain.Invalid("invalid status %q", status)
	}

	var from []domain.OrderStatus
	var subject string
	switch to {
	case domain.OrderCanceled:
		from = []domain.OrderStatus{domain.OrderPending, domain.OrderPaid}
		subject = events.OrderCanceled
	case domain.OrderPaid:
		from = []domain.OrderStatus{domain.OrderPending}
		subject = events.OrderPaid
	default:
		return nil, domain.Invalid("orders can only be set to canceled or paid")
	}

	order, changed, err := s.orders.Transition(ctx, code, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if !changed {
		if order.Status == to {
			return order, nil
		}
		return nil, domain.ErrOrderNotPending
	}

	orderTransitions.WithLabelValues(string(to)).Inc()
	if to == domain.OrderCanceled && order.PaymentRef != "" {
		if err := s.gateway.Expire(ctx, order.PaymentRef); err != nil {
			logger.WarnContext(ctx, "Failed to expire payment session", "error", err, "order_code", code)
		}
	}
	if to == domain.OrderPaid {
		s.clearOrderedLines(ctx, order)
	}
	s.publish(ctx, subject, order)
	return order, nil
}
