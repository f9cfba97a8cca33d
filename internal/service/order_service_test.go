package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/internal/payment"
	"github.com/diagnosis/tourhub/internal/service"
	"github.com/diagnosis/tourhub/pkg/events"
)

type orderFixture struct {
	svc      service.OrderService
	cartSvc  service.CartService
	orders   *mockOrderRepo
	carts    *mockCartRepo
	tours    *mockTourRepo
	hotels   *mockHotelRepo
	vouchers *mockVoucherRepo
	gateway  *mockGateway
	bus      *mockBus
}

func newOrderFixture(t *testing.T, vouchers ...*domain.Voucher) *orderFixture {
	t.Helper()
	f := &orderFixture{
		carts:    newMockCartRepo(),
		tours:    newMockTourRepo(testTour()),
		hotels:   newMockHotelRepo(testHotel()),
		vouchers: newMockVoucherRepo(vouchers...),
		gateway:  &mockGateway{state: domain.GatewayPaid},
		bus:      &mockBus{},
	}
	f.orders = newMockOrderRepo(f.tours, f.hotels, f.vouchers)
	f.svc = service.NewOrderService(f.orders, f.carts, f.tours, f.hotels, f.vouchers, f.gateway, f.bus, "https://api.test/")
	f.cartSvc = service.NewCartService(f.carts, f.tours, f.hotels)
	return f
}

func (f *orderFixture) fillCart(t *testing.T, userID int64) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.cartSvc.AddTour(ctx, userID, &domain.AddTourRequest{TourID: 1, DepartAt: departAt, Quantity: 2}); err != nil {
		t.Fatalf("add tour: %v", err)
	}
	if _, err := f.cartSvc.AddRoom(ctx, userID, &domain.AddRoomRequest{HotelID: 7, RoomID: 70, Quantity: 1, CheckIn: checkIn, CheckOut: checkOut}); err != nil {
		t.Fatalf("add room: %v", err)
	}
}

func (f *orderFixture) checkout(t *testing.T, userID int64, voucher string) *domain.CheckoutResult {
	t.Helper()
	res, err := f.svc.Checkout(context.Background(), userID, checkoutRequest(voucher))
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	return res
}

func checkoutRequest(voucher string) *domain.CheckoutRequest {
	return &domain.CheckoutRequest{
		FullName:    "Ann Traveller",
		Email:       "ann@example.com",
		Phone:       "+84 912 345 678",
		VoucherCode: voucher,
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newOrderFixture(t)
	_, err := f.svc.Checkout(context.Background(), 1, checkoutRequest(""))
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("err = %v, want ErrEmptyCart", err)
	}
}

func TestCheckoutValidatesCustomer(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, 1)

	req := checkoutRequest("")
	req.Email = "not-an-email"
	_, err := f.svc.Checkout(context.Background(), 1, req)
	if _, ok := domain.IsValidation(err); !ok {
		t.Fatalf("err = %v, want validation error", err)
	}
	if f.tours.stock(1, departAt) != 3 {
		t.Error("rejected checkout touched stock")
	}
}

func TestCheckoutReservesStockAndOpensPayment(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, 1)

	res := f.checkout(t, 1, "")

	// 2 seats at 9000 plus 3 nights at 5000.
	if res.Total != 2*9000+3*5000 {
		t.Errorf("total = %d", res.Total)
	}
	if res.PaymentURL != "https://pay.test/"+res.OrderCode {
		t.Errorf("payment url = %q", res.PaymentURL)
	}
	if got := f.tours.stock(1, departAt); got != 1 {
		t.Errorf("tour stock = %d, want 1", got)
	}
	if got := f.hotels.available(7, 70); got != 1 {
		t.Errorf("room availability = %d, want 1", got)
	}

	in := f.gateway.created[0]
	if !strings.HasPrefix(in.SuccessURL, "https://api.test/api/v1/payments/return?orderCode="+res.OrderCode) ||
		!strings.Contains(in.SuccessURL, "{CHECKOUT_SESSION_ID}") {
		t.Errorf("success url = %q", in.SuccessURL)
	}

	o, err := f.svc.GetMine(context.Background(), 1, res.OrderCode)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if o.Status != domain.OrderPending || o.PaymentRef != "cs_"+res.OrderCode {
		t.Errorf("order = %+v", o)
	}
	if _, err := f.svc.GetMine(context.Background(), 2, res.OrderCode); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("other user's order: err = %v, want ErrNotFound", err)
	}
	if f.bus.count(events.OrderCreated) != 1 {
		t.Error("order.created not published")
	}
}

func TestCartChangesNeverAlterOrderItems(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, 1)
	res := f.checkout(t, 1, "")
	before, _ := f.svc.Get(context.Background(), res.OrderCode)

	ctx := context.Background()
	if _, err := f.cartSvc.UpdateTour(ctx, 1, &domain.AddTourRequest{TourID: 1, DepartAt: departAt, Quantity: 1}); err != nil {
		t.Fatalf("update cart: %v", err)
	}
	if _, err := f.cartSvc.RemoveRoom(ctx, 1, &domain.RemoveRoomRequest{RoomID: 70, CheckIn: checkIn, CheckOut: checkOut}); err != nil {
		t.Fatalf("remove room: %v", err)
	}
	f.tours.setPrice(1, 99999)

	after, _ := f.svc.Get(context.Background(), res.OrderCode)
	if after.Tours[0].Quantity != 2 || after.Tours[0].UnitPrice != 9000 {
		t.Errorf("tour line changed: %+v", after.Tours[0])
	}
	if len(after.Rooms) != 1 || after.Total != before.Total {
		t.Errorf("order changed: before %+v after %+v", before, after)
	}
}

func TestHandleReturnSuccess(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, 1)
	res := f.checkout(t, 1, "")

	// A line added after checkout must survive the cart refresh.
	extra := departAt
	f.tours.tours[1].Departures = append(f.tours.tours[1].Departures, domain.Departure{ID: 3, DepartAt: extra.Add(24 * time.Hour), Stock: 5})
	if _, err := f.cartSvc.AddTour(context.Background(), 1, &domain.AddTourRequest{TourID: 1, DepartAt: extra.Add(24 * time.Hour), Quantity: 1}); err != nil {
		t.Fatal(err)
	}
	saves := f.carts.saves

	f.gateway.state = domain.GatewayPaid
	result, o := f.svc.HandleReturn(context.Background(), res.OrderCode, "cs_"+res.OrderCode)
	if result != domain.PaymentSuccess {
		t.Fatalf("result = %s, want success", result)
	}
	if o.Status != domain.OrderPaid {
		t.Errorf("status = %s, want paid", o.Status)
	}
	if f.carts.saves != saves+1 {
		t.Errorf("cart saved %d times, want 1", f.carts.saves-saves)
	}
	c := f.carts.cart(1)
	if len(c.Tours) != 1 || !c.Tours[0].DepartAt.Equal(extra.Add(24*time.Hour)) || len(c.Rooms) != 0 {
		t.Errorf("cart after payment = %+v", c)
	}
	if f.bus.count(events.OrderPaid) != 1 {
		t.Error("order.paid not published")
	}

	// Coming back again settles nothing new.
	result, _ = f.svc.HandleReturn(context.Background(), res.OrderCode, "")
	if result != domain.PaymentSuccess || f.bus.count(events.OrderPaid) != 1 || f.carts.saves != saves+1 {
		t.Errorf("repeat return: result %s, paid events %d", result, f.bus.count(events.OrderPaid))
	}
}

func TestHandleReturnFailureRestoresStock(t *testing.T) {
	v := &domain.Voucher{ID: 1, Code: "SUMMER", DiscountPercent: 50, Quantity: 1, Status: domain.VoucherActive,
		StartDate: time.Now().Add(-time.Hour), EndDate: time.Now().Add(time.Hour)}
	f := newOrderFixture(t, v)
	f.fillCart(t, 1)
	res := f.checkout(t, 1, "summer")
	cartBefore := f.carts.cart(1)
	saves := f.carts.saves

	if f.vouchers.quantity("SUMMER") != 0 {
		t.Fatal("voucher not redeemed")
	}

	f.gateway.state = domain.GatewayExpired
	result, o := f.svc.HandleReturn(context.Background(), res.OrderCode, "")
	if result != domain.PaymentFail {
		t.Fatalf("result = %s, want fail", result)
	}
	if o.Status != domain.OrderFailed {
		t.Errorf("status = %s, want failed", o.Status)
	}
	if f.tours.stock(1, departAt) != 3 || f.hotels.available(7, 70) != 2 {
		t.Error("stock not restored")
	}
	if f.vouchers.quantity("SUMMER") != 1 {
		t.Error("voucher not restored")
	}
	if f.carts.saves != saves || len(f.carts.cart(1).Tours) != len(cartBefore.Tours) {
		t.Error("failed payment must leave the cart untouched")
	}
	if len(f.gateway.expired) != 1 {
		t.Errorf("expired sessions = %v", f.gateway.expired)
	}
	if f.bus.count(events.OrderFailed) != 1 {
		t.Error("order.failed not published")
	}
}

func TestHandleReturnInvalidAndError(t *testing.T) {
	f := newOrderFixture(t)

	if r, _ := f.svc.HandleReturn(context.Background(), "", ""); r != domain.PaymentInvalid {
		t.Errorf("empty code: %s", r)
	}
	if r, _ := f.svc.HandleReturn(context.Background(), "TH0000000000", ""); r != domain.PaymentInvalid {
		t.Errorf("unknown order: %s", r)
	}

	f.fillCart(t, 1)
	res := f.checkout(t, 1, "")
	f.gateway.lookupErr = errors.New("gateway down")
	r, o := f.svc.HandleReturn(context.Background(), res.OrderCode, "")
	if r != domain.PaymentError {
		t.Errorf("lookup failure: %s", r)
	}
	if o.Status != domain.OrderPending {
		t.Errorf("status = %s, want pending", o.Status)
	}
}

func TestCheckoutGatewayFailureReleasesOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, 1)
	f.gateway.createErr = errors.New("stripe unavailable")

	if _, err := f.svc.Checkout(context.Background(), 1, checkoutRequest("")); err == nil {
		t.Fatal("expected an error")
	}
	if f.tours.stock(1, departAt) != 3 {
		t.Error("stock not restored after gateway failure")
	}
	orders, _, _ := f.svc.List(context.Background(), domain.OrderFilter{Status: "failed"})
	if len(orders) != 1 {
		t.Errorf("failed orders = %d, want 1", len(orders))
	}
}

func TestCheckoutPaymentRefFailureReleasesOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, 1)
	f.orders.refErr = errors.New("connection reset")

	if _, err := f.svc.Checkout(context.Background(), 1, checkoutRequest("")); err == nil {
		t.Fatal("expected an error")
	}
	if f.tours.stock(1, departAt) != 3 {
		t.Error("stock not restored after payment reference failure")
	}
	if len(f.gateway.created) != 1 {
		t.Fatalf("sessions created = %d, want 1", len(f.gateway.created))
	}
	code := f.gateway.created[0].OrderCode
	if len(f.gateway.expired) != 1 || f.gateway.expired[0] != "cs_"+code {
		t.Errorf("expired = %v, want [cs_%s]", f.gateway.expired, code)
	}
	o, _ := f.orders.GetByCode(context.Background(), code)
	if o == nil || o.Status != domain.OrderFailed {
		t.Errorf("order = %+v, want failed", o)
	}
}

func TestCheckoutNeverOversells(t *testing.T) {
	f := newOrderFixture(t)
	const buyers = 5
	for u := int64(1); u <= buyers; u++ {
		if _, err := f.cartSvc.AddTour(context.Background(), u, &domain.AddTourRequest{TourID: 1, DepartAt: departAt, Quantity: 2}); err != nil {
			t.Fatal(err)
		}
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	placed, rejected := 0, 0
	for u := int64(1); u <= buyers; u++ {
		wg.Add(1)
		go func(u int64) {
			defer wg.Done()
			_, err := f.svc.Checkout(context.Background(), u, checkoutRequest(""))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				placed++
			case errors.Is(err, domain.ErrOutOfStock):
				rejected++
			default:
				t.Errorf("checkout: %v", err)
			}
		}(u)
	}
	wg.Wait()

	if placed != 1 || rejected != buyers-1 {
		t.Errorf("placed %d, rejected %d", placed, rejected)
	}
	if got := f.tours.stock(1, departAt); got != 1 {
		t.Errorf("stock = %d, want 1", got)
	}
}

func TestCheckoutVoucher(t *testing.T) {
	now := time.Now()
	active := &domain.Voucher{ID: 1, Code: "TEN", DiscountPercent: 10, Quantity: 5, Status: domain.VoucherActive,
		StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)}
	expired := &domain.Voucher{ID: 2, Code: "OLD", DiscountPercent: 10, Quantity: 5, Status: domain.VoucherActive,
		StartDate: now.Add(-48 * time.Hour), EndDate: now.Add(-time.Hour)}
	f := newOrderFixture(t, active, expired)
	f.fillCart(t, 1)

	_, err := f.svc.Checkout(context.Background(), 1, checkoutRequest("old"))
	if !errors.Is(err, domain.ErrVoucherUnavailable) {
		t.Fatalf("expired voucher: err = %v", err)
	}
	_, err = f.svc.Checkout(context.Background(), 1, checkoutRequest("missing"))
	if !errors.Is(err, domain.ErrVoucherUnavailable) {
		t.Fatalf("unknown voucher: err = %v", err)
	}

	res := f.checkout(t, 1, " ten ")
	subtotal := int64(2*9000 + 3*5000)
	if res.Total != subtotal*90/100 {
		t.Errorf("total = %d, want %d", res.Total, subtotal*90/100)
	}
	o, _ := f.svc.Get(context.Background(), res.OrderCode)
	if o.VoucherCode != "TEN" || o.DiscountPercent != 10 || o.Subtotal != subtotal {
		t.Errorf("order = %+v", o)
	}
}

func TestFreeOrderSkipsGateway(t *testing.T) {
	now := time.Now()
	full := &domain.Voucher{ID: 1, Code: "FREE", DiscountPercent: 100, Quantity: 1, Status: domain.VoucherActive,
		StartDate: now.Add(-time.Hour), EndDate: now.Add(time.Hour)}
	f := newOrderFixture(t, full)
	f.fillCart(t, 1)

	res := f.checkout(t, 1, "FREE")
	if res.Total != 0 || len(f.gateway.created) != 0 {
		t.Fatalf("free order went through the gateway: %+v", res)
	}
	o, _ := f.svc.Get(context.Background(), res.OrderCode)
	if o.Status != domain.OrderPaid {
		t.Errorf("status = %s, want paid", o.Status)
	}
	if c := f.carts.cart(1); !c.IsEmpty() {
		t.Errorf("cart = %+v, want empty", c)
	}
}

func TestWebhookAndReturnSettleOnce(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, 1)
	res := f.checkout(t, 1, "")

	if err := f.svc.HandleWebhook(context.Background(), []byte("{}"), "bad"); err == nil {
		t.Error("bad signature accepted")
	}

	f.gateway.event = &payment.Event{OrderCode: res.OrderCode, SessionID: "cs_" + res.OrderCode, State: domain.GatewayPaid}
	if err := f.svc.HandleWebhook(context.Background(), []byte("{}"), "ok"); err != nil {
		t.Fatalf("webhook: %v", err)
	}
	result, _ := f.svc.HandleReturn(context.Background(), res.OrderCode, "cs_"+res.OrderCode)
	if result != domain.PaymentSuccess {
		t.Errorf("result = %s, want success", result)
	}
	if f.bus.count(events.OrderPaid) != 1 {
		t.Errorf("order.paid published %d times", f.bus.count(events.OrderPaid))
	}
}

func TestCompletedUnpaidWaitsForAsyncResult(t *testing.T) {
	tests := []struct {
		name  string
		final domain.GatewayState
		want  domain.OrderStatus
		stock int
	}{
		{"async succeeded", domain.GatewayPaid, domain.OrderPaid, 1},
		{"async failed", domain.GatewayUnpaid, domain.OrderFailed, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newOrderFixture(t)
			f.fillCart(t, 1)
			res := f.checkout(t, 1, "")
			ctx := context.Background()
			sessionID := "cs_" + res.OrderCode

			f.gateway.state = domain.GatewayProcessing
			result, o := f.svc.HandleReturn(ctx, res.OrderCode, sessionID)
			if result != domain.PaymentPending {
				t.Errorf("return result = %s, want pending", result)
			}
			if o == nil || o.Status != domain.OrderPending {
				t.Fatalf("order after return = %+v, want pending", o)
			}

			f.gateway.event = &payment.Event{OrderCode: res.OrderCode, SessionID: sessionID, State: domain.GatewayProcessing}
			if err := f.svc.HandleWebhook(ctx, []byte("{}"), "ok"); err != nil {
				t.Fatalf("completed webhook: %v", err)
			}
			if o, _ := f.orders.GetByCode(ctx, res.OrderCode); o.Status != domain.OrderPending {
				t.Fatalf("status after completed webhook = %s, want pending", o.Status)
			}

			f.gateway.event = &payment.Event{OrderCode: res.OrderCode, SessionID: sessionID, State: tc.final}
			if err := f.svc.HandleWebhook(ctx, []byte("{}"), "ok"); err != nil {
				t.Fatalf("async webhook: %v", err)
			}
			o, _ = f.orders.GetByCode(ctx, res.OrderCode)
			if o.Status != tc.want {
				t.Errorf("status = %s, want %s", o.Status, tc.want)
			}
			if got := f.tours.stock(1, departAt); got != tc.stock {
				t.Errorf("stock = %d, want %d", got, tc.stock)
			}
		})
	}
}

func TestAdminSetStatus(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, 1)
	res := f.checkout(t, 1, "")
	ctx := context.Background()

	if _, err := f.svc.SetStatus(ctx, res.OrderCode, "failed"); err == nil {
		t.Error("setting failed by hand should be rejected")
	}
	if _, err := f.svc.SetStatus(ctx, "TH0000000000", "canceled"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown order: err = %v", err)
	}

	o, err := f.svc.SetStatus(ctx, res.OrderCode, "canceled")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if o.Status != domain.OrderCanceled || f.tours.stock(1, departAt) != 3 {
		t.Errorf("cancel did not restock: status %s stock %d", o.Status, f.tours.stock(1, departAt))
	}
	if _, err := f.svc.SetStatus(ctx, res.OrderCode, "paid"); !errors.Is(err, domain.ErrOrderNotPending) {
		t.Errorf("paying a canceled order: err = %v", err)
	}
}
