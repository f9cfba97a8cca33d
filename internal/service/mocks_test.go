package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/internal/payment"
)

// ---------- Users ----------

type mockUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*domain.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{nextID: 1, users: map[int64]*domain.User{}}
}

func (m *mockUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if !x.Deleted && strings.EqualFold(x.Email, u.Email) {
			return nil, domain.ErrEmailTaken
		}
	}
	cp := *u
	cp.ID = m.nextID
	m.nextID++
	if cp.Status == "" {
		cp.Status = domain.StatusActive
	}
	cp.CreatedAt = time.Now()
	m.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *mockUserRepo) FindActiveByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.users {
		if !x.Deleted && strings.EqualFold(x.Email, email) {
			out := *x
			return &out, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.users[id]
	if !ok || x.Deleted {
		return nil, nil
	}
	out := *x
	return &out, nil
}

func (m *mockUserRepo) SetToken(_ context.Context, id int64, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	x.Token = token
	return nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, id int64, upd *domain.ProfileUpdate) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.users[id]
	if !ok || x.Deleted {
		return nil, nil
	}
	if upd.FullName != nil {
		x.FullName = *upd.FullName
	}
	if upd.Phone != nil {
		x.Phone = *upd.Phone
	}
	if upd.Avatar != nil {
		x.Avatar = *upd.Avatar
	}
	out := *x
	return &out, nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id int64, hash, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	x.PasswordHash, x.Token = hash, token
	return nil
}

func (m *mockUserRepo) SetStatus(_ context.Context, id int64, status domain.UserStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.users[id]
	if !ok || x.Deleted {
		return domain.ErrNotFound
	}
	x.Status = status
	if status == domain.StatusInactive {
		x.Token = ""
	}
	return nil
}

func (m *mockUserRepo) SoftDelete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.users[id]
	if !ok || x.Deleted {
		return domain.ErrNotFound
	}
	x.Deleted, x.Token = true, ""
	return nil
}

func (m *mockUserRepo) List(_ context.Context, _ domain.ListFilter) ([]domain.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.User{}
	for _, x := range m.users {
		if !x.Deleted {
			out = append(out, *x)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockUserRepo) Count(ctx context.Context) (int64, error) {
	_, n, err := m.List(ctx, domain.ListFilter{})
	return n, err
}

// ---------- Carts ----------

type mockCartRepo struct {
	mu      sync.Mutex
	nextID  int64
	carts   map[int64]*domain.Cart // by user id
	creates int
	saves   int
}

func newMockCartRepo() *mockCartRepo {
	return &mockCartRepo{nextID: 1, carts: map[int64]*domain.Cart{}}
}

func copyCart(c *domain.Cart) *domain.Cart {
	out := *c
	out.Tours = append([]domain.CartTour{}, c.Tours...)
	out.Rooms = append([]domain.CartRoom{}, c.Rooms...)
	return &out
}

func (m *mockCartRepo) GetOrCreate(_ context.Context, userID int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		c = &domain.Cart{ID: m.nextID, UserID: userID}
		m.nextID++
		m.carts[userID] = c
		m.creates++
	}
	return copyCart(c), nil
}

func (m *mockCartRepo) GetByUserID(_ context.Context, userID int64) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return nil, nil
	}
	return copyCart(c), nil
}

func (m *mockCartRepo) Save(_ context.Context, c *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[c.UserID] = copyCart(c)
	m.saves++
	return nil
}

func (m *mockCartRepo) cart(userID int64) *domain.Cart {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[userID]; ok {
		return copyCart(c)
	}
	return nil
}

// ---------- Catalogue ----------

type mockTourRepo struct {
	mu    sync.Mutex
	tours map[int64]*domain.Tour
}

func newMockTourRepo(tours ...*domain.Tour) *mockTourRepo {
	m := &mockTourRepo{tours: map[int64]*domain.Tour{}}
	for _, t := range tours {
		m.tours[t.ID] = t
	}
	return m
}

func copyTour(t *domain.Tour) *domain.Tour {
	out := *t
	out.Departures = append([]domain.Departure{}, t.Departures...)
	return &out
}

func (m *mockTourRepo) List(_ context.Context, _ domain.TourFilter) ([]domain.Tour, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Tour{}
	for _, t := range m.tours {
		out = append(out, *copyTour(t))
	}
	return out, int64(len(out)), nil
}

func (m *mockTourRepo) GetBySlug(_ context.Context, slug string) (*domain.Tour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tours {
		if t.Slug == slug && !t.Deleted {
			return copyTour(t), nil
		}
	}
	return nil, nil
}

func (m *mockTourRepo) GetByID(_ context.Context, id int64) (*domain.Tour, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tours[id]
	if !ok || t.Deleted {
		return nil, nil
	}
	return copyTour(t), nil
}

func (m *mockTourRepo) Create(context.Context, string, *domain.TourInput) (*domain.Tour, error) {
	return nil, errors.New("not implemented")
}

func (m *mockTourRepo) Update(context.Context, int64, string, *domain.TourInput) (*domain.Tour, error) {
	return nil, errors.New("not implemented")
}

func (m *mockTourRepo) SoftDelete(context.Context, int64) error { return nil }

func (m *mockTourRepo) SlugExists(context.Context, string, int64) (bool, error) { return false, nil }

func (m *mockTourRepo) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.tours)), nil
}

func (m *mockTourRepo) setPrice(id, price int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tours[id].Price = price
}

func (m *mockTourRepo) stock(id int64, at time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, _ := m.tours[id].Departure(at)
	return d.Stock
}

type mockHotelRepo struct {
	mu     sync.Mutex
	hotels map[int64]*domain.Hotel
}

func newMockHotelRepo(hotels ...*domain.Hotel) *mockHotelRepo {
	m := &mockHotelRepo{hotels: map[int64]*domain.Hotel{}}
	for _, h := range hotels {
		m.hotels[h.ID] = h
	}
	return m
}

func copyHotel(h *domain.Hotel) *domain.Hotel {
	out := *h
	out.Rooms = append([]domain.Room{}, h.Rooms...)
	return &out
}

func (m *mockHotelRepo) List(context.Context, domain.HotelFilter) ([]domain.Hotel, int64, error) {
	return nil, 0, nil
}

func (m *mockHotelRepo) GetBySlug(context.Context, string) (*domain.Hotel, error) { return nil, nil }

func (m *mockHotelRepo) GetByID(_ context.Context, id int64) (*domain.Hotel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hotels[id]
	if !ok || h.Deleted {
		return nil, nil
	}
	return copyHotel(h), nil
}

func (m *mockHotelRepo) Create(context.Context, string, *domain.HotelInput) (*domain.Hotel, error) {
	return nil, errors.New("not implemented")
}

func (m *mockHotelRepo) Update(context.Context, int64, string, *domain.HotelInput) (*domain.Hotel, error) {
	return nil, errors.New("not implemented")
}

func (m *mockHotelRepo) SoftDelete(context.Context, int64) error { return nil }

func (m *mockHotelRepo) SlugExists(context.Context, string, int64) (bool, error) { return false, nil }

func (m *mockHotelRepo) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.hotels)), nil
}

func (m *mockHotelRepo) GetRoom(_ context.Context, hotelID, roomID int64) (*domain.Room, error) {
	h, _ := m.GetByID(context.Background(), hotelID)
	if h == nil {
		return nil, nil
	}
	rm, ok := h.Room(roomID)
	if !ok {
		return nil, nil
	}
	return rm, nil
}

func (m *mockHotelRepo) CreateRoom(context.Context, int64, *domain.RoomInput) (*domain.Room, error) {
	return nil, errors.New("not implemented")
}

func (m *mockHotelRepo) UpdateRoom(context.Context, int64, int64, *domain.RoomInput) (*domain.Room, error) {
	return nil, errors.New("not implemented")
}

func (m *mockHotelRepo) DeleteRoom(context.Context, int64, int64) error { return nil }

func (m *mockHotelRepo) available(hotelID, roomID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	rm, _ := m.hotels[hotelID].Room(roomID)
	return rm.Available
}

// ---------- Vouchers ----------

type mockVoucherRepo struct {
	mu       sync.Mutex
	vouchers map[string]*domain.Voucher
}

func newMockVoucherRepo(vs ...*domain.Voucher) *mockVoucherRepo {
	m := &mockVoucherRepo{vouchers: map[string]*domain.Voucher{}}
	for _, v := range vs {
		m.vouchers[v.Code] = v
	}
	return m
}

func (m *mockVoucherRepo) Create(context.Context, *domain.VoucherInput) (*domain.Voucher, error) {
	return nil, errors.New("not implemented")
}

func (m *mockVoucherRepo) Update(context.Context, int64, *domain.VoucherInput) (*domain.Voucher, error) {
	return nil, errors.New("not implemented")
}

func (m *mockVoucherRepo) GetByID(_ context.Context, id int64) (*domain.Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.vouchers {
		if v.ID == id {
			out := *v
			return &out, nil
		}
	}
	return nil, nil
}

func (m *mockVoucherRepo) GetByCode(_ context.Context, code string) (*domain.Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vouchers[code]
	if !ok || v.Deleted {
		return nil, nil
	}
	out := *v
	return &out, nil
}

func (m *mockVoucherRepo) List(context.Context, int, int) ([]domain.Voucher, int64, error) {
	return nil, 0, nil
}

func (m *mockVoucherRepo) SoftDelete(context.Context, int64) error { return nil }

func (m *mockVoucherRepo) quantity(code string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vouchers[code].Quantity
}

// ---------- Orders ----------

// mockOrderRepo reserves stock directly on the catalogue mocks, all or nothing.
type mockOrderRepo struct {
	mu       sync.Mutex
	tours    *mockTourRepo
	hotels   *mockHotelRepo
	vouchers *mockVoucherRepo
	nextID   int64
	orders   map[string]*domain.Order
	refErr   error
}

func newMockOrderRepo(tours *mockTourRepo, hotels *mockHotelRepo, vouchers *mockVoucherRepo) *mockOrderRepo {
	return &mockOrderRepo{tours: tours, hotels: hotels, vouchers: vouchers, nextID: 1, orders: map[string]*domain.Order{}}
}

func copyOrder(o *domain.Order) *domain.Order {
	out := *o
	out.Tours = append([]domain.OrderTour{}, o.Tours...)
	out.Rooms = append([]domain.OrderRoom{}, o.Rooms...)
	return &out
}

func (m *mockOrderRepo) Place(_ context.Context, o *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tours.mu.Lock()
	defer m.tours.mu.Unlock()
	m.hotels.mu.Lock()
	defer m.hotels.mu.Unlock()
	m.vouchers.mu.Lock()
	defer m.vouchers.mu.Unlock()

	for _, l := range o.Tours {
		t := m.tours.tours[l.TourID]
		d, ok := t.Departure(l.DepartAt)
		if !ok || d.Stock < l.Quantity {
			return fmt.Errorf("%s: %w", l.Title, domain.ErrOutOfStock)
		}
	}
	for _, l := range o.Rooms {
		rm, ok := m.hotels.hotels[l.HotelID].Room(l.RoomID)
		if !ok || rm.Available < l.Quantity {
			return fmt.Errorf("%s: %w", l.RoomName, domain.ErrOutOfStock)
		}
	}
	if o.VoucherCode != "" {
		v, ok := m.vouchers.vouchers[o.VoucherCode]
		if !ok || !v.Usable(time.Now()) {
			return domain.ErrVoucherUnavailable
		}
		v.Quantity--
		o.DiscountPercent = v.DiscountPercent
	}
	for _, l := range o.Tours {
		d, _ := m.tours.tours[l.TourID].Departure(l.DepartAt)
		d.Stock -= l.Quantity
	}
	for _, l := range o.Rooms {
		rm, _ := m.hotels.hotels[l.HotelID].Room(l.RoomID)
		rm.Available -= l.Quantity
	}

	o.ComputeTotals()
	o.ID = m.nextID
	m.nextID++
	o.CreatedAt = time.Now()
	m.orders[o.Code] = copyOrder(o)
	return nil
}

func (m *mockOrderRepo) Transition(_ context.Context, code string, from []domain.OrderStatus, to domain.OrderStatus) (*domain.Order, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[code]
	if !ok {
		return nil, false, nil
	}
	allowed := false
	for _, f := range from {
		if o.Status == f {
			allowed = true
		}
	}
	if !allowed {
		return copyOrder(o), false, nil
	}
	if o.Status.HoldsStock() && !to.HoldsStock() {
		m.restock(o)
	}
	o.Status = to
	return copyOrder(o), true, nil
}

func (m *mockOrderRepo) restock(o *domain.Order) {
	m.tours.mu.Lock()
	for _, l := range o.Tours {
		if d, ok := m.tours.tours[l.TourID].Departure(l.DepartAt); ok {
			d.Stock += l.Quantity
		}
	}
	m.tours.mu.Unlock()

	m.hotels.mu.Lock()
	for _, l := range o.Rooms {
		if rm, ok := m.hotels.hotels[l.HotelID].Room(l.RoomID); ok {
			rm.Available += l.Quantity
		}
	}
	m.hotels.mu.Unlock()

	if o.VoucherCode != "" {
		m.vouchers.mu.Lock()
		if v, ok := m.vouchers.vouchers[o.VoucherCode]; ok {
			v.Quantity++
		}
		m.vouchers.mu.Unlock()
	}
}

func (m *mockOrderRepo) SetPaymentRef(_ context.Context, code, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refErr != nil {
		return m.refErr
	}
	o, ok := m.orders[code]
	if !ok {
		return domain.ErrNotFound
	}
	o.PaymentRef = ref
	return nil
}

func (m *mockOrderRepo) GetByCode(_ context.Context, code string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[code]
	if !ok {
		return nil, nil
	}
	return copyOrder(o), nil
}

func (m *mockOrderRepo) List(_ context.Context, f domain.OrderFilter) ([]domain.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Order{}
	for _, o := range m.orders {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		out = append(out, *copyOrder(o))
	}
	return out, int64(len(out)), nil
}

func (m *mockOrderRepo) CountByStatus(context.Context) (map[domain.OrderStatus]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[domain.OrderStatus]int64{}
	for _, o := range m.orders {
		out[o.Status]++
	}
	return out, nil
}

func (m *mockOrderRepo) PaidRevenue(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum int64
	for _, o := range m.orders {
		if o.Status == domain.OrderPaid {
			sum += o.Total
		}
	}
	return sum, nil
}

// ---------- Roles ----------

type mockRoleRepo struct {
	mu    sync.Mutex
	roles map[int64]*domain.Role
}

func newMockRoleRepo(roles ...*domain.Role) *mockRoleRepo {
	m := &mockRoleRepo{roles: map[int64]*domain.Role{}}
	for _, r := range roles {
		m.roles[r.ID] = r
	}
	return m
}

func (m *mockRoleRepo) Create(_ context.Context, in *domain.RoleInput) (*domain.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := &domain.Role{ID: int64(len(m.roles) + 1), Title: in.Title, Description: in.Description, Permissions: in.Permissions}
	m.roles[r.ID] = r
	out := *r
	return &out, nil
}

func (m *mockRoleRepo) Update(_ context.Context, id int64, in *domain.RoleInput) (*domain.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[id]
	if !ok {
		return nil, nil
	}
	r.Title, r.Description, r.Permissions = in.Title, in.Description, in.Permissions
	out := *r
	return &out, nil
}

func (m *mockRoleRepo) FindByID(_ context.Context, id int64) (*domain.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[id]
	if !ok {
		return nil, nil
	}
	out := *r
	return &out, nil
}

func (m *mockRoleRepo) List(context.Context) ([]*domain.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Role, 0, len(m.roles))
	for id := int64(1); id <= int64(len(m.roles)); id++ {
		if r, ok := m.roles[id]; ok {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRoleRepo) SoftDelete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roles, id)
	return nil
}

func (m *mockRoleRepo) SetPermissions(_ context.Context, items []domain.RolePermissions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		if _, ok := m.roles[it.ID]; !ok {
			return fmt.Errorf("role %d: %w", it.ID, domain.ErrNotFound)
		}
	}
	for _, it := range items {
		m.roles[it.ID].Permissions = it.Permissions
	}
	return nil
}

// ---------- Accounts ----------

type mockAccountRepo struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*domain.Account
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{nextID: 1, accounts: map[int64]*domain.Account{}}
}

func (m *mockAccountRepo) Create(_ context.Context, a *domain.Account) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.accounts {
		if !x.Deleted && strings.EqualFold(x.Email, a.Email) {
			return nil, domain.ErrEmailTaken
		}
	}
	cp := *a
	cp.ID = m.nextID
	m.nextID++
	m.accounts[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *mockAccountRepo) FindActiveByEmail(_ context.Context, email string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.accounts {
		if !x.Deleted && strings.EqualFold(x.Email, email) {
			out := *x
			return &out, nil
		}
	}
	return nil, nil
}

func (m *mockAccountRepo) FindByID(_ context.Context, id int64) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.accounts[id]
	if !ok || x.Deleted {
		return nil, nil
	}
	out := *x
	return &out, nil
}

func (m *mockAccountRepo) SetToken(_ context.Context, id int64, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	x.Token = token
	return nil
}

func (m *mockAccountRepo) Update(_ context.Context, a *domain.Account) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.accounts[a.ID]
	if !ok || x.Deleted {
		return nil, nil
	}
	x.FullName, x.Email, x.Phone, x.Avatar, x.RoleID, x.Status = a.FullName, a.Email, a.Phone, a.Avatar, a.RoleID, a.Status
	if a.PasswordHash != "" {
		x.PasswordHash = a.PasswordHash
	}
	out := *x
	return &out, nil
}

func (m *mockAccountRepo) SoftDelete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	x, ok := m.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	x.Deleted = true
	return nil
}

func (m *mockAccountRepo) List(context.Context, domain.ListFilter) ([]domain.Account, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Account, 0, len(m.accounts))
	for _, x := range m.accounts {
		if !x.Deleted {
			out = append(out, *x)
		}
	}
	return out, int64(len(out)), nil
}

// ---------- Infrastructure ----------

type mockBus struct {
	mu       sync.Mutex
	subjects []string
	payloads []interface{}
}

func (b *mockBus) Publish(_ context.Context, subject string, data interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subjects = append(b.subjects, subject)
	b.payloads = append(b.payloads, data)
	return nil
}

func (b *mockBus) count(subject string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, s := range b.subjects {
		if s == subject {
			n++
		}
	}
	return n
}

type mockLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *mockLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, time.Duration, error) {
	l.keys = append(l.keys, key)
	return l.allow, time.Minute, l.err
}

type mockGateway struct {
	mu        sync.Mutex
	state     domain.GatewayState
	createErr error
	lookupErr error
	created   []payment.CheckoutInput
	expired   []string
	event     *payment.Event
}

func (g *mockGateway) CreateCheckout(_ context.Context, in payment.CheckoutInput) (*payment.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, in)
	return &payment.Session{ID: "cs_" + in.OrderCode, URL: "https://pay.test/" + in.OrderCode, OrderCode: in.OrderCode, State: domain.GatewayOpen}, nil
}

func (g *mockGateway) Lookup(_ context.Context, sessionID string) (*payment.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lookupErr != nil {
		return nil, g.lookupErr
	}
	return &payment.Session{ID: sessionID, OrderCode: strings.TrimPrefix(sessionID, "cs_"), State: g.state}, nil
}

func (g *mockGateway) Expire(_ context.Context, sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.expired = append(g.expired, sessionID)
	return nil
}

func (g *mockGateway) ParseWebhook(payload []byte, signature string) (*payment.Event, error) {
	if signature != "ok" {
		return nil, payment.ErrBadSignature
	}
	return g.event, nil
}
