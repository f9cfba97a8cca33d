package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/diagnosis/tourhub/internal/http/response"
	"github.com/diagnosis/tourhub/internal/service"
	"github.com/diagnosis/tourhub/pkg/config"
	mw "github.com/diagnosis/tourhub/pkg/middleware"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// Services groups everything the HTTP layer calls into.
type Services struct {
	Auth      service.AuthService
	Accounts  service.AccountService
	Roles     service.RoleService
	Catalog   service.CatalogService
	Carts     service.CartService
	Orders    service.OrderService
	Vouchers  service.VoucherService
	Dashboard service.DashboardService
}

type Handlers struct {
	auth      service.AuthService
	accounts  service.AccountService
	roles     service.RoleService
	catalog   service.CatalogService
	carts     service.CartService
	orders    service.OrderService
	vouchers  service.VoucherService
	dashboard service.DashboardService

	config      *config.Config
	limiter     mw.Limiter
	idempotency mw.IdempotencyStore
}

// New wires the handlers. limiter and idempotency may be nil, which turns the
// login throttle and checkout replay protection off.
func New(svc Services, cfg *config.Config, limiter mw.Limiter, idempotency mw.IdempotencyStore) *Handlers {
	return &Handlers{
		auth:        svc.Auth,
		accounts:    svc.Accounts,
		roles:       svc.Roles,
		catalog:     svc.Catalog,
		carts:       svc.Carts,
		orders:      svc.Orders,
		vouchers:    svc.Vouchers,
		dashboard:   svc.Dashboard,
		config:      cfg,
		limiter:     limiter,
		idempotency: idempotency,
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return false
	}
	return true
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" && offset == 0 {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func list(w http.ResponseWriter, items interface{}, total int64, limit, offset int) {
	response.OK(w, "OK", response.M{
		"items":  items,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}
