package handlers

import (
	"net/http"

	"github.com/diagnosis/tourhub/internal/domain"
	mw "github.com/diagnosis/tourhub/pkg/middleware"
	"github.com/go-chi/chi/v5"
)

func perm(f domain.Feature, a domain.Action) func(http.Handler) http.Handler {
	return RequirePermission(domain.Permission(f, a))
}

// Routes mounts the storefront API under /api/v1 and the admin console API
// under /api/v1/{adminPrefix}.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.With(h.loginLimit()...).Post("/login", h.Login)

			r.Group(func(r chi.Router) {
				r.Use(h.RequireUser)
				r.Post("/logout", h.Logout)
				r.Get("/me", h.Me)
				r.Patch("/me", h.UpdateMe)
				r.Patch("/me/password", h.ChangePassword)
			})
		})

		r.Get("/tours", h.ListTours)
		r.Get("/tours/{slug}", h.TourDetail)
		r.Get("/hotels", h.ListHotels)
		r.Get("/hotels/{slug}", h.HotelDetail)
		r.Get("/vouchers/{code}", h.VoucherPreview)

		r.Route("/carts", func(r chi.Router) {
			r.Use(h.RequireUser)
			r.Get("/", h.CartDetail)
			r.Post("/tours", h.AddCartTour)
			r.Patch("/tours", h.UpdateCartTour)
			r.Delete("/tours", h.RemoveCartTour)
			r.Post("/rooms", h.AddCartRoom)
			r.Patch("/rooms", h.UpdateCartRoom)
			r.Delete("/rooms", h.RemoveCartRoom)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(h.RequireUser)
			if h.idempotency != nil {
				r.With(mw.Idempotency(h.idempotency)).Post("/checkout", h.Checkout)
			} else {
				r.Post("/checkout", h.Checkout)
			}
			r.Get("/", h.MyOrders)
			r.Get("/{code}", h.MyOrder)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/return", h.PaymentReturn)
			r.Get("/result", h.PaymentResult)
			r.Post("/webhook", h.PaymentWebhook)
		})

		r.Route("/"+h.config.Server.AdminPrefix, h.adminRoutes)
	})

	return r
}

func (h *Handlers) adminRoutes(r chi.Router) {
	r.With(h.loginLimit()...).Post("/auth/login", h.AdminLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAccount)

		r.Post("/auth/logout", h.AdminLogout)
		r.Get("/auth/me", h.AdminMe)
		r.Get("/dashboard", h.Dashboard)

		r.Route("/tours", func(r chi.Router) {
			r.With(perm(domain.FeatureTour, domain.ActionView)).Get("/", h.AdminListTours)
			r.With(perm(domain.FeatureTour, domain.ActionView)).Get("/{id}", h.AdminGetTour)
			r.With(perm(domain.FeatureTour, domain.ActionCreate)).Post("/", h.AdminCreateTour)
			r.With(perm(domain.FeatureTour, domain.ActionEdit)).Patch("/{id}", h.AdminUpdateTour)
			r.With(perm(domain.FeatureTour, domain.ActionDelete)).Delete("/{id}", h.AdminDeleteTour)
		})

		r.Route("/hotels", func(r chi.Router) {
			r.With(perm(domain.FeatureHotel, domain.ActionView)).Get("/", h.AdminListHotels)
			r.With(perm(domain.FeatureHotel, domain.ActionView)).Get("/{id}", h.AdminGetHotel)
			r.With(perm(domain.FeatureHotel, domain.ActionCreate)).Post("/", h.AdminCreateHotel)
			r.With(perm(domain.FeatureHotel, domain.ActionEdit)).Patch("/{id}", h.AdminUpdateHotel)
			r.With(perm(domain.FeatureHotel, domain.ActionDelete)).Delete("/{id}", h.AdminDeleteHotel)
			r.With(perm(domain.FeatureHotel, domain.ActionEdit)).Post("/{id}/rooms", h.AdminCreateRoom)
			r.With(perm(domain.FeatureHotel, domain.ActionEdit)).Patch("/{id}/rooms/{roomId}", h.AdminUpdateRoom)
			r.With(perm(domain.FeatureHotel, domain.ActionEdit)).Delete("/{id}/rooms/{roomId}", h.AdminDeleteRoom)
		})

		r.Route("/vouchers", func(r chi.Router) {
			r.With(perm(domain.FeatureVoucher, domain.ActionView)).Get("/", h.AdminListVouchers)
			r.With(perm(domain.FeatureVoucher, domain.ActionView)).Get("/{id}", h.AdminGetVoucher)
			r.With(perm(domain.FeatureVoucher, domain.ActionCreate)).Post("/", h.AdminCreateVoucher)
			r.With(perm(domain.FeatureVoucher, domain.ActionEdit)).Patch("/{id}", h.AdminUpdateVoucher)
			r.With(perm(domain.FeatureVoucher, domain.ActionDelete)).Delete("/{id}", h.AdminDeleteVoucher)
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(perm(domain.FeatureOrder, domain.ActionView)).Get("/", h.AdminListOrders)
			r.With(perm(domain.FeatureOrder, domain.ActionView)).Get("/{code}", h.AdminGetOrder)
			r.With(perm(domain.FeatureOrder, domain.ActionEdit)).Patch("/{code}/status", h.AdminSetOrderStatus)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(perm(domain.FeatureUser, domain.ActionView)).Get("/", h.AdminListUsers)
			r.With(perm(domain.FeatureUser, domain.ActionView)).Get("/{id}", h.AdminGetUser)
			r.With(perm(domain.FeatureUser, domain.ActionEdit)).Patch("/{id}/status", h.AdminSetUserStatus)
			r.With(perm(domain.FeatureUser, domain.ActionDelete)).Delete("/{id}", h.AdminDeleteUser)
		})

		r.Route("/roles", func(r chi.Router) {
			r.With(perm(domain.FeatureRole, domain.ActionView)).Get("/", h.AdminListRoles)
			r.With(perm(domain.FeatureRole, domain.ActionView)).Get("/permissions", h.AdminPermissionGrid)
			r.With(perm(domain.FeatureRole, domain.ActionEdit)).Patch("/permissions", h.AdminSavePermissions)
			r.With(perm(domain.FeatureRole, domain.ActionView)).Get("/{id}", h.AdminGetRole)
			r.With(perm(domain.FeatureRole, domain.ActionCreate)).Post("/", h.AdminCreateRole)
			r.With(perm(domain.FeatureRole, domain.ActionEdit)).Patch("/{id}", h.AdminUpdateRole)
			r.With(perm(domain.FeatureRole, domain.ActionDelete)).Delete("/{id}", h.AdminDeleteRole)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.With(perm(domain.FeatureAccount, domain.ActionView)).Get("/", h.AdminListAccounts)
			r.With(perm(domain.FeatureAccount, domain.ActionView)).Get("/{id}", h.AdminGetAccount)
			r.With(perm(domain.FeatureAccount, domain.ActionCreate)).Post("/", h.AdminCreateAccount)
			r.With(perm(domain.FeatureAccount, domain.ActionEdit)).Patch("/{id}", h.AdminUpdateAccount)
			r.With(perm(domain.FeatureAccount, domain.ActionDelete)).Delete("/{id}", h.AdminDeleteAccount)
		})
	})
}

// loginLimit throttles login attempts per client address.
func (h *Handlers) loginLimit() []func(http.Handler) http.Handler {
	if h.limiter == nil || h.config.RateLimit.LoginRequests <= 0 {
		return nil
	}
	return []func(http.Handler) http.Handler{
		mw.RateLimit(h.limiter, mw.RateLimitConfig{
			Requests: h.config.RateLimit.LoginRequests,
			Window:   h.config.RateLimit.LoginWindow,
			KeyFunc:  mw.ClientIPKey,
		}),
	}
}
