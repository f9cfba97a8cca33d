package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/internal/http/response"
	"github.com/diagnosis/tourhub/pkg/logger"
)

type ctxKey string

const (
	ctxUser    ctxKey = "user"
	ctxAccount ctxKey = "account"
	ctxRole    ctxKey = "role"
)

func (h *Handlers) userCookie() string { return h.config.Auth.CookieName }

func (h *Handlers) accountCookie() string { return h.config.Auth.CookieName + "_admin" }

// tokenFrom reads the bearer token, falling back to the named cookie.
func tokenFrom(r *http.Request, cookie string) string {
	if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	}
	if c, err := r.Cookie(cookie); err == nil {
		return c.Value
	}
	return ""
}

// RequireUser admits storefront users whose token matches the stored one.
func (h *Handlers) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.auth.Authenticate(r.Context(), tokenFrom(r, h.userCookie()))
		if err != nil {
			response.FromError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxUser, user)
		ctx = context.WithValue(ctx, logger.UserIDKey, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAccount admits admin-console accounts and loads their role.
func (h *Handlers) RequireAccount(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acc, role, err := h.accounts.Authenticate(r.Context(), tokenFrom(r, h.accountCookie()))
		if err != nil {
			response.FromError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), ctxAccount, acc)
		ctx = context.WithValue(ctx, ctxRole, role)
		ctx = context.WithValue(ctx, logger.AccountIDKey, acc.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission must run after RequireAccount.
func RequirePermission(p string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !currentRole(r).Has(p) {
				logger.WarnContext(r.Context(), "Permission denied", "permission", p, "path", r.URL.Path)
				response.Forbidden(w, "You do not have permission to do this")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func currentUser(r *http.Request) *domain.User {
	u, _ := r.Context().Value(ctxUser).(*domain.User)
	return u
}

func currentAccount(r *http.Request) *domain.Account {
	a, _ := r.Context().Value(ctxAccount).(*domain.Account)
	return a
}

func currentRole(r *http.Request) *domain.Role {
	role, _ := r.Context().Value(ctxRole).(*domain.Role)
	return role
}

func (h *Handlers) setCookie(w http.ResponseWriter, name, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.config.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(h.config.Auth.TokenTTL),
	})
}

func (h *Handlers) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.config.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
