package handlers

import (
	"net/http"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/internal/http/response"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	h.setCookie(w, h.userCookie(), res.Token)
	response.OK(w, "Registered", response.M{"token": res.Token})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.auth.Login(r.Context(), &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	h.setCookie(w, h.userCookie(), res.Token)
	response.OK(w, "Logged in", response.M{"token": res.Token, "cartId": res.CartID})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context(), currentUser(r).ID); err != nil {
		response.FromError(w, r, err)
		return
	}
	h.clearCookie(w, h.userCookie())
	response.OK(w, "Logged out", nil)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	response.OK(w, "OK", response.M{"user": currentUser(r)})
}

func (h *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var upd domain.ProfileUpdate
	if !decodeJSON(w, r, &upd) {
		return
	}
	user, err := h.auth.UpdateProfile(r.Context(), currentUser(r).ID, &upd)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Profile updated", response.M{"user": user})
}

func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req domain.PasswordChange
	if !decodeJSON(w, r, &req) {
		return
	}
	token, err := h.auth.ChangePassword(r.Context(), currentUser(r).ID, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	h.setCookie(w, h.userCookie(), token)
	response.OK(w, "Password changed", response.M{"token": token})
}
