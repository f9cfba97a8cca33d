package handlers

import (
	"net/http"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/internal/http/response"
)

func (h *Handlers) CartDetail(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Detail(r.Context(), currentUser(r).ID)
	h.writeCart(w, r, "OK", cart, err)
}

func (h *Handlers) AddCartTour(w http.ResponseWriter, r *http.Request) {
	var req domain.AddTourRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cart, err := h.carts.AddTour(r.Context(), currentUser(r).ID, &req)
	h.writeCart(w, r, "Added to cart", cart, err)
}

func (h *Handlers) UpdateCartTour(w http.ResponseWriter, r *http.Request) {
	var req domain.AddTourRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cart, err := h.carts.UpdateTour(r.Context(), currentUser(r).ID, &req)
	h.writeCart(w, r, "Cart updated", cart, err)
}

func (h *Handlers) RemoveCartTour(w http.ResponseWriter, r *http.Request) {
	var req domain.RemoveTourRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cart, err := h.carts.RemoveTour(r.Context(), currentUser(r).ID, &req)
	h.writeCart(w, r, "Removed from cart", cart, err)
}

func (h *Handlers) AddCartRoom(w http.ResponseWriter, r *http.Request) {
	var req domain.AddRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cart, err := h.carts.AddRoom(r.Context(), currentUser(r).ID, &req)
	h.writeCart(w, r, "Added to cart", cart, err)
}

func (h *Handlers) UpdateCartRoom(w http.ResponseWriter, r *http.Request) {
	var req domain.AddRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cart, err := h.carts.UpdateRoom(r.Context(), currentUser(r).ID, &req)
	h.writeCart(w, r, "Cart updated", cart, err)
}

func (h *Handlers) RemoveCartRoom(w http.ResponseWriter, r *http.Request) {
	var req domain.RemoveRoomRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cart, err := h.carts.RemoveRoom(r.Context(), currentUser(r).ID, &req)
	h.writeCart(w, r, "Removed from cart", cart, err)
}

func (h *Handlers) writeCart(w http.ResponseWriter, r *http.Request, msg string, cart *domain.CartDetail, err error) {
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, msg, response.M{"cart": cart})
}
