package handlers

import (
	"net/http"
	"strings"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/internal/http/response"
	"github.com/go-chi/chi/v5"
)

// Storefront

func (h *Handlers) ListTours(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	q := r.URL.Query()
	items, total, err := h.catalog.ListTours(r.Context(), domain.TourFilter{
		Keyword:  strings.TrimSpace(q.Get("keyword")),
		Sort:     q.Get("sort"),
		OnlyLive: true,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	list(w, items, total, limit, offset)
}

func (h *Handlers) TourDetail(w http.ResponseWriter, r *http.Request) {
	tour, err := h.catalog.TourBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "OK", response.M{"tour": tour})
}

func (h *Handlers) ListHotels(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	q := r.URL.Query()
	items, total, err := h.catalog.ListHotels(r.Context(), domain.HotelFilter{
		Keyword:  strings.TrimSpace(q.Get("keyword")),
		City:     strings.TrimSpace(q.Get("city")),
		OnlyLive: true,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	list(w, items, total, limit, offset)
}

func (h *Handlers) HotelDetail(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.catalog.HotelBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "OK", response.M{"hotel": hotel})
}

// Admin

func (h *Handlers) AdminListTours(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	q := r.URL.Query()
	items, total, err := h.catalog.ListTours(r.Context(), domain.TourFilter{
		Keyword: strings.TrimSpace(q.Get("keyword")),
		Sort:    q.Get("sort"),
		Status:  q.Get("status"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	list(w, items, total, limit, offset)
}

func (h *Handlers) AdminGetTour(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	tour, err := h.catalog.GetTour(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "OK", response.M{"tour": tour})
}

func (h *Handlers) AdminCreateTour(w http.ResponseWriter, r *http.Request) {
	var in domain.TourInput
	if !decodeJSON(w, r, &in) {
		return
	}
	tour, err := h.catalog.CreateTour(r.Context(), &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Tour created", response.M{"tour": tour})
}

func (h *Handlers) AdminUpdateTour(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in domain.TourInput
	if !decodeJSON(w, r, &in) {
		return
	}
	tour, err := h.catalog.UpdateTour(r.Context(), id, &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Tour updated", response.M{"tour": tour})
}

func (h *Handlers) AdminDeleteTour(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteTour(r.Context(), id); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Tour deleted", nil)
}

func (h *Handlers) AdminListHotels(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	q := r.URL.Query()
	items, total, err := h.catalog.ListHotels(r.Context(), domain.HotelFilter{
		Keyword: strings.TrimSpace(q.Get("keyword")),
		City:    strings.TrimSpace(q.Get("city")),
		Status:  q.Get("status"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	list(w, items, total, limit, offset)
}

func (h *Handlers) AdminGetHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	hotel, err := h.catalog.GetHotel(r.Context(), id)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "OK", response.M{"hotel": hotel})
}

func (h *Handlers) AdminCreateHotel(w http.ResponseWriter, r *http.Request) {
	var in domain.HotelInput
	if !decodeJSON(w, r, &in) {
		return
	}
	hotel, err := h.catalog.CreateHotel(r.Context(), &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Hotel created", response.M{"hotel": hotel})
}

func (h *Handlers) AdminUpdateHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in domain.HotelInput
	if !decodeJSON(w, r, &in) {
		return
	}
	hotel, err := h.catalog.UpdateHotel(r.Context(), id, &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Hotel updated", response.M{"hotel": hotel})
}

func (h *Handlers) AdminDeleteHotel(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteHotel(r.Context(), id); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Hotel deleted", nil)
}

func (h *Handlers) AdminCreateRoom(w http.ResponseWriter, r *http.Request) {
	hotelID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var in domain.RoomInput
	if !decodeJSON(w, r, &in) {
		return
	}
	room, err := h.catalog.CreateRoom(r.Context(), hotelID, &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Room created", response.M{"room": room})
}

func (h *Handlers) AdminUpdateRoom(w http.ResponseWriter, r *http.Request) {
	hotelID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	roomID, ok := idParam(w, r, "roomId")
	if !ok {
		return
	}
	var in domain.RoomInput
	if !decodeJSON(w, r, &in) {
		return
	}
	room, err := h.catalog.UpdateRoom(r.Context(), hotelID, roomID, &in)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Room updated", response.M{"room": room})
}

func (h *Handlers) AdminDeleteRoom(w http.ResponseWriter, r *http.Request) {
	hotelID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	roomID, ok := idParam(w, r, "roomId")
	if !ok {
		return
	}
	if err := h.catalog.DeleteRoom(r.Context(), hotelID, roomID); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Room deleted", nil)
}
