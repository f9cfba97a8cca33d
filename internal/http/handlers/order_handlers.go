package handlers

import (
	"io"
	"net/http"

	"github.com/diagnosis/tourhub/internal/domain"
	"github.com/diagnosis/tourhub/internal/http/response"
	"github.com/diagnosis/tourhub/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/go-querystring/query"
)

const maxWebhookBytes = 64 << 10

func (h *Handlers) Checkout(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.orders.Checkout(r.Context(), currentUser(r).ID, &req)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Order created", response.M{
		"orderCode":  res.OrderCode,
		"paymentUrl": res.PaymentURL,
		"total":      res.Total,
	})
}

func (h *Handlers) MyOrders(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	items, total, err := h.orders.ListMine(r.Context(), currentUser(r).ID, limit, offset)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	list(w, items, total, limit, offset)
}

func (h *Handlers) MyOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetMine(r.Context(), currentUser(r).ID, chi.URLParam(r, "code"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "OK", response.M{"order": order})
}

type resultQuery struct {
	Status    domain.PaymentResult `url:"status"`
	OrderCode string               `url:"orderCode,omitempty"`
	Message   string               `url:"message,omitempty"`
}

// PaymentReturn is where the hosted payment page sends the buyer back. It
// settles the order and redirects to the storefront result page.
func (h *Handlers) PaymentReturn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("orderCode")
	result, _ := h.orders.HandleReturn(r.Context(), code, q.Get("session_id"))

	logger.InfoContext(r.Context(), "Payment return", "order_code", code, "result", result)

	values, err := query.Values(resultQuery{
		Status:    result,
		OrderCode: code,
		Message:   domain.ResultFor(result).Message,
	})
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	http.Redirect(w, r, h.config.Server.StorefrontURL+"/payment/result?"+values.Encode(), http.StatusFound)
}

// PaymentResult tells the storefront result page what to render for a status.
func (h *Handlers) PaymentResult(w http.ResponseWriter, r *http.Request) {
	view := domain.ResultFor(domain.PaymentResult(r.URL.Query().Get("status")))
	response.OK(w, view.Message, response.M{"result": view})
}

func (h *Handlers) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		response.BadRequest(w, "Unreadable body")
		return
	}
	if err := h.orders.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")); err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Received", nil)
}

// Admin

func (h *Handlers) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	items, total, err := h.orders.List(r.Context(), domain.OrderFilter{
		Status: r.URL.Query().Get("status"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	list(w, items, total, limit, offset)
}

func (h *Handlers) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "OK", response.M{"order": order})
}

func (h *Handlers) AdminSetOrderStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	order, err := h.orders.SetStatus(r.Context(), chi.URLParam(r, "code"), in.Status)
	if err != nil {
		response.FromError(w, r, err)
		return
	}
	response.OK(w, "Order updated", response.M{"order": order})
}
