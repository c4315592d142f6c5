package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"cartsync/internal/core/domain"
	"cartsync/internal/core/service"
	"cartsync/internal/core/validation"
	"cartsync/internal/port"
)

// HTTPHandler is the thin surface the UI talks to; every endpoint is a
// pass-through into the data layer.
type HTTPHandler struct {
	cart   *service.CartService
	menu   *service.MenuService
	orders *service.OrderService
	log    *slog.Logger
}

func NewHTTPHandler(cart *service.CartService, menu *service.MenuService, orders *service.OrderService, log *slog.Logger) *HTTPHandler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &HTTPHandler{cart: cart, menu: menu, orders: orders, log: log}
}

func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.HandleFunc("GET /api/menu", h.GetMenu)

	mux.HandleFunc("GET /api/cart", h.GetCart)
	mux.HandleFunc("POST /api/cart/items", h.AddCartItem)
	mux.HandleFunc("PATCH /api/cart/items/{id}", h.UpdateCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.RemoveCartItem)
	mux.HandleFunc("DELETE /api/cart", h.ClearCart)
	mux.HandleFunc("GET /api/cart/total", h.GetCartTotal)

	mux.HandleFunc("POST /api/checkout", h.Checkout)

	mux.HandleFunc("GET /api/orders", h.GetOrderHistory)
	mux.HandleFunc("GET /api/orders/pending", h.GetPendingOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	mux.HandleFunc("POST /api/orders/{id}/retry", h.RetryOrder)
	mux.HandleFunc("POST /api/orders/{number}/cancel", h.CancelOrder)
	mux.HandleFunc("GET /api/orders/{number}/status", h.GetOrderStatus)

	mux.HandleFunc("GET /api/delivery-info", h.GetDeliveryInfo)
	mux.HandleFunc("PUT /api/delivery-info", h.SaveDeliveryInfo)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	menu, err := h.menu.Menu(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrMenuUnavailable) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		h.log.Error("menu read failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, menu)
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	items, err := h.cart.Items(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type addItemRequest struct {
	Item            domain.MenuItem `json:"item"`
	Quantity        int             `json:"quantity"`
	SelectedSize    string          `json:"selectedSize"`
	SelectedOptions []string        `json:"selectedOptions"`
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Item.Name == "" {
		writeError(w, http.StatusBadRequest, "item name is required")
		return
	}

	items, err := h.cart.Add(r.Context(), req.Item, req.Quantity, req.SelectedSize, req.SelectedOptions)
	if err != nil {
		h.log.Error("cart add failed", "item", req.Item.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *HTTPHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var patch service.CartUpdate
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items, err := h.cart.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	items, err := h.cart.Remove(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": true})
}

func (h *HTTPHandler) GetCartTotal(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]float64{"total": h.cart.Total(r.Context())})
}

type checkoutRequest struct {
	Items    []domain.CartEntry  `json:"items"`
	Delivery domain.DeliveryInfo `json:"deliveryInfo"`
	Customer domain.CustomerInfo `json:"customerInfo"`
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fromCart := len(req.Items) == 0
	items := req.Items
	if fromCart {
		var err error
		items, err = h.cart.Items(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	result, err := h.orders.ProcessCheckout(r.Context(), items, req.Delivery, req.Customer)
	if err != nil {
		var vErr *service.ValidationError
		var netErr *port.NetworkError
		switch {
		case errors.As(err, &vErr):
			writeError(w, http.StatusBadRequest, vErr.Error())
		case errors.As(err, &netErr):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			h.log.Error("checkout failed", "error", err)
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	if !result.Response.Success {
		writeJSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	if fromCart {
		if err := h.cart.Clear(r.Context()); err != nil {
			h.log.Warn("cart clear after checkout failed", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *HTTPHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.orders.OrderHistory(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (h *HTTPHandler) GetPendingOrders(w http.ResponseWriter, r *http.Request) {
	pending, err := h.orders.PendingOrders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.OrderByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) RetryOrder(w http.ResponseWriter, r *http.Request) {
	result, err := h.orders.RetryFailedOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, service.ErrNotRetryable):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	// Reason is optional; an empty or malformed body just means no reason.
	var req cancelRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	resp, err := h.orders.CancelOrder(r.Context(), r.PathValue("number"), req.Reason)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	status := http.StatusOK
	if !resp.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]any{
		"success": resp.Success,
		"message": resp.Message,
	})
}

func (h *HTTPHandler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := h.orders.OrderStatus(r.Context(), r.PathValue("number"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(resp.Payload)
}

func (h *HTTPHandler) GetDeliveryInfo(w http.ResponseWriter, r *http.Request) {
	info, ok := h.orders.DeliveryInfo(r.Context())
	if !ok {
		writeError(w, http.StatusNotFound, "no delivery info saved")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *HTTPHandler) SaveDeliveryInfo(w http.ResponseWriter, r *http.Request) {
	var info domain.DeliveryInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if fieldErrs, ok := validation.ValidateDeliveryInfo(info); !ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"errors":  fieldErrs,
		})
		return
	}

	if err := h.orders.SaveDeliveryInfo(r.Context(), info); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"saved": true})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"message": message,
	})
}
