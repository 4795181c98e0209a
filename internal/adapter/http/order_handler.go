package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/YelzhanWeb/refugio-pos/internal/adapter/logger"
	"github.com/YelzhanWeb/refugio-pos/internal/app/tablesync"
	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

// StateSource is the synchronized order and table state
type StateSource interface {
	Snapshot() tablesync.Snapshot
}

type OrderHandler struct {
	service interfaces.OrderService
	catalog interfaces.CatalogService
	state   StateSource
	logger  logger.Logger
}

func NewOrderHandler(service interfaces.OrderService, catalog interfaces.CatalogService, state StateSource, logger logger.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		catalog: catalog,
		state:   state,
		logger:  logger,
	}
}

func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Place)
	r.Post("/pending/{id}/retry", h.Retry)
	r.Delete("/pending/{id}", h.Discard)
	r.Put("/{id}/status", h.AdvanceStatus)
	r.Post("/{id}/settle", h.Settle)
	r.Post("/{id}/cancel", h.Cancel)
	r.Get("/{id}/history", h.History)
}

type PlaceOrderRequest struct {
	TableID string                  `json:"table_id"`
	Items   []PlaceOrderItemRequest `json:"items"`
}

type PlaceOrderItemRequest struct {
	ProductID   string          `json:"product_id"`
	Quantity    int             `json:"quantity"`
	Note        string          `json:"note"`
	ExtraCharge decimal.Decimal `json:"extra_charge"`
}

type StatusRequest struct {
	Status string `json:"status"`
}

type SettleRequest struct {
	TableID string `json:"table_id"`
}

type CancelRequest struct {
	Confirmed bool `json:"confirmed"`
}

type StateResponse struct {
	Version  uint64                 `json:"version"`
	Tables   []TableResponse        `json:"tables"`
	Orders   []OrderResponse        `json:"orders"`
	Pending  []PendingOrderResponse `json:"pending"`
	SyncedAt *time.Time             `json:"synced_at,omitempty"`
}

type StatusResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()

	resp := StateResponse{
		Version: snap.Version,
		Tables:  make([]TableResponse, len(snap.Tables)),
		Orders:  toOrders(snap.Orders),
		Pending: make([]PendingOrderResponse, len(snap.Pending)),
	}
	if synced := snap.SyncedAt; !synced.IsZero() {
		resp.SyncedAt = &synced
	}
	for i, t := range snap.Tables {
		resp.Tables[i] = toTable(t)
	}
	for i, p := range snap.Pending {
		resp.Pending[i] = toPending(p)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	// 1. Сопоставление товаров с каталогом
	items, err := h.resolveItems(req.Items)
	if err != nil {
		h.logger.Warn("validation_failed", "Order items rejected", RequestID(r.Context()), map[string]interface{}{
			"error": err.Error(),
		})
		respondError(w, err)
		return
	}
	tableID := domain.ResolveTableRef(h.state.Snapshot().Tables, req.TableID)

	// 2. Размещение заказа
	pending, err := h.service.PlaceOrder(r.Context(), tableID, items)
	if err != nil {
		if pending != nil {
			body := toPending(*pending)
			respondJSON(w, statusFor(err), ErrorResponse{Error: err.Error(), Pending: &body})
			return
		}
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toPending(*pending))
}

func (h *OrderHandler) resolveItems(reqs []PlaceOrderItemRequest) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(reqs))
	for i, req := range reqs {
		product, ok := h.catalog.Lookup(strings.TrimSpace(req.ProductID))
		if !ok {
			return nil, fmt.Errorf("%w: items[%d]: unknown product %q", domain.ErrValidation, i, req.ProductID)
		}
		items = append(items, domain.OrderItem{
			MenuItem:    product,
			Quantity:    req.Quantity,
			Note:        strings.TrimSpace(req.Note),
			ExtraCharge: req.ExtraCharge,
		})
	}
	return items, nil
}

func (h *OrderHandler) Retry(w http.ResponseWriter, r *http.Request) {
	pending, err := h.service.RetryPending(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if pending != nil {
			body := toPending(*pending)
			respondJSON(w, statusFor(err), ErrorResponse{Error: err.Error(), Pending: &body})
			return
		}
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, toPending(*pending))
}

func (h *OrderHandler) Discard(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DiscardPending(chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	orderID := chi.URLParam(r, "id")
	status := domain.ParseStatus(req.Status)
	if err := h.service.AdvanceStatus(r.Context(), orderID, status); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, StatusResponse{OrderID: orderID, Status: string(status)})
}

func (h *OrderHandler) Settle(w http.ResponseWriter, r *http.Request) {
	var req SettleRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	orderID := chi.URLParam(r, "id")
	if err := h.service.SettleOrder(r.Context(), orderID, strings.TrimSpace(req.TableID)); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, StatusResponse{OrderID: orderID, Status: string(domain.StatusPaid)})
}

func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}

	orderID := chi.URLParam(r, "id")
	if err := h.service.CancelOrder(r.Context(), orderID, req.Confirmed); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, StatusResponse{OrderID: orderID, Status: string(domain.StatusCancelled)})
}

func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	resp := make([]StatusLogResponse, len(history))
	for i, log := range history {
		resp[i] = StatusLogResponse{
			Status:    string(log.Status),
			ChangedBy: log.ChangedBy,
			Timestamp: log.ChangedAt,
		}
		if log.Notes != nil {
			resp[i].Notes = *log.Notes
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
