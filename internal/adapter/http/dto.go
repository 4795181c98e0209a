package http

import (
	"time"

	"github.com/YelzhanWeb/refugio-pos/internal/app/catalog"
	"github.com/YelzhanWeb/refugio-pos/internal/app/views"
	"github.com/YelzhanWeb/refugio-pos/internal/domain"
)

// Суммы отдаются строками, чтобы не терять точность

type MenuItemResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	Active      bool   `json:"active"`
}

type OrderItemResponse struct {
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	ExtraCharge string `json:"extra_charge"`
	Note        string `json:"note,omitempty"`
	LineTotal   string `json:"line_total"`
}

type OrderResponse struct {
	ID        string              `json:"id"`
	Type      string              `json:"type"`
	TableID   string              `json:"table_id,omitempty"`
	Status    string              `json:"status"`
	Total     string              `json:"total"`
	CreatedAt time.Time           `json:"created_at"`
	Items     []OrderItemResponse `json:"items"`
}

type PendingOrderResponse struct {
	TempID      string        `json:"temp_id"`
	State       string        `json:"state"`
	ConfirmedID string        `json:"confirmed_id,omitempty"`
	Error       string        `json:"error,omitempty"`
	Order       OrderResponse `json:"order"`
}

type TableResponse struct {
	ID         string `json:"id"`
	Number     int    `json:"number"`
	Label      string `json:"label"`
	IsOccupied bool   `json:"is_occupied"`
}

type CategoryResponse struct {
	Category string             `json:"category"`
	Items    []MenuItemResponse `json:"items"`
}

type TableCardResponse struct {
	Table     TableResponse          `json:"table"`
	Orders    []OrderResponse        `json:"orders"`
	Pending   []PendingOrderResponse `json:"pending"`
	Ready     bool                   `json:"ready"`
	OpenTotal string                 `json:"open_total"`
}

type WaiterViewResponse struct {
	Tables   []TableCardResponse `json:"tables"`
	Menu     []CategoryResponse  `json:"menu"`
	SyncedAt time.Time           `json:"synced_at"`
}

type KitchenTicketResponse struct {
	Order       OrderResponse `json:"order"`
	TableNumber int           `json:"table_number,omitempty"`
}

type KitchenViewResponse struct {
	ToCook []KitchenTicketResponse `json:"to_cook"`
	Ready  []KitchenTicketResponse `json:"ready"`
}

type TableTotalResponse struct {
	Table      TableResponse `json:"table"`
	OpenOrders int           `json:"open_orders"`
	Total      string        `json:"total"`
}

type AdminViewResponse struct {
	Occupied    []TableTotalResponse `json:"occupied"`
	GrandTotal  string               `json:"grand_total"`
	CatalogSize int                  `json:"catalog_size"`
	Catalog     []MenuItemResponse   `json:"catalog"`
	Generated   []MenuItemResponse   `json:"generated"`
}

type DeliveryViewResponse struct {
	Orders []OrderResponse `json:"orders"`
}

type NotificationResponse struct {
	ID          string    `json:"id"`
	Level       string    `json:"level"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	OrderID     string    `json:"order_id,omitempty"`
	TableNumber int       `json:"table_number,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
	Persistent  bool      `json:"persistent"`
	CreatedAt   time.Time `json:"created_at"`
}

type SessionResponse struct {
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	OrdersPlaced int       `json:"orders_placed"`
	LastSeen     time.Time `json:"last_seen"`
}

type StatusLogResponse struct {
	Status    string    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	Timestamp time.Time `json:"timestamp"`
	Notes     string    `json:"notes,omitempty"`
}

func toMenuItem(m domain.MenuItem) MenuItemResponse {
	return MenuItemResponse{
		ID:          m.ID,
		Name:        m.Name,
		Price:       m.Price.StringFixed(2),
		Category:    m.Category,
		Description: m.Description,
		ImageURL:    m.ImageURL,
		Active:      m.Active(),
	}
}

func toMenuItems(items []domain.MenuItem) []MenuItemResponse {
	resp := make([]MenuItemResponse, len(items))
	for i, m := range items {
		resp[i] = toMenuItem(m)
	}
	return resp
}

func toOrder(o domain.Order) OrderResponse {
	resp := OrderResponse{
		ID:        o.ID,
		Type:      string(o.Type),
		TableID:   o.TableID,
		Status:    string(o.Status),
		Total:     o.Total.StringFixed(2),
		CreatedAt: o.Timestamp,
		Items:     make([]OrderItemResponse, len(o.Items)),
	}
	for i, item := range o.Items {
		resp.Items[i] = OrderItemResponse{
			ProductID:   item.MenuItem.ID,
			Name:        item.MenuItem.Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.MenuItem.Price.StringFixed(2),
			ExtraCharge: item.ExtraCharge.StringFixed(2),
			Note:        item.Note,
			LineTotal:   item.LineTotal().StringFixed(2),
		}
	}
	return resp
}

func toOrders(orders []domain.Order) []OrderResponse {
	resp := make([]OrderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrder(o)
	}
	return resp
}

func toPending(p domain.PendingOrder) PendingOrderResponse {
	return PendingOrderResponse{
		TempID:      p.Order.ID,
		State:       string(p.State),
		ConfirmedID: p.ConfirmedID,
		Error:       p.Err,
		Order:       toOrder(p.Order),
	}
}

func toTable(t domain.Table) TableResponse {
	return TableResponse{ID: t.ID, Number: t.Number, Label: domain.TableLabel(t.Number), IsOccupied: t.IsOccupied}
}

func toCategories(groups []catalog.CategoryGroup) []CategoryResponse {
	resp := make([]CategoryResponse, len(groups))
	for i, g := range groups {
		resp[i] = CategoryResponse{Category: g.Category, Items: toMenuItems(g.Items)}
	}
	return resp
}

func toTickets(tickets []views.KitchenTicket) []KitchenTicketResponse {
	resp := make([]KitchenTicketResponse, len(tickets))
	for i, t := range tickets {
		resp[i] = KitchenTicketResponse{Order: toOrder(t.Order), TableNumber: t.TableNumber}
	}
	return resp
}

// toView converts whatever views.Service.For returned
func toView(v interface{}) interface{} {
	switch view := v.(type) {
	case views.WaiterView:
		resp := WaiterViewResponse{
			Tables:   make([]TableCardResponse, len(view.Tables)),
			Menu:     toCategories(view.Menu),
			SyncedAt: view.SyncedAt,
		}
		for i, card := range view.Tables {
			pending := make([]PendingOrderResponse, len(card.Pending))
			for j, p := range card.Pending {
				pending[j] = toPending(p)
			}
			resp.Tables[i] = TableCardResponse{
				Table:     toTable(card.Table),
				Orders:    toOrders(card.ActiveOrders),
				Pending:   pending,
				Ready:     card.Ready,
				OpenTotal: card.OpenTotal.StringFixed(2),
			}
		}
		return resp
	case views.KitchenView:
		return KitchenViewResponse{ToCook: toTickets(view.ToCook), Ready: toTickets(view.Ready)}
	case views.AdminView:
		resp := AdminViewResponse{
			Occupied:    make([]TableTotalResponse, len(view.Occupied)),
			GrandTotal:  view.GrandTotal.StringFixed(2),
			CatalogSize: view.CatalogSize,
			Catalog:     toMenuItems(view.Catalog),
			Generated:   toMenuItems(view.Generated),
		}
		for i, t := range view.Occupied {
			resp.Occupied[i] = TableTotalResponse{Table: toTable(t.Table), OpenOrders: t.OpenOrders, Total: t.Total.StringFixed(2)}
		}
		return resp
	case views.DeliveryView:
		return DeliveryViewResponse{Orders: toOrders(view.Orders)}
	}
	return v
}

func toNotifications(list []domain.Notification) []NotificationResponse {
	resp := make([]NotificationResponse, len(list))
	for i, n := range list {
		resp[i] = NotificationResponse{
			ID:          n.ID,
			Level:       string(n.Level),
			Title:       n.Title,
			Message:     n.Message,
			OrderID:     n.OrderID,
			TableNumber: n.TableNumber,
			DurationMs:  n.Duration.Milliseconds(),
			Persistent:  n.Persistent,
			CreatedAt:   n.CreatedAt,
		}
	}
	return resp
}
