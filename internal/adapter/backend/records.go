package backend

import (
	"strconv"
	"strings"

	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

// productRecord is a product as the backend returns it. Field names drifted
// between backend versions, so both spellings are decoded.
type productRecord struct {
	ID              flexString  `json:"id"`
	Name            string      `json:"name"`
	Price           flexDecimal `json:"price"`
	Category        flexString  `json:"category"`
	CategoryID      flexString  `json:"category_id"`
	CategoryIDCamel flexString  `json:"categoryId"`
	Description     string      `json:"description"`
	ImageURL        string      `json:"image_url"`
	ImageURLCamel   string      `json:"imageUrl"`
	IsActive        *bool       `json:"is_active"`
	IsActiveCamel   *bool       `json:"isActive"`
}

func (r productRecord) normalize() domain.MenuItem {
	return domain.MenuItem{
		ID:          string(r.ID),
		Name:        strings.TrimSpace(r.Name),
		Price:       r.Price.Decimal,
		Category:    firstNonEmpty(string(r.Category), string(r.CategoryID), string(r.CategoryIDCamel)),
		Description: r.Description,
		ImageURL:    firstNonEmpty(r.ImageURL, r.ImageURLCamel),
		IsActive:    firstBool(r.IsActive, r.IsActiveCamel),
	}
}

func (r productRecord) toDomain() (domain.MenuItem, bool) {
	item := r.normalize()
	return item, item.ID != ""
}

type orderItemRecord struct {
	ProductID        flexString     `json:"product_id"`
	ProductIDCamel   flexString     `json:"productId"`
	Quantity         flexInt        `json:"quantity"`
	Price            flexDecimal    `json:"price"`
	Note             string         `json:"note"`
	ExtraCharge      flexDecimal    `json:"extra_charge"`
	ExtraChargeCamel flexDecimal    `json:"extraCharge"`
	MenuItem         *productRecord `json:"menu_item"`
	MenuItemCamel    *productRecord `json:"menuItem"`
	Product          *productRecord `json:"product"`
}

type orderRecord struct {
	ID           flexString        `json:"id"`
	Type         string            `json:"type"`
	OrderType    string            `json:"order_type"`
	TableID      flexString        `json:"table_id"`
	TableIDCamel flexString        `json:"tableId"`
	Status       string            `json:"status"`
	Total        flexDecimal       `json:"total"`
	CreatedAt    flexTime          `json:"created_at"`
	Timestamp    flexTime          `json:"timestamp"`
	Items        []orderItemRecord `json:"items"`
}

func normalizeOrders(records []orderRecord, lookup interfaces.ProductLookup) *interfaces.OrderSnapshot {
	snapshot := &interfaces.OrderSnapshot{Orders: make([]domain.Order, 0, len(records))}
	for _, rec := range records {
		order, ok := rec.toDomain(lookup)
		if !ok {
			snapshot.Dropped = append(snapshot.Dropped, string(rec.ID))
			continue
		}
		snapshot.Orders = append(snapshot.Orders, order)
	}
	return snapshot
}

// toDomain rejects records without an id or without a single usable item.
// Total carries the server value when present; callers recompute it.
func (r orderRecord) toDomain(lookup interfaces.ProductLookup) (domain.Order, bool) {
	if r.ID == "" {
		return domain.Order{}, false
	}

	items := make([]domain.OrderItem, 0, len(r.Items))
	for _, rec := range r.Items {
		if item, ok := rec.toDomain(lookup); ok {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return domain.Order{}, false
	}

	order := domain.Order{
		ID:        string(r.ID),
		TableID:   firstNonEmpty(string(r.TableID), string(r.TableIDCamel)),
		Items:     items,
		Status:    domain.ParseStatus(r.Status),
		Timestamp: r.CreatedAt.Time,
	}
	if order.Timestamp.IsZero() {
		order.Timestamp = r.Timestamp.Time
	}
	if order.Status == "" {
		order.Status = domain.StatusPending
	}

	orderType, ok := domain.ParseOrderType(firstNonEmpty(r.Type, r.OrderType))
	switch {
	case ok:
		order.Type = orderType
	case order.TableID != "":
		order.Type = domain.OrderTypeDineIn
	default:
		order.Type = domain.OrderTypeTakeAway
	}

	if r.Total.Set {
		order.Total = r.Total.Decimal
	} else {
		order.CalculateTotal()
	}
	return order, true
}

func (r orderItemRecord) toDomain(lookup interfaces.ProductLookup) (domain.OrderItem, bool) {
	if r.Quantity < 1 {
		return domain.OrderItem{}, false
	}

	productID := firstNonEmpty(string(r.ProductID), string(r.ProductIDCamel))

	var snapshot domain.MenuItem
	switch embedded := firstProduct(r.MenuItem, r.MenuItemCamel, r.Product); {
	case embedded != nil:
		snapshot = embedded.normalize()
		if snapshot.ID == "" {
			snapshot.ID = productID
		}
	case productID != "" && lookup != nil:
		if item, ok := lookup(productID); ok {
			snapshot = item
		} else {
			snapshot = domain.MenuItem{ID: productID}
		}
	case productID != "":
		snapshot = domain.MenuItem{ID: productID}
	default:
		return domain.OrderItem{}, false
	}

	// the line price is what was charged at creation time
	if r.Price.Set {
		snapshot.Price = r.Price.Decimal
	}

	extra := r.ExtraCharge
	if !extra.Set {
		extra = r.ExtraChargeCamel
	}

	return domain.OrderItem{
		MenuItem:    snapshot,
		Quantity:    int(r.Quantity),
		Note:        r.Note,
		ExtraCharge: extra.Decimal,
	}, true
}

type productPayload struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url,omitempty"`
	IsActive    bool    `json:"is_active"`
}

func newProductPayload(item domain.MenuItem) productPayload {
	return productPayload{
		Name:        item.Name,
		Price:       item.Price.Round(2).InexactFloat64(),
		Category:    item.Category,
		Description: item.Description,
		ImageURL:    item.ImageURL,
		IsActive:    item.Active(),
	}
}

type orderItemPayload struct {
	ProductID   any     `json:"product_id"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Note        string  `json:"note,omitempty"`
	ExtraCharge float64 `json:"extra_charge,omitempty"`
}

type orderPayload struct {
	TableID string             `json:"table_id"`
	Status  string             `json:"status"`
	Total   float64            `json:"total"`
	Items   []orderItemPayload `json:"items"`
}

func newOrderPayload(order domain.Order) orderPayload {
	payload := orderPayload{
		TableID: order.TableID,
		Status:  string(order.Status),
		Total:   order.ComputedTotal().Round(2).InexactFloat64(),
		Items:   make([]orderItemPayload, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		payload.Items = append(payload.Items, orderItemPayload{
			ProductID:   productIDValue(item.MenuItem.ID),
			Quantity:    item.Quantity,
			Price:       item.MenuItem.Price.Round(2).InexactFloat64(),
			Note:        item.Note,
			ExtraCharge: item.ExtraCharge.Round(2).InexactFloat64(),
		})
	}
	return payload
}

// productIDValue sends numeric ids as numbers, which is what the backend stores
func productIDValue(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstBool(values ...*bool) *bool {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstProduct(values ...*productRecord) *productRecord {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
