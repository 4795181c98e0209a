package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

const (
	maxResponseBytes = 4 << 20
	maxErrorBody     = 512
)

// Client talks to the catalog/order REST service
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.MenuItem, error) {
	var records []productRecord
	if err := c.fetch(ctx, http.MethodGet, "/products/", nil, &records); err != nil {
		return nil, err
	}

	items := make([]domain.MenuItem, 0, len(records))
	for _, rec := range records {
		if item, ok := rec.toDomain(); ok {
			items = append(items, item)
		}
	}
	return items, nil
}

func (c *Client) CreateProduct(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	raw, err := c.do(ctx, http.MethodPost, "/products/", newProductPayload(item))
	if err != nil {
		return nil, err
	}

	created := item
	var rec productRecord
	if len(raw) > 0 && json.Unmarshal(raw, &rec) == nil {
		if echoed, ok := rec.toDomain(); ok {
			created = echoed
		}
	}
	return &created, nil
}

func (c *Client) UpdateProduct(ctx context.Context, item domain.MenuItem) error {
	_, err := c.do(ctx, http.MethodPut, "/products/"+url.PathEscape(item.ID), newProductPayload(item))
	return err
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/products/"+url.PathEscape(id), nil)
	return err
}

func (c *Client) ListOrders(ctx context.Context, lookup interfaces.ProductLookup) (*interfaces.OrderSnapshot, error) {
	var records []orderRecord
	if err := c.fetch(ctx, http.MethodGet, "/orders/", nil, &records); err != nil {
		return nil, err
	}
	return normalizeOrders(records, lookup), nil
}

func (c *Client) CreateOrder(ctx context.Context, order domain.Order) (string, error) {
	raw, err := c.do(ctx, http.MethodPost, "/orders/", newOrderPayload(order))
	if err != nil {
		return "", err
	}

	// the id echo is best effort; the next refresh is authoritative either way
	var rec struct {
		ID flexString `json:"id"`
	}
	if len(raw) > 0 && json.Unmarshal(raw, &rec) == nil {
		return string(rec.ID), nil
	}
	return "", nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status domain.Status) error {
	body := map[string]string{"status": string(status)}
	_, err := c.do(ctx, http.MethodPut, "/orders/"+url.PathEscape(orderID)+"/status", body)
	return err
}

func (c *Client) SetTableOccupancy(ctx context.Context, tableID string, occupied bool) error {
	body := map[string]bool{"is_occupied": occupied}
	_, err := c.do(ctx, http.MethodPut, "/tables/"+url.PathEscape(tableID)+"/occupancy", body)
	return err
}

// GenerateMenu returns ErrSchema when the service answers with anything but a list of items
func (c *Client) GenerateMenu(ctx context.Context, concept string) ([]domain.MenuItem, error) {
	var raw json.RawMessage
	if err := c.fetch(ctx, http.MethodPost, "/ai/generate_menu", map[string]string{"concept": concept}, &raw); err != nil {
		return nil, err
	}

	var records []productRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: generated menu is not a list: %v", ErrSchema, err)
	}

	items := make([]domain.MenuItem, 0, len(records))
	for i, rec := range records {
		item := rec.normalize()
		if strings.TrimSpace(item.Name) == "" {
			continue
		}
		if item.ID == "" {
			item.ID = fmt.Sprintf("gen-%d", i+1)
		}
		items = append(items, item)
	}
	return items, nil
}

// fetch performs the request and decodes a JSON body into out
func (c *Client) fetch(ctx context.Context, method, path string, body, out any) error {
	data, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("%w: %s %s: empty body", ErrSchema, method, path)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrSchema, method, path, err)
	}
	return nil
}

// do performs the request and returns the raw body of a 2xx response
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s %s response: %w", ErrTransport, method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RejectionError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(data)), maxErrorBody),
		}
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
