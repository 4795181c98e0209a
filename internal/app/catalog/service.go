package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/YelzhanWeb/refugio-pos/internal/adapter/logger"
	"github.com/YelzhanWeb/refugio-pos/internal/app/notify"
	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

// CategoryGroup is one section of the waiter menu
type CategoryGroup struct {
	Category string
	Items    []domain.MenuItem
}

// Service is the catalog cache. Every refresh replaces the whole list.
type Service struct {
	gateway  interfaces.CatalogGateway
	notifier interfaces.Notifier
	logger   logger.Logger

	mu          sync.RWMutex
	items       []domain.MenuItem
	index       map[string]domain.MenuItem
	refreshedAt time.Time
	dispatched  uint64
	applied     uint64
}

func NewService(gateway interfaces.CatalogGateway, notifier interfaces.Notifier, log logger.Logger) *Service {
	return &Service{
		gateway:  gateway,
		notifier: notifier,
		logger:   log,
		index:    make(map[string]domain.MenuItem),
	}
}

// Refresh fetches the catalog and swaps it in. On failure the cached list is
// kept and the user is told.
func (s *Service) Refresh(ctx context.Context) ([]domain.MenuItem, error) {
	items, err := s.Poll(ctx)
	if err != nil {
		s.notifier.Notify(ctx, notify.Transient(domain.LevelError, "Catálogo", "No se pudo actualizar el menú"))
		return nil, err
	}
	return items, nil
}

// Poll is Refresh without the user notification, for the background loop.
// A response older than the last applied one is dropped and the current
// cache is returned instead.
func (s *Service) Poll(ctx context.Context) ([]domain.MenuItem, error) {
	s.mu.Lock()
	s.dispatched++
	seq := s.dispatched
	s.mu.Unlock()

	items, err := s.gateway.ListProducts(ctx)
	if err != nil {
		s.logger.Error("catalog_refresh_failed", "Failed to fetch products", "", nil, err)
		return nil, fmt.Errorf("failed to refresh catalog: %w", err)
	}

	index := make(map[string]domain.MenuItem, len(items))
	for _, item := range items {
		index[item.ID] = item
	}

	s.mu.Lock()
	if seq <= s.applied {
		current, applied := append([]domain.MenuItem(nil), s.items...), s.applied
		s.mu.Unlock()
		s.logger.Debug("catalog_refresh_stale", "Dropped out-of-order catalog response", "", map[string]interface{}{
			"seq":     seq,
			"applied": applied,
		})
		return current, nil
	}
	s.applied = seq
	s.items = items
	s.index = index
	s.refreshedAt = time.Now()
	s.mu.Unlock()

	s.logger.Debug("catalog_refreshed", "Catalog replaced", "", map[string]interface{}{
		"items": len(items),
	})
	return append([]domain.MenuItem(nil), items...), nil
}

// Items returns a copy of the cached catalog
func (s *Service) Items() []domain.MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.MenuItem(nil), s.items...)
}

func (s *Service) Lookup(id string) (domain.MenuItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.index[id]
	return item, ok
}

func (s *Service) RefreshedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshedAt
}

// ByCategory groups the active items by category, sorted by category name
func (s *Service) ByCategory() []CategoryGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make(map[string][]domain.MenuItem)
	for _, item := range s.items {
		if !item.Active() {
			continue
		}
		category := item.Category
		if category == "" {
			category = domain.DefaultCategory
		}
		groups[category] = append(groups[category], item)
	}

	result := make([]CategoryGroup, 0, len(groups))
	for category, items := range groups {
		result = append(result, CategoryGroup{Category: category, Items: items})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Category < result[j].Category })
	return result
}

func (s *Service) Create(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}

	created, err := s.gateway.CreateProduct(ctx, item)
	if err != nil {
		s.mutationFailed(ctx, "product_create_failed", item, err)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.mutationDone(ctx, "product_created", *created, "Producto creado")
	return created, nil
}

func (s *Service) Update(ctx context.Context, item domain.MenuItem) error {
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("%w: product id is required", domain.ErrValidation)
	}
	if err := item.Validate(); err != nil {
		return err
	}

	if err := s.gateway.UpdateProduct(ctx, item); err != nil {
		s.mutationFailed(ctx, "product_update_failed", item, err)
		return fmt.Errorf("failed to update product: %w", err)
	}

	s.mutationDone(ctx, "product_updated", item, "Producto actualizado")
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	item, _ := s.Lookup(id)
	item.ID = id

	if err := s.gateway.DeleteProduct(ctx, id); err != nil {
		s.mutationFailed(ctx, "product_delete_failed", item, err)
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.mutationDone(ctx, "product_deleted", item, "Producto eliminado")
	return nil
}

// Approve saves a generated menu item into the catalog
func (s *Service) Approve(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	if strings.TrimSpace(item.Category) == "" {
		item.Category = domain.DefaultCategory
	}
	// generated ids are local placeholders
	item.ID = ""
	return s.Create(ctx, item)
}

func (s *Service) mutationDone(ctx context.Context, action string, item domain.MenuItem, title string) {
	s.logger.Info(action, "Catalog mutation succeeded", "", map[string]interface{}{
		"product_id": item.ID,
		"name":       item.Name,
	})
	s.notifier.Notify(ctx, notify.Transient(domain.LevelSuccess, title, item.Name))

	if _, err := s.Refresh(ctx); err != nil {
		s.logger.Warn("catalog_resync_failed", "Catalog changed but could not be reloaded", "", nil)
	}
}

func (s *Service) mutationFailed(ctx context.Context, action string, item domain.MenuItem, err error) {
	s.logger.Error(action, "Catalog mutation failed", "", map[string]interface{}{
		"product_id": item.ID,
		"name":       item.Name,
	}, err)
	s.notifier.Notify(ctx, notify.Transient(domain.LevelError, "Catálogo", "No se pudo guardar el producto"))
}
