package tablesync

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/YelzhanWeb/refugio-pos/internal/adapter/logger"
	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

// Service keeps the canonical orders and tables in line with the backend
type Service struct {
	gateway interfaces.OrderGateway
	store   *Store
	lookup  interfaces.ProductLookup
	logger  logger.Logger
	polls   singleflight.Group
}

func NewService(gateway interfaces.OrderGateway, store *Store, lookup interfaces.ProductLookup, log logger.Logger) *Service {
	return &Service{
		gateway: gateway,
		store:   store,
		lookup:  lookup,
		logger:  log,
	}
}

// Refresh fetches the full order list, replaces the canonical collection and
// re-derives table occupancy. It returns the fetched list; if a newer refresh
// was applied first, the current canonical list is returned instead. On error
// nothing is changed.
func (s *Service) Refresh(ctx context.Context) ([]domain.Order, error) {
	seq := s.store.NextSeq()

	snapshot, err := s.gateway.ListOrders(ctx, s.lookup)
	if err != nil {
		s.logger.Error("orders_refresh_failed", "Failed to fetch orders", "", map[string]interface{}{
			"seq": seq,
		}, err)
		return nil, fmt.Errorf("failed to refresh orders: %w", err)
	}

	orders := s.normalize(snapshot)

	applied, current := s.store.Replace(seq, orders)
	if !applied {
		s.logger.Debug("orders_refresh_stale", "Discarded response older than the applied state", "", map[string]interface{}{
			"seq": seq,
		})
		return current, nil
	}

	s.logger.Debug("orders_refreshed", "Orders replaced", "", map[string]interface{}{
		"seq":    seq,
		"orders": len(orders),
	})
	return current, nil
}

// Poll is the timer entry point. Concurrent polls share one request.
func (s *Service) Poll(ctx context.Context) ([]domain.Order, error) {
	v, err, _ := s.polls.Do("orders", func() (interface{}, error) {
		return s.Refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	orders := v.([]domain.Order)
	return append([]domain.Order(nil), orders...), nil
}

func (s *Service) Snapshot() Snapshot {
	return s.store.Snapshot()
}

func (s *Service) Store() *Store {
	return s.store
}

// normalize maps table references onto the layout and makes totals agree with items
func (s *Service) normalize(snapshot *interfaces.OrderSnapshot) []domain.Order {
	for _, id := range snapshot.Dropped {
		s.logger.Warn("order_without_items", "Dropped backend order with no usable items", "", map[string]interface{}{
			"order_id": id,
		})
	}

	layout := s.store.Layout()
	orders := make([]domain.Order, 0, len(snapshot.Orders))
	for _, order := range snapshot.Orders {
		order.TableID = domain.ResolveTableRef(layout, order.TableID)

		computed := order.ComputedTotal()
		if !order.Total.IsZero() && !order.Total.Equal(computed) {
			s.logger.Warn("order_total_mismatch", "Server total differs from items", "", map[string]interface{}{
				"order_id":     order.ID,
				"server_total": order.Total.StringFixed(2),
				"items_total":  computed.StringFixed(2),
			})
		}
		order.Total = computed
		orders = append(orders, order)
	}
	return orders
}
