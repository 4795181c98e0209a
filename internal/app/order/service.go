package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/YelzhanWeb/refugio-pos/internal/adapter/logger"
	"github.com/YelzhanWeb/refugio-pos/internal/app/notify"
	"github.com/YelzhanWeb/refugio-pos/internal/app/tablesync"
	"github.com/YelzhanWeb/refugio-pos/internal/domain"
	"github.com/YelzhanWeb/refugio-pos/internal/interfaces"
)

// ErrResyncFailed means the backend accepted the change but the follow-up
// refresh did not succeed, so decisions that depend on it were skipped.
var ErrResyncFailed = errors.New("change saved but orders could not be refreshed")

// Synchronizer is the forced refresh every mutation ends with
type Synchronizer interface {
	Refresh(ctx context.Context) ([]domain.Order, error)
}

type Service struct {
	gateway  interfaces.OrderGateway
	sync     Synchronizer
	store    *tablesync.Store
	journal  interfaces.StatusJournal
	sessions interfaces.SessionRepository
	users    interfaces.CurrentUser
	notifier interfaces.Notifier
	logger   logger.Logger
	now      func() time.Time
}

func NewService(
	gateway interfaces.OrderGateway,
	sync Synchronizer,
	store *tablesync.Store,
	journal interfaces.StatusJournal,
	sessions interfaces.SessionRepository,
	users interfaces.CurrentUser,
	notifier interfaces.Notifier,
	logger logger.Logger,
) *Service {
	return &Service{
		gateway:  gateway,
		sync:     sync,
		store:    store,
		journal:  journal,
		sessions: sessions,
		users:    users,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// PlaceOrder shows the order on its table at once and then submits it. A
// rejected submission leaves the order flagged FAILED for retry or discard.
func (s *Service) PlaceOrder(ctx context.Context, tableID string, items []domain.OrderItem) (*domain.PendingOrder, error) {
	tableID = strings.TrimSpace(tableID)
	if _, ok := domain.FindTable(s.store.Layout(), tableID); !ok {
		return nil, fmt.Errorf("table %q: %w", tableID, domain.ErrUnknownTable)
	}

	// 1. Создание доменной сущности (валидация и расчет суммы)
	order, err := domain.NewOrder(domain.OrderTypeDineIn, tableID, items, s.now())
	if err != nil {
		s.logger.Error("validation_failed", "Order validation failed", "", map[string]interface{}{
			"table_id": tableID,
		}, err)
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// 2. Оптимистичная запись: заказ и занятость стола видны до ответа сервера
	pending := s.store.AddPending(*order)
	s.logger.Debug("order_placed_locally", "Order registered as pending", "", map[string]interface{}{
		"temp_id":  order.ID,
		"table_id": tableID,
		"total":    order.Total.StringFixed(2),
	})

	// 3. Отправка на сервер
	return s.submit(ctx, pending)
}

// RetryPending resubmits an order whose placement failed
func (s *Service) RetryPending(ctx context.Context, tempID string) (*domain.PendingOrder, error) {
	pending, err := s.store.ResubmitPending(tempID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("order_retry", "Resubmitting failed order", "", map[string]interface{}{
		"temp_id": tempID,
	})
	return s.submit(ctx, pending)
}

// DiscardPending drops a failed order from the terminal
func (s *Service) DiscardPending(tempID string) error {
	if err := s.store.DiscardPending(tempID); err != nil {
		return err
	}
	s.logger.Info("order_discarded", "Failed order discarded", "", map[string]interface{}{
		"temp_id": tempID,
	})
	return nil
}

func (s *Service) submit(ctx context.Context, pending domain.PendingOrder) (*domain.PendingOrder, error) {
	order := pending.Order
	table := s.table(order.TableID)

	backendID, err := s.gateway.CreateOrder(ctx, order)
	if err != nil {
		failed, _ := s.store.FailPending(order.ID, err)
		s.logger.Error("order_create_failed", "Backend rejected order", "", map[string]interface{}{
			"temp_id":  order.ID,
			"table_id": order.TableID,
		}, err)
		s.notifier.Notify(ctx, domain.Notification{
			Level:       domain.LevelError,
			Title:       domain.TableLabel(table.Number),
			Message:     "La orden se ve en pantalla pero no se guardó en el servidor",
			OrderID:     order.ID,
			TableID:     order.TableID,
			TableNumber: table.Number,
			Duration:    domain.ErrorAlertDuration,
		})
		return &failed, fmt.Errorf("failed to create order: %w", err)
	}

	confirmed, err := s.store.ConfirmPending(order.ID, backendID)
	if err != nil {
		// discarded while in flight; the backend copy shows up with the next refresh
		s.logger.Warn("order_confirm_orphaned", "Confirmed order is no longer pending", "", map[string]interface{}{
			"temp_id":    order.ID,
			"backend_id": backendID,
		})
		confirmed = pending
		confirmed.State = domain.PendingConfirmed
		confirmed.ConfirmedID = backendID
	}

	s.logger.Info("order_created", "Order saved on backend", "", map[string]interface{}{
		"temp_id":    order.ID,
		"backend_id": backendID,
		"table_id":   order.TableID,
	})

	journalID := backendID
	if journalID == "" {
		journalID = order.ID
	}
	s.record(ctx, journalID, domain.StatusPending, "order placed")
	s.countPlaced(ctx)

	if _, err := s.refresh(ctx); err != nil {
		// the order stays visible as CONFIRMED until a later poll picks it up
		return &confirmed, nil
	}

	s.notifier.Notify(ctx, domain.Notification{
		Level:       domain.LevelSuccess,
		Title:       domain.TableLabel(table.Number),
		Message:     "Orden enviada a cocina",
		OrderID:     firstNonEmpty(backendID, order.ID),
		TableID:     order.TableID,
		TableNumber: table.Number,
		Duration:    domain.TransientDuration,
	})
	return &confirmed, nil
}

// AdvanceStatus moves an order through the kitchen and dispatch statuses.
// PAID and CANCELLED go through SettleOrder and CancelOrder.
func (s *Service) AdvanceStatus(ctx context.Context, orderID string, status domain.Status) error {
	status = domain.ParseStatus(string(status))
	switch status {
	case domain.StatusCooking, domain.StatusReady, domain.StatusDelivered:
	default:
		return fmt.Errorf("status %q cannot be set directly: %w", status, domain.ErrInvalidStatusTransition)
	}

	if _, err := s.guard(orderID, status); err != nil {
		return err
	}

	if err := s.updateStatus(ctx, orderID, status); err != nil {
		return err
	}

	fresh, err := s.refresh(ctx)
	if status == domain.StatusReady {
		s.announceReady(ctx, orderID, fresh, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrResyncFailed, err)
	}
	return nil
}

// SettleOrder marks the order paid and frees the table when the refreshed
// list shows nothing else active on it.
func (s *Service) SettleOrder(ctx context.Context, orderID, tableID string) error {
	current, err := s.guard(orderID, domain.StatusPaid)
	if err != nil {
		return err
	}
	// the table always comes from the order; a caller reference may only confirm it
	if ref := domain.ResolveTableRef(s.store.Layout(), tableID); ref != "" && ref != current.TableID {
		return fmt.Errorf("%w: order %s is on table %q, not %q", domain.ErrValidation, orderID, current.TableID, tableID)
	}
	tableID = current.TableID

	if err := s.updateStatus(ctx, orderID, domain.StatusPaid); err != nil {
		return err
	}

	if err := s.releaseIfIdle(ctx, orderID, tableID); err != nil {
		return err
	}

	table := s.table(tableID)
	s.notifier.Notify(ctx, domain.Notification{
		Level:       domain.LevelSuccess,
		Title:       domain.TableLabel(table.Number),
		Message:     "Cuenta cobrada",
		OrderID:     orderID,
		TableID:     tableID,
		TableNumber: table.Number,
		Duration:    domain.TransientDuration,
	})
	return nil
}

// CancelOrder requires explicit confirmation from the caller
func (s *Service) CancelOrder(ctx context.Context, orderID string, confirmed bool) error {
	if !confirmed {
		return domain.ErrConfirmationRequired
	}

	current, err := s.guard(orderID, domain.StatusCancelled)
	if err != nil {
		return err
	}

	if err := s.updateStatus(ctx, orderID, domain.StatusCancelled); err != nil {
		return err
	}

	if err := s.releaseIfIdle(ctx, orderID, current.TableID); err != nil {
		return err
	}

	table := s.table(current.TableID)
	s.notifier.Notify(ctx, domain.Notification{
		Level:       domain.LevelInfo,
		Title:       "Orden cancelada",
		Message:     fmt.Sprintf("Orden %s cancelada", orderID),
		OrderID:     orderID,
		TableID:     current.TableID,
		TableNumber: table.Number,
		Duration:    domain.TransientDuration,
	})
	return nil
}

func (s *Service) History(ctx context.Context, orderID string) ([]*domain.StatusLog, error) {
	logs, err := s.journal.GetStatusHistory(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get status history: %w", err)
	}
	return logs, nil
}

// guard checks the transition against the canonical copy of the order
func (s *Service) guard(orderID string, status domain.Status) (domain.Order, error) {
	if domain.IsTemporaryID(orderID) {
		return domain.Order{}, fmt.Errorf("order %s: %w", orderID, domain.ErrUnconfirmedOrder)
	}
	current, ok := s.store.Order(orderID)
	if !ok {
		return domain.Order{}, fmt.Errorf("order %s: %w", orderID, domain.ErrUnknownOrder)
	}
	if !current.CanTransitionTo(status) {
		return domain.Order{}, fmt.Errorf("order %s %s -> %s: %w", orderID, current.Status, status, domain.ErrInvalidStatusTransition)
	}
	return current, nil
}

func (s *Service) updateStatus(ctx context.Context, orderID string, status domain.Status) error {
	if err := s.gateway.UpdateOrderStatus(ctx, orderID, status); err != nil {
		s.logger.Error("order_status_update_failed", "Failed to update order status", "", map[string]interface{}{
			"order_id": orderID,
			"status":   string(status),
		}, err)
		s.notifier.Notify(ctx, notify.Transient(domain.LevelError, "Error",
			fmt.Sprintf("No se pudo cambiar la orden %s a %s", orderID, status)))
		return fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Debug("order_status_updated", "Order status updated", "", map[string]interface{}{
		"order_id": orderID,
		"status":   string(status),
	})
	s.record(ctx, orderID, status, "")
	return nil
}

// releaseIfIdle refreshes and frees the table only if the fresh list has no
// active order on it. Without a fresh list the table is left as it is.
func (s *Service) releaseIfIdle(ctx context.Context, orderID, tableID string) error {
	fresh, err := s.refresh(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrResyncFailed, err)
	}
	if tableID == "" {
		return nil
	}

	if active := domain.CountActiveOnTable(fresh, tableID); active > 0 {
		s.logger.Debug("table_still_occupied", "Table keeps other active orders", "", map[string]interface{}{
			"order_id": orderID,
			"table_id": tableID,
			"active":   active,
		})
		return nil
	}

	if err := s.gateway.SetTableOccupancy(ctx, tableID, false); err != nil {
		s.logger.Error("table_release_failed", "Failed to release table", "", map[string]interface{}{
			"order_id": orderID,
			"table_id": tableID,
		}, err)
		s.notifier.Notify(ctx, notify.Transient(domain.LevelError, domain.TableLabel(s.table(tableID).Number),
			"No se pudo liberar la mesa"))
		return fmt.Errorf("failed to release table: %w", err)
	}

	s.logger.Info("table_released", "Table released", "", map[string]interface{}{
		"order_id": orderID,
		"table_id": tableID,
	})
	return nil
}

// announceReady names the table from the refreshed list, not from the local
// copy the kitchen clicked on.
func (s *Service) announceReady(ctx context.Context, orderID string, fresh []domain.Order, refreshErr error) {
	n := domain.Notification{
		Level:      domain.LevelAlert,
		Title:      "Orden lista",
		Message:    fmt.Sprintf("Orden %s lista", orderID),
		OrderID:    orderID,
		Duration:   domain.ReadyAlertDuration,
		Persistent: true,
	}

	if refreshErr == nil {
		if ready, ok := domain.FindOrder(fresh, orderID); ok && ready.TableID != "" {
			if table, found := domain.FindTable(s.store.Layout(), ready.TableID); found {
				label := domain.TableLabel(table.Number)
				n.Title = label
				n.Message = fmt.Sprintf("%s: orden %s lista para servir", label, orderID)
				n.TableID = table.ID
				n.TableNumber = table.Number
			}
		}
	}

	s.notifier.Notify(ctx, n)
}

func (s *Service) refresh(ctx context.Context) ([]domain.Order, error) {
	fresh, err := s.sync.Refresh(ctx)
	if err != nil {
		s.logger.Error("resync_failed", "Forced refresh after mutation failed", "", nil, err)
		s.notifier.Notify(ctx, notify.Transient(domain.LevelWarning, "Sincronización",
			"No se pudieron actualizar las órdenes; se muestra el último estado conocido"))
		return nil, err
	}
	return fresh, nil
}

func (s *Service) record(ctx context.Context, orderID string, status domain.Status, note string) {
	var notes *string
	if note != "" {
		notes = &note
	}
	if err := s.journal.LogStatus(ctx, orderID, status, s.actor(), notes); err != nil {
		s.logger.Error("journal_write_failed", "Failed to journal status change", "", map[string]interface{}{
			"order_id": orderID,
			"status":   string(status),
		}, err)
	}
}

func (s *Service) countPlaced(ctx context.Context) {
	if s.sessions == nil || s.users == nil {
		return
	}
	user, ok := s.users.CurrentUser()
	if !ok {
		return
	}
	if err := s.sessions.IncrementOrdersPlaced(ctx, user.Username); err != nil {
		s.logger.Warn("session_counter_failed", "Failed to count placed order", "", map[string]interface{}{
			"username": user.Username,
		})
	}
}

func (s *Service) actor() string {
	if s.users != nil {
		if user, ok := s.users.CurrentUser(); ok {
			return user.Username
		}
	}
	return "terminal"
}

func (s *Service) table(id string) domain.Table {
	table, _ := domain.FindTable(s.store.Layout(), id)
	return table
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
