package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cartsync/internal/core/domain"
	"cartsync/internal/core/validation"
	"cartsync/internal/port"
)

const defaultHistoryCap = 50

var (
	ErrOrderNotFound = errors.New("order not found")

	// ErrNotRetryable is returned when a retry targets an order that is
	// not in the failed state.
	ErrNotRetryable = errors.New("order is not in a retryable state")
)

// ValidationError aggregates every violated checkout rule into one error.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Violations, "; ")
}

// RetryPolicy bounds resubmission attempts. The delay between attempts is
// supplied by configuration; no backoff curve is imposed here.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// OrderService runs the checkout pipeline: build, validate, persist
// pending, submit, reconcile pending/history. The pending and history
// lists are whole-blob read-modify-writes, so every rewrite goes through
// one FIFO queue and concurrent callers cannot interleave them.
type OrderService struct {
	store      port.KeyValueStore
	remote     port.RemoteService
	queue      *taskQueue
	historyCap int
	retry      RetryPolicy
	pricing    domain.Pricing
	log        *slog.Logger
	now        func() time.Time
	sleep      func(context.Context, time.Duration) error
}

func NewOrderService(store port.KeyValueStore, remote port.RemoteService, historyCap int, retry RetryPolicy, pricing domain.Pricing, log *slog.Logger) *OrderService {
	if historyCap <= 0 {
		historyCap = defaultHistoryCap
	}
	if retry.Attempts <= 0 {
		retry.Attempts = 3
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &OrderService{
		store:      store,
		remote:     remote,
		queue:      newTaskQueue(),
		historyCap: historyCap,
		retry:      retry,
		pricing:    pricing,
		log:        log,
		now:        time.Now,
		sleep:      sleepCtx,
	}
}

// Close drains queued bookkeeping writes and stops the worker.
func (s *OrderService) Close() {
	s.queue.Close()
}

// ProcessCheckout converts cart, delivery and customer data into a durable
// submission. The order is persisted to the pending list before the network
// call so a crash mid-submission leaves it recoverable.
func (s *OrderService) ProcessCheckout(ctx context.Context, items []domain.CartEntry, delivery domain.DeliveryInfo, customer domain.CustomerInfo) (*domain.CheckoutResult, error) {
	order := domain.BuildOrder(items, delivery, customer, s.pricing, s.now())

	if violations := validation.OrderViolations(order); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	if err := s.appendPending(ctx, order); err != nil {
		return nil, fmt.Errorf("persist pending order: %w", err)
	}

	return s.submit(ctx, order)
}

// RetryOrder resubmits an order up to maxAttempts times, stopping at the
// first success. The order must already be in the pending list.
func (s *OrderService) RetryOrder(ctx context.Context, order domain.Order, maxAttempts int) (*domain.CheckoutResult, error) {
	if maxAttempts <= 0 {
		maxAttempts = s.retry.Attempts
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := s.sleep(ctx, s.retry.Delay); err != nil {
				return nil, err
			}
		}

		result, err := s.submit(ctx, order)
		if err == nil && result.Response.Success {
			return result, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = errors.New(firstNonEmpty(result.Response.Error, result.Response.Message, "order rejected"))
		}
		s.log.Warn("order submission attempt failed",
			"order_id", order.ID, "attempt", attempt, "error", lastErr)
	}

	return nil, fmt.Errorf("order submission failed after %d attempts: %w", maxAttempts, lastErr)
}

// RetryFailedOrder looks up a failed pending order, resets it to pending
// and re-runs the submission flow with the configured retry policy.
func (s *OrderService) RetryFailedOrder(ctx context.Context, orderID string) (*domain.CheckoutResult, error) {
	var target domain.Order
	err := s.queue.Do(ctx, func() error {
		pending := s.loadList(ctx, pendingOrdersKey)
		for i := range pending {
			if pending[i].ID == orderID {
				if pending[i].Status != domain.OrderStatusFailed {
					return ErrNotRetryable
				}
				pending[i].Status = domain.OrderStatusPending
				pending[i].Note = ""
				pending[i].UpdatedAt = s.now()
				target = pending[i]
				return s.saveList(ctx, pendingOrdersKey, pending)
			}
		}
		return ErrOrderNotFound
	})
	if err != nil {
		return nil, err
	}
	return s.RetryOrder(ctx, target, s.retry.Attempts)
}

// OrderHistory returns resolved orders, most recent first.
func (s *OrderService) OrderHistory(ctx context.Context) ([]domain.Order, error) {
	var history []domain.Order
	err := s.queue.Do(ctx, func() error {
		history = s.loadList(ctx, orderHistoryKey)
		return nil
	})
	return history, err
}

// PendingOrders returns the unresolved bookkeeping list.
func (s *OrderService) PendingOrders(ctx context.Context) ([]domain.Order, error) {
	var pending []domain.Order
	err := s.queue.Do(ctx, func() error {
		pending = s.loadList(ctx, pendingOrdersKey)
		return nil
	})
	return pending, err
}

// OrderByID finds an order by local id or server-issued order number,
// checking history first, then pending.
func (s *OrderService) OrderByID(ctx context.Context, id string) (*domain.Order, error) {
	var found *domain.Order
	err := s.queue.Do(ctx, func() error {
		for _, list := range [][]domain.Order{
			s.loadList(ctx, orderHistoryKey),
			s.loadList(ctx, pendingOrdersKey),
		} {
			for i := range list {
				if list[i].ID == id || (list[i].OrderNumber != "" && list[i].OrderNumber == id) {
					o := list[i]
					found = &o
					return nil
				}
			}
		}
		return ErrOrderNotFound
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// OrderStatus delegates to the remote service.
func (s *OrderService) OrderStatus(ctx context.Context, orderNumber string) (*domain.StatusResponse, error) {
	return s.remote.OrderStatus(ctx, orderNumber)
}

// CancelOrder cancels remotely, then marks the local history entry
// cancelled only when the remote call succeeded.
func (s *OrderService) CancelOrder(ctx context.Context, orderNumber, reason string) (*domain.CancelResponse, error) {
	resp, err := s.remote.CancelOrder(ctx, orderNumber, reason)
	if err != nil {
		return nil, err
	}
	if resp.Success {
		s.markCancelled(ctx, orderNumber)
	}
	return resp, nil
}

// SaveDeliveryInfo persists the delivery form for prefill.
func (s *OrderService) SaveDeliveryInfo(ctx context.Context, info domain.DeliveryInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode delivery info: %w", err)
	}
	if err := s.store.Set(ctx, deliveryInfoKey, string(data)); err != nil {
		return fmt.Errorf("persist delivery info: %w", err)
	}
	return nil
}

// DeliveryInfo returns the saved delivery form. Missing or unreadable data
// degrades to not-found.
func (s *OrderService) DeliveryInfo(ctx context.Context) (domain.DeliveryInfo, bool) {
	raw, err := s.store.Get(ctx, deliveryInfoKey)
	if err != nil {
		return domain.DeliveryInfo{}, false
	}
	var info domain.DeliveryInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		s.log.Warn("delivery info corrupted, ignoring", "error", err)
		return domain.DeliveryInfo{}, false
	}
	return info, true
}

// submit runs one submission attempt and reconciles local bookkeeping with
// the outcome. The order must already be in the pending list.
func (s *OrderService) submit(ctx context.Context, order domain.Order) (*domain.CheckoutResult, error) {
	resp, err := s.remote.SubmitOrder(ctx, order)
	if err != nil {
		s.markFailed(ctx, order.ID, err.Error())
		return nil, fmt.Errorf("Checkout processing failed: %w", err)
	}

	if !resp.Success {
		note := firstNonEmpty(resp.Error, resp.Message, "order rejected")
		s.markFailed(ctx, order.ID, note)
		order.Status = domain.OrderStatusFailed
		order.Note = note
		order.UpdatedAt = s.now()
		return &domain.CheckoutResult{Order: order, Response: resp}, nil
	}

	order.Status = domain.OrderStatusConfirmed
	order.OrderNumber = firstNonEmpty(resp.OrderNumber, resp.ConfirmationNumber)
	order.RemoteID = resp.OrderID
	order.EstimatedDeliveryTime = resp.EstimatedDeliveryTime
	order.UpdatedAt = s.now()

	if err := s.confirmLocal(ctx, order); err != nil {
		// The pending entry stays behind as evidence the order may need
		// reconciliation.
		s.log.Error("confirmed order bookkeeping failed",
			"order_id", order.ID, "error", err)
		return nil, err
	}

	return &domain.CheckoutResult{Order: order, Response: resp}, nil
}

// appendPending durably records the order before any network IO.
func (s *OrderService) appendPending(ctx context.Context, order domain.Order) error {
	return s.queue.Do(ctx, func() error {
		pending := s.loadList(ctx, pendingOrdersKey)
		pending = append(pending, order)
		return s.saveList(ctx, pendingOrdersKey, pending)
	})
}

// markFailed flips the pending entry to failed and stores the reason. The
// entry is kept for inspection and retry. Best effort.
func (s *OrderService) markFailed(ctx context.Context, orderID, note string) {
	err := s.queue.Do(ctx, func() error {
		pending := s.loadList(ctx, pendingOrdersKey)
		for i := range pending {
			if pending[i].ID == orderID {
				pending[i].Status = domain.OrderStatusFailed
				pending[i].Note = note
				pending[i].UpdatedAt = s.now()
				return s.saveList(ctx, pendingOrdersKey, pending)
			}
		}
		return nil
	})
	if err != nil {
		s.log.Warn("failed to mark pending order as failed",
			"order_id", orderID, "error", err)
	}
}

// confirmLocal appends the confirmed order to history (most recent first,
// oldest evicted past the cap) and removes it from pending, in that order.
func (s *OrderService) confirmLocal(ctx context.Context, order domain.Order) error {
	return s.queue.Do(ctx, func() error {
		history := s.loadList(ctx, orderHistoryKey)
		history = append([]domain.Order{order}, history...)
		if len(history) > s.historyCap {
			history = history[:s.historyCap]
		}
		if err := s.saveList(ctx, orderHistoryKey, history); err != nil {
			return fmt.Errorf("persist order history: %w", err)
		}

		pending := s.loadList(ctx, pendingOrdersKey)
		kept := make([]domain.Order, 0, len(pending))
		for _, o := range pending {
			if o.ID != order.ID {
				kept = append(kept, o)
			}
		}
		if err := s.saveList(ctx, pendingOrdersKey, kept); err != nil {
			return fmt.Errorf("persist pending orders: %w", err)
		}
		return nil
	})
}

func (s *OrderService) markCancelled(ctx context.Context, orderNumber string) {
	err := s.queue.Do(ctx, func() error {
		history := s.loadList(ctx, orderHistoryKey)
		for i := range history {
			if history[i].OrderNumber == orderNumber && history[i].Status == domain.OrderStatusConfirmed {
				history[i].Status = domain.OrderStatusCancelled
				history[i].UpdatedAt = s.now()
				return s.saveList(ctx, orderHistoryKey, history)
			}
		}
		return nil
	})
	if err != nil {
		s.log.Warn("failed to mark order cancelled locally",
			"order_number", orderNumber, "error", err)
	}
}

// loadList degrades missing or unreadable lists to empty, matching the
// cart's read semantics.
func (s *OrderService) loadList(ctx context.Context, key string) []domain.Order {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, port.ErrKeyNotFound) {
			s.log.Warn("order list read failed, starting from empty",
				"key", key, "error", err)
		}
		return []domain.Order{}
	}
	var orders []domain.Order
	if err := json.Unmarshal([]byte(raw), &orders); err != nil {
		s.log.Warn("order list corrupted, starting from empty",
			"key", key, "error", err)
		return []domain.Order{}
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders
}

func (s *OrderService) saveList(ctx context.Context, key string, orders []domain.Order) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("encode order list: %w", err)
	}
	return s.store.Set(ctx, key, string(data))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
