package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/food_order/internal/models"
	"github.com/Skotchmaster/food_order/internal/querycache"
	"github.com/Skotchmaster/food_order/internal/realtime"
	"github.com/Skotchmaster/food_order/internal/repo"
	"github.com/Skotchmaster/food_order/internal/session"
	"github.com/Skotchmaster/food_order/pkg/logging"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Cache  *querycache.Cache
	Events realtime.Publisher
}

// ListOrders is the admin view: active orders, or delivered ones when archived is set.
func (s *OrderService) ListOrders(ctx context.Context, archived bool) ([]models.Order, error) {
	statuses := models.ActiveStatuses
	if archived {
		statuses = models.ArchivedStatuses
	}
	return querycache.Fetch(ctx, s.Cache, querycache.OrderListKey(archived), func(ctx context.Context) ([]models.Order, error) {
		return s.Repo.ListOrdersByStatus(ctx, statuses)
	})
}

func (s *OrderService) ListUserOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	return querycache.Fetch(ctx, s.Cache, querycache.UserOrdersKey(userID), func(ctx context.Context) ([]models.Order, error) {
		return s.Repo.ListUserOrders(ctx, userID)
	})
}

// GetOrder returns the order with items and products. Only its owner or an admin may read it.
func (s *OrderService) GetOrder(ctx context.Context, sess session.Session, id uuid.UUID) (*models.Order, error) {
	order, err := querycache.Fetch(ctx, s.Cache, querycache.OrderKey(id), func(ctx context.Context) (*models.Order, error) {
		return s.Repo.GetOrderDetails(ctx, id)
	})
	if err != nil {
		return nil, mapRepoErr(err, "order")
	}
	if order.UserID != sess.UserID && !sess.IsAdmin() {
		return nil, fmt.Errorf("%w: order belongs to another user", ErrForbidden)
	}
	return order, nil
}

func (s *OrderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	order, err := s.Repo.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		return nil, mapRepoErr(err, "order")
	}

	s.invalidate(ctx, querycache.OrdersKey(), querycache.OrderKey(id))
	s.publish(ctx, realtime.OrderUpdated(*order, time.Now().UTC()))
	return order, nil
}

func (s *OrderService) CreateOrder(ctx context.Context, o *models.Order) error {
	if err := validateOrder(o); err != nil {
		return err
	}
	if _, err := s.Repo.CreateOrder(ctx, o); err != nil {
		return mapRepoErr(err, "order")
	}

	s.invalidate(ctx, querycache.OrdersKey())
	s.publish(ctx, realtime.OrderInserted(*o, time.Now().UTC()))
	return nil
}

func (s *OrderService) AddOrderItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error {
	if err := validateItems(items); err != nil {
		return err
	}
	if err := s.Repo.CreateOrderItems(ctx, orderID, items); err != nil {
		return mapRepoErr(err, "order item")
	}

	s.invalidate(ctx, querycache.OrderKey(orderID))
	return nil
}

// PlaceOrder stores the order and its items together.
func (s *OrderService) PlaceOrder(ctx context.Context, o *models.Order, items []models.OrderItem) error {
	if err := validateOrder(o); err != nil {
		return err
	}
	if err := validateItems(items); err != nil {
		return err
	}
	if err := s.Repo.PlaceOrder(ctx, o, items); err != nil {
		return mapRepoErr(err, "order")
	}

	s.invalidate(ctx, querycache.OrdersKey())
	s.publish(ctx, realtime.OrderInserted(*o, time.Now().UTC()))
	return nil
}

func validateOrder(o *models.Order) error {
	if o.UserID == uuid.Nil {
		return fmt.Errorf("%w: user_id required", ErrValidation)
	}
	if o.Total.IsNegative() {
		return fmt.Errorf("%w: total must be >= 0", ErrValidation)
	}
	if o.Status == "" {
		o.Status = models.OrderStatusNew
	}
	if !o.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, o.Status)
	}
	return nil
}

func validateItems(items []models.OrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: items required", ErrValidation)
	}
	for i := range items {
		if items[i].ProductID == uuid.Nil {
			return fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if !items[i].Size.Valid() {
			return fmt.Errorf("%w: invalid size %q", ErrValidation, items[i].Size)
		}
		if items[i].Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
	}
	return nil
}

func (s *OrderService) invalidate(ctx context.Context, keys ...querycache.Key) {
	if err := s.Cache.Invalidate(ctx, keys...); err != nil {
		logging.FromContext(ctx).Warn("cache_invalidate_failed", "error", err)
	}
}

func (s *OrderService) publish(ctx context.Context, e realtime.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "type", e.Type, "order_id", e.OrderID, "error", err)
	}
}
