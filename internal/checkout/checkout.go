// Package checkout turns a session's cart into a paid order.
package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/food_order/internal/cart"
	"github.com/Skotchmaster/food_order/internal/models"
	"github.com/Skotchmaster/food_order/internal/session"
	"github.com/Skotchmaster/food_order/internal/transport"
	"github.com/Skotchmaster/food_order/pkg/logging"
)

const intentSucceeded = "succeeded"

// Payments is the payment function. Calls carry the caller's own access token.
type Payments interface {
	CreateSheet(ctx context.Context, token string, amount int64) (transport.PaymentSheet, error)
	IntentStatus(ctx context.Context, token, intentID string) (transport.PaymentIntentStatus, error)
}

// Orders persists orders. PlaceOrder writes the order and its items in one transaction.
type Orders interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	AddOrderItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error
	PlaceOrder(ctx context.Context, o *models.Order, items []models.OrderItem) error
}

type Carts interface {
	Get(sessionID string) *cart.Cart
}

// PaymentResult is what the client's payment sheet reported.
type PaymentResult struct {
	Completed bool
	ErrorCode string
	Message   string
}

// Checkout is a point-in-time copy of one checkout attempt.
type Checkout struct {
	ID        uuid.UUID
	SessionID string
	UserID    uuid.UUID
	Status    Status
	Total     decimal.Decimal
	Amount    int64
	Lines     []cart.Line
	Sheet     *transport.PaymentSheet
	OrderID   *uuid.UUID
	Redirect  string
	Err       string
	UpdatedAt time.Time
}

type attempt struct {
	Checkout
	busy bool
}

type Service struct {
	payments Payments
	orders   Orders
	carts    Carts
	atomic   bool
	now      func() time.Time

	mu        sync.Mutex
	bySession map[string]*attempt
}

// NewService builds the orchestrator. With atomic off, an item insert failure leaves the order row behind.
func NewService(payments Payments, orders Orders, carts Carts, atomic bool) *Service {
	return &Service{
		payments:  payments,
		orders:    orders,
		carts:     carts,
		atomic:    atomic,
		now:       time.Now,
		bySession: make(map[string]*attempt),
	}
}

// MinorUnits converts a decimal total to integer cents, truncating.
func MinorUnits(total decimal.Decimal) int64 {
	return total.Mul(decimal.NewFromInt(100)).Floor().IntPart()
}

// Begin snapshots the cart and asks the payment function for a payment sheet.
func (s *Service) Begin(ctx context.Context, sess session.Session) (Checkout, error) {
	l := logging.FromContext(ctx).With("component", "checkout.begin", "session_id", sess.ID)

	s.mu.Lock()
	if cur, ok := s.bySession[sess.ID]; ok && !cur.Status.IsTerminal() {
		s.mu.Unlock()
		l.Warn("checkout_begin_failed", "reason", "checkout in progress", "checkout_id", cur.ID)
		return Checkout{}, ErrCheckoutInProgress
	}

	snap := s.carts.Get(sess.ID).Snapshot()
	if len(snap.Lines) == 0 {
		s.mu.Unlock()
		l.Warn("checkout_begin_failed", "reason", "empty cart")
		return Checkout{}, ErrEmptyCart
	}

	a := &attempt{Checkout: Checkout{
		ID:        uuid.New(),
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Status:    StatusIdle,
		Total:     snap.Total,
		Amount:    MinorUnits(snap.Total),
		Lines:     snap.Lines,
		UpdatedAt: s.now(),
	}}
	if err := s.transition(a, StatusAuthorizingPayment); err != nil {
		s.mu.Unlock()
		return Checkout{}, err
	}
	a.busy = true
	s.bySession[sess.ID] = a
	s.mu.Unlock()

	l = l.With("checkout_id", a.ID)

	sheet, err := s.payments.CreateSheet(ctx, sess.Token, a.Amount)

	s.mu.Lock()
	defer s.mu.Unlock()
	a.busy = false

	if err != nil {
		l.Error("checkout_begin_failed", "reason", "payment sheet request failed", "amount", a.Amount, "error", err)
		s.fail(a, err)
		return a.snapshot(), fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
	if a.Status != StatusAuthorizingPayment {
		// cancelled while the sheet was being created
		return a.snapshot(), ErrIllegalTransition
	}

	a.Sheet = &sheet
	l.Info("checkout_payment_sheet_ready", "amount", a.Amount)
	return a.snapshot(), nil
}

// Confirm finishes the checkout after the client's payment sheet closed.
// Confirming a completed checkout again returns the same result.
func (s *Service) Confirm(ctx context.Context, sess session.Session, res PaymentResult) (Checkout, error) {
	l := logging.FromContext(ctx).With("component", "checkout.confirm", "session_id", sess.ID)

	s.mu.Lock()
	a, ok := s.bySession[sess.ID]
	switch {
	case !ok:
		s.mu.Unlock()
		return Checkout{}, ErrNoCheckout
	case a.Status == StatusComplete:
		out := a.snapshot()
		s.mu.Unlock()
		return out, nil
	case a.busy:
		s.mu.Unlock()
		return Checkout{}, ErrCheckoutInProgress
	case a.Status != StatusAuthorizingPayment || a.Sheet == nil:
		out := a.snapshot()
		s.mu.Unlock()
		return out, ErrIllegalTransition
	}
	a.busy = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		a.busy = false
		s.mu.Unlock()
	}()

	l = l.With("checkout_id", a.ID)

	if !res.Completed {
		reason := res.Message
		if reason == "" {
			reason = "payment cancelled"
		}
		l.Warn("checkout_confirm_failed", "reason", reason, "code", res.ErrorCode)
		return s.failed(a, fmt.Errorf("%w: %s", ErrPaymentFailed, reason))
	}

	intentID := IntentID(a.Sheet.PaymentIntent)
	intent, err := s.payments.IntentStatus(ctx, sess.Token, intentID)
	if err != nil {
		l.Error("checkout_confirm_failed", "reason", "cannot verify payment", "error", err)
		return s.failed(a, fmt.Errorf("%w: %v", ErrPaymentFailed, err))
	}
	if intent.Status != intentSucceeded {
		l.Warn("checkout_confirm_failed", "reason", "payment not captured", "intent_status", intent.Status)
		return s.failed(a, fmt.Errorf("%w: intent status %s", ErrPaymentFailed, intent.Status))
	}

	order := &models.Order{
		UserID:          sess.UserID,
		Total:           a.Total,
		Status:          models.OrderStatusNew,
		PaymentIntentID: &intentID,
	}
	items := orderItems(a.Lines)

	if err := s.step(a, StatusCreatingOrder); err != nil {
		return a.snapshotLocked(&s.mu), err
	}

	if s.atomic {
		if err := s.step(a, StatusCreatingOrderItems); err != nil {
			return a.snapshotLocked(&s.mu), err
		}
		if err := s.orders.PlaceOrder(ctx, order, items); err != nil {
			l.Error("checkout_confirm_failed", "reason", "cannot place order", "error", err)
			return s.failed(a, err)
		}
	} else {
		if err := s.orders.CreateOrder(ctx, order); err != nil {
			l.Error("checkout_confirm_failed", "reason", "cannot create order", "error", err)
			return s.failed(a, err)
		}
		s.mu.Lock()
		id := order.ID
		a.OrderID = &id
		s.mu.Unlock()

		if err := s.step(a, StatusCreatingOrderItems); err != nil {
			return a.snapshotLocked(&s.mu), err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := s.orders.AddOrderItems(ctx, order.ID, items); err != nil {
			l.Error("checkout_partial_failure", "reason", "order saved without items", "order_id", order.ID, "error", err)
			return s.failed(a, err)
		}
	}

	s.carts.Get(sess.ID).Subtract(a.Lines)

	s.mu.Lock()
	defer s.mu.Unlock()
	id := order.ID
	a.OrderID = &id
	a.Redirect = "/orders/" + id.String()
	if err := s.transition(a, StatusComplete); err != nil {
		return a.snapshot(), err
	}

	l.Info("checkout_complete", "order_id", id, "amount", a.Amount)
	return a.snapshot(), nil
}

// Cancel fails a checkout that has not finished. A finished checkout is returned unchanged.
func (s *Service) Cancel(ctx context.Context, sess session.Session) (Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.bySession[sess.ID]
	if !ok {
		return Checkout{}, ErrNoCheckout
	}
	if a.Status.IsTerminal() {
		return a.snapshot(), nil
	}
	// a busy attempt with a sheet is being confirmed
	if a.Status != StatusAuthorizingPayment || (a.busy && a.Sheet != nil) {
		return a.snapshot(), ErrCheckoutInProgress
	}

	s.fail(a, fmt.Errorf("cancelled"))
	logging.FromContext(ctx).Info("checkout_cancelled", "checkout_id", a.ID, "session_id", sess.ID)
	return a.snapshot(), nil
}

// Current returns the session's latest checkout.
func (s *Service) Current(sess session.Session) (Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.bySession[sess.ID]
	if !ok {
		return Checkout{}, ErrNoCheckout
	}
	return a.snapshot(), nil
}

// Drop forgets the session's checkout. Registered as a session end hook.
func (s *Service) Drop(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bySession, sessionID)
}

func (s *Service) step(a *attempt, to Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transition(a, to)
}

func (s *Service) transition(a *attempt, to Status) error {
	if !CanTransitionTo(a.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, a.Status, to)
	}
	a.Status = to
	a.UpdatedAt = s.now()
	return nil
}

// fail must be called with s.mu held.
func (s *Service) fail(a *attempt, err error) {
	if a.Status.IsTerminal() {
		return
	}
	a.Status = StatusFailed
	a.Err = err.Error()
	a.UpdatedAt = s.now()
}

func (s *Service) failed(a *attempt, err error) (Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail(a, err)
	return a.snapshot(), err
}

func (a *attempt) snapshot() Checkout {
	out := a.Checkout
	out.Lines = append([]cart.Line(nil), a.Lines...)
	if a.Sheet != nil {
		sheet := *a.Sheet
		out.Sheet = &sheet
	}
	if a.OrderID != nil {
		id := *a.OrderID
		out.OrderID = &id
	}
	return out
}

func (a *attempt) snapshotLocked(mu *sync.Mutex) Checkout {
	mu.Lock()
	defer mu.Unlock()
	return a.snapshot()
}

// IntentID strips the client secret suffix from a payment intent secret.
func IntentID(clientSecret string) string {
	if i := strings.Index(clientSecret, "_secret_"); i > 0 {
		return clientSecret[:i]
	}
	return clientSecret
}

func orderItems(lines []cart.Line) []models.OrderItem {
	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.OrderItem{
			ProductID: line.Product.ID,
			Size:      line.Size,
			Quantity:  line.Quantity,
		})
	}
	return items
}
