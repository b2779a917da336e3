package checkout

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Skotchmaster/food_order/internal/models"
	"github.com/Skotchmaster/food_order/internal/transport"
)

// MockPayments implements Payments for testing
type MockPayments struct {
	mu          sync.Mutex
	SheetErr    error
	IntentState string
	IntentErr   error
	Amounts     []int64
	Tokens      []string
}

func (m *MockPayments) CreateSheet(_ context.Context, token string, amount int64) (transport.PaymentSheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Amounts = append(m.Amounts, amount)
	m.Tokens = append(m.Tokens, token)
	if m.SheetErr != nil {
		return transport.PaymentSheet{}, m.SheetErr
	}
	return transport.PaymentSheet{
		PaymentIntent:  "pi_123_secret_abc",
		PublishableKey: "pk_test",
		Customer:       "cus_1",
		EphemeralKey:   "ek_1",
	}, nil
}

func (m *MockPayments) IntentStatus(_ context.Context, _ string, intentID string) (transport.PaymentIntentStatus, error) {
	if m.IntentErr != nil {
		return transport.PaymentIntentStatus{}, m.IntentErr
	}
	status := m.IntentState
	if status == "" {
		status = "succeeded"
	}
	return transport.PaymentIntentStatus{ID: intentID, Status: status}, nil
}

// MockOrders is an in-memory order store
type MockOrders struct {
	mu       sync.Mutex
	OrderErr error
	ItemsErr error
	Orders   map[uuid.UUID]*models.Order
	Items    map[uuid.UUID][]models.OrderItem
}

func NewMockOrders() *MockOrders {
	return &MockOrders{
		Orders: make(map[uuid.UUID]*models.Order),
		Items:  make(map[uuid.UUID][]models.OrderItem),
	}
}

func (m *MockOrders) CreateOrder(_ context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OrderErr != nil {
		return m.OrderErr
	}
	o.ID = uuid.New()
	cp := *o
	m.Orders[o.ID] = &cp
	return nil
}

func (m *MockOrders) AddOrderItems(_ context.Context, orderID uuid.UUID, items []models.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ItemsErr != nil {
		return m.ItemsErr
	}
	m.Items[orderID] = append(m.Items[orderID], items...)
	return nil
}

func (m *MockOrders) PlaceOrder(_ context.Context, o *models.Order, items []models.OrderItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OrderErr != nil {
		return m.OrderErr
	}
	if m.ItemsErr != nil {
		return m.ItemsErr
	}
	o.ID = uuid.New()
	cp := *o
	m.Orders[o.ID] = &cp
	for i := range items {
		items[i].OrderID = o.ID
	}
	m.Items[o.ID] = append(m.Items[o.ID], items...)
	return nil
}

func (m *MockOrders) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Orders)
}
