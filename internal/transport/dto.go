package transport

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/food_order/internal/models"
)

type CreateProductRequest struct {
	Name  string           `json:"name"`
	Price *decimal.Decimal `json:"price"`
	Image *string          `json:"image"`
}

type PatchProductRequest struct {
	Name  *string          `json:"name"`
	Price *decimal.Decimal `json:"price"`
	Image *string          `json:"image"`
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

type NewOrderItem struct {
	ProductID uuid.UUID   `json:"product_id"`
	Size      models.Size `json:"size"`
	Quantity  int         `json:"quantity"`
}

type AddCartItemRequest struct {
	ProductID uuid.UUID   `json:"product_id"`
	Size      models.Size `json:"size"`
}

type UpdateCartItemRequest struct {
	Delta int `json:"delta"`
}

type CartLineResponse struct {
	ID        uuid.UUID       `json:"id"`
	Product   models.Product  `json:"product"`
	ProductID uuid.UUID       `json:"product_id"`
	Size      models.Size     `json:"size"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartResponse struct {
	Items []CartLineResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

type PaymentSheetRequest struct {
	Amount int64 `json:"amount"`
}

// PaymentSheet is what the client needs to present the payment UI.
type PaymentSheet struct {
	PaymentIntent  string `json:"paymentIntent"`
	PublishableKey string `json:"publishableKey"`
	Customer       string `json:"customer"`
	EphemeralKey   string `json:"ephemeralKey"`
}

type PaymentIntentStatus struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type PaymentErrorResponse struct {
	Error string `json:"error"`
}

type ConfirmCheckoutRequest struct {
	Completed bool   `json:"completed"`
	ErrorCode string `json:"error_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

type CheckoutResponse struct {
	ID       uuid.UUID     `json:"id"`
	Status   string        `json:"status"`
	Amount   int64         `json:"amount"`
	Sheet    *PaymentSheet `json:"payment_sheet,omitempty"`
	OrderID  *uuid.UUID    `json:"order_id,omitempty"`
	Redirect string        `json:"redirect,omitempty"`
	Error    string        `json:"error,omitempty"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	AccessExp    int64  `json:"access_exp"`
	RefreshExp   int64  `json:"refresh_exp"`
	IsAdmin      bool   `json:"is_admin"`
}

type ProfileResponse struct {
	ID                uuid.UUID `json:"id"`
	Username          string    `json:"username"`
	Role              string    `json:"role"`
	IsAdmin           bool      `json:"is_admin"`
	PaymentCustomerID *string   `json:"payment_customer_id,omitempty"`
}

type SearchResponse struct {
	Total    int64            `json:"total"`
	Products []models.Product `json:"products"`
}
