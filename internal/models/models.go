package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Size string

const (
	SizeS  Size = "S"
	SizeM  Size = "M"
	SizeL  Size = "L"
	SizeXL Size = "XL"
)

func (s Size) Valid() bool {
	switch s {
	case SizeS, SizeM, SizeL, SizeXL:
		return true
	}
	return false
}

type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "New"
	OrderStatusCooking    OrderStatus = "Cooking"
	OrderStatusDelivering OrderStatus = "Delivering"
	OrderStatusDelivered  OrderStatus = "Delivered"
)

var (
	ActiveStatuses   = []OrderStatus{OrderStatusNew, OrderStatusCooking, OrderStatusDelivering}
	ArchivedStatuses = []OrderStatus{OrderStatusDelivered}
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusNew, OrderStatusCooking, OrderStatusDelivering, OrderStatusDelivered:
		return true
	}
	return false
}

type Product struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"        json:"id"`
	Name      string          `gorm:"not null"                    json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Image     *string         `                                   json:"image,omitempty"`
	CreatedAt time.Time       `gorm:"not null"                    json:"created_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"             json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;index;not null"         json:"user_id"`
	Total           decimal.Decimal `gorm:"type:numeric(10,2);not null"      json:"total"`
	Status          OrderStatus     `gorm:"not null;default:New"             json:"status"`
	PaymentIntentID *string         `gorm:"uniqueIndex"                      json:"payment_intent_id,omitempty"`
	CreatedAt       time.Time       `gorm:"not null;index"                   json:"created_at"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"               json:"order_items,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                                     json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_order_items_order_product_size" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_order_items_order_product_size" json:"product_id"`
	Size      Size      `gorm:"not null;uniqueIndex:uq_order_items_order_product_size"   json:"size"`
	Quantity  int       `gorm:"not null;check:quantity > 0"                              json:"quantity"`
	Product   *Product  `gorm:"foreignKey:ProductID"                                     json:"product,omitempty"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type Profile struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	Username          string    `gorm:"unique;not null"       json:"username"`
	PasswordHash      string    `gorm:"not null"              json:"-"`
	Role              string    `gorm:"not null;default:regular" json:"role"`
	PaymentCustomerID *string   `                             json:"payment_customer_id,omitempty"`
	CreatedAt         time.Time `gorm:"not null"              json:"created_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"            json:"id"`
	Token     string    `gorm:"unique;not null"       json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	JTI       string    `gorm:"uniqueIndex;not null"  json:"jti"`
	SessionID string    `gorm:"index;not null"        json:"session_id"`
	ExpiresAt int64     `gorm:"not null"              json:"expires_at"`
	Revoked   bool      `gorm:"default:false"         json:"revoked"`
}

func All() []any {
	return []any{&Profile{}, &RefreshToken{}, &Product{}, &Order{}, &OrderItem{}}
}
