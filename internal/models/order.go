package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
	OrderRefunded  OrderStatus = "refunded"
)

type Order struct {
	gorm.Model
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OrderNumber string          `gorm:"not null;unique" json:"order_number"`
	GuestName   string          `gorm:"not null" json:"guest_name"`
	GuestEmail  string          `json:"guest_email"`
	GuestPhone  string          `json:"guest_phone"`
	Status      OrderStatus     `gorm:"not null;default:'pending'" json:"status"`
	Total       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total"`
	Items       []OrderItem
	Tickets     []Ticket
}

func (order *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return
}

type OrderItem struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	OrderID      uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	TicketTypeID uuid.UUID `gorm:"type:uuid;not null" json:"ticket_type_id"`
	TicketType   *TicketType
	Quantity     int             `gorm:"not null" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
