package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TicketType struct {
	gorm.Model
	ID           uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Name         string          `gorm:"not null" json:"name"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	IsActive     bool            `gorm:"not null;default:true" json:"is_active"`
	MaxPerOrder  *int            `json:"max_per_order"`
	AttractionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"attraction_id"`
	Attraction   *Attraction
}

func (ticketType *TicketType) BeforeCreate(tx *gorm.DB) (err error) {
	if ticketType.ID == uuid.Nil {
		ticketType.ID = uuid.New()
	}
	return
}

type TicketStatus string

const (
	TicketValid       TicketStatus = "valid"
	TicketUsed        TicketStatus = "used"
	TicketVoided      TicketStatus = "voided"
	TicketExpired     TicketStatus = "expired"
	TicketTransferred TicketStatus = "transferred"
)

// ticketTransitions is the single authority on which ticket status changes
// are legal. Tickets are never deleted; refunds void them instead.
var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketValid:       {TicketUsed, TicketVoided, TicketExpired, TicketTransferred},
	TicketUsed:        {TicketVoided},
	TicketVoided:      {},
	TicketExpired:     {},
	TicketTransferred: {TicketValid, TicketVoided},
}

func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	for _, allowed := range ticketTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Ticket struct {
	gorm.Model
	ID           uuid.UUID    `gorm:"type:uuid;primary_key" json:"id"`
	TicketNumber string       `gorm:"not null" json:"ticket_number"`
	Barcode      string       `gorm:"not null;unique;index" json:"barcode"`
	Status       TicketStatus `gorm:"not null;default:'valid'" json:"status"`
	OrderID      uuid.UUID    `gorm:"type:uuid;not null;index" json:"order_id"`
	Order        *Order
	TicketTypeID uuid.UUID `gorm:"type:uuid;not null;index" json:"ticket_type_id"`
	TicketType   *TicketType
	TimeSlotID   *uuid.UUID `gorm:"type:uuid" json:"time_slot_id"`
	TimeSlot     *TimeSlot
	CheckedInAt  *time.Time `json:"checked_in_at"`
	CheckedInBy  *uuid.UUID `gorm:"type:uuid" json:"checked_in_by"`
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	return
}
