package models

import (
	"time"

	"github.com/google/uuid"
)

type CheckInMethod string

const (
	CheckInScan   CheckInMethod = "scan"
	CheckInWalkUp CheckInMethod = "walkup"
	CheckInManual CheckInMethod = "manual"
)

// CheckIn is an append-only admission event. Rows are never updated or
// deleted once written.
type CheckIn struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	TicketID     uuid.UUID `gorm:"type:uuid;not null;index" json:"ticket_id"`
	Ticket       *Ticket
	AttractionID uuid.UUID     `gorm:"type:uuid;not null;index" json:"attraction_id"`
	StationID    string        `json:"station_id"`
	Method       CheckInMethod `gorm:"not null" json:"method"`
	GuestCount   int           `gorm:"not null;default:1" json:"guest_count"`
	CreatedAt    time.Time     `gorm:"index" json:"created_at"`
}
