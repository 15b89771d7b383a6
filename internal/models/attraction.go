package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Attraction struct {
	gorm.Model
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Slug        string    `gorm:"not null;unique" json:"slug"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	TicketTypes []TicketType
}

func (attraction *Attraction) BeforeCreate(tx *gorm.DB) (err error) {
	if attraction.ID == uuid.Nil {
		attraction.ID = uuid.New()
	}
	return
}

type TimeSlot struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	AttractionID uuid.UUID `gorm:"type:uuid;not null;index" json:"attraction_id"`
	Attraction   *Attraction
	Date         time.Time `gorm:"not null" json:"date"`
	StartTime    time.Time `gorm:"not null" json:"start_time"`
	EndTime      time.Time `gorm:"not null" json:"end_time"`
	Capacity     *int      `json:"capacity"`
	BookedCount  int       `gorm:"not null;default:0" json:"booked_count"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
