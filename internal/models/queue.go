package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QueueConfig struct {
	gorm.Model
	ID                      uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	AttractionID            uuid.UUID `gorm:"type:uuid;not null;unique" json:"attraction_id"`
	Attraction              *Attraction
	CapacityPerBatch        int  `gorm:"not null;default:10" json:"capacity_per_batch"`
	BatchIntervalMinutes    int  `gorm:"not null;default:5" json:"batch_interval_minutes"`
	MaxWaitMinutes          int  `gorm:"not null;default:120" json:"max_wait_minutes"`
	MaxQueueSize            int  `gorm:"not null;default:500" json:"max_queue_size"`
	AllowRejoin             bool `gorm:"not null;default:true" json:"allow_rejoin"`
	RequireCheckIn          bool `gorm:"not null;default:true" json:"require_check_in"`
	NotificationLeadMinutes int  `gorm:"not null;default:10" json:"notification_lead_minutes"`
	ExpiryMinutes           int  `gorm:"not null;default:15" json:"expiry_minutes"`
	IsActive                bool `gorm:"not null;default:true" json:"is_active"`
	IsPaused                bool `gorm:"not null;default:false" json:"is_paused"`
}

func (config *QueueConfig) BeforeCreate(tx *gorm.DB) (err error) {
	if config.ID == uuid.Nil {
		config.ID = uuid.New()
	}
	return
}

type QueueEntryStatus string

const (
	QueueWaiting   QueueEntryStatus = "waiting"
	QueueNotified  QueueEntryStatus = "notified"
	QueueCalled    QueueEntryStatus = "called"
	QueueCheckedIn QueueEntryStatus = "checked_in"
	QueueNoShow    QueueEntryStatus = "no_show"
	QueueLeft      QueueEntryStatus = "left"
	QueueExpired   QueueEntryStatus = "expired"
)

// queueTransitions is the single authority on queue entry status changes.
// checked_in, no_show, left and expired are terminal.
var queueTransitions = map[QueueEntryStatus][]QueueEntryStatus{
	QueueWaiting:   {QueueNotified, QueueCalled, QueueLeft, QueueExpired},
	QueueNotified:  {QueueCalled, QueueCheckedIn, QueueLeft, QueueExpired},
	QueueCalled:    {QueueCheckedIn, QueueNoShow},
	QueueCheckedIn: {},
	QueueNoShow:    {},
	QueueLeft:      {},
	QueueExpired:   {},
}

func (s QueueEntryStatus) CanTransitionTo(next QueueEntryStatus) bool {
	for _, allowed := range queueTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsLive reports whether an entry still occupies a position in the queue.
// Live entries are exactly the ones the 1..N position invariant covers.
func (s QueueEntryStatus) IsLive() bool {
	return s == QueueWaiting || s == QueueNotified || s == QueueCalled
}

type QueueEntry struct {
	gorm.Model
	ID               uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	QueueConfigID    uuid.UUID `gorm:"type:uuid;not null;index" json:"queue_config_id"`
	QueueConfig      *QueueConfig
	ConfirmationCode string           `gorm:"not null;unique;index" json:"confirmation_code"`
	GuestName        string           `gorm:"not null" json:"guest_name"`
	GuestPhone       string           `gorm:"index" json:"guest_phone"`
	GuestEmail       string           `gorm:"index" json:"guest_email"`
	PartySize        int              `gorm:"not null;default:1" json:"party_size"`
	Position         int              `gorm:"not null;index" json:"position"`
	Status           QueueEntryStatus `gorm:"not null;default:'waiting'" json:"status"`
	TicketID         *uuid.UUID       `gorm:"type:uuid" json:"ticket_id"`
	Notes            string           `json:"notes"`
	JoinedAt         time.Time        `gorm:"not null" json:"joined_at"`
	NotifiedAt       *time.Time       `json:"notified_at"`
	CalledAt         *time.Time       `json:"called_at"`
	CheckedInAt      *time.Time       `json:"checked_in_at"`
	ExpiredAt        *time.Time       `json:"expired_at"`
	LeftAt           *time.Time       `json:"left_at"`
}

func (entry *QueueEntry) BeforeCreate(tx *gorm.DB) (err error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return
}
