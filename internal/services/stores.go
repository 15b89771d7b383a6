package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/parkgate/parkgate/internal/models"
)

// QueueStore is the persistence contract of the queue admission state
// machine. Lookups return (nil, nil) when no row matches; errors are
// reserved for store failures. InTx runs fn against a view of the store
// whose reads and writes commit or roll back as one unit. Because many
// server instances run concurrently, all mutual exclusion lives here:
// LockConfig must serialize against other LockConfig calls for the same
// queue, which is what makes read-max-then-insert position assignment and
// the duplicate-contact check safe.
type QueueStore interface {
	InTx(fn func(tx QueueStore) error) error

	ConfigByID(id uuid.UUID) (*models.QueueConfig, error)
	ConfigByAttractionSlug(slug string) (*models.QueueConfig, error)
	LockConfig(id uuid.UUID) (*models.QueueConfig, error)
	SaveConfig(config *models.QueueConfig) error
	ActiveConfigs() ([]models.QueueConfig, error)

	// LiveEntries returns waiting/notified/called entries ordered by
	// position ascending.
	LiveEntries(queueID uuid.UUID) ([]models.QueueEntry, error)
	LiveEntryByContact(queueID uuid.UUID, phone, email string) (*models.QueueEntry, error)
	EntryByContact(queueID uuid.UUID, phone, email string) (*models.QueueEntry, error)
	EntryByID(id uuid.UUID) (*models.QueueEntry, error)
	EntryByCode(code string) (*models.QueueEntry, error)
	CreateEntry(entry *models.QueueEntry) error
	SaveEntry(entry *models.QueueEntry) error
}

// TicketStore is the persistence contract of the check-in pipeline. The
// conditional updates are its atomic primitives: AdmitTicket and
// CasTicketStatus update only when the current status still matches, so
// two stations racing on one barcode cannot both win, and
// BookSlotCapacity increments bookedCount only while it stays within
// capacity.
type TicketStore interface {
	InTx(fn func(tx TicketStore) error) error

	TicketByBarcode(barcode string) (*models.Ticket, error)
	TicketByID(id uuid.UUID) (*models.Ticket, error)
	// AdmitTicket flips valid -> used, stamping the admission, in one
	// conditional update. Returns false when the ticket was no longer
	// valid.
	AdmitTicket(id uuid.UUID, at time.Time, by *uuid.UUID) (bool, error)
	CasTicketStatus(id uuid.UUID, from, to models.TicketStatus) (bool, error)
	CreateTicket(ticket *models.Ticket) error
	CreateCheckIn(checkIn *models.CheckIn) error

	TicketTypeByID(id uuid.UUID) (*models.TicketType, error)
	TimeSlotByID(id uuid.UUID) (*models.TimeSlot, error)
	CreateOrder(order *models.Order) error
	CreateOrderItem(item *models.OrderItem) error
	// BookSlotCapacity returns false when the increment would exceed the
	// slot's capacity. A nil capacity never rejects.
	BookSlotCapacity(slotID uuid.UUID, count int) (bool, error)
	ReleaseSlotCapacity(slotID uuid.UUID, count int) error

	CheckInTimes(attractionID uuid.UUID, from, to time.Time) ([]time.Time, error)
	TicketCount(attractionID uuid.UUID, from, to time.Time) (int64, error)
}
