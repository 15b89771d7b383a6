package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/parkgate/parkgate/internal/models"
	"github.com/parkgate/parkgate/internal/services"
	"gorm.io/gorm"
)

type GormTicketStore struct {
	db *gorm.DB
}

func NewTicketStore(db *gorm.DB) *GormTicketStore {
	return &GormTicketStore{db: db}
}

func (s *GormTicketStore) InTx(fn func(tx services.TicketStore) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormTicketStore{db: tx})
	})
}

func (s *GormTicketStore) TicketByBarcode(barcode string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.db.
		Preload("TicketType").
		Preload("TimeSlot").
		Where("barcode = ?", barcode).
		First(&ticket).Error
	return oneOf(&ticket, err)
}

func (s *GormTicketStore) TicketByID(id uuid.UUID) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.db.
		Preload("TicketType").
		Preload("TimeSlot").
		Where("id = ?", id).
		First(&ticket).Error
	return oneOf(&ticket, err)
}

// AdmitTicket is the valid -> used compare-and-swap. The WHERE clause on
// the current status is what makes concurrent scans of one barcode decide
// a single winner.
func (s *GormTicketStore) AdmitTicket(id uuid.UUID, at time.Time, by *uuid.UUID) (bool, error) {
	res := s.db.Model(&models.Ticket{}).
		Where("id = ? AND status = ?", id, models.TicketValid).
		Updates(map[string]any{
			"status":        models.TicketUsed,
			"checked_in_at": at,
			"checked_in_by": by,
		})
	return res.RowsAffected > 0, res.Error
}

func (s *GormTicketStore) CasTicketStatus(id uuid.UUID, from, to models.TicketStatus) (bool, error) {
	res := s.db.Model(&models.Ticket{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return res.RowsAffected > 0, res.Error
}

func (s *GormTicketStore) CreateTicket(ticket *models.Ticket) error {
	return s.db.Create(ticket).Error
}

func (s *GormTicketStore) CreateCheckIn(checkIn *models.CheckIn) error {
	return s.db.Create(checkIn).Error
}

func (s *GormTicketStore) TicketTypeByID(id uuid.UUID) (*models.TicketType, error) {
	var ticketType models.TicketType
	err := s.db.Where("id = ?", id).First(&ticketType).Error
	return oneOf(&ticketType, err)
}

func (s *GormTicketStore) TimeSlotByID(id uuid.UUID) (*models.TimeSlot, error) {
	var slot models.TimeSlot
	err := s.db.Where("id = ?", id).First(&slot).Error
	return oneOf(&slot, err)
}

func (s *GormTicketStore) CreateOrder(order *models.Order) error {
	return s.db.Create(order).Error
}

func (s *GormTicketStore) CreateOrderItem(item *models.OrderItem) error {
	return s.db.Create(item).Error
}

// BookSlotCapacity increments bookedCount only while it stays within the
// slot's capacity, deciding the last-seat race in the database. A null
// capacity means unlimited.
func (s *GormTicketStore) BookSlotCapacity(slotID uuid.UUID, count int) (bool, error) {
	res := s.db.Model(&models.TimeSlot{}).
		Where("id = ? AND (capacity IS NULL OR booked_count + ? <= capacity)", slotID, count).
		UpdateColumn("booked_count", gorm.Expr("booked_count + ?", count))
	return res.RowsAffected > 0, res.Error
}

func (s *GormTicketStore) ReleaseSlotCapacity(slotID uuid.UUID, count int) error {
	return s.db.Model(&models.TimeSlot{}).
		Where("id = ?", slotID).
		UpdateColumn("booked_count", gorm.Expr("GREATEST(booked_count - ?, 0)", count)).Error
}

func (s *GormTicketStore) CheckInTimes(attractionID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	var times []time.Time
	err := s.db.Model(&models.CheckIn{}).
		Where("attraction_id = ? AND created_at >= ? AND created_at < ?", attractionID, from, to).
		Order("created_at ASC").
		Pluck("created_at", &times).Error
	return times, err
}

func (s *GormTicketStore) TicketCount(attractionID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&models.Ticket{}).
		Joins("JOIN ticket_types ON ticket_types.id = tickets.ticket_type_id").
		Where("ticket_types.attraction_id = ? AND tickets.created_at >= ? AND tickets.created_at < ?", attractionID, from, to).
		Count(&count).Error
	return count, err
}
