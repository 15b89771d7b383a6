// Package store implements the persistence contracts of the admission
// services on gorm/Postgres. All mutual exclusion the services rely on is
// realized here: row locks on queue configs, conditional UPDATEs for
// ticket admission and slot capacity.
package store

import (
	"errors"

	"github.com/google/uuid"
	"github.com/parkgate/parkgate/internal/models"
	"github.com/parkgate/parkgate/internal/services"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var liveStatuses = []models.QueueEntryStatus{models.QueueWaiting, models.QueueNotified, models.QueueCalled}

type GormQueueStore struct {
	db *gorm.DB
}

func NewQueueStore(db *gorm.DB) *GormQueueStore {
	return &GormQueueStore{db: db}
}

func (s *GormQueueStore) InTx(fn func(tx services.QueueStore) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&GormQueueStore{db: tx})
	})
}

func (s *GormQueueStore) ConfigByID(id uuid.UUID) (*models.QueueConfig, error) {
	var config models.QueueConfig
	err := s.db.Where("id = ?", id).First(&config).Error
	return oneOf(&config, err)
}

func (s *GormQueueStore) ConfigByAttractionSlug(slug string) (*models.QueueConfig, error) {
	var config models.QueueConfig
	err := s.db.
		Joins("JOIN attractions ON attractions.id = queue_configs.attraction_id").
		Where("attractions.slug = ?", slug).
		First(&config).Error
	return oneOf(&config, err)
}

// LockConfig takes the queue's config row lock for the rest of the
// transaction. Every mutation of a queue's entries goes through this, so
// position assignment and renumbering serialize per queue even across
// server instances.
func (s *GormQueueStore) LockConfig(id uuid.UUID) (*models.QueueConfig, error) {
	var config models.QueueConfig
	err := s.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&config).Error
	return oneOf(&config, err)
}

func (s *GormQueueStore) SaveConfig(config *models.QueueConfig) error {
	return s.db.Save(config).Error
}

func (s *GormQueueStore) ActiveConfigs() ([]models.QueueConfig, error) {
	var configs []models.QueueConfig
	err := s.db.Where("is_active = ?", true).Find(&configs).Error
	return configs, err
}

func (s *GormQueueStore) LiveEntries(queueID uuid.UUID) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	err := s.db.
		Where("queue_config_id = ? AND status IN ?", queueID, liveStatuses).
		Order("position ASC").
		Find(&entries).Error
	return entries, err
}

func (s *GormQueueStore) LiveEntryByContact(queueID uuid.UUID, phone, email string) (*models.QueueEntry, error) {
	return s.entryByContact(queueID, phone, email, true)
}

func (s *GormQueueStore) EntryByContact(queueID uuid.UUID, phone, email string) (*models.QueueEntry, error) {
	return s.entryByContact(queueID, phone, email, false)
}

func (s *GormQueueStore) entryByContact(queueID uuid.UUID, phone, email string, liveOnly bool) (*models.QueueEntry, error) {
	q := s.db.Where("queue_config_id = ?", queueID)
	if liveOnly {
		q = q.Where("status IN ?", liveStatuses)
	}
	switch {
	case phone != "" && email != "":
		q = q.Where("(guest_phone = ? OR guest_email = ?)", phone, email)
	case phone != "":
		q = q.Where("guest_phone = ?", phone)
	case email != "":
		q = q.Where("guest_email = ?", email)
	default:
		return nil, nil
	}

	var entry models.QueueEntry
	err := q.Order("joined_at DESC").First(&entry).Error
	return oneOf(&entry, err)
}

func (s *GormQueueStore) EntryByID(id uuid.UUID) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := s.db.Where("id = ?", id).First(&entry).Error
	return oneOf(&entry, err)
}

func (s *GormQueueStore) EntryByCode(code string) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := s.db.Where("confirmation_code = ?", code).First(&entry).Error
	return oneOf(&entry, err)
}

func (s *GormQueueStore) CreateEntry(entry *models.QueueEntry) error {
	return s.db.Create(entry).Error
}

func (s *GormQueueStore) SaveEntry(entry *models.QueueEntry) error {
	return s.db.Save(entry).Error
}

// oneOf normalizes gorm's not-found error into the (nil, nil) shape the
// services expect from every single-row lookup.
func oneOf[T any](row *T, err error) (*T, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return row, nil
}
