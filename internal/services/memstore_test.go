package services

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/parkgate/parkgate/internal/models"
)

// fakeQueueStore and fakeTicketStore implement the store contracts in
// memory so the services can be exercised against simulated interleavings
// that a real database would only produce under load.

type fakeQueueStore struct {
	configs map[uuid.UUID]*models.QueueConfig
	slugs   map[string]uuid.UUID
	entries map[uuid.UUID]*models.QueueEntry
}

func newFakeQueueStore() *fakeQueueStore {
	return &fakeQueueStore{
		configs: make(map[uuid.UUID]*models.QueueConfig),
		slugs:   make(map[string]uuid.UUID),
		entries: make(map[uuid.UUID]*models.QueueEntry),
	}
}

func (s *fakeQueueStore) addConfig(slug string, config *models.QueueConfig) *models.QueueConfig {
	if config.ID == uuid.Nil {
		config.ID = uuid.New()
	}
	s.configs[config.ID] = config
	s.slugs[slug] = config.ID
	return config
}

func (s *fakeQueueStore) InTx(fn func(tx QueueStore) error) error {
	return fn(s)
}

func (s *fakeQueueStore) ConfigByID(id uuid.UUID) (*models.QueueConfig, error) {
	config, ok := s.configs[id]
	if !ok {
		return nil, nil
	}
	copied := *config
	return &copied, nil
}

func (s *fakeQueueStore) ConfigByAttractionSlug(slug string) (*models.QueueConfig, error) {
	id, ok := s.slugs[slug]
	if !ok {
		return nil, nil
	}
	return s.ConfigByID(id)
}

func (s *fakeQueueStore) LockConfig(id uuid.UUID) (*models.QueueConfig, error) {
	return s.ConfigByID(id)
}

func (s *fakeQueueStore) SaveConfig(config *models.QueueConfig) error {
	copied := *config
	s.configs[config.ID] = &copied
	return nil
}

func (s *fakeQueueStore) ActiveConfigs() ([]models.QueueConfig, error) {
	var configs []models.QueueConfig
	for _, config := range s.configs {
		if config.IsActive {
			configs = append(configs, *config)
		}
	}
	return configs, nil
}

func (s *fakeQueueStore) LiveEntries(queueID uuid.UUID) ([]models.QueueEntry, error) {
	var entries []models.QueueEntry
	for _, e := range s.entries {
		if e.QueueConfigID == queueID && e.Status.IsLive() {
			entries = append(entries, *e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })
	return entries, nil
}

func (s *fakeQueueStore) LiveEntryByContact(queueID uuid.UUID, phone, email string) (*models.QueueEntry, error) {
	return s.entryByContact(queueID, phone, email, true)
}

func (s *fakeQueueStore) EntryByContact(queueID uuid.UUID, phone, email string) (*models.QueueEntry, error) {
	return s.entryByContact(queueID, phone, email, false)
}

func (s *fakeQueueStore) entryByContact(queueID uuid.UUID, phone, email string, liveOnly bool) (*models.QueueEntry, error) {
	for _, e := range s.entries {
		if e.QueueConfigID != queueID {
			continue
		}
		if liveOnly && !e.Status.IsLive() {
			continue
		}
		if (phone != "" && e.GuestPhone == phone) || (email != "" && e.GuestEmail == email) {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeQueueStore) EntryByID(id uuid.UUID) (*models.QueueEntry, error) {
	e, ok := s.entries[id]
	if !ok {
		return nil, nil
	}
	copied := *e
	return &copied, nil
}

func (s *fakeQueueStore) EntryByCode(code string) (*models.QueueEntry, error) {
	for _, e := range s.entries {
		if e.ConfirmationCode == code {
			copied := *e
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeQueueStore) CreateEntry(entry *models.QueueEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	copied := *entry
	s.entries[entry.ID] = &copied
	return nil
}

func (s *fakeQueueStore) SaveEntry(entry *models.QueueEntry) error {
	copied := *entry
	s.entries[entry.ID] = &copied
	return nil
}

type fakeTicketStore struct {
	tickets     map[uuid.UUID]*models.Ticket
	barcodes    map[string]uuid.UUID
	ticketTypes map[uuid.UUID]*models.TicketType
	timeSlots   map[uuid.UUID]*models.TimeSlot
	orders      map[uuid.UUID]*models.Order
	orderItems  []models.OrderItem
	checkIns    []models.CheckIn

	// beforeAdmit runs between a scan's validation read and its
	// conditional admit, simulating another station racing this one.
	beforeAdmit func()
}

func newFakeTicketStore() *fakeTicketStore {
	return &fakeTicketStore{
		tickets:     make(map[uuid.UUID]*models.Ticket),
		barcodes:    make(map[string]uuid.UUID),
		ticketTypes: make(map[uuid.UUID]*models.TicketType),
		timeSlots:   make(map[uuid.UUID]*models.TimeSlot),
		orders:      make(map[uuid.UUID]*models.Order),
	}
}

func (s *fakeTicketStore) InTx(fn func(tx TicketStore) error) error {
	return fn(s)
}

func (s *fakeTicketStore) addTicketType(tt *models.TicketType) *models.TicketType {
	if tt.ID == uuid.Nil {
		tt.ID = uuid.New()
	}
	s.ticketTypes[tt.ID] = tt
	return tt
}

func (s *fakeTicketStore) addTimeSlot(slot *models.TimeSlot) *models.TimeSlot {
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	s.timeSlots[slot.ID] = slot
	return slot
}

func (s *fakeTicketStore) addTicket(t *models.Ticket) *models.Ticket {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	s.tickets[t.ID] = t
	s.barcodes[t.Barcode] = t.ID
	return t
}

func (s *fakeTicketStore) TicketByBarcode(barcode string) (*models.Ticket, error) {
	id, ok := s.barcodes[barcode]
	if !ok {
		return nil, nil
	}
	return s.TicketByID(id)
}

func (s *fakeTicketStore) TicketByID(id uuid.UUID) (*models.Ticket, error) {
	t, ok := s.tickets[id]
	if !ok {
		return nil, nil
	}
	copied := *t
	if tt, ok := s.ticketTypes[t.TicketTypeID]; ok {
		copied.TicketType = tt
	}
	if t.TimeSlotID != nil {
		if slot, ok := s.timeSlots[*t.TimeSlotID]; ok {
			copied.TimeSlot = slot
		}
	}
	return &copied, nil
}

func (s *fakeTicketStore) AdmitTicket(id uuid.UUID, at time.Time, by *uuid.UUID) (bool, error) {
	if s.beforeAdmit != nil {
		s.beforeAdmit()
	}
	t, ok := s.tickets[id]
	if !ok || t.Status != models.TicketValid {
		return false, nil
	}
	t.Status = models.TicketUsed
	t.CheckedInAt = &at
	t.CheckedInBy = by
	return true, nil
}

func (s *fakeTicketStore) CasTicketStatus(id uuid.UUID, from, to models.TicketStatus) (bool, error) {
	t, ok := s.tickets[id]
	if !ok || t.Status != from {
		return false, nil
	}
	t.Status = to
	return true, nil
}

func (s *fakeTicketStore) CreateTicket(ticket *models.Ticket) error {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	copied := *ticket
	s.tickets[ticket.ID] = &copied
	s.barcodes[ticket.Barcode] = ticket.ID
	return nil
}

func (s *fakeTicketStore) CreateCheckIn(checkIn *models.CheckIn) error {
	if checkIn.ID == uuid.Nil {
		checkIn.ID = uuid.New()
	}
	if checkIn.CreatedAt.IsZero() {
		checkIn.CreatedAt = time.Now()
	}
	s.checkIns = append(s.checkIns, *checkIn)
	return nil
}

func (s *fakeTicketStore) TicketTypeByID(id uuid.UUID) (*models.TicketType, error) {
	tt, ok := s.ticketTypes[id]
	if !ok {
		return nil, nil
	}
	copied := *tt
	return &copied, nil
}

func (s *fakeTicketStore) TimeSlotByID(id uuid.UUID) (*models.TimeSlot, error) {
	slot, ok := s.timeSlots[id]
	if !ok {
		return nil, nil
	}
	copied := *slot
	return &copied, nil
}

func (s *fakeTicketStore) CreateOrder(order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	copied := *order
	s.orders[order.ID] = &copied
	return nil
}

func (s *fakeTicketStore) CreateOrderItem(item *models.OrderItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	s.orderItems = append(s.orderItems, *item)
	return nil
}

func (s *fakeTicketStore) BookSlotCapacity(slotID uuid.UUID, count int) (bool, error) {
	slot, ok := s.timeSlots[slotID]
	if !ok {
		return false, nil
	}
	if slot.Capacity != nil && slot.BookedCount+count > *slot.Capacity {
		return false, nil
	}
	slot.BookedCount += count
	return true, nil
}

func (s *fakeTicketStore) ReleaseSlotCapacity(slotID uuid.UUID, count int) error {
	slot, ok := s.timeSlots[slotID]
	if !ok {
		return nil
	}
	slot.BookedCount -= count
	if slot.BookedCount < 0 {
		slot.BookedCount = 0
	}
	return nil
}

func (s *fakeTicketStore) CheckInTimes(attractionID uuid.UUID, from, to time.Time) ([]time.Time, error) {
	var times []time.Time
	for _, ci := range s.checkIns {
		if ci.AttractionID == attractionID && !ci.CreatedAt.Before(from) && ci.CreatedAt.Before(to) {
			times = append(times, ci.CreatedAt)
		}
	}
	return times, nil
}

func (s *fakeTicketStore) TicketCount(attractionID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	for _, t := range s.tickets {
		tt, ok := s.ticketTypes[t.TicketTypeID]
		if ok && tt.AttractionID == attractionID {
			count++
		}
	}
	return count, nil
}
