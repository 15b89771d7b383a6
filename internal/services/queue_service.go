package services

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/parkgate/parkgate/internal/apperrors"
	"github.com/parkgate/parkgate/internal/capacity"
	"github.com/parkgate/parkgate/internal/helpers"
	"github.com/parkgate/parkgate/internal/models"
	"github.com/parkgate/parkgate/internal/notify"
)

// QueueService owns the virtual-queue state machine: entry lifecycle,
// position assignment and renumbering, wait estimates and the expiry sweep.
type QueueService struct {
	store    QueueStore
	notifier notify.Gateway
	now      func() time.Time
}

func NewQueueService(store QueueStore, notifier notify.Gateway) *QueueService {
	return &QueueService{store: store, notifier: notifier, now: time.Now}
}

type JoinRequest struct {
	GuestName  string
	GuestPhone string
	GuestEmail string
	PartySize  int
	TicketID   *uuid.UUID
	Notes      string
}

type JoinResult struct {
	Entry                *models.QueueEntry
	PeopleAhead          int
	EstimatedWaitMinutes int
}

func (s *QueueService) ConfigByAttractionSlug(slug string) (*models.QueueConfig, error) {
	config, err := s.store.ConfigByAttractionSlug(slug)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, apperrors.NotFound("Queue not found.")
	}
	return config, nil
}

// Join appends a guest party to the queue. The whole precondition chain and
// the insert run inside one transaction holding the config row lock, so two
// concurrent joins can neither share a position nor both pass the
// duplicate-contact check.
func (s *QueueService) Join(configID uuid.UUID, req JoinRequest) (*JoinResult, error) {
	if req.PartySize <= 0 {
		req.PartySize = 1
	}
	phone := helpers.NormalizePhone(req.GuestPhone)
	email := helpers.NormalizeEmail(req.GuestEmail)

	var result *JoinResult
	err := s.store.InTx(func(tx QueueStore) error {
		config, err := tx.LockConfig(configID)
		if err != nil {
			return err
		}
		if config == nil {
			return apperrors.NotFound("Queue not found.")
		}
		if !config.IsActive {
			return apperrors.BadRequest(apperrors.CodeQueueClosed, "Queue is closed.")
		}
		if config.IsPaused {
			return apperrors.BadRequest(apperrors.CodeQueuePaused, "Queue is paused.")
		}

		live, err := tx.LiveEntries(config.ID)
		if err != nil {
			return err
		}
		waiting := 0
		for _, e := range live {
			if e.Status == models.QueueWaiting {
				waiting++
			}
		}
		if config.MaxQueueSize > 0 && waiting >= config.MaxQueueSize {
			return apperrors.BadRequest(apperrors.CodeQueueFull, "Queue is full.")
		}

		if phone != "" || email != "" {
			existing, err := tx.LiveEntryByContact(config.ID, phone, email)
			if err != nil {
				return err
			}
			if existing != nil {
				return apperrors.Conflict(apperrors.CodeAlreadyInQueue, "Guest already has an active entry in this queue.").
					WithField("confirmation_code", existing.ConfirmationCode)
			}
			if !config.AllowRejoin {
				prior, err := tx.EntryByContact(config.ID, phone, email)
				if err != nil {
					return err
				}
				if prior != nil {
					return apperrors.BadRequest(apperrors.CodeBadRequest, "Rejoining this queue is not allowed.")
				}
			}
		}

		maxPosition := 0
		peopleAhead := 0
		for _, e := range live {
			if e.Position > maxPosition {
				maxPosition = e.Position
			}
			if e.Status == models.QueueWaiting {
				peopleAhead += e.PartySize
			}
		}

		code, err := s.uniqueConfirmationCode(tx)
		if err != nil {
			return err
		}

		entry := &models.QueueEntry{
			QueueConfigID:    config.ID,
			ConfirmationCode: code,
			GuestName:        req.GuestName,
			GuestPhone:       phone,
			GuestEmail:       email,
			PartySize:        req.PartySize,
			Position:         maxPosition + 1,
			Status:           models.QueueWaiting,
			TicketID:         req.TicketID,
			Notes:            req.Notes,
			JoinedAt:         s.now(),
		}
		if err := tx.CreateEntry(entry); err != nil {
			return err
		}

		result = &JoinResult{
			Entry:                entry,
			PeopleAhead:          peopleAhead,
			EstimatedWaitMinutes: capacity.EstimatedWaitMinutes(peopleAhead, config.CapacityPerBatch, config.BatchIntervalMinutes),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *QueueService) uniqueConfirmationCode(tx QueueStore) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := helpers.GenerateConfirmationCode()
		if err != nil {
			return "", err
		}
		existing, err := tx.EntryByCode(code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", fmt.Errorf("could not generate a unique confirmation code")
}

// Notify marks a waiting entry as notified and enqueues the outbound
// heads-up message.
func (s *QueueService) Notify(entryID uuid.UUID) (*models.QueueEntry, error) {
	entry, err := s.transition(entryID, models.QueueNotified, func(e *models.QueueEntry) {
		now := s.now()
		e.NotifiedAt = &now
	})
	if err != nil {
		return nil, err
	}
	s.send(entry, "Almost your turn", fmt.Sprintf("Party %s: you are near the front of the line. Please make your way to the entrance.", entry.ConfirmationCode))
	return entry, nil
}

// Call summons the party to the gate and enqueues the outbound message.
func (s *QueueService) Call(entryID uuid.UUID) (*models.QueueEntry, error) {
	entry, err := s.transition(entryID, models.QueueCalled, func(e *models.QueueEntry) {
		now := s.now()
		e.CalledAt = &now
	})
	if err != nil {
		return nil, err
	}
	s.send(entry, "It's your turn", fmt.Sprintf("Party %s: it's your turn. Please come to the entrance now.", entry.ConfirmationCode))
	return entry, nil
}

type QueueCheckInResult struct {
	Entry       *models.QueueEntry
	TotalWaited time.Duration
}

// CheckInEntry admits a called or notified party at the gate and reports
// how long they waited in total.
func (s *QueueService) CheckInEntry(entryID uuid.UUID) (*QueueCheckInResult, error) {
	entry, err := s.transition(entryID, models.QueueCheckedIn, func(e *models.QueueEntry) {
		now := s.now()
		e.CheckedInAt = &now
	})
	if err != nil {
		return nil, err
	}
	return &QueueCheckInResult{
		Entry:       entry,
		TotalWaited: entry.CheckedInAt.Sub(entry.JoinedAt),
	}, nil
}

func (s *QueueService) NoShow(entryID uuid.UUID) (*models.QueueEntry, error) {
	return s.transition(entryID, models.QueueNoShow, nil)
}

// Leave removes a waiting or notified entry from the line.
func (s *QueueService) Leave(entryID uuid.UUID) (*models.QueueEntry, error) {
	return s.transition(entryID, models.QueueLeft, func(e *models.QueueEntry) {
		now := s.now()
		e.LeftAt = &now
	})
}

// LeaveByCode is the public self-service variant: the confirmation code
// must belong to the named attraction's queue.
func (s *QueueService) LeaveByCode(slug, code string) (*models.QueueEntry, error) {
	entry, err := s.entryForAttraction(slug, code)
	if err != nil {
		return nil, err
	}
	return s.Leave(entry.ID)
}

// transition applies one step of the entry state machine. Entry lookup,
// the transition-table check, the write and any renumbering all happen
// inside one transaction under the config row lock.
func (s *QueueService) transition(entryID uuid.UUID, next models.QueueEntryStatus, mutate func(*models.QueueEntry)) (*models.QueueEntry, error) {
	var updated *models.QueueEntry
	err := s.store.InTx(func(tx QueueStore) error {
		entry, err := tx.EntryByID(entryID)
		if err != nil {
			return err
		}
		if entry == nil {
			return apperrors.NotFound("Queue entry not found.")
		}
		if _, err := tx.LockConfig(entry.QueueConfigID); err != nil {
			return err
		}
		// reread under the lock; another station may have raced us here
		entry, err = tx.EntryByID(entryID)
		if err != nil {
			return err
		}
		if entry == nil {
			return apperrors.NotFound("Queue entry not found.")
		}

		if !entry.Status.CanTransitionTo(next) {
			return apperrors.BadRequest(apperrors.CodeInvalidStatusTransition,
				fmt.Sprintf("Entry is %s; cannot transition to %s.", entry.Status, next))
		}

		wasLive := entry.Status.IsLive()
		entry.Status = next
		if mutate != nil {
			mutate(entry)
		}
		if err := tx.SaveEntry(entry); err != nil {
			return err
		}

		if wasLive && !next.IsLive() {
			if err := renumber(tx, entry.QueueConfigID); err != nil {
				return err
			}
		}
		updated = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// renumber restores the dense 1..N position sequence over the queue's live
// entries, preserving their existing relative order. It derives the new
// numbering purely from the current live set, so retrying after a partial
// failure converges to the same result.
func renumber(tx QueueStore, queueID uuid.UUID) error {
	live, err := tx.LiveEntries(queueID)
	if err != nil {
		return err
	}
	for i := range live {
		want := i + 1
		if live[i].Position != want {
			live[i].Position = want
			if err := tx.SaveEntry(&live[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

type QueueStatusResult struct {
	Entry                *models.QueueEntry
	PeopleAhead          int
	EstimatedWaitMinutes int
}

// Status is the public lookup by confirmation code.
func (s *QueueService) Status(slug, code string) (*QueueStatusResult, error) {
	entry, err := s.entryForAttraction(slug, code)
	if err != nil {
		return nil, err
	}
	config, err := s.store.ConfigByID(entry.QueueConfigID)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, apperrors.NotFound("Queue not found.")
	}

	live, err := s.store.LiveEntries(config.ID)
	if err != nil {
		return nil, err
	}
	peopleAhead := 0
	for _, e := range live {
		if e.Status == models.QueueWaiting && e.Position < entry.Position {
			peopleAhead += e.PartySize
		}
	}
	return &QueueStatusResult{
		Entry:                entry,
		PeopleAhead:          peopleAhead,
		EstimatedWaitMinutes: capacity.EstimatedWaitMinutes(peopleAhead, config.CapacityPerBatch, config.BatchIntervalMinutes),
	}, nil
}

func (s *QueueService) entryForAttraction(slug, code string) (*models.QueueEntry, error) {
	config, err := s.store.ConfigByAttractionSlug(slug)
	if err != nil {
		return nil, err
	}
	if config == nil {
		return nil, apperrors.NotFound("Queue not found.")
	}
	entry, err := s.store.EntryByCode(code)
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.QueueConfigID != config.ID {
		return nil, apperrors.NotFound("Confirmation code not found.")
	}
	return entry, nil
}

// SetPaused flips the pause gate. Idempotent; existing entries keep their
// positions, only new joins are affected.
func (s *QueueService) SetPaused(configID uuid.UUID, paused bool) (*models.QueueConfig, error) {
	var updated *models.QueueConfig
	err := s.store.InTx(func(tx QueueStore) error {
		config, err := tx.LockConfig(configID)
		if err != nil {
			return err
		}
		if config == nil {
			return apperrors.NotFound("Queue not found.")
		}
		if config.IsPaused != paused {
			config.IsPaused = paused
			if err := tx.SaveConfig(config); err != nil {
				return err
			}
		}
		updated = config
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SweepExpired walks every active queue and expires overstayed entries:
// waiting parties past the queue's max wait, and notified parties that
// never showed within the expiry window. Each queue is swept in its own
// transaction followed by a renumber pass.
func (s *QueueService) SweepExpired() (int, error) {
	configs, err := s.store.ActiveConfigs()
	if err != nil {
		return 0, err
	}

	total := 0
	for _, config := range configs {
		expired, err := s.sweepQueue(config.ID)
		if err != nil {
			log.Printf("queue sweep failed for %s: %v", config.ID, err)
			continue
		}
		total += expired
	}
	return total, nil
}

func (s *QueueService) sweepQueue(configID uuid.UUID) (int, error) {
	expired := 0
	err := s.store.InTx(func(tx QueueStore) error {
		config, err := tx.LockConfig(configID)
		if err != nil {
			return err
		}
		if config == nil {
			return nil
		}
		live, err := tx.LiveEntries(config.ID)
		if err != nil {
			return err
		}

		now := s.now()
		for i := range live {
			e := &live[i]
			stale := false
			switch e.Status {
			case models.QueueWaiting:
				stale = config.MaxWaitMinutes > 0 &&
					e.JoinedAt.Before(now.Add(-time.Duration(config.MaxWaitMinutes)*time.Minute))
			case models.QueueNotified:
				stale = config.ExpiryMinutes > 0 && e.NotifiedAt != nil &&
					e.NotifiedAt.Before(now.Add(-time.Duration(config.ExpiryMinutes)*time.Minute))
			}
			if !stale {
				continue
			}
			e.Status = models.QueueExpired
			e.ExpiredAt = &now
			if err := tx.SaveEntry(e); err != nil {
				return err
			}
			expired++
		}

		if expired > 0 {
			return renumber(tx, config.ID)
		}
		return nil
	})
	return expired, err
}

// send enqueues a notification after the transaction committed. A gateway
// failure is logged, never surfaced to the guest-facing request.
func (s *QueueService) send(entry *models.QueueEntry, subject, body string) {
	if entry.GuestPhone == "" && entry.GuestEmail == "" {
		return
	}
	msg := notify.Message{
		Phone:   entry.GuestPhone,
		Email:   entry.GuestEmail,
		Subject: subject,
		Body:    body,
	}
	if err := s.notifier.Send(msg); err != nil {
		log.Printf("failed to notify entry %s: %v", entry.ConfirmationCode, err)
	}
}
