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
	"github.com/shopspring/decimal"
)

// SlotGracePeriod is how long after a time slot ends a ticket remains
// scannable.
const SlotGracePeriod = 2 * time.Hour

type ScanError string

const (
	ScanTicketNotFound  ScanError = "TICKET_NOT_FOUND"
	ScanWrongAttraction ScanError = "WRONG_ATTRACTION"
	ScanAlreadyUsed     ScanError = "TICKET_ALREADY_USED"
	ScanVoided          ScanError = "TICKET_VOIDED"
	ScanExpired         ScanError = "EXPIRED"
	ScanNotYetValid     ScanError = "NOT_YET_VALID"
)

// ScanResult is the uniform answer a scanning station gets for every
// barcode. Invalid outcomes are data, not errors: the operator UI renders
// them all the same way, at the same speed.
type ScanResult struct {
	Valid       bool           `json:"valid"`
	Ticket      *models.Ticket `json:"ticket,omitempty"`
	Error       ScanError      `json:"error,omitempty"`
	Message     string         `json:"message,omitempty"`
	CheckedInAt *time.Time     `json:"checked_in_at,omitempty"`
}

// CheckinService owns the ticket admission state machine: scan validation,
// admission, staff status transitions and the walk-up sale.
type CheckinService struct {
	store TicketStore
	now   func() time.Time
}

func NewCheckinService(store TicketStore) *CheckinService {
	return &CheckinService{store: store, now: time.Now}
}

// Validate answers whether a barcode may admit at this attraction right
// now, without committing anything. Validation and admission are separate
// on purpose: a UI can show "valid" before the operator commits the scan.
func (s *CheckinService) Validate(barcode string, attractionID uuid.UUID) (*ScanResult, error) {
	ticket, err := s.store.TicketByBarcode(barcode)
	if err != nil {
		return nil, err
	}
	return s.validateTicket(ticket, attractionID), nil
}

func (s *CheckinService) validateTicket(ticket *models.Ticket, attractionID uuid.UUID) *ScanResult {
	if ticket == nil {
		return &ScanResult{Error: ScanTicketNotFound, Message: "No ticket matches this barcode."}
	}
	if ticket.TicketType == nil || ticket.TicketType.AttractionID != attractionID {
		return &ScanResult{Ticket: ticket, Error: ScanWrongAttraction, Message: "This ticket belongs to a different attraction."}
	}

	switch ticket.Status {
	case models.TicketUsed:
		result := &ScanResult{Ticket: ticket, Error: ScanAlreadyUsed, Message: "Ticket has already been used."}
		if ticket.CheckedInAt != nil {
			result.CheckedInAt = ticket.CheckedInAt
			result.Message = fmt.Sprintf("Ticket was already used at %s.", ticket.CheckedInAt.Format(time.RFC3339))
		}
		return result
	case models.TicketVoided:
		return &ScanResult{Ticket: ticket, Error: ScanVoided, Message: "Ticket has been voided."}
	case models.TicketExpired:
		return &ScanResult{Ticket: ticket, Error: ScanExpired, Message: "Ticket has expired."}
	case models.TicketValid:
	default:
		return &ScanResult{Ticket: ticket, Error: ScanVoided, Message: fmt.Sprintf("Ticket is %s and cannot be scanned.", ticket.Status)}
	}

	if ticket.TimeSlot != nil {
		now := s.now()
		if now.Before(ticket.TimeSlot.StartTime) {
			return &ScanResult{Ticket: ticket, Error: ScanNotYetValid,
				Message: fmt.Sprintf("Ticket is not valid before %s.", ticket.TimeSlot.StartTime.Format("15:04"))}
		}
		if now.After(ticket.TimeSlot.EndTime.Add(SlotGracePeriod)) {
			return &ScanResult{Ticket: ticket, Error: ScanExpired, Message: "Ticket's time slot has passed."}
		}
	}

	return &ScanResult{Valid: true, Ticket: ticket}
}

// Scan validates and, on success, admits: the valid -> used flip is a
// conditional update, so of two stations racing on one barcode exactly one
// wins; the loser gets TICKET_ALREADY_USED.
func (s *CheckinService) Scan(barcode string, attractionID uuid.UUID, stationID string, scannedBy *uuid.UUID) (*ScanResult, error) {
	var result *ScanResult
	err := s.store.InTx(func(tx TicketStore) error {
		ticket, err := tx.TicketByBarcode(barcode)
		if err != nil {
			return err
		}
		result = s.validateTicket(ticket, attractionID)
		if !result.Valid {
			return nil
		}

		now := s.now()
		admitted, err := tx.AdmitTicket(ticket.ID, now, scannedBy)
		if err != nil {
			return err
		}
		if !admitted {
			// lost the race; report the same shape a stale re-scan gets
			fresh, err := tx.TicketByBarcode(barcode)
			if err != nil {
				return err
			}
			result = s.validateTicket(fresh, attractionID)
			return nil
		}

		ticket.Status = models.TicketUsed
		ticket.CheckedInAt = &now
		ticket.CheckedInBy = scannedBy
		if err := tx.CreateCheckIn(&models.CheckIn{
			TicketID:     ticket.ID,
			AttractionID: attractionID,
			StationID:    stationID,
			Method:       models.CheckInScan,
			GuestCount:   1,
		}); err != nil {
			return err
		}
		result = &ScanResult{Valid: true, Ticket: ticket, CheckedInAt: &now}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

type WalkUpRequest struct {
	TicketTypeID uuid.UUID
	TimeSlotID   *uuid.UUID
	Quantity     int
	GuestName    string
	GuestEmail   string
	GuestPhone   string
	StationID    string
	SoldBy       *uuid.UUID
}

type WalkUpResult struct {
	Order   *models.Order
	Tickets []models.Ticket
}

// WalkUpSale is "buy and enter now": one order, one line item, quantity
// tickets already used, and one admission event per ticket, committed as a
// single transaction so a partial failure cannot strand a half-built order.
func (s *CheckinService) WalkUpSale(attractionID uuid.UUID, req WalkUpRequest) (*WalkUpResult, error) {
	if req.Quantity <= 0 {
		return nil, apperrors.BadRequest(apperrors.CodeBadRequest, "Quantity must be at least 1.")
	}

	var result *WalkUpResult
	err := s.store.InTx(func(tx TicketStore) error {
		ticketType, err := tx.TicketTypeByID(req.TicketTypeID)
		if err != nil {
			return err
		}
		if ticketType == nil {
			return apperrors.NotFound("Ticket type not found.")
		}
		if ticketType.AttractionID != attractionID {
			return apperrors.BadRequest(apperrors.CodeWrongAttraction, "Ticket type belongs to a different attraction.")
		}
		if !ticketType.IsActive {
			return apperrors.BadRequest(apperrors.CodeBadRequest, "Ticket type is not on sale.")
		}
		if ticketType.MaxPerOrder != nil && req.Quantity > *ticketType.MaxPerOrder {
			return apperrors.BadRequest(apperrors.CodeBadRequest,
				fmt.Sprintf("At most %d tickets per order.", *ticketType.MaxPerOrder))
		}

		if req.TimeSlotID != nil {
			slot, err := tx.TimeSlotByID(*req.TimeSlotID)
			if err != nil {
				return err
			}
			if slot == nil || slot.AttractionID != attractionID {
				return apperrors.NotFound("Time slot not found.")
			}
			booked, err := tx.BookSlotCapacity(slot.ID, req.Quantity)
			if err != nil {
				return err
			}
			if !booked {
				return apperrors.BadRequest(apperrors.CodeSlotFull, "Time slot is sold out.")
			}
		}

		now := s.now()
		total := ticketType.Price.Mul(decimal.NewFromInt(int64(req.Quantity)))
		order := &models.Order{
			OrderNumber: helpers.GenerateOrderNumber(now),
			GuestName:   req.GuestName,
			GuestEmail:  helpers.NormalizeEmail(req.GuestEmail),
			GuestPhone:  helpers.NormalizePhone(req.GuestPhone),
			Status:      models.OrderCompleted,
			Total:       total,
		}
		if err := tx.CreateOrder(order); err != nil {
			return err
		}
		if err := tx.CreateOrderItem(&models.OrderItem{
			OrderID:      order.ID,
			TicketTypeID: ticketType.ID,
			Quantity:     req.Quantity,
			UnitPrice:    ticketType.Price,
			Subtotal:     total,
		}); err != nil {
			return err
		}

		tickets := make([]models.Ticket, 0, req.Quantity)
		for i := 0; i < req.Quantity; i++ {
			ticket := models.Ticket{
				TicketNumber: fmt.Sprintf("%s-%d", order.OrderNumber, i+1),
				Barcode:      helpers.GenerateBarcode(),
				Status:       models.TicketUsed,
				OrderID:      order.ID,
				TicketTypeID: ticketType.ID,
				TimeSlotID:   req.TimeSlotID,
				CheckedInAt:  &now,
				CheckedInBy:  req.SoldBy,
			}
			if err := tx.CreateTicket(&ticket); err != nil {
				return err
			}
			if err := tx.CreateCheckIn(&models.CheckIn{
				TicketID:     ticket.ID,
				AttractionID: attractionID,
				StationID:    req.StationID,
				Method:       models.CheckInWalkUp,
				GuestCount:   1,
			}); err != nil {
				return err
			}
			tickets = append(tickets, ticket)
		}

		result = &WalkUpResult{Order: order, Tickets: tickets}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TransitionTicket applies a staff-driven status change through the
// central transition table. Voiding a still-valid slot-bound ticket
// releases its seat in the same transaction, pairing the increment made at
// order time.
func (s *CheckinService) TransitionTicket(ticketID uuid.UUID, next models.TicketStatus) (*models.Ticket, error) {
	var updated *models.Ticket
	err := s.store.InTx(func(tx TicketStore) error {
		ticket, err := tx.TicketByID(ticketID)
		if err != nil {
			return err
		}
		if ticket == nil {
			return apperrors.NotFound("Ticket not found.")
		}
		from := ticket.Status
		if !from.CanTransitionTo(next) {
			return apperrors.BadRequest(apperrors.CodeInvalidStatusTransition,
				fmt.Sprintf("Cannot transition ticket from %s to %s.", from, next))
		}

		swapped, err := tx.CasTicketStatus(ticket.ID, from, next)
		if err != nil {
			return err
		}
		if !swapped {
			return apperrors.Conflict(apperrors.CodeConflict, "Ticket status changed concurrently; retry.")
		}

		if next == models.TicketVoided && from != models.TicketUsed && ticket.TimeSlotID != nil {
			if err := tx.ReleaseSlotCapacity(*ticket.TimeSlotID, 1); err != nil {
				return err
			}
		}

		ticket.Status = next
		updated = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

type CheckinStats struct {
	Date              string         `json:"date"`
	TotalCheckedIn    int            `json:"total_checked_in"`
	CheckedInLastHour int            `json:"checked_in_last_hour"`
	HourlyCounts      map[string]int `json:"hourly_counts"`
	PeakHour          string         `json:"peak_hour,omitempty"`
	PeakCount         int            `json:"peak_count"`
	ExpectedCount     int            `json:"expected_count"`
	CheckInRate       int            `json:"check_in_rate"`
}

// Stats reports the attraction's admission picture for one day. The
// expected-ticket denominator degrades to zero on a store failure instead
// of failing the whole report.
func (s *CheckinService) Stats(attractionID uuid.UUID, day time.Time) (*CheckinStats, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	times, err := s.store.CheckInTimes(attractionID, start, end)
	if err != nil {
		return nil, err
	}

	expected := 0
	if count, err := s.store.TicketCount(attractionID, start, end); err != nil {
		log.Printf("expected-ticket count failed for %s: %v", attractionID, err)
	} else {
		expected = int(count)
	}

	hist := capacity.HourlyHistogram(times)
	hourly := make(map[string]int, len(hist))
	for bucket, count := range hist {
		hourly[bucket.Format("15:00")] = count
	}

	stats := &CheckinStats{
		Date:              start.Format("2006-01-02"),
		TotalCheckedIn:    capacity.Count(times, start, end),
		CheckedInLastHour: capacity.CountLastHour(times, s.now()),
		HourlyCounts:      hourly,
		ExpectedCount:     expected,
		CheckInRate:       capacity.CheckInRate(len(times), expected),
	}
	if bucket, count, ok := capacity.PeakHour(hist); ok {
		stats.PeakHour = bucket.Format("15:00")
		stats.PeakCount = count
	}
	return stats, nil
}
