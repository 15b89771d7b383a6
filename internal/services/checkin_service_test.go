package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/parkgate/parkgate/internal/apperrors"
	"github.com/parkgate/parkgate/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkinFixture struct {
	svc          *CheckinService
	store        *fakeTicketStore
	attractionID uuid.UUID
	ticketType   *models.TicketType
	now          time.Time
}

func newCheckinFixture() *checkinFixture {
	f := &checkinFixture{
		store:        newFakeTicketStore(),
		attractionID: uuid.New(),
		now:          time.Date(2026, 5, 16, 12, 0, 0, 0, time.UTC),
	}
	f.ticketType = f.store.addTicketType(&models.TicketType{
		Name:         "General Admission",
		Price:        decimal.NewFromFloat(24.50),
		IsActive:     true,
		AttractionID: f.attractionID,
	})
	f.svc = NewCheckinService(f.store)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *checkinFixture) addValidTicket(barcode string) *models.Ticket {
	return f.store.addTicket(&models.Ticket{
		TicketNumber: "ORD-20260516-TEST-1",
		Barcode:      barcode,
		Status:       models.TicketValid,
		OrderID:      uuid.New(),
		TicketTypeID: f.ticketType.ID,
	})
}

func TestValidateRejectsUnknownBarcode(t *testing.T) {
	f := newCheckinFixture()

	result, err := f.svc.Validate("PG-DOESNOTEXIST", f.attractionID)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ScanTicketNotFound, result.Error)
}

func TestValidateRejectsWrongAttraction(t *testing.T) {
	f := newCheckinFixture()
	f.addValidTicket("PG-AAAA")

	result, err := f.svc.Validate("PG-AAAA", uuid.New())
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ScanWrongAttraction, result.Error)
}

func TestValidateReportsStatusOutcomes(t *testing.T) {
	f := newCheckinFixture()

	usedAt := f.now.Add(-30 * time.Minute)
	used := f.addValidTicket("PG-USED")
	used.Status = models.TicketUsed
	used.CheckedInAt = &usedAt

	voided := f.addValidTicket("PG-VOID")
	voided.Status = models.TicketVoided

	expired := f.addValidTicket("PG-EXPD")
	expired.Status = models.TicketExpired

	result, err := f.svc.Validate("PG-USED", f.attractionID)
	require.NoError(t, err)
	assert.Equal(t, ScanAlreadyUsed, result.Error)
	require.NotNil(t, result.CheckedInAt)
	assert.Equal(t, usedAt, *result.CheckedInAt)
	assert.Contains(t, result.Message, usedAt.Format(time.RFC3339))

	result, err = f.svc.Validate("PG-VOID", f.attractionID)
	require.NoError(t, err)
	assert.Equal(t, ScanVoided, result.Error)

	result, err = f.svc.Validate("PG-EXPD", f.attractionID)
	require.NoError(t, err)
	assert.Equal(t, ScanExpired, result.Error)
}

func TestValidateEnforcesSlotWindowWithGrace(t *testing.T) {
	f := newCheckinFixture()
	day := time.Date(2026, 5, 16, 0, 0, 0, 0, time.UTC)
	slot := f.store.addTimeSlot(&models.TimeSlot{
		AttractionID: f.attractionID,
		Date:         day,
		StartTime:    day.Add(18 * time.Hour),
		EndTime:      day.Add(18*time.Hour + 30*time.Minute),
	})
	ticket := f.addValidTicket("PG-SLOT")
	ticket.TimeSlotID = &slot.ID

	cases := []struct {
		name    string
		at      time.Time
		valid   bool
		scanErr ScanError
	}{
		{"one minute early", day.Add(17*time.Hour + 59*time.Minute), false, ScanNotYetValid},
		{"at start", day.Add(18 * time.Hour), true, ""},
		{"inside grace", day.Add(20*time.Hour + 29*time.Minute), true, ""},
		{"past grace", day.Add(20*time.Hour + 31*time.Minute), false, ScanExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f.now = tc.at
			result, err := f.svc.Validate("PG-SLOT", f.attractionID)
			require.NoError(t, err)
			assert.Equal(t, tc.valid, result.Valid)
			assert.Equal(t, tc.scanErr, result.Error)
		})
	}
}

func TestScanAdmitsOnceAndRecordsCheckIn(t *testing.T) {
	f := newCheckinFixture()
	f.addValidTicket("PG-AAAA")
	staff := uuid.New()

	result, err := f.svc.Scan("PG-AAAA", f.attractionID, "gate-1", &staff)
	require.NoError(t, err)
	require.True(t, result.Valid)
	require.NotNil(t, result.CheckedInAt)
	assert.Equal(t, f.now, *result.CheckedInAt)

	stored, err := f.store.TicketByBarcode("PG-AAAA")
	require.NoError(t, err)
	assert.Equal(t, models.TicketUsed, stored.Status)
	assert.Equal(t, &staff, stored.CheckedInBy)

	require.Len(t, f.store.checkIns, 1)
	assert.Equal(t, models.CheckInScan, f.store.checkIns[0].Method)
	assert.Equal(t, "gate-1", f.store.checkIns[0].StationID)
	assert.Equal(t, 1, f.store.checkIns[0].GuestCount)

	// second swipe of the same barcode
	result, err = f.svc.Scan("PG-AAAA", f.attractionID, "gate-2", &staff)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ScanAlreadyUsed, result.Error)
	assert.Len(t, f.store.checkIns, 1)
}

// Two stations swiping the same barcode at once; the loser's validation read
// still saw a valid ticket, so the outcome hinges on the conditional admit.
func TestScanLosesRaceToConcurrentStation(t *testing.T) {
	f := newCheckinFixture()
	ticket := f.addValidTicket("PG-AAAA")
	otherAt := f.now.Add(-time.Second)

	f.store.beforeAdmit = func() {
		if ticket.Status == models.TicketValid {
			ticket.Status = models.TicketUsed
			ticket.CheckedInAt = &otherAt
		}
	}

	result, err := f.svc.Scan("PG-AAAA", f.attractionID, "gate-1", nil)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ScanAlreadyUsed, result.Error)
	require.NotNil(t, result.CheckedInAt)
	assert.Equal(t, otherAt, *result.CheckedInAt)
	assert.Empty(t, f.store.checkIns)
}

func TestWalkUpSaleIssuesUsedTickets(t *testing.T) {
	f := newCheckinFixture()
	staff := uuid.New()

	result, err := f.svc.WalkUpSale(f.attractionID, WalkUpRequest{
		TicketTypeID: f.ticketType.ID,
		Quantity:     3,
		GuestName:    "Walk Up",
		GuestEmail:   "Walk.Up@Example.com",
		StationID:    "booth-1",
		SoldBy:       &staff,
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderCompleted, result.Order.Status)
	assert.Equal(t, "walk.up@example.com", result.Order.GuestEmail)
	assert.True(t, decimal.NewFromFloat(73.50).Equal(result.Order.Total))

	require.Len(t, result.Tickets, 3)
	seen := make(map[string]bool)
	for _, ticket := range result.Tickets {
		assert.Equal(t, models.TicketUsed, ticket.Status)
		require.NotNil(t, ticket.CheckedInAt)
		assert.False(t, seen[ticket.Barcode])
		seen[ticket.Barcode] = true
	}

	require.Len(t, f.store.checkIns, 3)
	for _, ci := range f.store.checkIns {
		assert.Equal(t, models.CheckInWalkUp, ci.Method)
		assert.Equal(t, "booth-1", ci.StationID)
	}

	require.Len(t, f.store.orderItems, 1)
	assert.Equal(t, 3, f.store.orderItems[0].Quantity)
	assert.True(t, f.ticketType.Price.Equal(f.store.orderItems[0].UnitPrice))
}

func TestWalkUpSaleValidatesTypeAndQuantity(t *testing.T) {
	f := newCheckinFixture()

	_, err := f.svc.WalkUpSale(f.attractionID, WalkUpRequest{TicketTypeID: uuid.New(), Quantity: 1})
	assert.Equal(t, apperrors.CodeNotFound, apperrors.As(err).Code)

	_, err = f.svc.WalkUpSale(uuid.New(), WalkUpRequest{TicketTypeID: f.ticketType.ID, Quantity: 1})
	assert.Equal(t, apperrors.CodeWrongAttraction, apperrors.As(err).Code)

	_, err = f.svc.WalkUpSale(f.attractionID, WalkUpRequest{TicketTypeID: f.ticketType.ID, Quantity: 0})
	assert.Equal(t, apperrors.CodeBadRequest, apperrors.As(err).Code)

	maxPerOrder := 2
	f.ticketType.MaxPerOrder = &maxPerOrder
	_, err = f.svc.WalkUpSale(f.attractionID, WalkUpRequest{TicketTypeID: f.ticketType.ID, Quantity: 3})
	assert.Equal(t, apperrors.CodeBadRequest, apperrors.As(err).Code)

	f.ticketType.IsActive = false
	_, err = f.svc.WalkUpSale(f.attractionID, WalkUpRequest{TicketTypeID: f.ticketType.ID, Quantity: 1})
	assert.Equal(t, apperrors.CodeBadRequest, apperrors.As(err).Code)
}

func TestWalkUpSaleRespectsSlotCapacity(t *testing.T) {
	f := newCheckinFixture()
	capacity := 4
	slot := f.store.addTimeSlot(&models.TimeSlot{
		AttractionID: f.attractionID,
		StartTime:    f.now,
		EndTime:      f.now.Add(30 * time.Minute),
		Capacity:     &capacity,
		BookedCount:  2,
	})

	_, err := f.svc.WalkUpSale(f.attractionID, WalkUpRequest{
		TicketTypeID: f.ticketType.ID,
		TimeSlotID:   &slot.ID,
		Quantity:     3,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeSlotFull, apperrors.As(err).Code)
	assert.Equal(t, 2, slot.BookedCount)

	result, err := f.svc.WalkUpSale(f.attractionID, WalkUpRequest{
		TicketTypeID: f.ticketType.ID,
		TimeSlotID:   &slot.ID,
		Quantity:     2,
	})
	require.NoError(t, err)
	assert.Len(t, result.Tickets, 2)
	assert.Equal(t, 4, slot.BookedCount)
}

func TestTransitionTicketFollowsTheTable(t *testing.T) {
	f := newCheckinFixture()
	ticket := f.addValidTicket("PG-AAAA")

	// a valid ticket cannot skip back to valid
	_, err := f.svc.TransitionTicket(ticket.ID, models.TicketValid)
	require.Error(t, err)
	appErr := apperrors.As(err)
	assert.Equal(t, apperrors.CodeInvalidStatusTransition, appErr.Code)
	assert.Contains(t, appErr.Message, "valid")

	updated, err := f.svc.TransitionTicket(ticket.ID, models.TicketVoided)
	require.NoError(t, err)
	assert.Equal(t, models.TicketVoided, updated.Status)

	// voided is terminal
	_, err = f.svc.TransitionTicket(ticket.ID, models.TicketUsed)
	assert.Equal(t, apperrors.CodeInvalidStatusTransition, apperrors.As(err).Code)

	_, err = f.svc.TransitionTicket(uuid.New(), models.TicketVoided)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.As(err).Code)
}

func TestVoidingUnusedSlotTicketReleasesSeat(t *testing.T) {
	f := newCheckinFixture()
	capacity := 10
	slot := f.store.addTimeSlot(&models.TimeSlot{
		AttractionID: f.attractionID,
		StartTime:    f.now,
		EndTime:      f.now.Add(30 * time.Minute),
		Capacity:     &capacity,
		BookedCount:  5,
	})

	ticket := f.addValidTicket("PG-AAAA")
	ticket.TimeSlotID = &slot.ID

	_, err := f.svc.TransitionTicket(ticket.ID, models.TicketVoided)
	require.NoError(t, err)
	assert.Equal(t, 4, slot.BookedCount)

	// voiding after use keeps the seat consumed
	used := f.addValidTicket("PG-BBBB")
	used.TimeSlotID = &slot.ID
	used.Status = models.TicketUsed

	_, err = f.svc.TransitionTicket(used.ID, models.TicketVoided)
	require.NoError(t, err)
	assert.Equal(t, 4, slot.BookedCount)
}

func TestStatsSummarizesTheDay(t *testing.T) {
	f := newCheckinFixture()
	day := time.Date(2026, 5, 16, 0, 0, 0, 0, time.UTC)
	f.now = day.Add(15*time.Hour + 30*time.Minute)

	stamps := []time.Time{
		day.Add(10 * time.Hour),
		day.Add(14*time.Hour + 5*time.Minute),
		day.Add(14*time.Hour + 40*time.Minute),
		day.Add(15 * time.Hour),
	}
	for _, at := range stamps {
		f.store.checkIns = append(f.store.checkIns, models.CheckIn{
			ID:           uuid.New(),
			TicketID:     uuid.New(),
			AttractionID: f.attractionID,
			Method:       models.CheckInScan,
			GuestCount:   1,
			CreatedAt:    at,
		})
	}
	for i := 0; i < 8; i++ {
		f.addValidTicket("PG-TKT-" + string(rune('A'+i)))
	}

	stats, err := f.svc.Stats(f.attractionID, day)
	require.NoError(t, err)

	assert.Equal(t, "2026-05-16", stats.Date)
	assert.Equal(t, 4, stats.TotalCheckedIn)
	assert.Equal(t, 2, stats.CheckedInLastHour)
	assert.Equal(t, "14:00", stats.PeakHour)
	assert.Equal(t, 2, stats.PeakCount)
	assert.Equal(t, 2, stats.HourlyCounts["14:00"])
	assert.Equal(t, 1, stats.HourlyCounts["10:00"])
	assert.Equal(t, 8, stats.ExpectedCount)
	assert.Equal(t, 50, stats.CheckInRate)
}

func TestStatsWithNoExpectedTickets(t *testing.T) {
	f := newCheckinFixture()
	// no ticket types sold at this attraction at all
	other := uuid.New()

	stats, err := f.svc.Stats(other, f.now)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalCheckedIn)
	assert.Equal(t, 0, stats.ExpectedCount)
	assert.Equal(t, 0, stats.CheckInRate)
	assert.Empty(t, stats.PeakHour)
}
