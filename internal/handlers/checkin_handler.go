package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/parkgate/parkgate/internal/helpers"
	"github.com/parkgate/parkgate/internal/models"
	"github.com/parkgate/parkgate/internal/monitoring"
	"github.com/parkgate/parkgate/internal/services"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

type ScanRequest struct {
	Barcode   string `json:"barcode" binding:"required"`
	StationID string `json:"station_id"`
}

// ValidateTicket answers whether a barcode would admit, without committing
// anything. Always 200: not-valid outcomes are payload data so the scanner
// UI renders every result the same way.
func ValidateTicket(c *gin.Context) {
	scanTicket(c, false)
}

// ScanTicket validates and admits in one step.
func ScanTicket(c *gin.Context) {
	scanTicket(c, true)
}

func scanTicket(c *gin.Context, admit bool) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	attraction, ok := attractionBySlug(c, gormDB)
	if !ok {
		return
	}

	svc := checkinService(gormDB)
	var result *services.ScanResult
	var err error
	if admit {
		result, err = svc.Scan(req.Barcode, attraction.ID, req.StationID, staffID(c))
	} else {
		result, err = svc.Validate(req.Barcode, attraction.ID)
	}
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	if result.Valid {
		monitoring.RecordTicketScan("valid")
	} else {
		monitoring.RecordTicketScan(string(result.Error))
	}

	c.JSON(http.StatusOK, result)
}

type WalkUpRequest struct {
	TicketTypeID uuid.UUID  `json:"ticket_type_id" binding:"required"`
	TimeSlotID   *uuid.UUID `json:"time_slot_id"`
	Quantity     int        `json:"quantity" binding:"required,min=1"`
	GuestName    string     `json:"guest_name" binding:"required"`
	GuestEmail   string     `json:"guest_email"`
	GuestPhone   string     `json:"guest_phone"`
	StationID    string     `json:"station_id"`
}

// WalkUpSale sells and admits at the gate in one action.
func WalkUpSale(c *gin.Context) {
	var req WalkUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	attraction, ok := attractionBySlug(c, gormDB)
	if !ok {
		return
	}

	result, err := checkinService(gormDB).WalkUpSale(attraction.ID, services.WalkUpRequest{
		TicketTypeID: req.TicketTypeID,
		TimeSlotID:   req.TimeSlotID,
		Quantity:     req.Quantity,
		GuestName:    req.GuestName,
		GuestEmail:   req.GuestEmail,
		GuestPhone:   req.GuestPhone,
		StationID:    req.StationID,
		SoldBy:       staffID(c),
	})
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}
	monitoring.RecordWalkUpSale()

	c.JSON(http.StatusCreated, gin.H{
		"order":   result.Order,
		"tickets": result.Tickets,
	})
}

type TicketStatusRequest struct {
	Status models.TicketStatus `json:"status" binding:"required"`
}

// UpdateTicketStatus applies a staff-driven transition, e.g. voiding a
// ticket after a refund.
func UpdateTicketStatus(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TicketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	ticket, err := checkinService(gormDB).TransitionTicket(ticketID, req.Status)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Ticket status updated.",
		"ticket":  ticket,
	})
}

// CheckinStats reports today's admission picture for an attraction, or a
// specific day via ?date=YYYY-MM-DD.
func CheckinStats(c *gin.Context) {
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	attraction, ok := attractionBySlug(c, gormDB)
	if !ok {
		return
	}

	day := time.Now()
	if dateStr := c.Query("date"); dateStr != "" {
		parsed, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD.")
			return
		}
		day = parsed
	}

	stats, err := checkinService(gormDB).Stats(attraction.ID, day)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// TicketQR renders a ticket's barcode as a QR image for reprints.
func TicketQR(c *gin.Context) {
	ticketID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var ticket models.Ticket
	if err := gormDB.Where("id = ?", ticketID).First(&ticket).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			helpers.RespondWithError(c, http.StatusNotFound, "Ticket not found.")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving ticket.")
		return
	}

	png, err := qrcode.Encode(ticket.Barcode, qrcode.Medium, 256)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate QR code.")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
