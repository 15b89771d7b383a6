package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parkgate/parkgate/internal/helpers"
	"github.com/parkgate/parkgate/internal/monitoring"
	"github.com/parkgate/parkgate/internal/services"
	"github.com/skip2/go-qrcode"
)

type PublicJoinRequest struct {
	GuestName  string `json:"guest_name" binding:"required"`
	GuestPhone string `json:"guest_phone"`
	GuestEmail string `json:"guest_email"`
	PartySize  int    `json:"party_size"`
}

// PublicJoinQueue lets a guest join an attraction's line from their phone.
func PublicJoinQueue(c *gin.Context) {
	var req PublicJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	svc := queueService(gormDB)
	config, err := svc.ConfigByAttractionSlug(c.Param("slug"))
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	result, err := svc.Join(config.ID, services.JoinRequest{
		GuestName:  req.GuestName,
		GuestPhone: req.GuestPhone,
		GuestEmail: req.GuestEmail,
		PartySize:  req.PartySize,
	})
	if err != nil {
		monitoring.RecordQueueJoin("public", "rejected")
		helpers.RespondWithAppError(c, err)
		return
	}
	monitoring.RecordQueueJoin("public", "joined")

	c.JSON(http.StatusCreated, gin.H{
		"confirmation_code":      result.Entry.ConfirmationCode,
		"position":               result.Entry.Position,
		"status":                 result.Entry.Status,
		"people_ahead":           result.PeopleAhead,
		"estimated_wait_minutes": result.EstimatedWaitMinutes,
	})
}

// PublicQueueStatus is the guest's self-service lookup by confirmation code.
func PublicQueueStatus(c *gin.Context) {
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	result, err := queueService(gormDB).Status(c.Param("slug"), c.Param("code"))
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"confirmation_code":      result.Entry.ConfirmationCode,
		"position":               result.Entry.Position,
		"status":                 result.Entry.Status,
		"people_ahead":           result.PeopleAhead,
		"estimated_wait_minutes": result.EstimatedWaitMinutes,
	})
}

type PublicLeaveRequest struct {
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

func PublicLeaveQueue(c *gin.Context) {
	var req PublicLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	entry, err := queueService(gormDB).LeaveByCode(c.Param("slug"), req.ConfirmationCode)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "You have left the queue.",
		"status":  entry.Status,
	})
}

// QueueEntryQR renders the confirmation code as a QR image guests can show
// at the gate.
func QueueEntryQR(c *gin.Context) {
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	result, err := queueService(gormDB).Status(c.Param("slug"), c.Param("code"))
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	png, err := qrcode.Encode(result.Entry.ConfirmationCode, qrcode.Medium, 256)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate QR code.")
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
