package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/parkgate/parkgate/internal/helpers"
	"github.com/parkgate/parkgate/internal/models"
	"github.com/parkgate/parkgate/internal/monitoring"
	"github.com/parkgate/parkgate/internal/services"
)

type QueueConfigRequest struct {
	CapacityPerBatch        int   `json:"capacity_per_batch" binding:"required,min=1"`
	BatchIntervalMinutes    int   `json:"batch_interval_minutes" binding:"required,min=1"`
	MaxWaitMinutes          int   `json:"max_wait_minutes"`
	MaxQueueSize            int   `json:"max_queue_size"`
	AllowRejoin             *bool `json:"allow_rejoin"`
	RequireCheckIn          *bool `json:"require_check_in"`
	NotificationLeadMinutes int   `json:"notification_lead_minutes"`
	ExpiryMinutes           int   `json:"expiry_minutes"`
	IsActive                *bool `json:"is_active"`
}

// UpsertQueueConfig creates the attraction's queue config, or updates it in
// place. Configs are never deleted while entries reference them.
func UpsertQueueConfig(c *gin.Context) {
	var req QueueConfigRequest
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

	var config models.QueueConfig
	err := gormDB.Where("attraction_id = ?", attraction.ID).First(&config).Error
	isNew := err != nil
	if isNew {
		config = models.QueueConfig{AttractionID: attraction.ID, AllowRejoin: true, RequireCheckIn: true, IsActive: true}
	}

	config.CapacityPerBatch = req.CapacityPerBatch
	config.BatchIntervalMinutes = req.BatchIntervalMinutes
	config.MaxWaitMinutes = req.MaxWaitMinutes
	config.MaxQueueSize = req.MaxQueueSize
	config.NotificationLeadMinutes = req.NotificationLeadMinutes
	config.ExpiryMinutes = req.ExpiryMinutes
	if req.AllowRejoin != nil {
		config.AllowRejoin = *req.AllowRejoin
	}
	if req.RequireCheckIn != nil {
		config.RequireCheckIn = *req.RequireCheckIn
	}
	if req.IsActive != nil {
		config.IsActive = *req.IsActive
	}

	if err := gormDB.Save(&config).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to save queue configuration.")
		return
	}

	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"message": "Queue configuration saved.",
		"config":  config,
	})
}

func ListQueueEntries(c *gin.Context) {
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

	var entries []models.QueueEntry
	query := gormDB.Where("queue_config_id = ?", config.ID)
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status IN ?", []models.QueueEntryStatus{models.QueueWaiting, models.QueueNotified, models.QueueCalled})
	}
	if err := query.Order("position ASC").Find(&entries).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving queue entries.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"config":  config,
		"entries": entries,
	})
}

type StaffJoinRequest struct {
	GuestName  string     `json:"guest_name" binding:"required"`
	GuestPhone string     `json:"guest_phone"`
	GuestEmail string     `json:"guest_email"`
	PartySize  int        `json:"party_size"`
	TicketID   *uuid.UUID `json:"ticket_id"`
	Notes      string     `json:"notes"`
}

// StaffJoinQueue adds a party on a guest's behalf at a podium or help desk.
func StaffJoinQueue(c *gin.Context) {
	var req StaffJoinRequest
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
		TicketID:   req.TicketID,
		Notes:      req.Notes,
	})
	if err != nil {
		monitoring.RecordQueueJoin("staff", "rejected")
		helpers.RespondWithAppError(c, err)
		return
	}
	monitoring.RecordQueueJoin("staff", "joined")

	c.JSON(http.StatusCreated, gin.H{
		"entry":                  result.Entry,
		"people_ahead":           result.PeopleAhead,
		"estimated_wait_minutes": result.EstimatedWaitMinutes,
	})
}

func PauseQueue(c *gin.Context) {
	setQueuePaused(c, true, "Queue paused.")
}

func ResumeQueue(c *gin.Context) {
	setQueuePaused(c, false, "Queue resumed.")
}

func setQueuePaused(c *gin.Context, paused bool, message string) {
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

	config, err = svc.SetPaused(config.ID, paused)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"config":  config,
	})
}

func NotifyQueueEntry(c *gin.Context) {
	entryAction(c, func(svc *services.QueueService, id uuid.UUID) (*models.QueueEntry, error) {
		return svc.Notify(id)
	})
}

func CallQueueEntry(c *gin.Context) {
	entryAction(c, func(svc *services.QueueService, id uuid.UUID) (*models.QueueEntry, error) {
		return svc.Call(id)
	})
}

func NoShowQueueEntry(c *gin.Context) {
	entryAction(c, func(svc *services.QueueService, id uuid.UUID) (*models.QueueEntry, error) {
		return svc.NoShow(id)
	})
}

func RemoveQueueEntry(c *gin.Context) {
	entryAction(c, func(svc *services.QueueService, id uuid.UUID) (*models.QueueEntry, error) {
		return svc.Leave(id)
	})
}

func entryAction(c *gin.Context, action func(*services.QueueService, uuid.UUID) (*models.QueueEntry, error)) {
	entryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	entry, err := action(queueService(gormDB), entryID)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

// CheckInQueueEntry admits a called party at the gate and reports their
// total time in line.
func CheckInQueueEntry(c *gin.Context) {
	entryID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	result, err := queueService(gormDB).CheckInEntry(entryID)
	if err != nil {
		helpers.RespondWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entry":              result.Entry,
		"total_wait_minutes": int(result.TotalWaited.Minutes()),
	})
}
