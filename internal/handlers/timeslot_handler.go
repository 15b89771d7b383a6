package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/parkgate/parkgate/internal/helpers"
	"github.com/parkgate/parkgate/internal/models"
)

type TimeSlotRequest struct {
	Date      string `json:"date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
	Capacity  *int   `json:"capacity"`
}

func CreateTimeSlot(c *gin.Context) {
	var req TimeSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD.")
		return
	}
	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid start time format.")
		return
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid end time format.")
		return
	}
	if !endTime.After(startTime) {
		helpers.RespondWithError(c, http.StatusBadRequest, "End time must be after start time.")
		return
	}
	if req.Capacity != nil && *req.Capacity < 0 {
		helpers.RespondWithError(c, http.StatusBadRequest, "Capacity cannot be negative.")
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

	slot := models.TimeSlot{
		AttractionID: attraction.ID,
		Date:         date,
		StartTime:    startTime,
		EndTime:      endTime,
		Capacity:     req.Capacity,
	}

	if err := gormDB.Create(&slot).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create time slot.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Time slot created successfully.",
		"time_slot_id": slot.ID,
	})
}

func ListTimeSlots(c *gin.Context) {
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	attraction, ok := attractionBySlug(c, gormDB)
	if !ok {
		return
	}

	query := gormDB.Where("attraction_id = ?", attraction.ID)
	if dateStr := c.Query("date"); dateStr != "" {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			helpers.RespondWithError(c, http.StatusBadRequest, "Invalid date format, expected YYYY-MM-DD.")
			return
		}
		query = query.Where("date = ?", date)
	}

	var slots []models.TimeSlot
	if err := query.Order("start_time ASC").Find(&slots).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving time slots.")
		return
	}

	c.JSON(http.StatusOK, slots)
}
