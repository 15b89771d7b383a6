package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/parkgate/parkgate/internal/helpers"
	"github.com/parkgate/parkgate/internal/models"
	"github.com/parkgate/parkgate/internal/notify"
	"github.com/parkgate/parkgate/internal/services"
	"github.com/parkgate/parkgate/internal/store"
	"gorm.io/gorm"
)

var notifier notify.Gateway = notify.NewLogGateway()

func getDB(c *gin.Context) (*gorm.DB, bool) {
	db, exists := c.Get("db")
	if !exists {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Database connection not found.")
		return nil, false
	}
	return db.(*gorm.DB), true
}

func queueService(db *gorm.DB) *services.QueueService {
	return services.NewQueueService(store.NewQueueStore(db), notifier)
}

func checkinService(db *gorm.DB) *services.CheckinService {
	return services.NewCheckinService(store.NewTicketStore(db))
}

func staffID(c *gin.Context) *uuid.UUID {
	v, exists := c.Get("user_id")
	if !exists {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}

func attractionBySlug(c *gin.Context, db *gorm.DB) (*models.Attraction, bool) {
	var attraction models.Attraction
	err := db.Where("slug = ?", c.Param("slug")).First(&attraction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Attraction not found.")
		} else {
			helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving attraction.")
		}
		return nil, false
	}
	return &attraction, true
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid id.")
		return uuid.Nil, false
	}
	return id, true
}
