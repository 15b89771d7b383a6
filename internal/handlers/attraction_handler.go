package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parkgate/parkgate/internal/helpers"
	"github.com/parkgate/parkgate/internal/models"
	"github.com/shopspring/decimal"
)

type AttractionRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
	Location    string `json:"location"`
	IsActive    *bool  `json:"is_active"`
}

func CreateAttraction(c *gin.Context) {
	var req AttractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid input. Please check your fields.")
		return
	}

	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var existing models.Attraction
	if result := gormDB.Where("slug = ?", req.Slug).First(&existing); result.Error == nil {
		helpers.RespondWithError(c, http.StatusConflict, "An attraction with this slug already exists.")
		return
	}

	attraction := models.Attraction{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Location:    req.Location,
		IsActive:    true,
	}
	if req.IsActive != nil {
		attraction.IsActive = *req.IsActive
	}

	if err := gormDB.Create(&attraction).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create attraction.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       "Attraction created successfully.",
		"attraction_id": attraction.ID,
	})
}

func ListAttractions(c *gin.Context) {
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	var attractions []models.Attraction
	if err := gormDB.Order("name ASC").Find(&attractions).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving attractions.")
		return
	}

	c.JSON(http.StatusOK, attractions)
}

func GetAttraction(c *gin.Context) {
	gormDB, ok := getDB(c)
	if !ok {
		return
	}

	attraction, ok := attractionBySlug(c, gormDB)
	if !ok {
		return
	}

	var ticketTypes []models.TicketType
	if err := gormDB.Where("attraction_id = ? AND is_active = ?", attraction.ID, true).Find(&ticketTypes).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving ticket types.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attraction":   attraction,
		"ticket_types": ticketTypes,
	})
}

func UpdateAttraction(c *gin.Context) {
	var req AttractionRequest
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

	attraction.Name = req.Name
	attraction.Description = req.Description
	attraction.Location = req.Location
	if req.IsActive != nil {
		attraction.IsActive = *req.IsActive
	}

	if err := gormDB.Save(attraction).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to update attraction.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Attraction updated successfully.",
		"attraction": attraction,
	})
}

type TicketTypeRequest struct {
	Name        string          `json:"name" binding:"required"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	MaxPerOrder *int            `json:"max_per_order"`
	IsActive    *bool           `json:"is_active"`
}

func CreateTicketType(c *gin.Context) {
	var req TicketTypeRequest
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

	ticketType := models.TicketType{
		Name:         req.Name,
		Price:        req.Price,
		MaxPerOrder:  req.MaxPerOrder,
		AttractionID: attraction.ID,
		IsActive:     true,
	}
	if req.IsActive != nil {
		ticketType.IsActive = *req.IsActive
	}

	if err := gormDB.Create(&ticketType).Error; err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to create ticket type.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":        "Ticket type created successfully.",
		"ticket_type_id": ticketType.ID,
	})
}
