package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/parkgate/parkgate/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// VirtualQueueEntitled is the enterprise entitlement gate for the
	// virtual-queue surface. Supplied by the billing side; we only read it.
	VirtualQueueEntitled bool

	// QueueSweepSchedule is the cron spec driving the expiry sweep.
	QueueSweepSchedule string
}

func LoadConfig() (*Config, error) {
	entitled, _ := strconv.ParseBool(os.Getenv("VIRTUAL_QUEUE_ENTITLED"))

	schedule := os.Getenv("QUEUE_SWEEP_SCHEDULE")
	if schedule == "" {
		schedule = "@every 1m"
	}

	return &Config{
		DBHost:               os.Getenv("DB_HOST"),
		DBPort:               os.Getenv("DB_PORT"),
		DBUser:               os.Getenv("DB_USER"),
		DBPassword:           os.Getenv("DB_PASSWORD"),
		DBName:               os.Getenv("DB_NAME"),
		VirtualQueueEntitled: entitled,
		QueueSweepSchedule:   schedule,
	}, nil
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := enableUUIDExtension(db); err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Attraction{},
		&models.TicketType{},
		&models.TimeSlot{},
		&models.Order{},
		&models.OrderItem{},
		&models.Ticket{},
		&models.CheckIn{},
		&models.QueueConfig{},
		&models.QueueEntry{},
	)
	if err != nil {
		return nil, err
	}

	seedRoles(db)

	return db, nil
}

func seedRoles(db *gorm.DB) {
	roles := []models.Role{
		{Name: "staff"},
		{Name: "manager"},
		{Name: "admin"},
	}

	for _, role := range roles {
		var existingRole models.Role
		result := db.Where("name = ?", role.Name).First(&existingRole)
		if result.Error != nil {
			db.Create(&role)
		}
	}
}
