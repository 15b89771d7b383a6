package server

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/parkgate/parkgate/config"
	"github.com/parkgate/parkgate/internal/handlers"
	"github.com/parkgate/parkgate/internal/middleware"
	"github.com/parkgate/parkgate/internal/monitoring"
	"github.com/parkgate/parkgate/internal/notify"
	"github.com/parkgate/parkgate/internal/services"
	"github.com/parkgate/parkgate/internal/store"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

func Start() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %v", err)
	}

	db, err := config.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %v", err)
	}

	if err := startQueueSweep(cfg, db); err != nil {
		return fmt.Errorf("failed to start queue sweep: %v", err)
	}

	r := gin.Default()

	setupRoutes(r, db, cfg)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return r.Run(":" + port)
}

// startQueueSweep runs the queue expiry pass on a schedule. Each pass is
// transactional per queue, so overlapping sweeps from several server
// instances converge instead of corrupting positions.
func startQueueSweep(cfg *config.Config, db *gorm.DB) error {
	svc := services.NewQueueService(store.NewQueueStore(db), notify.NewLogGateway())

	c := cron.New()
	_, err := c.AddFunc(cfg.QueueSweepSchedule, func() {
		expired, err := svc.SweepExpired()
		if err != nil {
			log.Printf("queue sweep: %v", err)
			return
		}
		if expired > 0 {
			log.Printf("queue sweep: expired %d entries", expired)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	return nil
}

func setupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config) {
	r.Use(middleware.DatabaseMiddleware(db))
	r.Use(monitoring.RequestMetrics())

	r.GET("/metrics", monitoring.Handler())

	queueEntitled := middleware.EntitlementMiddleware(func() bool {
		return cfg.VirtualQueueEntitled
	})

	public := r.Group("/v1")
	{
		public.POST("/register", handlers.Register)
		public.POST("/login", handlers.Login)

		attractionPublic := public.Group("/attractions")
		{
			attractionPublic.GET("", handlers.ListAttractions)
			attractionPublic.GET("/:slug", handlers.GetAttraction)
			attractionPublic.GET("/:slug/time-slots", handlers.ListTimeSlots)
		}

		queuePublic := public.Group("/attractions/:slug/queue")
		{
			queuePublic.POST("/join", handlers.PublicJoinQueue)
			queuePublic.GET("/status/:code", handlers.PublicQueueStatus)
			queuePublic.GET("/qr/:code", handlers.QueueEntryQR)
			queuePublic.POST("/leave", handlers.PublicLeaveQueue)
		}
	}

	protected := r.Group("/v1")
	protected.Use(middleware.JWTAuthMiddleware())
	{
		attractionProtected := protected.Group("/attractions")
		{
			attractionProtected.POST("", handlers.CreateAttraction)
			attractionProtected.PUT("/:slug", handlers.UpdateAttraction)
			attractionProtected.POST("/:slug/ticket-types", handlers.CreateTicketType)
			attractionProtected.POST("/:slug/time-slots", handlers.CreateTimeSlot)

			attractionProtected.POST("/:slug/tickets/validate", handlers.ValidateTicket)
			attractionProtected.POST("/:slug/tickets/scan", handlers.ScanTicket)
			attractionProtected.POST("/:slug/check-in/walk-up", handlers.WalkUpSale)
			attractionProtected.GET("/:slug/check-in/stats", handlers.CheckinStats)
		}

		queueStaff := protected.Group("/attractions/:slug/queue", queueEntitled)
		{
			queueStaff.POST("", handlers.UpsertQueueConfig)
			queueStaff.GET("/entries", handlers.ListQueueEntries)
			queueStaff.POST("/entries", handlers.StaffJoinQueue)
			queueStaff.POST("/pause", handlers.PauseQueue)
			queueStaff.POST("/resume", handlers.ResumeQueue)
		}

		entryStaff := protected.Group("/queue-entries", queueEntitled)
		{
			entryStaff.POST("/:id/notify", handlers.NotifyQueueEntry)
			entryStaff.POST("/:id/call", handlers.CallQueueEntry)
			entryStaff.POST("/:id/check-in", handlers.CheckInQueueEntry)
			entryStaff.POST("/:id/no-show", handlers.NoShowQueueEntry)
			entryStaff.POST("/:id/remove", handlers.RemoveQueueEntry)
		}

		ticketStaff := protected.Group("/tickets")
		{
			ticketStaff.PUT("/:id/status", handlers.UpdateTicketStatus)
			ticketStaff.GET("/:id/qr", handlers.TicketQR)
		}
	}
}
