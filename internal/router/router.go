package router

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"spa_backend/internal/config"
	"spa_backend/internal/handlers"
	"spa_backend/internal/middleware"
	"spa_backend/internal/payments/momo"
	"spa_backend/internal/repositories"
	"spa_backend/internal/scheduling"
	"spa_backend/internal/services"
	"spa_backend/pkg/utils"
)

// Handlers bundles every HTTP handler the API mounts.
type Handlers struct {
	Auth     *handlers.AuthHandler
	Catalog  *handlers.CatalogHandler
	Customer *handlers.CustomerHandler
	Staff    *handlers.StaffHandler
	Booking  *handlers.BookingHandler
	Shift    *handlers.ShiftHandler
	Payroll  *handlers.PayrollHandler
	Invoice  *handlers.InvoiceHandler
	Chat     *handlers.ChatHandler
	Report   *handlers.ReportHandler
	Setting  *handlers.SettingHandler
}

// Setup wires repositories, services and handlers on db and mounts the API on engine.
func Setup(engine *gin.Engine, db *sql.DB, cfg *config.Config) error {
	h, err := NewHandlers(db, cfg)
	if err != nil {
		return err
	}
	Mount(engine, h)
	return nil
}

// NewHandlers builds the service graph.
func NewHandlers(db *sql.DB, cfg *config.Config) (*Handlers, error) {
	// Repositories
	authRepo := repositories.NewAuthRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	staffRepo := repositories.NewStaffRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	bookingRepo := repositories.NewBookingRepository(db)
	shiftRepo := repositories.NewShiftRepository(db)
	payrollRepo := repositories.NewPayrollRepository(db)
	invoiceRepo := repositories.NewInvoiceRepository(db)
	chatRepo := repositories.NewChatRepository(db)
	reportRepo := repositories.NewReportRepository(db)
	settingRepo := repositories.NewSettingRepository(db)
	outbox := repositories.NewNotificationRepository(db)
	tx := services.NewPostgresTx(db)

	strategy, err := scheduling.ParseStrategy(cfg.AutoAssignStrategy)
	if err != nil {
		return nil, err
	}

	var gateway services.PaymentGateway
	if cfg.MoMo.Enabled() {
		client, err := momo.NewClient(cfg.MoMo, nil)
		if err != nil {
			return nil, err
		}
		gateway = client
	} else {
		utils.LogWarn("MoMo gateway not configured, online payments disabled")
	}

	// Services
	authService := services.NewAuthService(authRepo, customerRepo, staffRepo, db)
	catalogService := services.NewCatalogService(catalogRepo, db)
	customerService := services.NewCustomerService(customerRepo, db)
	staffService := services.NewStaffService(staffRepo, db)
	settingService := services.NewSettingService(settingRepo, db)
	bookingService := services.NewBookingService(bookingRepo, customerRepo, catalogRepo, staffRepo,
		settingService, tx, tx, outbox, services.BookingConfig{Strategy: strategy, Location: cfg.Location})
	payrollService := services.NewPayrollService(payrollRepo, staffRepo, shiftRepo, tx, tx)
	shiftService := services.NewShiftService(shiftRepo, staffRepo, payrollService, tx, outbox)
	invoiceService := services.NewInvoiceService(invoiceRepo, bookingRepo, gateway, tx, outbox)
	chatService := services.NewChatService(chatRepo, staffRepo, db, tx)
	reportService := services.NewReportService(reportRepo, bookingRepo, cfg.Location)

	// Handlers
	return &Handlers{
		Auth:     handlers.NewAuthHandler(authService),
		Catalog:  handlers.NewCatalogHandler(catalogService),
		Customer: handlers.NewCustomerHandler(customerService),
		Staff:    handlers.NewStaffHandler(staffService),
		Booking:  handlers.NewBookingHandler(bookingService, cfg.Location),
		Shift:    handlers.NewShiftHandler(shiftService, cfg.Location),
		Payroll:  handlers.NewPayrollHandler(payrollService),
		Invoice:  handlers.NewInvoiceHandler(invoiceService, cfg.Location),
		Chat:     handlers.NewChatHandler(chatService),
		Report:   handlers.NewReportHandler(reportService),
		Setting:  handlers.NewSettingHandler(settingService),
	}, nil
}

// Mount registers every route under /api/v1.
func Mount(engine *gin.Engine, h *Handlers) {
	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := engine.Group("/api/v1")

	// Public routes
	SetupPublicAuthRoutes(apiV1.Group("/auth"), h.Auth)
	SetupPublicCatalogRoutes(apiV1, h.Catalog, h.Staff)
	SetupPaymentCallbackRoutes(apiV1, h.Invoice)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), h.Auth)
		SetupAvailabilityRoutes(authenticated, h.Booking)
		SetupSelfServiceRoutes(authenticated, h)
		SetupBookingRoutes(authenticated, h.Booking)
		SetupCatalogRoutes(authenticated, h.Catalog)
		SetupCustomerRoutes(authenticated, h.Customer)
		SetupStaffRoutes(authenticated, h.Staff)
		SetupShiftRoutes(authenticated, h.Shift)
		SetupPayrollRoutes(authenticated, h.Payroll)
		SetupInvoiceRoutes(authenticated, h.Invoice)
		SetupChatRoutes(authenticated, h.Chat)
		SetupDashboardRoutes(authenticated, h.Report, h.Booking)
		SetupSettingsRoutes(authenticated, h.Setting)
	}
}
