package router

import (
	"github.com/gin-gonic/gin"

	"spa_backend/internal/handlers"
	"spa_backend/internal/middleware"
)

var require = middleware.RequireCapability

// SetupPublicAuthRoutes sets up sign-up, login and token refresh.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/register", authHandler.RegisterCustomer)
	group.POST("/login", authHandler.LoginCustomer)
	group.POST("/staff/login", authHandler.LoginStaff)
	group.POST("/refresh-token", authHandler.RefreshToken)
}

func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.Me)
	group.PUT("/password", authHandler.ChangePassword)
}

// SetupPublicCatalogRoutes exposes the service menu and the technician list to anonymous visitors.
func SetupPublicCatalogRoutes(apiGroup *gin.RouterGroup, catalogHandler *handlers.CatalogHandler, staffHandler *handlers.StaffHandler) {
	apiGroup.GET("/services", catalogHandler.ListServices)
	apiGroup.GET("/services/:id", catalogHandler.GetService)
	apiGroup.GET("/technicians", staffHandler.ListPublicStaff)
}

// SetupPaymentCallbackRoutes mounts the gateway callbacks. They carry their own signatures instead of a JWT.
func SetupPaymentCallbackRoutes(apiGroup *gin.RouterGroup, invoiceHandler *handlers.InvoiceHandler) {
	apiGroup.POST("/payments/momo/ipn", invoiceHandler.MoMoIPN)
}

func SetupAvailabilityRoutes(authenticatedGroup *gin.RouterGroup, bookingHandler *handlers.BookingHandler) {
	availabilityRoutes := authenticatedGroup.Group("/availability")
	availabilityRoutes.Use(require(middleware.CapAvailabilityQuery))
	{
		availabilityRoutes.POST("/check", bookingHandler.CheckAvailability)
		availabilityRoutes.GET("/staff", bookingHandler.AvailableStaff)
		availabilityRoutes.GET("/slots", bookingHandler.AvailableSlots)
	}
}

// SetupSelfServiceRoutes mounts the /my routes scoped to the caller.
func SetupSelfServiceRoutes(authenticatedGroup *gin.RouterGroup, h *Handlers) {
	my := authenticatedGroup.Group("/my")
	{
		// Customers
		my.POST("/bookings", require(middleware.CapBookingSelf), h.Booking.BookAsCustomer)
		my.GET("/bookings", require(middleware.CapBookingSelf), h.Booking.ListMyBookings)
		my.GET("/bookings/:id", require(middleware.CapBookingSelf), h.Booking.GetBooking)
		my.POST("/bookings/:id/cancel", require(middleware.CapBookingSelf), h.Booking.CancelMyBooking)
		my.GET("/invoices", require(middleware.CapInvoiceOwn), h.Invoice.ListMyInvoices)
		my.GET("/invoices/:id", require(middleware.CapInvoiceOwn), h.Invoice.GetInvoice)

		// Staff
		my.GET("/schedule", require(middleware.CapScheduleOwn), h.Booking.MySchedule)
		my.GET("/shifts", require(middleware.CapScheduleOwn), h.Shift.MyShifts)
		my.POST("/shift-registrations", require(middleware.CapShiftRegister), h.Shift.RegisterForShifts)
		my.GET("/payroll", require(middleware.CapPayrollOwn), h.Payroll.MyPayroll)
	}
}

// SetupBookingRoutes sets up staff-side booking management.
func SetupBookingRoutes(authenticatedGroup *gin.RouterGroup, bookingHandler *handlers.BookingHandler) {
	bookingRoutes := authenticatedGroup.Group("/bookings")
	manage := require(middleware.CapBookingManage)
	progress := require(middleware.CapBookingProgress)
	{
		bookingRoutes.POST("", manage, bookingHandler.CreateBooking)
		bookingRoutes.GET("", manage, bookingHandler.ListBookings)
		bookingRoutes.GET("/statistics", manage, bookingHandler.Statistics)
		bookingRoutes.GET("/:id", progress, bookingHandler.GetBooking)
		bookingRoutes.PUT("/:id", manage, bookingHandler.UpdateBooking)
		bookingRoutes.PUT("/:id/staff", manage, bookingHandler.AssignStaff)
		bookingRoutes.POST("/:id/confirm", progress, bookingHandler.ConfirmBooking)
		bookingRoutes.POST("/:id/start", progress, bookingHandler.StartBooking)
		bookingRoutes.POST("/:id/complete", progress, bookingHandler.CompleteBooking)
		bookingRoutes.POST("/:id/cancel", manage, bookingHandler.CancelBooking)
	}
}

func SetupCatalogRoutes(authenticatedGroup *gin.RouterGroup, catalogHandler *handlers.CatalogHandler) {
	catalogRoutes := authenticatedGroup.Group("/services")
	catalogRoutes.Use(require(middleware.CapCatalogManage))
	{
		catalogRoutes.POST("", catalogHandler.CreateService)
		catalogRoutes.PUT("/:id", catalogHandler.UpdateService)
		catalogRoutes.DELETE("/:id", catalogHandler.DeactivateService)
	}
}

// SetupCustomerRoutes sets up the customer directory.
func SetupCustomerRoutes(authenticatedGroup *gin.RouterGroup, customerHandler *handlers.CustomerHandler) {
	customerRoutes := authenticatedGroup.Group("/customers")
	customerRoutes.Use(require(middleware.CapCustomerManage))
	{
		customerRoutes.POST("", customerHandler.QuickAddCustomer)
		customerRoutes.GET("", customerHandler.ListCustomers)
		customerRoutes.GET("/:id", customerHandler.GetCustomer)
		customerRoutes.PUT("/:id", customerHandler.UpdateCustomer)
		customerRoutes.POST("/:id/activate", customerHandler.ActivateCustomer)
		customerRoutes.POST("/:id/deactivate", customerHandler.DeactivateCustomer)
	}
}

// SetupStaffRoutes sets up staff members and job titles.
func SetupStaffRoutes(authenticatedGroup *gin.RouterGroup, staffHandler *handlers.StaffHandler) {
	view := require(middleware.CapStaffView, middleware.CapStaffManage)
	manage := require(middleware.CapStaffManage)

	staffRoutes := authenticatedGroup.Group("/staff")
	{
		staffRoutes.POST("", manage, staffHandler.CreateStaff)
		staffRoutes.GET("", view, staffHandler.ListStaff)
		staffRoutes.GET("/:id", view, staffHandler.GetStaff)
		staffRoutes.PUT("/:id", manage, staffHandler.UpdateStaff)
		staffRoutes.DELETE("/:id", manage, staffHandler.DeactivateStaff)
	}

	jobTitleRoutes := authenticatedGroup.Group("/job-titles")
	{
		jobTitleRoutes.GET("", view, staffHandler.ListJobTitles)
		jobTitleRoutes.POST("", manage, staffHandler.CreateJobTitle)
		jobTitleRoutes.PUT("/:id", manage, staffHandler.UpdateJobTitle)
		jobTitleRoutes.DELETE("/:id", manage, staffHandler.DeleteJobTitle)
	}
}

// SetupShiftRoutes sets up shifts, assignments, registrations and the schedule view.
func SetupShiftRoutes(authenticatedGroup *gin.RouterGroup, shiftHandler *handlers.ShiftHandler) {
	manage := require(middleware.CapShiftManage)

	shiftRoutes := authenticatedGroup.Group("/shifts")
	{
		shiftRoutes.POST("", manage, shiftHandler.CreateShifts)
		shiftRoutes.GET("", require(middleware.CapShiftRegister), shiftHandler.ListShifts)
		shiftRoutes.GET("/schedule", require(middleware.CapShiftRegister), shiftHandler.Schedule)
		shiftRoutes.GET("/:id", require(middleware.CapShiftRegister), shiftHandler.GetShift)
		shiftRoutes.PUT("/:id", manage, shiftHandler.UpdateShift)
		shiftRoutes.DELETE("/:id", manage, shiftHandler.DeleteShift)
		shiftRoutes.POST("/:id/staff", manage, shiftHandler.AssignShift)
		shiftRoutes.DELETE("/:id/staff/:staff_id", manage, shiftHandler.UnassignShift)
	}

	registrationRoutes := authenticatedGroup.Group("/shift-registrations")
	registrationRoutes.Use(manage)
	{
		registrationRoutes.GET("", shiftHandler.ListRegistrations)
		registrationRoutes.POST("/:id/approve", shiftHandler.ApproveRegistration)
		registrationRoutes.POST("/:id/reject", shiftHandler.RejectRegistration)
	}
}

// SetupPayrollRoutes sets up payroll management and export.
func SetupPayrollRoutes(authenticatedGroup *gin.RouterGroup, payrollHandler *handlers.PayrollHandler) {
	payrollRoutes := authenticatedGroup.Group("/payroll")
	payrollRoutes.Use(require(middleware.CapPayrollManage))
	{
		payrollRoutes.GET("", payrollHandler.ListMonthly)
		payrollRoutes.GET("/export", payrollHandler.Export)
		payrollRoutes.GET("/staff/:staff_id/ledger", payrollHandler.ListLedger)
		payrollRoutes.POST("/shifts/record", payrollHandler.RecordShiftWorked)
		payrollRoutes.POST("/shifts/reverse", payrollHandler.ReverseShiftWorked)
		payrollRoutes.POST("/recompute", payrollHandler.Recompute)
		payrollRoutes.PATCH("/ledger/:id", payrollHandler.AdjustLedgerRow)
	}
}

// SetupInvoiceRoutes sets up invoicing and payments.
func SetupInvoiceRoutes(authenticatedGroup *gin.RouterGroup, invoiceHandler *handlers.InvoiceHandler) {
	manage := require(middleware.CapInvoiceManage)

	invoiceRoutes := authenticatedGroup.Group("/invoices")
	{
		invoiceRoutes.POST("", manage, invoiceHandler.CreateInvoice)
		invoiceRoutes.GET("", manage, invoiceHandler.ListInvoices)
		invoiceRoutes.GET("/:id", manage, invoiceHandler.GetInvoice)
		invoiceRoutes.POST("/:id/payments/cash", manage, invoiceHandler.RecordCashPayment)
		invoiceRoutes.POST("/:id/payments/momo", require(middleware.CapInvoicePay), invoiceHandler.CreateGatewayPayment)
	}
}

func SetupChatRoutes(authenticatedGroup *gin.RouterGroup, chatHandler *handlers.ChatHandler) {
	participate := require(middleware.CapChatParticipate)
	assign := require(middleware.CapChatAssign)

	chatRoutes := authenticatedGroup.Group("/conversations")
	{
		chatRoutes.GET("", participate, chatHandler.ListConversations)
		chatRoutes.POST("", participate, chatHandler.StartConversation)
		chatRoutes.GET("/:id/messages", participate, chatHandler.ListMessages)
		chatRoutes.POST("/:id/messages", participate, chatHandler.SendMessage)
		chatRoutes.PUT("/:id/staff", assign, chatHandler.AssignConversation)
		chatRoutes.DELETE("/:id/staff", assign, chatHandler.UnassignConversation)
	}
}

// SetupDashboardRoutes sets up the dashboard summary and booking statistics.
func SetupDashboardRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler, bookingHandler *handlers.BookingHandler) {
	dashboardRoutes := authenticatedGroup.Group("/dashboard")
	dashboardRoutes.Use(require(middleware.CapDashboardView))
	{
		dashboardRoutes.GET("/summary", reportHandler.GetDashboardSummary)
		dashboardRoutes.GET("/bookings", bookingHandler.Statistics)
	}
}

// SetupSettingsRoutes sets up application settings. Admin only.
func SetupSettingsRoutes(authenticatedGroup *gin.RouterGroup, settingHandler *handlers.SettingHandler) {
	settingsRoutes := authenticatedGroup.Group("/settings")
	settingsRoutes.Use(require(middleware.CapSettingsManage))
	{
		settingsRoutes.GET("", settingHandler.GetApplicationSettings)
		settingsRoutes.GET("/slot-grid", settingHandler.SlotGrid)
		settingsRoutes.GET("/:key", settingHandler.GetApplicationSettingByKey)
		settingsRoutes.PUT("/:key", settingHandler.UpsertApplicationSetting)
		settingsRoutes.DELETE("/:key", settingHandler.DeleteApplicationSetting)
	}
}
