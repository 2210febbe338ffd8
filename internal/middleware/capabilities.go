package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"spa_backend/internal/models"
	"spa_backend/pkg/utils"
)

// Capability names one protected operation group.
type Capability string

const (
	CapBookingSelf       Capability = "booking.self"
	CapBookingManage     Capability = "booking.manage"
	CapBookingProgress   Capability = "booking.progress"
	CapAvailabilityQuery Capability = "availability.query"
	CapScheduleOwn       Capability = "schedule.own"
	CapStaffManage       Capability = "staff.manage"
	CapStaffView         Capability = "staff.view"
	CapShiftManage       Capability = "shift.manage"
	CapShiftRegister     Capability = "shift.register"
	CapPayrollManage     Capability = "payroll.manage"
	CapPayrollOwn        Capability = "payroll.own"
	CapInvoiceManage     Capability = "invoice.manage"
	CapInvoicePay        Capability = "invoice.pay"
	CapInvoiceOwn        Capability = "invoice.own"
	CapCustomerManage    Capability = "customer.manage"
	CapCatalogManage     Capability = "catalog.manage"
	CapChatParticipate   Capability = "chat.participate"
	CapChatAssign        Capability = "chat.assign"
	CapSettingsManage    Capability = "settings.manage"
	CapDashboardView     Capability = "dashboard.view"
)

var (
	customer     = models.RoleCustomer
	manager      = models.RoleManager
	technician   = models.RoleTechnician
	receptionist = models.RoleReceptionist
)

// capabilities maps each capability to the roles allowed to use it. Admin holds every capability.
var capabilities = map[Capability][]models.Role{
	CapBookingSelf:       {customer},
	CapBookingManage:     {manager, receptionist},
	CapBookingProgress:   {manager, receptionist, technician},
	CapAvailabilityQuery: {customer, manager, receptionist, technician},
	CapScheduleOwn:       {manager, receptionist, technician},
	CapStaffManage:       {manager},
	CapStaffView:         {manager, receptionist},
	CapShiftManage:       {manager},
	CapShiftRegister:     {manager, receptionist, technician},
	CapPayrollManage:     {manager},
	CapPayrollOwn:        {manager, receptionist, technician},
	CapInvoiceManage:     {manager, receptionist},
	CapInvoicePay:        {customer, manager, receptionist},
	CapInvoiceOwn:        {customer},
	CapCustomerManage:    {manager, receptionist},
	CapCatalogManage:     {manager},
	CapChatParticipate:   {customer, manager, receptionist, technician},
	CapChatAssign:        {manager, receptionist},
	CapSettingsManage:    {},
	CapDashboardView:     {manager, receptionist},
}

// Allowed reports whether an actor holds a capability.
// Customer principals only ever carry the customer role.
func Allowed(actor models.Actor, capability Capability) bool {
	role := actor.Role
	switch {
	case actor.IsCustomer():
		role = models.RoleCustomer
	case !actor.IsStaff():
		return false
	case role == models.RoleAdmin:
		return true
	case role == models.RoleCustomer:
		return false
	}
	for _, r := range capabilities[capability] {
		if r == role {
			return true
		}
	}
	return false
}

// RequireCapability aborts with 403 unless the authenticated actor holds one of the capabilities.
func RequireCapability(caps ...Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required", nil))
			c.Abort()
			return
		}
		for _, cp := range caps {
			if Allowed(actor, cp) {
				c.Next()
				return
			}
		}
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "You do not have permission to access this resource", nil))
		c.Abort()
	}
}
