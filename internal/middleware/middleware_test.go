package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"spa_backend/internal/models"
	"spa_backend/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func staff(role models.Role) models.Actor {
	return models.Actor{Kind: models.PrincipalStaff, ID: 1, Role: role}
}

func TestAllowed(t *testing.T) {
	cust := models.Actor{Kind: models.PrincipalCustomer, ID: 9, Role: models.RoleCustomer}
	tests := []struct {
		name  string
		actor models.Actor
		cap   Capability
		want  bool
	}{
		{"admin has everything", staff(models.RoleAdmin), CapSettingsManage, true},
		{"manager cannot change settings", staff(models.RoleManager), CapSettingsManage, false},
		{"customer books for self", cust, CapBookingSelf, true},
		{"customer cannot manage bookings", cust, CapBookingManage, false},
		{"customer claiming admin role stays customer", models.Actor{Kind: models.PrincipalCustomer, Role: models.RoleAdmin}, CapStaffManage, false},
		{"technician progresses bookings", staff(models.RoleTechnician), CapBookingProgress, true},
		{"technician cannot manage payroll", staff(models.RoleTechnician), CapPayrollManage, false},
		{"receptionist takes cash", staff(models.RoleReceptionist), CapInvoicePay, true},
		{"staff with customer role denied", staff(models.RoleCustomer), CapChatParticipate, false},
		{"unknown principal denied", models.Actor{Kind: "robot", Role: models.RoleAdmin}, CapDashboardView, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Allowed(tt.actor, tt.cap); got != tt.want {
				t.Errorf("Allowed(%+v, %s) = %v, want %v", tt.actor, tt.cap, got, tt.want)
			}
		})
	}
}

func TestEveryCapabilityIsMapped(t *testing.T) {
	all := []Capability{
		CapBookingSelf, CapBookingManage, CapBookingProgress, CapAvailabilityQuery, CapScheduleOwn,
		CapStaffManage, CapStaffView, CapShiftManage, CapShiftRegister, CapPayrollManage, CapPayrollOwn,
		CapInvoiceManage, CapInvoicePay, CapInvoiceOwn, CapCustomerManage, CapCatalogManage,
		CapChatParticipate, CapChatAssign, CapSettingsManage, CapDashboardView,
	}
	for _, cp := range all {
		if _, ok := capabilities[cp]; !ok {
			t.Errorf("capability %s missing from table", cp)
		}
	}
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/manager", AuthMiddleware(), RequireCapability(CapStaffManage), func(c *gin.Context) {
		actor, _ := ActorFromContext(c)
		c.JSON(http.StatusOK, gin.H{"id": actor.ID})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	utils.ConfigureJWT("test-secret", 0, 0)
	managerToken, _ := utils.GenerateAccessToken(3, string(models.PrincipalStaff), "boss", string(models.RoleManager))
	techToken, _ := utils.GenerateAccessToken(4, string(models.PrincipalStaff), "tech", string(models.RoleTechnician))
	refreshToken, _ := utils.GenerateRefreshToken(3, string(models.PrincipalStaff))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"bad scheme", "Token " + managerToken, http.StatusUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"refresh token rejected", "Bearer " + refreshToken, http.StatusUnauthorized},
		{"wrong role", "Bearer " + techToken, http.StatusForbidden},
		{"manager allowed", "Bearer " + managerToken, http.StatusOK},
	}
	r := newRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/manager", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if w.Header().Get(RequestIDHeader) == "" {
				t.Errorf("missing request id header")
			}
		})
	}
}
