package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"spa_backend/internal/middleware"
	"spa_backend/internal/models"
	"spa_backend/internal/services"
	"spa_backend/pkg/utils"
)

const dateLayout = "2006-01-02"

// respondServiceError maps the service error taxonomy onto the API error envelope.
// Computation and internal errors are logged in full and answered with a generic message.
func respondServiceError(c *gin.Context, err error, op string) {
	var busy *services.StaffBusyError
	switch {
	case errors.As(err, &busy):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, services.ErrStaffBusy.Error(), gin.H{
			"staff_id":  busy.StaffID,
			"conflicts": busy.Conflicts,
		}))
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, err.Error(), nil))
	case errors.Is(err, services.ErrUnauthorized):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, err.Error(), nil))
	case errors.Is(err, services.ErrForbidden):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "You do not have permission to access this resource", nil))
	case errors.Is(err, services.ErrNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), nil))
	case errors.Is(err, services.ErrConflict):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, err.Error(), nil))
	case errors.Is(err, services.ErrComputation):
		utils.LogError(err, op+": computation failed")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnprocessableEntity, utils.ErrCodeUnprocessable, "The request could not be processed. Please contact an administrator.", nil))
	case errors.Is(err, services.ErrGatewayNotConfigured):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeServiceUnavailable, err.Error(), nil))
	case errors.Is(err, services.ErrUpstream):
		utils.LogError(err, op+": upstream failure")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadGateway, utils.ErrCodeBadGateway, services.ErrGatewayFailure.Error(), nil))
	default:
		utils.LogError(err, op+": unexpected error")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Internal server error", nil))
	}
}

func bindJSON(c *gin.Context, dst interface{}, op string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.LogDebug(op+": failed to bind JSON", map[string]interface{}{"error": err.Error()})
		utils.RespondValidationFailed(c, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondValidationFailed(c, "Invalid "+name+" format")
		return 0, false
	}
	return id, true
}

func currentActor(c *gin.Context) (models.Actor, bool) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required", nil))
	}
	return actor, ok
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return page, pageSize
}

// dateQuery parses an optional YYYY-MM-DD query parameter in loc.
func dateQuery(c *gin.Context, name string, loc *time.Location) (*time.Time, bool) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, true
	}
	t, err := time.ParseInLocation(dateLayout, v, loc)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid "+name+", expected YYYY-MM-DD")
		return nil, false
	}
	return &t, true
}

// dateRange reads from/to, defaulting to [today, today+days).
func dateRange(c *gin.Context, loc *time.Location, days int) (time.Time, time.Time, bool) {
	from, ok := dateQuery(c, "from", loc)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	to, ok := dateQuery(c, "to", loc)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	now := time.Now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if from == nil {
		from = &today
	}
	if to == nil {
		end := from.AddDate(0, 0, days-1)
		to = &end
	}
	return *from, *to, true
}

func int64Query(c *gin.Context, name string) (*int64, bool) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, true
	}
	id, err := utils.StrToInt64(v)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid "+name)
		return nil, false
	}
	return &id, true
}

func intQuery(c *gin.Context, name string) (*int, bool) {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid "+name)
		return nil, false
	}
	return &n, true
}

// idListQuery parses comma separated ids, e.g. service_ids=1,2,3.
func idListQuery(c *gin.Context, name string) ([]int64, bool) {
	ids, err := utils.ParseIDList(c.Query(name))
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid "+name)
		return nil, false
	}
	return ids, true
}
