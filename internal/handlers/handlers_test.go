package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"spa_backend/internal/middleware"
	"spa_backend/internal/models"
	"spa_backend/internal/payments/momo"
	"spa_backend/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var (
	receptionist = models.Actor{Kind: models.PrincipalStaff, ID: 7, Role: models.RoleReceptionist}
	customer     = models.Actor{Kind: models.PrincipalCustomer, ID: 42, Role: models.RoleCustomer}
)

// newEngine mounts h under method/path with actor pre-set, standing in for AuthMiddleware.
func newEngine(actor *models.Actor, method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Handle(method, path, func(c *gin.Context) {
		if actor != nil {
			middleware.SetActor(c, *actor)
		}
		c.Next()
	}, h)
	return r
}

func do(r http.Handler, method, target string, body interface{}) *httptest.ResponseRecorder {
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, _ := json.Marshal(b)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorEnvelope struct {
	Error struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

// --- fakes ---

type fakeBookingService struct {
	services.BookingService
	createFn    func(ctx context.Context, actor models.Actor, req services.CreateBookingRequest) (*models.Booking, error)
	slotsFn     func(ctx context.Context, date time.Time, serviceIDs []int64, staffID *int64) ([]models.Slot, error)
	cancelFn    func(ctx context.Context, actor models.Actor, id int64) (*models.Booking, error)
	listFn      func(ctx context.Context, filters models.BookingFilters) (*services.PaginatedBookings, error)
	staffFn     func(ctx context.Context, start time.Time, serviceIDs []int64) ([]models.StaffRef, error)
	statisticFn func(ctx context.Context, from, to time.Time) (models.BookingStatistics, error)
}

func (f *fakeBookingService) CreateBooking(ctx context.Context, actor models.Actor, req services.CreateBookingRequest) (*models.Booking, error) {
	return f.createFn(ctx, actor, req)
}

func (f *fakeBookingService) AvailableSlots(ctx context.Context, date time.Time, serviceIDs []int64, staffID *int64) ([]models.Slot, error) {
	return f.slotsFn(ctx, date, serviceIDs, staffID)
}

func (f *fakeBookingService) CancelByCustomer(ctx context.Context, actor models.Actor, id int64) (*models.Booking, error) {
	return f.cancelFn(ctx, actor, id)
}

func (f *fakeBookingService) ListBookings(ctx context.Context, filters models.BookingFilters) (*services.PaginatedBookings, error) {
	return f.listFn(ctx, filters)
}

func (f *fakeBookingService) AvailableStaff(ctx context.Context, start time.Time, serviceIDs []int64) ([]models.StaffRef, error) {
	return f.staffFn(ctx, start, serviceIDs)
}

func (f *fakeBookingService) Statistics(ctx context.Context, from, to time.Time) (models.BookingStatistics, error) {
	return f.statisticFn(ctx, from, to)
}

type fakeInvoiceService struct {
	services.InvoiceService
	notifyFn func(ctx context.Context, n momo.Notification) error
	cashFn   func(ctx context.Context, id int64, req services.CashPaymentRequest) (*services.CashPaymentResult, error)
}

func (f *fakeInvoiceService) HandleGatewayNotification(ctx context.Context, n momo.Notification) error {
	return f.notifyFn(ctx, n)
}

func (f *fakeInvoiceService) RecordCashPayment(ctx context.Context, id int64, req services.CashPaymentRequest) (*services.CashPaymentResult, error) {
	return f.cashFn(ctx, id, req)
}

type fakePayrollService struct {
	services.PayrollService
	exportFn func(ctx context.Context, month, year int, w io.Writer) error
}

func (f *fakePayrollService) ExportMonth(ctx context.Context, month, year int, w io.Writer) error {
	return f.exportFn(ctx, month, year, w)
}

// --- tests ---

func TestRespondServiceErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", services.ErrNoServices, http.StatusBadRequest},
		{"not found", services.ErrBookingNotFound, http.StatusNotFound},
		{"conflict", services.ErrInvoiceAlreadyPaid, http.StatusConflict},
		{"forbidden", services.ErrForbidden, http.StatusForbidden},
		{"computation", services.ErrMissingRateOrHours, http.StatusUnprocessableEntity},
		{"upstream", services.ErrGatewayFailure, http.StatusBadGateway},
		{"gateway off", services.ErrGatewayNotConfigured, http.StatusServiceUnavailable},
		{"wrapped not found", fmt.Errorf("load: %w", services.ErrBookingNotFound), http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(nil, http.MethodGet, "/x", func(c *gin.Context) { respondServiceError(c, tt.err, "Test") })
			if w := do(r, http.MethodGet, "/x", nil); w.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestRespondServiceErrorHidesComputationDetail(t *testing.T) {
	err := fmt.Errorf("%w: staff 3 has no hourly rate", services.ErrMissingRateOrHours)
	r := newEngine(nil, http.MethodGet, "/x", func(c *gin.Context) { respondServiceError(c, err, "Test") })
	w := do(r, http.MethodGet, "/x", nil)
	if strings.Contains(w.Body.String(), "hourly rate") {
		t.Fatalf("computation detail leaked: %s", w.Body.String())
	}
}

func TestCreateBooking(t *testing.T) {
	start := time.Date(2026, 11, 2, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		body       interface{}
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "created",
			body:       services.CreateBookingRequest{CustomerID: 42, StartTime: start, ServiceIDs: []int64{1}},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "malformed body",
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "no staff available",
			body:       services.CreateBookingRequest{CustomerID: 42, StartTime: start, ServiceIDs: []int64{1}},
			err:        services.ErrNoStaffAvailable,
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &fakeBookingService{createFn: func(ctx context.Context, actor models.Actor, req services.CreateBookingRequest) (*models.Booking, error) {
				called = true
				if actor.ID != receptionist.ID {
					t.Fatalf("actor = %+v, want receptionist", actor)
				}
				if tt.err != nil {
					return nil, tt.err
				}
				return &models.Booking{ID: 5, CustomerID: req.CustomerID, StartTime: req.StartTime, Status: models.BookingStatusConfirmed}, nil
			}}
			r := newEngine(&receptionist, http.MethodPost, "/bookings", NewBookingHandler(svc, time.UTC).CreateBooking)
			w := do(r, http.MethodPost, "/bookings", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantCode != "" {
				var env errorEnvelope
				if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
					t.Fatalf("decode error body: %v", err)
				}
				if env.Error.Code != tt.wantCode {
					t.Fatalf("code = %q, want %q", env.Error.Code, tt.wantCode)
				}
			}
			if tt.name == "malformed body" && called {
				t.Fatal("service called for malformed body")
			}
		})
	}
}

func TestCreateBookingStaffBusyCarriesConflicts(t *testing.T) {
	busy := &services.StaffBusyError{
		StaffID:   3,
		Conflicts: []models.BookingConflict{{BookingID: 11, Start: "10:00", End: "11:00"}},
	}
	svc := &fakeBookingService{createFn: func(context.Context, models.Actor, services.CreateBookingRequest) (*models.Booking, error) {
		return nil, busy
	}}
	r := newEngine(&receptionist, http.MethodPost, "/bookings", NewBookingHandler(svc, time.UTC).CreateBooking)
	w := do(r, http.MethodPost, "/bookings", services.CreateBookingRequest{CustomerID: 1, StartTime: time.Now().Add(time.Hour), ServiceIDs: []int64{1}})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	var env errorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	var details struct {
		StaffID   int64                    `json:"staff_id"`
		Conflicts []models.BookingConflict `json:"conflicts"`
	}
	if err := json.Unmarshal(env.Error.Details, &details); err != nil {
		t.Fatalf("decode details: %v (%s)", err, env.Error.Details)
	}
	if details.StaffID != 3 || len(details.Conflicts) != 1 || details.Conflicts[0].BookingID != 11 {
		t.Fatalf("details = %+v", details)
	}
}

func TestAvailableSlotsQueryParsing(t *testing.T) {
	var gotDate time.Time
	var gotIDs []int64
	var gotStaff *int64
	svc := &fakeBookingService{slotsFn: func(ctx context.Context, date time.Time, serviceIDs []int64, staffID *int64) ([]models.Slot, error) {
		gotDate, gotIDs, gotStaff = date, serviceIDs, staffID
		return []models.Slot{}, nil
	}}
	r := newEngine(&customer, http.MethodGet, "/slots", NewBookingHandler(svc, time.UTC).AvailableSlots)

	if w := do(r, http.MethodGet, "/slots?service_ids=1", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing date: status = %d, want 400", w.Code)
	}
	if w := do(r, http.MethodGet, "/slots?date=2026-13-40", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad date: status = %d, want 400", w.Code)
	}
	if w := do(r, http.MethodGet, "/slots?date=2026-11-02&service_ids=1,x", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad ids: status = %d, want 400", w.Code)
	}

	w := do(r, http.MethodGet, "/slots?date=2026-11-02&service_ids=1,2&staff_id=9", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if !gotDate.Equal(time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date = %v", gotDate)
	}
	if len(gotIDs) != 2 || gotIDs[0] != 1 || gotIDs[1] != 2 {
		t.Fatalf("service ids = %v", gotIDs)
	}
	if gotStaff == nil || *gotStaff != 9 {
		t.Fatalf("staff id = %v", gotStaff)
	}
}

func TestAvailableStaffRequiresStartTime(t *testing.T) {
	var got time.Time
	svc := &fakeBookingService{staffFn: func(ctx context.Context, start time.Time, serviceIDs []int64) ([]models.StaffRef, error) {
		got = start
		return []models.StaffRef{{ID: 1, FullName: "An"}}, nil
	}}
	r := newEngine(&customer, http.MethodGet, "/staff", NewBookingHandler(svc, time.UTC).AvailableStaff)
	if w := do(r, http.MethodGet, "/staff?service_ids=1", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	w := do(r, http.MethodGet, "/staff?start_time=2026-11-02T09:30&service_ids=1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if want := time.Date(2026, 11, 2, 9, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("start = %v, want %v", got, want)
	}
}

func TestCancelMyBookingInsideWindow(t *testing.T) {
	svc := &fakeBookingService{cancelFn: func(ctx context.Context, actor models.Actor, id int64) (*models.Booking, error) {
		if actor.ID != customer.ID || id != 8 {
			t.Fatalf("actor %+v id %d", actor, id)
		}
		return nil, services.ErrCancelWindow
	}}
	r := newEngine(&customer, http.MethodPost, "/my/bookings/:id/cancel", NewBookingHandler(svc, time.UTC).CancelMyBooking)
	if w := do(r, http.MethodPost, "/my/bookings/8/cancel", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if w := do(r, http.MethodPost, "/my/bookings/abc/cancel", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: status = %d, want 400", w.Code)
	}
}

func TestHandlersRequireActor(t *testing.T) {
	svc := &fakeBookingService{}
	r := newEngine(nil, http.MethodPost, "/my/bookings/:id/cancel", NewBookingHandler(svc, time.UTC).CancelMyBooking)
	if w := do(r, http.MethodPost, "/my/bookings/1/cancel", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestListBookingsFilters(t *testing.T) {
	var got models.BookingFilters
	svc := &fakeBookingService{listFn: func(ctx context.Context, filters models.BookingFilters) (*services.PaginatedBookings, error) {
		got = filters
		return &services.PaginatedBookings{Bookings: []models.Booking{}}, nil
	}}
	r := newEngine(&receptionist, http.MethodGet, "/bookings", NewBookingHandler(svc, time.UTC).ListBookings)

	if w := do(r, http.MethodGet, "/bookings?status=lost", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad status: %d", w.Code)
	}
	w := do(r, http.MethodGet, "/bookings?status=confirmed&staff_id=3&from=2026-11-01&to=2026-11-07&page=2&page_size=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if got.Status == nil || *got.Status != models.BookingStatusConfirmed {
		t.Fatalf("status filter = %v", got.Status)
	}
	if got.StaffID == nil || *got.StaffID != 3 {
		t.Fatalf("staff filter = %v", got.StaffID)
	}
	if got.DateTo == nil || !got.DateTo.Equal(time.Date(2026, 11, 8, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("inclusive to should become exclusive next day, got %v", got.DateTo)
	}
	if got.Page != 2 || got.PageSize != 5 {
		t.Fatalf("page = %d size = %d", got.Page, got.PageSize)
	}
}

func TestStatisticsDefaultsToToday(t *testing.T) {
	var from, to time.Time
	svc := &fakeBookingService{statisticFn: func(ctx context.Context, f, tt time.Time) (models.BookingStatistics, error) {
		from, to = f, tt
		return models.BookingStatistics{}, nil
	}}
	r := newEngine(&receptionist, http.MethodGet, "/stats", NewBookingHandler(svc, time.UTC).Statistics)
	if w := do(r, http.MethodGet, "/stats", nil); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !from.Equal(to) {
		t.Fatalf("default range should be a single day, got %v..%v", from, to)
	}
}

func TestMoMoIPN(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		err        error
		wantStatus int
		wantResult int
	}{
		{"applied", momo.Notification{OrderID: "HD5_1", RequestID: "r1", ResultCode: 0}, nil, http.StatusOK, 0},
		{"bad signature", momo.Notification{OrderID: "HD5_1"}, services.ErrInvalidSignature, http.StatusBadRequest, 1},
		{"store failure", momo.Notification{OrderID: "HD5_1"}, errors.New("db down"), http.StatusInternalServerError, 1},
		{"malformed", "nope", nil, http.StatusBadRequest, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeInvoiceService{notifyFn: func(ctx context.Context, n momo.Notification) error { return tt.err }}
			r := newEngine(nil, http.MethodPost, "/ipn", NewInvoiceHandler(svc, time.UTC).MoMoIPN)
			w := do(r, http.MethodPost, "/ipn", tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var ack momo.Ack
			if err := json.Unmarshal(w.Body.Bytes(), &ack); err != nil {
				t.Fatalf("decode ack: %v", err)
			}
			if ack.ResultCode != tt.wantResult {
				t.Fatalf("resultCode = %d, want %d", ack.ResultCode, tt.wantResult)
			}
		})
	}
}

func TestRecordCashPaymentReturnsChange(t *testing.T) {
	svc := &fakeInvoiceService{cashFn: func(ctx context.Context, id int64, req services.CashPaymentRequest) (*services.CashPaymentResult, error) {
		total := decimal.NewFromInt(400000)
		return &services.CashPaymentResult{
			Invoice: &models.Invoice{ID: id, Total: total, Status: models.InvoiceStatusPaid},
			Change:  req.Amount.Sub(total),
		}, nil
	}}
	r := newEngine(&receptionist, http.MethodPost, "/invoices/:id/cash", NewInvoiceHandler(svc, time.UTC).RecordCashPayment)
	w := do(r, http.MethodPost, "/invoices/3/cash", map[string]interface{}{"amount": "500000"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var res services.CashPaymentResult
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Change.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("change = %s", res.Change)
	}
}

func TestPayrollExport(t *testing.T) {
	svc := &fakePayrollService{exportFn: func(ctx context.Context, month, year int, w io.Writer) error {
		if month != 3 || year != 2026 {
			t.Fatalf("month/year = %d/%d", month, year)
		}
		_, err := w.Write([]byte("PK"))
		return err
	}}
	r := newEngine(&receptionist, http.MethodGet, "/payroll/export", NewPayrollHandler(svc).Export)

	if w := do(r, http.MethodGet, "/payroll/export?month=3", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("missing year: status = %d", w.Code)
	}
	w := do(r, http.MethodGet, "/payroll/export?month=3&year=2026", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Fatalf("content type = %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") || !strings.Contains(cd, ".xlsx") {
		t.Fatalf("content disposition = %q", cd)
	}
	if w.Body.String() != "PK" {
		t.Fatalf("body = %q", w.Body.String())
	}
}

func TestPayrollExportErrorIsJSON(t *testing.T) {
	svc := &fakePayrollService{exportFn: func(ctx context.Context, month, year int, w io.Writer) error {
		return fmt.Errorf("%w: invalid month", services.ErrValidation)
	}}
	r := newEngine(&receptionist, http.MethodGet, "/payroll/export", NewPayrollHandler(svc).Export)
	w := do(r, http.MethodGet, "/payroll/export?month=13&year=2026", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get("Content-Disposition") != "" {
		t.Fatal("failed export must not be sent as an attachment")
	}
}
