package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"spa_backend/internal/models"
	"spa_backend/internal/payments/momo"
	"spa_backend/internal/repositories"
	"spa_backend/pkg/utils"
)

// CashPaymentRequest DTO
type CashPaymentRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Note   *string         `json:"note"`
}

// CashPaymentResult DTO
type CashPaymentResult struct {
	Invoice *models.Invoice `json:"invoice"`
	Change  decimal.Decimal `json:"change"`
}

// InvoiceList DTO
type InvoiceList struct {
	Invoices []models.Invoice    `json:"invoices"`
	Stats    models.InvoiceStats `json:"stats"`
}

// PaymentGateway creates online payment links and authenticates gateway callbacks.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, invoiceID int64, amount decimal.Decimal) (*models.PaymentLink, error)
	VerifyNotification(n momo.Notification) bool
}

// InvoiceService bills completed bookings and records payments.
type InvoiceService interface {
	CreateFromBooking(ctx context.Context, actor models.Actor, bookingID int64) (*models.Invoice, error)
	ListInvoices(ctx context.Context, filters models.InvoiceFilters) (*InvoiceList, error)
	GetInvoice(ctx context.Context, actor models.Actor, id int64) (*models.Invoice, error)
	ListMyInvoices(ctx context.Context, actor models.Actor) ([]models.Invoice, error)

	RecordCashPayment(ctx context.Context, id int64, req CashPaymentRequest) (*CashPaymentResult, error)
	CreateGatewayPayment(ctx context.Context, actor models.Actor, id int64) (*models.PaymentLink, error)
	HandleGatewayNotification(ctx context.Context, n momo.Notification) error
}

type invoiceService struct {
	repo        repositories.InvoiceRepository
	bookingRepo repositories.BookingRepository
	gateway     PaymentGateway
	tx          TxRunner
	notify      notifier
}

// NewInvoiceService creates a new instance of InvoiceService. gateway may be nil when online payment is off.
func NewInvoiceService(repo repositories.InvoiceRepository, bookingRepo repositories.BookingRepository, gateway PaymentGateway, tx TxRunner, outbox repositories.NotificationRepository) InvoiceService {
	return &invoiceService{repo: repo, bookingRepo: bookingRepo, gateway: gateway, tx: tx, notify: notifier{outbox: outbox}}
}

func (s *invoiceService) CreateFromBooking(ctx context.Context, actor models.Actor, bookingID int64) (*models.Invoice, error) {
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	var inv *models.Invoice
	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		b, err := s.bookingRepo.GetBookingByID(ctx, tx, bookingID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrBookingNotFound
			}
			return err
		}
		if b.Status != models.BookingStatusCompleted {
			return ErrBookingNotCompleted
		}
		inv = &models.Invoice{
			BookingID:    b.ID,
			CustomerID:   b.CustomerID,
			CustomerName: b.CustomerName,
			StaffID:      &actor.ID,
			Status:       models.InvoiceStatusUnpaid,
			Total:        decimal.Zero,
		}
		for _, l := range b.Lines {
			inv.Lines = append(inv.Lines, models.InvoiceLine{
				ServiceID:   l.ServiceID,
				ServiceName: l.ServiceName,
				Quantity:    1,
				UnitPrice:   l.Price,
				LineTotal:   l.Price,
			})
			inv.Total = inv.Total.Add(l.Price)
		}
		if err := s.repo.CreateInvoice(ctx, tx, inv); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				return ErrInvoiceExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("invoice created", map[string]interface{}{"invoice_id": inv.ID, "booking_id": bookingID, "total": inv.Total.String()})
	return inv, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filters models.InvoiceFilters) (*InvoiceList, error) {
	invoices, err := s.repo.GetInvoices(ctx, filters)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx, filters)
	if err != nil {
		return nil, err
	}
	return &InvoiceList{Invoices: invoices, Stats: stats}, nil
}

func (s *invoiceService) load(ctx context.Context, tx repositories.SQLExecutor, id int64) (*models.Invoice, error) {
	inv, err := s.repo.GetInvoiceByID(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return inv, nil
}

// GetInvoice hides other customers' invoices behind not found.
func (s *invoiceService) GetInvoice(ctx context.Context, actor models.Actor, id int64) (*models.Invoice, error) {
	inv, err := s.load(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if actor.IsCustomer() && inv.CustomerID != actor.ID {
		return nil, ErrInvoiceNotFound
	}
	return inv, nil
}

func (s *invoiceService) ListMyInvoices(ctx context.Context, actor models.Actor) ([]models.Invoice, error) {
	if !actor.IsCustomer() {
		return nil, ErrForbidden
	}
	return s.repo.GetInvoices(ctx, models.InvoiceFilters{CustomerID: &actor.ID})
}

// RecordCashPayment books the invoice total as paid and returns the change due.
func (s *invoiceService) RecordCashPayment(ctx context.Context, id int64, req CashPaymentRequest) (*CashPaymentResult, error) {
	if !req.Amount.IsPositive() {
		return nil, validationf("amount must be positive")
	}
	var result *CashPaymentResult
	var inv *models.Invoice
	err := s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		var err error
		if inv, err = s.load(ctx, tx, id); err != nil {
			return err
		}
		if inv.Status == models.InvoiceStatusPaid {
			return ErrInvoiceAlreadyPaid
		}
		if req.Amount.LessThan(inv.Total) {
			return ErrInsufficientPayment
		}
		p := &models.Payment{InvoiceID: id, Amount: inv.Total, Method: models.PaymentMethodCash, Note: req.Note}
		if err := s.repo.InsertPayment(ctx, tx, p); err != nil {
			return err
		}
		if err := s.repo.MarkPaid(ctx, tx, id); err != nil {
			return err
		}
		inv.Status = models.InvoiceStatusPaid
		inv.Payments = append(inv.Payments, *p)
		result = &CashPaymentResult{Invoice: inv, Change: req.Amount.Sub(inv.Total)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifyPaid(ctx, inv)
	return result, nil
}

func (s *invoiceService) notifyPaid(ctx context.Context, inv *models.Invoice) {
	s.notify.enqueue(ctx, models.NotificationInvoicePaid, inv.CustomerEmail, map[string]interface{}{
		"invoice_id":    inv.ID,
		"customer_name": inv.CustomerName,
		"total":         inv.Total.StringFixed(0),
	})
}

func (s *invoiceService) CreateGatewayPayment(ctx context.Context, actor models.Actor, id int64) (*models.PaymentLink, error) {
	if s.gateway == nil {
		return nil, ErrGatewayNotConfigured
	}
	inv, err := s.GetInvoice(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == models.InvoiceStatusPaid {
		return nil, ErrInvoiceAlreadyPaid
	}
	link, err := s.gateway.CreatePayment(ctx, inv.ID, inv.Total)
	if err != nil {
		if errors.Is(err, momo.ErrInvalidAmount) {
			return nil, validationf("invoice total %s cannot be paid online", inv.Total)
		}
		utils.LogError(err, "CreateGatewayPayment: gateway call failed", map[string]interface{}{"invoice_id": inv.ID})
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}
	return link, nil
}

// HandleGatewayNotification applies an IPN. Failed payments, unknown invoices and
// repeated notifications are acknowledged without changes.
func (s *invoiceService) HandleGatewayNotification(ctx context.Context, n momo.Notification) error {
	if s.gateway == nil {
		return ErrGatewayNotConfigured
	}
	if !s.gateway.VerifyNotification(n) {
		utils.LogWarn("momo notification with invalid signature", map[string]interface{}{"order_id": n.OrderID})
		return ErrInvalidSignature
	}
	fields := map[string]interface{}{"order_id": n.OrderID, "trans_id": n.TransID, "result_code": n.ResultCode}
	if n.ResultCode != 0 {
		utils.LogWarn("momo payment not successful", fields)
		return nil
	}
	id, err := momo.InvoiceIDFromOrderInfo(n.OrderInfo)
	if err != nil {
		utils.LogError(err, "momo notification: unparseable order info", fields)
		return nil
	}

	var inv *models.Invoice
	paid := false
	err = s.tx.RunInTx(ctx, func(tx repositories.SQLExecutor) error {
		var err error
		if inv, err = s.load(ctx, tx, id); err != nil {
			return err
		}
		if inv.Status == models.InvoiceStatusPaid {
			return nil
		}
		amount := decimal.NewFromInt(n.Amount)
		if amount.LessThan(inv.Total) {
			utils.LogError(ErrInsufficientPayment, "momo notification: amount below invoice total", fields)
			return nil
		}
		note := "MoMo transId: " + utils.Int64ToStr(n.TransID)
		p := &models.Payment{InvoiceID: id, Amount: amount, Method: models.PaymentMethodMoMo, Note: &note}
		if err := s.repo.InsertPayment(ctx, tx, p); err != nil {
			return err
		}
		if err := s.repo.MarkPaid(ctx, tx, id); err != nil {
			return err
		}
		paid = true
		return nil
	})
	if errors.Is(err, ErrInvoiceNotFound) {
		utils.LogWarn("momo notification for unknown invoice", fields)
		return nil
	}
	if err != nil {
		return err
	}
	if paid {
		utils.LogInfo("invoice paid via momo", map[string]interface{}{"invoice_id": id, "trans_id": n.TransID})
		s.notifyPaid(ctx, inv)
	}
	return nil
}
