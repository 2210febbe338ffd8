// Package momo talks to the MoMo e-wallet payment gateway: signed payment link creation
// and verification of instant payment notifications (IPN).
package momo

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"spa_backend/internal/config"
	"spa_backend/internal/models"
	"spa_backend/pkg/utils"
)

const (
	requestType     = "captureWallet"
	orderInfoPrefix = "Thanh toan HD"
	partnerName     = "Spa"
	storeID         = "SpaStore"
)

var (
	ErrRejected       = errors.New("momo rejected the payment request")
	ErrBadOrderInfo   = errors.New("order info does not reference an invoice")
	ErrInvalidAmount  = errors.New("payment amount must be a positive whole number")
	ErrNotConfigured  = errors.New("momo gateway is not configured")
	defaultHTTPClient = &http.Client{Timeout: 10 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)}
)

// Client signs and sends gateway requests.
type Client struct {
	cfg  config.MoMoConfig
	http *http.Client
	now  func() time.Time
}

// NewClient returns a gateway client. A nil httpClient uses a traced client with a 10s timeout.
func NewClient(cfg config.MoMoConfig, httpClient *http.Client) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	if httpClient == nil {
		httpClient = defaultHTTPClient
	}
	return &Client{cfg: cfg, http: httpClient, now: time.Now}, nil
}

type createRequest struct {
	PartnerCode string `json:"partnerCode"`
	PartnerName string `json:"partnerName"`
	StoreID     string `json:"storeId"`
	RequestID   string `json:"requestId"`
	Amount      string `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IpnURL      string `json:"ipnUrl"`
	RequestType string `json:"requestType"`
	ExtraData   string `json:"extraData"`
	Lang        string `json:"lang"`
	AutoCapture bool   `json:"autoCapture"`
	Signature   string `json:"signature"`
}

type createResponse struct {
	PartnerCode string `json:"partnerCode"`
	OrderID     string `json:"orderId"`
	RequestID   string `json:"requestId"`
	ResultCode  int    `json:"resultCode"`
	Message     string `json:"message"`
	PayURL      string `json:"payUrl"`
	QRCodeURL   string `json:"qrCodeUrl"`
	Deeplink    string `json:"deeplink"`
}

// Notification is the IPN body posted by the gateway.
type Notification struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

// Ack is the body the IPN endpoint answers with.
type Ack struct {
	PartnerCode string `json:"partnerCode"`
	RequestID   string `json:"requestId"`
	OrderID     string `json:"orderId"`
	ResultCode  int    `json:"resultCode"`
	Message     string `json:"message"`
}

// Sign is the hex HMAC-SHA256 of raw under secret.
func Sign(secret, raw string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// rawSignature joins key=value pairs in the order given; callers pass keys alphabetically.
func rawSignature(pairs [][2]string) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p[0]+"="+p[1])
	}
	return strings.Join(parts, "&")
}

func (c *Client) createSignature(r createRequest) string {
	return Sign(c.cfg.SecretKey, rawSignature([][2]string{
		{"accessKey", c.cfg.AccessKey},
		{"amount", r.Amount},
		{"extraData", r.ExtraData},
		{"ipnUrl", r.IpnURL},
		{"orderId", r.OrderID},
		{"orderInfo", r.OrderInfo},
		{"partnerCode", r.PartnerCode},
		{"redirectUrl", r.RedirectURL},
		{"requestId", r.RequestID},
		{"requestType", r.RequestType},
	}))
}

func (c *Client) notificationSignature(n Notification) string {
	return Sign(c.cfg.SecretKey, rawSignature([][2]string{
		{"accessKey", c.cfg.AccessKey},
		{"amount", strconv.FormatInt(n.Amount, 10)},
		{"extraData", n.ExtraData},
		{"message", n.Message},
		{"orderId", n.OrderID},
		{"orderInfo", n.OrderInfo},
		{"orderType", n.OrderType},
		{"partnerCode", n.PartnerCode},
		{"payType", n.PayType},
		{"requestId", n.RequestID},
		{"responseTime", strconv.FormatInt(n.ResponseTime, 10)},
		{"resultCode", strconv.Itoa(n.ResultCode)},
		{"transId", strconv.FormatInt(n.TransID, 10)},
	}))
}

// OrderInfo is the human-readable order description that also carries the invoice id.
func OrderInfo(invoiceID int64) string {
	return fmt.Sprintf("%s%d", orderInfoPrefix, invoiceID)
}

// InvoiceIDFromOrderInfo parses the invoice id back out of OrderInfo.
func InvoiceIDFromOrderInfo(info string) (int64, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(info), orderInfoPrefix)
	if !ok {
		return 0, ErrBadOrderInfo
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrBadOrderInfo
	}
	return id, nil
}

// CreatePayment asks the gateway for a payment link for the invoice. The gateway takes whole đồng.
func (c *Client) CreatePayment(ctx context.Context, invoiceID int64, amount decimal.Decimal) (*models.PaymentLink, error) {
	if !amount.IsPositive() || !amount.Equal(amount.Truncate(0)) {
		return nil, ErrInvalidAmount
	}
	orderID := fmt.Sprintf("HD%d_%d", invoiceID, c.now().Unix())
	req := createRequest{
		PartnerCode: c.cfg.PartnerCode,
		PartnerName: partnerName,
		StoreID:     storeID,
		RequestID:   uuid.NewString(),
		Amount:      amount.StringFixed(0),
		OrderID:     orderID,
		OrderInfo:   OrderInfo(invoiceID),
		RedirectURL: c.cfg.RedirectURL,
		IpnURL:      c.cfg.IPNURL,
		RequestType: requestType,
		ExtraData:   "",
		Lang:        "vi",
		AutoCapture: true,
	}
	req.Signature = c.createSignature(req)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("momo request: %w", err)
	}
	defer resp.Body.Close()

	var out createResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("momo response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || out.ResultCode != 0 {
		utils.LogWarn("momo rejected payment request", map[string]interface{}{
			"invoice_id":  invoiceID,
			"order_id":    orderID,
			"status":      resp.StatusCode,
			"result_code": out.ResultCode,
			"message":     out.Message,
		})
		return nil, fmt.Errorf("%w: %s", ErrRejected, out.Message)
	}
	return &models.PaymentLink{OrderID: out.OrderID, PayURL: out.PayURL, QRCodeURL: out.QRCodeURL, Deeplink: out.Deeplink}, nil
}

// VerifyNotification checks the IPN signature in constant time.
func (c *Client) VerifyNotification(n Notification) bool {
	if n.Signature == "" {
		return false
	}
	want := c.notificationSignature(n)
	return hmac.Equal([]byte(want), []byte(strings.ToLower(n.Signature)))
}
