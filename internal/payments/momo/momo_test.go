package momo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spa_backend/internal/config"
)

func testConfig(endpoint string) config.MoMoConfig {
	return config.MoMoConfig{
		PartnerCode: "MOMOTEST",
		AccessKey:   "access",
		SecretKey:   "secret",
		Endpoint:    endpoint,
		RedirectURL: "https://spa.example/return",
		IPNURL:      "https://spa.example/api/payments/momo/ipn",
	}
}

func TestSign(t *testing.T) {
	// Well-known HMAC-SHA256 vector.
	got := Sign("key", "The quick brown fox jumps over the lazy dog")
	want := "f7bc83f430538424b13298e6aa6fb143ef4d59a14946175997479dbc2d1a3cd8"
	if got != want {
		t.Fatalf("Sign = %s, want %s", got, want)
	}
}

func TestNewClientRequiresConfig(t *testing.T) {
	if _, err := NewClient(config.MoMoConfig{}, nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestOrderInfoRoundTrip(t *testing.T) {
	id, err := InvoiceIDFromOrderInfo(OrderInfo(42))
	if err != nil || id != 42 {
		t.Fatalf("got %d, %v", id, err)
	}
	for _, bad := range []string{"", "HD42", "Thanh toan HDabc", "Thanh toan HD-1"} {
		if _, err := InvoiceIDFromOrderInfo(bad); !errors.Is(err, ErrBadOrderInfo) {
			t.Errorf("%q: expected ErrBadOrderInfo, got %v", bad, err)
		}
	}
}

func TestCreatePayment(t *testing.T) {
	var received createRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode: %v", err)
		}
		json.NewEncoder(w).Encode(createResponse{
			OrderID:    received.OrderID,
			ResultCode: 0,
			PayURL:     "https://pay.example/x",
			QRCodeURL:  "https://pay.example/qr",
		})
	}))
	defer srv.Close()

	c, err := NewClient(testConfig(srv.URL), srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.now = func() time.Time { return time.Unix(1731580123, 0) }

	link, err := c.CreatePayment(context.Background(), 7, decimal.RequireFromString("450000"))
	if err != nil {
		t.Fatalf("CreatePayment: %v", err)
	}
	if link.PayURL != "https://pay.example/x" || link.OrderID != "HD7_1731580123" {
		t.Fatalf("unexpected link: %+v", link)
	}
	if received.Amount != "450000" || received.OrderInfo != "Thanh toan HD7" || received.RequestType != "captureWallet" {
		t.Errorf("unexpected request: %+v", received)
	}
	if received.Signature != c.createSignature(received) {
		t.Errorf("request signature does not match its fields")
	}
}

func TestCreatePaymentRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(createResponse{ResultCode: 11, Message: "access denied"})
	}))
	defer srv.Close()

	c, _ := NewClient(testConfig(srv.URL), srv.Client())
	if _, err := c.CreatePayment(context.Background(), 1, decimal.NewFromInt(1000)); !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if _, err := c.CreatePayment(context.Background(), 1, decimal.RequireFromString("10.5")); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestVerifyNotification(t *testing.T) {
	c, _ := NewClient(testConfig("https://gateway.example"), nil)
	n := Notification{
		PartnerCode:  "MOMOTEST",
		OrderID:      "HD7_1731580123",
		RequestID:    "req-1",
		Amount:       450000,
		OrderInfo:    "Thanh toan HD7",
		OrderType:    "momo_wallet",
		TransID:      4088878653,
		ResultCode:   0,
		Message:      "Successful.",
		PayType:      "qr",
		ResponseTime: 1731580200000,
	}
	n.Signature = c.notificationSignature(n)
	if !c.VerifyNotification(n) {
		t.Fatal("valid signature rejected")
	}

	tampered := n
	tampered.Amount = 1
	if c.VerifyNotification(tampered) {
		t.Fatal("tampered amount accepted")
	}
	unsigned := n
	unsigned.Signature = ""
	if c.VerifyNotification(unsigned) {
		t.Fatal("missing signature accepted")
	}
}
