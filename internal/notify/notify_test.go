package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"

	"spa_backend/internal/config"
	"spa_backend/internal/models"
)

func TestRenderTemplate(t *testing.T) {
	payload := payloadData{
		"customer_name": "Lan",
		"booking_id":    float64(12),
		"start":         "10:00 05/03/2024",
	}
	got := renderTemplate("Hi {customer_name}, #{booking_id} at {start}{missing}", payload)
	if got != "Hi Lan, #12 at 10:00 05/03/2024" {
		t.Fatalf("unexpected render: %q", got)
	}
	if got := renderTemplate("unclosed {brace", payload); got != "unclosed {brace" {
		t.Fatalf("unexpected render: %q", got)
	}
}

func TestEveryKindHasTemplate(t *testing.T) {
	for _, kind := range []string{
		models.NotificationBookingConfirmed,
		models.NotificationBookingCancelled,
		models.NotificationShiftAssigned,
		models.NotificationInvoicePaid,
	} {
		if _, _, ok := render(kind, payloadData{}); !ok {
			t.Errorf("no template for %s", kind)
		}
	}
}

type fakeStore struct {
	events  []models.OutboxEvent
	sent    []string
	dead    map[string]string
	failed  map[string]int
	listErr error
}

func newFakeStore(events ...models.OutboxEvent) *fakeStore {
	return &fakeStore{events: events, dead: map[string]string{}, failed: map[string]int{}}
}

func (f *fakeStore) ListDue(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	return f.events, f.listErr
}

func (f *fakeStore) MarkSent(ctx context.Context, id string) error {
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeStore) MarkFailed(ctx context.Context, id, lastError string) (int, error) {
	f.failed[id]++
	return f.failed[id], nil
}

func (f *fakeStore) MarkDead(ctx context.Context, id, reason string) error {
	f.dead[id] = reason
	return nil
}

type recordingProvider struct {
	messages []Message
	err      error
}

func (p *recordingProvider) Send(ctx context.Context, msg Message) error {
	p.messages = append(p.messages, msg)
	return p.err
}

func event(id, kind string, payload map[string]interface{}) models.OutboxEvent {
	body, _ := json.Marshal(payload)
	return models.OutboxEvent{ID: id, Kind: kind, Channel: models.ChannelEmail, Recipient: "lan@example.com", Payload: body}
}

func TestWorkerDelivers(t *testing.T) {
	store := newFakeStore(event("e1", models.NotificationBookingConfirmed, map[string]interface{}{
		"booking_id": 5, "customer_name": "Lan", "services": "Massage", "start": "10:00 05/03/2024", "staff_name": "Minh",
	}))
	email := &recordingProvider{}
	w := New(store, Config{Email: email})

	n, err := w.Run(context.Background())
	if err != nil || n != 1 {
		t.Fatalf("Run = %d, %v", n, err)
	}
	if len(store.sent) != 1 || store.sent[0] != "e1" {
		t.Fatalf("expected e1 marked sent, got %v", store.sent)
	}
	msg := email.messages[0]
	if msg.Subject != "Booking #5 confirmed" || !strings.Contains(msg.Body, "Massage at 10:00 05/03/2024") {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestWorkerRetriesThenDeadLetters(t *testing.T) {
	store := newFakeStore(event("e1", models.NotificationInvoicePaid, map[string]interface{}{"invoice_id": 1}))
	w := New(store, Config{Email: failProvider{}, MaxAttempts: 2})

	w.Run(context.Background())
	if _, dead := store.dead["e1"]; dead {
		t.Fatal("event dead after first failure")
	}
	w.Run(context.Background())
	if store.dead["e1"] != "max attempts reached" {
		t.Fatalf("expected dead letter after 2 attempts, got %v", store.dead)
	}
	if len(store.sent) != 0 {
		t.Fatalf("failed event marked sent")
	}
}

func TestWorkerDeadLettersUnknownKind(t *testing.T) {
	store := newFakeStore(event("e1", "unknown.kind", nil))
	w := New(store, Config{Email: &recordingProvider{}})
	w.Run(context.Background())
	if !strings.Contains(store.dead["e1"], "no template") {
		t.Fatalf("expected dead letter, got %v", store.dead)
	}
}

func TestWorkerListError(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("db down")
	if _, err := New(store, Config{}).Run(context.Background()); err == nil {
		t.Fatal("expected list error")
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"", "notify.logProvider"},
		{"noop", "notify.noopProvider"},
		{"fail", "notify.failProvider"},
		{"smtp", "notify.logProvider"},
		{"webhook", "notify.logProvider"},
		{"https://hooks.example/notify", "notify.webhookProvider"},
		{"carrier-pigeon", "notify.logProvider"},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			p := NewProvider(tt.kind, models.ChannelEmail, config.MailConfig{}, "", "")
			if got := typeName(p); got != tt.want {
				t.Errorf("NewProvider(%q) = %s, want %s", tt.kind, got, tt.want)
			}
		})
	}
}

func typeName(p Provider) string {
	switch p.(type) {
	case logProvider:
		return "notify.logProvider"
	case noopProvider:
		return "notify.noopProvider"
	case failProvider:
		return "notify.failProvider"
	case webhookProvider:
		return "notify.webhookProvider"
	case smtpProvider:
		return "notify.smtpProvider"
	}
	return "unknown"
}

func TestWebhookProvider(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	p := NewProvider("webhook", models.ChannelSMS, config.MailConfig{}, srv.URL, "tok")
	if err := p.Send(context.Background(), Message{Recipient: "0900", Body: "hi"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got["recipient"] != "0900" || got["message"] != "hi" || got["channel"] != models.ChannelSMS {
		t.Fatalf("unexpected webhook body: %v", got)
	}

	bad := NewProvider("webhook", models.ChannelSMS, config.MailConfig{}, srv.URL, "wrong")
	if err := bad.Send(context.Background(), Message{Recipient: "0900"}); err == nil {
		t.Fatal("expected rejection")
	}
}

func TestSMTPProvider(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	p := smtpProvider{
		cfg: config.MailConfig{Server: "smtp.example", Port: 587, DefaultSender: "spa@example.com"},
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
			return nil
		},
	}
	err := p.Send(context.Background(), Message{Recipient: "lan@example.com", Subject: "Hello", Body: "Body"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAddr != "smtp.example:587" || gotFrom != "spa@example.com" || len(gotTo) != 1 || gotTo[0] != "lan@example.com" {
		t.Fatalf("unexpected envelope: %s %s %v", gotAddr, gotFrom, gotTo)
	}
	if !strings.Contains(string(gotMsg), "Subject: Hello\r\n") || !strings.HasSuffix(string(gotMsg), "Body\r\n") {
		t.Fatalf("unexpected mail: %q", gotMsg)
	}
}
