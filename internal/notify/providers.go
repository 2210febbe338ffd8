package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"spa_backend/internal/config"
	"spa_backend/pkg/utils"
)

// Message is a rendered notification ready for delivery.
type Message struct {
	Channel   string
	Recipient string
	Subject   string
	Body      string
}

// Provider delivers a message over one channel.
type Provider interface {
	Send(ctx context.Context, msg Message) error
}

var errProviderFailure = errors.New("provider failure")

// NewProvider picks a provider by name: log (default), noop, fail, smtp, webhook, or a URL to post to.
// Misconfigured smtp and webhook fall back to log.
func NewProvider(kind, channel string, mail config.MailConfig, webhookURL, webhookToken string) Provider {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "stub", "log":
		return logProvider{channel: channel}
	case "noop":
		return noopProvider{}
	case "fail":
		return failProvider{}
	case "smtp":
		if mail.Server == "" || mail.DefaultSender == "" {
			utils.LogWarn("notify: smtp provider without MAIL_SERVER or MAIL_DEFAULT_SENDER, using log", map[string]interface{}{"channel": channel})
			return logProvider{channel: channel}
		}
		return smtpProvider{cfg: mail, send: smtp.SendMail}
	case "webhook":
		if webhookURL == "" {
			return logProvider{channel: channel}
		}
		return newWebhookProvider(channel, webhookURL, webhookToken)
	default:
		if strings.HasPrefix(kind, "http://") || strings.HasPrefix(kind, "https://") {
			return newWebhookProvider(channel, kind, "")
		}
		return logProvider{channel: channel}
	}
}

type logProvider struct {
	channel string
}

func (p logProvider) Send(ctx context.Context, msg Message) error {
	utils.LogInfo("notification", map[string]interface{}{
		"channel":   p.channel,
		"recipient": msg.Recipient,
		"subject":   msg.Subject,
		"body":      msg.Body,
	})
	return nil
}

type noopProvider struct{}

func (noopProvider) Send(ctx context.Context, msg Message) error {
	return nil
}

type failProvider struct{}

func (failProvider) Send(ctx context.Context, msg Message) error {
	return errProviderFailure
}

type webhookProvider struct {
	channel string
	url     string
	token   string
	client  *http.Client
}

func newWebhookProvider(channel, url, token string) webhookProvider {
	return webhookProvider{
		channel: channel,
		url:     url,
		token:   token,
		client:  &http.Client{Timeout: 5 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
}

func (p webhookProvider) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(map[string]string{
		"channel":   p.channel,
		"recipient": msg.Recipient,
		"subject":   msg.Subject,
		"message":   msg.Body,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook rejected request: status %d", resp.StatusCode)
	}
	return nil
}

type smtpProvider struct {
	cfg  config.MailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func (p smtpProvider) Send(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(p.cfg.Server, strconv.Itoa(p.cfg.Port))
	var auth smtp.Auth
	if p.cfg.Username != "" {
		auth = smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Server)
	}
	return p.send(addr, auth, p.cfg.DefaultSender, []string{msg.Recipient}, buildMail(p.cfg.DefaultSender, msg))
}

func buildMail(from string, msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.Recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n")
	return b.Bytes()
}
