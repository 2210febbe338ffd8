package notify

import (
	"fmt"
	"strings"

	"spa_backend/internal/models"
	"spa_backend/pkg/utils"
)

type payloadData map[string]interface{}

type template struct {
	subject string
	body    string
}

var templates = map[string]template{
	models.NotificationBookingConfirmed: {
		subject: "Booking #{booking_id} confirmed",
		body:    "Hello {customer_name}, your booking #{booking_id} for {services} at {start} is confirmed. Staff: {staff_name}.",
	},
	models.NotificationBookingCancelled: {
		subject: "Booking #{booking_id} cancelled",
		body:    "Hello {customer_name}, your booking #{booking_id} at {start} has been cancelled.",
	},
	models.NotificationShiftAssigned: {
		subject: "New shift {shift}",
		body:    "Hello {staff_name}, you have been assigned to shift {shift}.",
	},
	models.NotificationInvoicePaid: {
		subject: "Invoice #{invoice_id} paid",
		body:    "Hello {customer_name}, we received your payment of {total} for invoice #{invoice_id}. Thank you!",
	},
}

// render fills a template's {placeholders} from the payload. It returns false for unknown kinds.
func render(kind string, payload payloadData) (subject, body string, ok bool) {
	t, ok := templates[kind]
	if !ok {
		return "", "", false
	}
	return renderTemplate(t.subject, payload), renderTemplate(t.body, payload), true
}

func renderTemplate(tpl string, payload payloadData) string {
	var b strings.Builder
	for {
		open := strings.IndexByte(tpl, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(tpl[open:], '}')
		if end < 0 {
			break
		}
		b.WriteString(tpl[:open])
		b.WriteString(str(payload, tpl[open+1:open+end]))
		tpl = tpl[open+end+1:]
	}
	b.WriteString(tpl)
	return b.String()
}

func str(payload payloadData, key string) string {
	value, ok := payload[key]
	if !ok || value == nil {
		utils.LogDebug("notify: missing template variable", map[string]interface{}{"key": key})
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case float64:
		// encoding/json decodes every number as float64
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprint(v)
	}
}
