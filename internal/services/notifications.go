package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"spa_backend/internal/models"
	"spa_backend/internal/repositories"
	"spa_backend/pkg/utils"
)

const displayLayout = "15:04 02/01/2006"

// notifier writes outbox events once the triggering transaction has committed.
// Enqueue failures are logged and never fail the operation.
type notifier struct {
	outbox repositories.NotificationRepository
}

func (n notifier) enqueue(ctx context.Context, kind string, recipient *string, payload map[string]interface{}) {
	if n.outbox == nil {
		return
	}
	if recipient == nil || strings.TrimSpace(*recipient) == "" {
		utils.LogDebug("notifier: no recipient, skipping", map[string]interface{}{"kind": kind})
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		utils.LogError(err, "notifier: marshal payload", map[string]interface{}{"kind": kind})
		return
	}
	ev := &models.OutboxEvent{
		Kind:      kind,
		Channel:   models.ChannelEmail,
		Recipient: strings.TrimSpace(*recipient),
		Payload:   body,
	}
	if err := n.outbox.Enqueue(ctx, nil, ev); err != nil {
		utils.LogError(err, "notifier: enqueue", map[string]interface{}{"kind": kind})
	}
}

func bookingPayload(b *models.Booking, loc *time.Location) map[string]interface{} {
	names := make([]string, 0, len(b.Lines))
	for _, l := range b.Lines {
		names = append(names, l.ServiceName)
	}
	p := map[string]interface{}{
		"booking_id":    b.ID,
		"customer_name": b.CustomerName,
		"start":         b.StartTime.In(loc).Format(displayLayout),
		"services":      strings.Join(names, ", "),
		"staff_name":    "",
	}
	if b.StaffName != nil {
		p["staff_name"] = *b.StaffName
	}
	return p
}
