package notify

import (
	"context"
	"log/slog"

	"github.com/kode4food/signoff/pkg/log"
)

// AlertNotifier surfaces operational alerts in the log at warning level
type AlertNotifier struct{}

var _ Notifier = (*AlertNotifier)(nil)

func NewAlertNotifier() *AlertNotifier {
	return &AlertNotifier{}
}

func (n *AlertNotifier) Send(_ context.Context, msg *Notification) error {
	slog.Warn("Alert raised",
		slog.String("message", msg.Message),
		log.RequestID(msg.RequestID),
		log.RunID(msg.RunID))
	return nil
}
