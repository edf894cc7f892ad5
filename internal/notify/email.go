package notify

import (
	"context"
	"log/slog"

	"github.com/kode4food/signoff/pkg/log"
)

// EmailNotifier records result email deliveries in the log. Deployments
// front it with a relay that tails the delivery log
type EmailNotifier struct{}

var _ Notifier = (*EmailNotifier)(nil)

func NewEmailNotifier() *EmailNotifier {
	return &EmailNotifier{}
}

func (n *EmailNotifier) Send(_ context.Context, msg *Notification) error {
	slog.Info("Email sent",
		slog.String("to", msg.User),
		slog.String("subject", msg.Subject),
		slog.String("content", msg.Message),
		log.RequestID(msg.RequestID),
		log.RunID(msg.RunID))
	return nil
}
