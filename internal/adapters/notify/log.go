package notify

import (
	"context"

	"github.com/kokoron/kokoron-backend/internal/domain"
	"github.com/kokoron/kokoron-backend/internal/observability"
)

// LogNotifier logs pushes instead of sending them. Used in local mode.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) SendPush(ctx context.Context, token string, p domain.PushNotification) (string, error) {
	observability.LoggerFromContext(ctx).Info("push (dry-run)",
		"token", token,
		"title", p.Title,
		"body", p.Body)
	return "dry-run", nil
}
