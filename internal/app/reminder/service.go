// Package reminder pushes medication-time notifications. The caller
// (a scheduler, a manual trigger) decides when a run happens; the
// service only selects what is due within the run's window.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/kokoron/kokoron-backend/internal/domain"
	"github.com/kokoron/kokoron-backend/internal/observability"
)

// WindowMinutes is how far ahead a run looks: a medication is due when
// its reminder time falls within [at, at+WindowMinutes). Runs scheduled
// every WindowMinutes therefore cover the day without overlap.
const WindowMinutes = 5

type Service struct {
	medications domain.MedicationStore
	users       domain.UserStore
	notifier    domain.Notifier
}

func NewService(medications domain.MedicationStore, users domain.UserStore, notifier domain.Notifier) *Service {
	return &Service{
		medications: medications,
		users:       users,
		notifier:    notifier,
	}
}

// SendDueReminders pushes one reminder per medication due at the run
// time and returns how many were delivered. A user without a device
// token is a normal zero-send outcome; a malformed reminder time skips
// that medication only.
func (s *Service) SendDueReminders(ctx context.Context, userID domain.UserID, at time.Time) (int, error) {
	log := observability.LoggerFromContext(ctx).With("user_id", userID)

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("lookup user: %w", err)
	}
	if user.FCMToken == "" {
		log.Info("user has no FCM token, skipping reminders")
		return 0, nil
	}

	meds, err := s.medications.ListMedications(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("list medications: %w", err)
	}

	current := at.Hour()*60 + at.Minute()
	sent := 0
	for _, med := range meds {
		if !med.ReminderEnabled || med.ReminderTime == "" {
			continue
		}
		minutes, ok := parseReminderTime(med.ReminderTime)
		if !ok {
			log.Warn("malformed reminder time, skipping medication",
				"medication", med.Name, "time", med.ReminderTime)
			continue
		}
		if minutes < current || minutes >= current+WindowMinutes {
			continue
		}

		_, err := s.notifier.SendPush(ctx, user.FCMToken, domain.PushNotification{
			Title:     fmt.Sprintf("お薬の時間です - %s", med.Name),
			Body:      fmt.Sprintf("「%s」の服用時間になりました。忘れずに服用しましょう。", med.Name),
			ChannelID: "medication_reminders_channel",
			Category:  "MEDICATION_REMINDER_CATEGORY",
		})
		if err != nil {
			log.Error("reminder push failed", "medication", med.Name, "error", err)
			continue
		}
		log.Info("reminder sent", "medication", med.Name, "time", med.ReminderTime)
		sent++
	}
	return sent, nil
}

// parseReminderTime converts "HH:MM" to minutes since midnight.
func parseReminderTime(value string) (int, bool) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, false
	}
	return parsed.Hour()*60 + parsed.Minute(), true
}
