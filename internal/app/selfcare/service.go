// Package selfcare watches for low-mood diary entries and pushes one
// small, immediately actionable self-care suggestion.
package selfcare

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kokoron/kokoron-backend/internal/app/persona"
	"github.com/kokoron/kokoron-backend/internal/domain"
	"github.com/kokoron/kokoron-backend/internal/events"
	"github.com/kokoron/kokoron-backend/internal/observability"
)

const (
	// moodThreshold: suggestions only fire for scores of 2 or lower.
	moodThreshold = 2

	// SuggestionFallback is pushed when the model call fails.
	SuggestionFallback = "温かい飲み物で一息つきませんか？"
)

type Service struct {
	logs     domain.DiaryLogStore
	users    domain.UserStore
	records  domain.SelfCareStore
	llm      domain.LLMClient
	notifier domain.Notifier
	now      func() time.Time
}

func NewService(
	logs domain.DiaryLogStore,
	users domain.UserStore,
	records domain.SelfCareStore,
	llm domain.LLMClient,
	notifier domain.Notifier,
) *Service {
	return &Service{
		logs:     logs,
		users:    users,
		records:  records,
		llm:      llm,
		notifier: notifier,
		now:      time.Now,
	}
}

// HandleDiaryLogCreated is the event-bus subscription point. Background
// consumer: failures are logged, never returned.
func (s *Service) HandleDiaryLogCreated(ctx context.Context, evt events.DiaryLogCreated) {
	log := observability.LoggerFromContext(ctx).With(
		"user_id", evt.UserID,
		"log_id", evt.LogID,
	)

	entry, err := s.logs.GetDiaryLog(ctx, evt.UserID, evt.LogID)
	if err != nil {
		log.Error("self-care could not load entry", "error", err)
		return
	}
	if entry.SelfReportedMoodScore > moodThreshold {
		log.Info("mood not low enough for self-care suggestion",
			"mood", entry.SelfReportedMoodScore)
		return
	}

	suggestion := s.generateSuggestion(ctx, entry)

	record := &domain.SelfCareSuggestion{
		OriginalLogID: evt.LogID,
		MoodLevel:     entry.SelfReportedMoodScore,
		Suggestion:    suggestion,
		Timestamp:     s.now(),
	}

	if msgID, err := s.sendPush(ctx, evt.UserID, suggestion); err != nil {
		log.Error("self-care push failed", "error", err)
		record.Error = err.Error()
	} else {
		record.IsPushSent = true
		record.PushMessageID = msgID
	}

	if err := s.records.RecordSuggestion(ctx, evt.UserID, record); err != nil {
		log.Error("failed to record self-care suggestion", "error", err)
	}
}

func (s *Service) generateSuggestion(ctx context.Context, entry *domain.DiaryLog) string {
	log := observability.LoggerFromContext(ctx)

	var contextInfo string
	if text := strings.TrimSpace(entry.DiaryText); text != "" {
		runes := []rune(text)
		if len(runes) > 100 {
			text = string(runes[:100])
		}
		contextInfo = fmt.Sprintf("ユーザーの日記には「%s」と書かれています。", text)
	}

	prompt := fmt.Sprintf("ユーザーは気分が「%d」(1が最も悪く5が最も良い)と記録しました。%sこのユーザーに、具体的ですぐに実行でき、短いポジティブなセルフケア行動を一つ提案してください。提案は簡潔に50文字以内でお願いします。例：温かい飲み物で一息つきませんか？",
		entry.SelfReportedMoodScore, contextInfo)

	resp, err := s.llm.Generate(ctx, domain.GenerateRequest{
		SystemInstruction: persona.DiaryComment,
		Turns:             []domain.Turn{domain.TextTurn(domain.RoleUser, prompt)},
	})
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		log.Warn("self-care suggestion generation failed, using fallback", "error", err)
		return SuggestionFallback
	}
	return strings.TrimSpace(resp.Text)
}

func (s *Service) sendPush(ctx context.Context, userID domain.UserID, suggestion string) (string, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if user.FCMToken == "" {
		return "", fmt.Errorf("user has no FCM token")
	}

	return s.notifier.SendPush(ctx, user.FCMToken, domain.PushNotification{
		Title:     "セルフケアのご提案🌿",
		Body:      suggestion,
		ChannelID: "self_care_suggestions",
		Category:  "SELF_CARE_SUGGESTION",
	})
}
