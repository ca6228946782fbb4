// Package insight generates the monthly "personal insight" reflection
// over a user's diary logs and notifies the user when one is ready.
package insight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kokoron/kokoron-backend/internal/app/persona"
	"github.com/kokoron/kokoron-backend/internal/domain"
	"github.com/kokoron/kokoron-backend/internal/llmjson"
	"github.com/kokoron/kokoron-backend/internal/observability"
)

const (
	periodDays  = 30
	minLogCount = 10

	// NotEnoughDataMessage is the normal outcome below the log gate.
	NotEnoughDataMessage = "分析に必要な日記ログの数が不足しています。"
)

type Service struct {
	logs     domain.DiaryLogStore
	insights domain.InsightStore
	users    domain.UserStore
	llm      domain.LLMClient
	notifier domain.Notifier
	now      func() time.Time
}

func NewService(
	logs domain.DiaryLogStore,
	insights domain.InsightStore,
	users domain.UserStore,
	llm domain.LLMClient,
	notifier domain.Notifier,
) *Service {
	return &Service{
		logs:     logs,
		insights: insights,
		users:    users,
		llm:      llm,
		notifier: notifier,
		now:      time.Now,
	}
}

type GenerateOutput struct {
	Insight *domain.PersonalInsight
	// Message is set instead of Insight when the log gate was not met.
	Message string
}

// insightPayload is the JSON shape the model is asked to return.
type insightPayload struct {
	SummaryText         string   `json:"summaryText"`
	KeyObservations     []string `json:"keyObservations"`
	PositiveAffirmation string   `json:"positiveAffirmation"`
}

// Generate builds and persists one personal insight. Too few logs is a
// normal outcome; model and parse failures are errors to the caller.
func (s *Service) Generate(ctx context.Context, userID domain.UserID) (*GenerateOutput, error) {
	log := observability.LoggerFromContext(ctx).With("user_id", userID)

	end := s.now()
	start := end.AddDate(0, 0, -periodDays)

	entries, err := s.logs.ListDiaryLogsSince(ctx, userID, start)
	if err != nil {
		return nil, fmt.Errorf("fetch insight window: %w", err)
	}
	if len(entries) < minLogCount {
		log.Info("not enough logs for insight", "count", len(entries), "minimum", minLogCount)
		return &GenerateOutput{Message: NotEnoughDataMessage}, nil
	}

	resp, err := s.llm.Generate(ctx, domain.GenerateRequest{
		SystemInstruction: persona.PersonalInsight,
		Turns:             []domain.Turn{domain.TextTurn(domain.RoleUser, buildPrompt(entries))},
	})
	if err != nil {
		return nil, fmt.Errorf("insight generation: %w", err)
	}

	var payload insightPayload
	if decoded := llmjson.Decode(resp.Text, &payload); !decoded.OK {
		log.Error("insight response was not parseable JSON", "error", decoded.Err)
		return nil, fmt.Errorf("insight response parse: %w", decoded.Err)
	}
	if payload.SummaryText == "" || len(payload.KeyObservations) == 0 || payload.PositiveAffirmation == "" {
		return nil, fmt.Errorf("insight response is missing required fields")
	}

	result := &domain.PersonalInsight{
		ID:                  domain.InsightID(uuid.NewString()),
		UserID:              userID,
		GeneratedAt:         s.now(),
		PeriodStart:         start,
		PeriodEnd:           end,
		SummaryText:         payload.SummaryText,
		KeyObservations:     payload.KeyObservations,
		PositiveAffirmation: payload.PositiveAffirmation,
	}

	if err := s.insights.SaveInsight(ctx, result); err != nil {
		return nil, fmt.Errorf("save insight: %w", err)
	}
	log.Info("personal insight saved", "insight_id", result.ID)

	s.notify(ctx, userID)

	return &GenerateOutput{Insight: result}, nil
}

// notify is best-effort: a missing token or send failure never fails
// the generation.
func (s *Service) notify(ctx context.Context, userID domain.UserID) {
	log := observability.LoggerFromContext(ctx).With("user_id", userID)

	user, err := s.users.GetUser(ctx, userID)
	if err != nil || user.FCMToken == "" {
		log.Warn("no FCM token, skipping insight notification", "error", err)
		return
	}

	_, err = s.notifier.SendPush(ctx, user.FCMToken, domain.PushNotification{
		Title: "ココロの振り返り🌿",
		Body:  "新しい「パーソナルな気づき」が届きました。あなたのパターンを見てみましょう。",
	})
	if err != nil {
		log.Error("insight notification failed", "error", err)
	}
}

func buildPrompt(entries []*domain.DiaryLog) string {
	var logLines strings.Builder
	for _, e := range entries {
		text := e.DiaryText
		if len([]rune(text)) > 300 {
			text = string([]rune(text)[:300])
		}
		logLines.WriteString(fmt.Sprintf("- %s (気分: %.1f/5): %s\n",
			e.Timestamp.Format("2006-01-02"), e.EffectiveMoodScore(), text))
	}

	return fmt.Sprintf(`提供された以下のユーザーの日記ログ（過去約%d日分）を分析し、ユーザーが自分自身をより深く理解し、ポジティブな気持ちになれるような「パーソナルな気づき」を生成してください。

# 分析対象の日記ログ:
%s
# 指示:
1. 気づきの要約 (summaryText): 気分の傾向や特徴的なパターンについて、最も重要な気づきを150字以内の優しい言葉で記述してください。
2. キー観察ポイント (keyObservations): 要約を裏付ける具体的な観察結果を3つ、各100字以内で記述してください。
3. ポジティブなアファメーション (positiveAffirmation): 自己肯定感を高める70字以内の前向きなメッセージを生成してください。

# 出力形式:
必ず以下のJSON形式で、キー名も指示通りに返してください。
{
  "summaryText": "...",
  "keyObservations": ["...", "...", "..."],
  "positiveAffirmation": "..."
}

# 注意事項:
- 常にユーザーに寄り添い、共感的で、非批判的な言葉を選んでください。
- 断定的な表現や医学的な診断と誤解されるような表現は避けてください。
- 生成する内容は、ユーザーが提供したログデータのみに基づいてください。`,
		periodDays, logLines.String())
}
