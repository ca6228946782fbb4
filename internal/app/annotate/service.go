// Package annotate is the single-entry annotator: once a diary entry
// exists it scores the text's positivity, writes a short companion
// comment, and blends the scores into the overall mood score the
// aggregation pipeline reads.
package annotate

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kokoron/kokoron-backend/internal/app/persona"
	"github.com/kokoron/kokoron-backend/internal/domain"
	"github.com/kokoron/kokoron-backend/internal/events"
	"github.com/kokoron/kokoron-backend/internal/observability"
)

type Service struct {
	logs domain.DiaryLogStore
	llm  domain.LLMClient
}

func NewService(logs domain.DiaryLogStore, llm domain.LLMClient) *Service {
	return &Service{logs: logs, llm: llm}
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
		log.Error("annotator could not load entry", "error", err)
		return
	}
	if entry.AIAnalyzedPositivityScore != nil {
		log.Info("entry already annotated, skipping")
		return
	}
	if strings.TrimSpace(entry.DiaryText) == "" {
		log.Info("no diary text, skipping annotation")
		return
	}

	upd := domain.AnnotationUpdate{}

	if score, ok := s.positivityScore(ctx, entry.DiaryText); ok {
		upd.AIAnalyzedPositivityScore = &score
		overall := BlendMoodScore(entry.SelfReportedMoodScore, score)
		upd.OverallMoodScore = &overall
	}
	if comment, ok := s.comment(ctx, entry.DiaryText); ok {
		upd.AIComment = &comment
	}

	if upd.AIComment == nil && upd.AIAnalyzedPositivityScore == nil {
		log.Warn("annotation produced nothing, entry left as-is")
		return
	}

	if err := s.logs.AnnotateDiaryLog(ctx, evt.UserID, evt.LogID, upd); err != nil {
		log.Error("failed to persist annotation", "error", err)
		return
	}
	log.Info("entry annotated")
}

func (s *Service) positivityScore(ctx context.Context, diaryText string) (float64, bool) {
	log := observability.LoggerFromContext(ctx)

	prompt := fmt.Sprintf("以下の日記の内容を分析し、その感情的なポジティブ度を0.0（非常にネガティブ）から1.0（非常にポジティブ）の間の数値でスコアリングしてください。数値のみを返してください。\n\n日記：\n「%s」", diaryText)

	resp, err := s.llm.Generate(ctx, domain.GenerateRequest{
		SystemInstruction: persona.PositivityScore,
		Turns:             []domain.Turn{domain.TextTurn(domain.RoleUser, prompt)},
	})
	if err != nil {
		log.Warn("positivity scoring failed", "error", err)
		return 0, false
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(resp.Text), 64)
	if err != nil || score < 0.0 || score > 1.0 {
		log.Warn("positivity score unusable", "raw", resp.Text)
		return 0, false
	}
	return round2(score), true
}

func (s *Service) comment(ctx context.Context, diaryText string) (string, bool) {
	log := observability.LoggerFromContext(ctx)

	prompt := fmt.Sprintf("以下の日記の内容を読み、評価や批判をせず、ただユーザーに寄り添い、感情を認めるような短い（50～100字程度）AIからの優しい感想コメントを生成してください。\n\n日記：\n「%s」", diaryText)

	resp, err := s.llm.Generate(ctx, domain.GenerateRequest{
		SystemInstruction: persona.DiaryComment,
		Turns:             []domain.Turn{domain.TextTurn(domain.RoleUser, prompt)},
	})
	if err != nil || strings.TrimSpace(resp.Text) == "" {
		log.Warn("annotation comment failed", "error", err)
		return "", false
	}
	return strings.TrimSpace(resp.Text), true
}

// BlendMoodScore averages the self-reported score with the AI
// positivity score rescaled onto the same 1–5 axis, clamped to [1, 5].
func BlendMoodScore(selfReported int, positivity float64) float64 {
	scaled := positivity*4 + 1
	overall := (float64(selfReported) + scaled) / 2
	overall = math.Max(1.0, math.Min(5.0, overall))
	return round2(overall)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
