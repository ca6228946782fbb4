package diary

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

const recentContextCount = 3

// Service records diary entries: it generates the companion's comment,
// persists the log, and publishes the creation event that drives the
// analysis pipeline and the other background consumers.
type Service struct {
	logs domain.DiaryLogStore
	llm  domain.LLMClient
	bus  *events.Bus
	now  func() time.Time
}

func NewService(logs domain.DiaryLogStore, llm domain.LLMClient, bus *events.Bus) *Service {
	return &Service{
		logs: logs,
		llm:  llm,
		bus:  bus,
		now:  time.Now,
	}
}

type RecordEntryInput struct {
	UserID                domain.UserID
	SelfReportedMoodScore int
	DiaryText             string
	SelectedEvents        []string
	SleepDurationHours    *float64
	Weather               *domain.WeatherSnapshot
}

type RecordEntryOutput struct {
	LogID     domain.LogID
	AIComment string
}

// RecordEntry validates and stores one diary entry. The AI comment is
// best-effort: a model failure records the entry without one.
func (s *Service) RecordEntry(ctx context.Context, in RecordEntryInput) (*RecordEntryOutput, error) {
	log := observability.LoggerFromContext(ctx).With("user_id", in.UserID)

	if in.SelfReportedMoodScore < 1 || in.SelfReportedMoodScore > 5 {
		return nil, fmt.Errorf("selfReportedMoodScore must be between 1 and 5")
	}

	aiComment := s.generateComment(ctx, in)

	entry := &domain.DiaryLog{
		UserID:                in.UserID,
		Timestamp:             s.now(),
		SelfReportedMoodScore: in.SelfReportedMoodScore,
		DiaryText:             in.DiaryText,
		AIComment:             aiComment,
		OverallMoodScore:      float64(in.SelfReportedMoodScore), // annotator refines later
		SelectedEvents:        in.SelectedEvents,
		SleepDurationHours:    in.SleepDurationHours,
		Weather:               in.Weather,
	}

	logID, err := s.logs.CreateDiaryLog(ctx, entry)
	if err != nil {
		log.Error("failed to record diary log", "error", err)
		return nil, fmt.Errorf("record diary log: %w", err)
	}

	log.Info("diary log recorded", "log_id", logID)
	s.bus.Publish(ctx, events.DiaryLogCreated{UserID: in.UserID, LogID: logID})

	return &RecordEntryOutput{LogID: logID, AIComment: aiComment}, nil
}

func (s *Service) generateComment(ctx context.Context, in RecordEntryInput) string {
	log := observability.LoggerFromContext(ctx)

	if strings.TrimSpace(in.DiaryText) == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString("以下の日記に対して、ココロン（相棒のワンちゃん）として優しくコメントしてください。")
	if recent := s.recentContext(ctx, in.UserID); recent != "" {
		b.WriteString("\n" + recent)
	}
	b.WriteString(fmt.Sprintf("\n\n今日の日記:\n「%s」", in.DiaryText))
	if len(in.SelectedEvents) > 0 {
		b.WriteString("\n今日したこと: " + strings.Join(in.SelectedEvents, "、"))
	}
	if in.SleepDurationHours != nil {
		b.WriteString(fmt.Sprintf("\n睡眠時間: %.1f時間", *in.SleepDurationHours))
	}

	resp, err := s.llm.Generate(ctx, domain.GenerateRequest{
		SystemInstruction: persona.DiaryComment,
		Turns:             []domain.Turn{domain.TextTurn(domain.RoleUser, b.String())},
	})
	if err != nil || resp.Text == "" {
		log.Warn("diary comment generation failed, recording without comment", "error", err)
		return ""
	}
	return strings.TrimSpace(resp.Text)
}

func (s *Service) recentContext(ctx context.Context, userID domain.UserID) string {
	entries, err := s.logs.ListRecentDiaryLogs(ctx, userID, recentContextCount)
	if err != nil || len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("最近の日記の流れ:")
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("\n- %s (気分: %.1f/5)",
			e.Timestamp.Format("2006-01-02"), e.EffectiveMoodScore()))
		if e.DiaryText != "" {
			b.WriteString(" " + e.DiaryText)
		}
	}
	return b.String()
}

// GetAnalysisMessages reads the per-user analysis singleton.
func GetAnalysisMessages(ctx context.Context, store domain.AnalysisMessageStore, userID domain.UserID) (*domain.AnalysisMessageSet, error) {
	return store.GetMessages(ctx, userID)
}
