// Package hints derives "mental hints" from a user's recent diary
// data: short observations on how behavior, sleep and weather relate
// to mood, kept as a per-user singleton document.
package hints

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kokoron/kokoron-backend/internal/app/persona"
	"github.com/kokoron/kokoron-backend/internal/domain"
	"github.com/kokoron/kokoron-backend/internal/llmjson"
	"github.com/kokoron/kokoron-backend/internal/observability"
)

const (
	periodDays   = 30
	maxHints     = 5
	previewRunes = 100

	// PreparingMessage fills the set returned on first read, before
	// any refresh has run.
	PreparingMessage = "心のヒントを準備中です。しばらくお待ちください。"

	// NoDataMessage fills the set when the window holds no entries.
	NoDataMessage = "まだ分析に必要なデータが集まっていません。"

	// ErrorMessage fills the set when the model call failed.
	ErrorMessage = "分析中にエラーが発生しました。"
)

// AnalyzingHint replaces the hint list when the model reply could not
// be parsed as JSON.
var AnalyzingHint = domain.MentalHint{
	Title:   "データ分析中",
	Content: "現在、あなたの気分パターンを分析しています。もう少しデータが集まると、より具体的なアドバイスを提供できます。",
	Icon:    "🔍",
	Type:    "neutral",
}

// ErrorHint replaces the hint list when the model call itself failed.
var ErrorHint = domain.MentalHint{
	Title:   "データ分析エラー",
	Content: "心のヒントの分析中に問題が発生しました。しばらく時間をおいて再度お試しください。",
	Icon:    "⚠️",
	Type:    "warning",
}

type Service struct {
	logs  domain.DiaryLogStore
	store domain.MentalHintStore
	llm   domain.LLMClient
	now   func() time.Time
}

func NewService(logs domain.DiaryLogStore, store domain.MentalHintStore, llm domain.LLMClient) *Service {
	return &Service{
		logs:  logs,
		store: store,
		llm:   llm,
		now:   time.Now,
	}
}

// Get returns the stored hint set. A user who never refreshed gets a
// transient "preparing" set; nothing is persisted on the read path.
func (s *Service) Get(ctx context.Context, userID domain.UserID) (*domain.MentalHintSet, error) {
	set, err := s.store.GetHints(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		end := s.now()
		return &domain.MentalHintSet{
			Message:     PreparingMessage,
			PeriodStart: end.AddDate(0, 0, -periodDays),
			PeriodEnd:   end,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch mental hints: %w", err)
	}
	return set, nil
}

// Refresh recomputes the hint set over the last 30 days of entries and
// fully replaces the singleton. A model failure degrades to a stored
// error set instead of surfacing; store failures are errors.
func (s *Service) Refresh(ctx context.Context, userID domain.UserID) (*domain.MentalHintSet, error) {
	log := observability.LoggerFromContext(ctx).With("user_id", userID)

	if err := s.store.MarkHintsUpdating(ctx, userID, s.now()); err != nil {
		return nil, fmt.Errorf("mark hints updating: %w", err)
	}

	end := s.now()
	start := end.AddDate(0, 0, -periodDays)

	entries, err := s.logs.ListDiaryLogsSince(ctx, userID, start)
	if err != nil {
		return nil, fmt.Errorf("fetch hints window: %w", err)
	}
	if len(entries) == 0 {
		log.Info("no diary entries in hints window")
		return s.save(ctx, userID, &domain.MentalHintSet{
			Hints:       []domain.MentalHint{},
			Message:     NoDataMessage,
			PeriodStart: start,
			PeriodEnd:   end,
		})
	}

	resp, err := s.llm.Generate(ctx, domain.GenerateRequest{
		SystemInstruction: systemPrompt,
		Turns:             []domain.Turn{domain.TextTurn(domain.RoleUser, buildPrompt(entries))},
	})
	if err != nil {
		log.Error("mental hints generation failed", "error", err)
		return s.save(ctx, userID, &domain.MentalHintSet{
			Hints:       []domain.MentalHint{ErrorHint},
			Message:     ErrorMessage,
			PeriodStart: start,
			PeriodEnd:   end,
		})
	}

	hints := parseHints(ctx, resp.Text)
	return s.save(ctx, userID, &domain.MentalHintSet{
		Hints:       hints,
		PeriodStart: start,
		PeriodEnd:   end,
		TotalLogs:   len(entries),
	})
}

func (s *Service) save(ctx context.Context, userID domain.UserID, set *domain.MentalHintSet) (*domain.MentalHintSet, error) {
	set.IsUpdating = false
	set.UpdatedAt = s.now()
	if err := s.store.SaveHints(ctx, userID, set); err != nil {
		return nil, fmt.Errorf("save mental hints: %w", err)
	}
	return set, nil
}

// hintsPayload is the JSON shape the model is asked to return.
type hintsPayload struct {
	Hints []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		Icon    string `json:"icon"`
		Type    string `json:"type"`
	} `json:"hints"`
}

func parseHints(ctx context.Context, raw string) []domain.MentalHint {
	var payload hintsPayload
	if decoded := llmjson.Decode(raw, &payload); !decoded.OK {
		observability.LoggerFromContext(ctx).Error(
			"mental hints response was not parseable JSON", "error", decoded.Err)
		return []domain.MentalHint{AnalyzingHint}
	}

	hints := make([]domain.MentalHint, 0, len(payload.Hints))
	for _, h := range payload.Hints {
		hints = append(hints, domain.MentalHint{
			Title:   h.Title,
			Content: h.Content,
			Icon:    h.Icon,
			Type:    h.Type,
		})
	}
	if len(hints) > maxHints {
		hints = hints[:maxHints]
	}
	return hints
}

var systemPrompt = persona.MentalHints + `

分析結果は以下のJSON形式で最大5つのヒントを返してください：
{
  "hints": [
    {
      "title": "ヒントのタイトル（例：お散歩と気分の関係だワン）",
      "content": "具体的な内容（例：お散歩した日は気分スコアが平均で+1.5ポイント高いみたいだワン！）",
      "icon": "関連する絵文字1つ",
      "type": "positive/warning/neutral"
    }
  ]
}`

// logDatum is one diary entry as presented to the model.
type logDatum struct {
	Date         string                  `json:"date"`
	MoodScore    int                     `json:"moodScore"`
	Events       []string                `json:"events"`
	DiaryPreview string                  `json:"diaryPreview"`
	SleepHours   *float64                `json:"sleepHours"`
	Weather      *domain.WeatherSnapshot `json:"weather"`
}

func buildPrompt(entries []*domain.DiaryLog) string {
	data := make([]logDatum, 0, len(entries))
	for _, e := range entries {
		preview := e.DiaryText
		if runes := []rune(preview); len(runes) > previewRunes {
			preview = string(runes[:previewRunes])
		}
		score := e.SelfReportedMoodScore
		if score == 0 {
			score = 3
		}
		data = append(data, logDatum{
			Date:         e.Timestamp.Format("2006-01-02"),
			MoodScore:    score,
			Events:       e.SelectedEvents,
			DiaryPreview: preview,
			SleepHours:   e.SleepDurationHours,
			Weather:      e.Weather,
		})
	}
	encoded, _ := json.MarshalIndent(data, "", "  ")

	return fmt.Sprintf(`以下のユーザーの日記データを分析し、行動・睡眠・天気と気分の関係についての具体的なヒントを生成してください。

データ：
%s

注意事項：
- イベント名は日本語で記載されています
- 気分スコアは1（最低）から5（最高）の5段階評価です
- sleepHours は睡眠時間（時間単位、null の場合はデータなし）
- weather は天気データ（null の場合はデータなし）
- 統計的に有意な傾向や繰り返しパターンを見つけてください
- 睡眠時間、天気条件、行動の組み合わせによる気分への影響を分析してください
- ユーザーが実際に生活習慣を改善できるような具体的なアドバイスを含めてください
- 活動や行動を言及する時は必ず日本語で表現してください（例：「よく眠れた日」「散歩」「運動」など）
- 英語のイベント名（good_sleep, exerciseなど）は使用しないでください
- 文章はシンプルで分かりやすく、読みやすいものにしてください
- 「しっぽブンブン」「ワンワン」などの過度な犬の表現は控えめにしてください
- データに基づいた客観的な分析結果を中心に伝えてください`, encoded)
}
