package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kokoron/kokoron-backend/internal/app/persona"
	"github.com/kokoron/kokoron-backend/internal/domain"
	"github.com/kokoron/kokoron-backend/internal/observability"
)

const (
	// NoDataMessage is the normal outcome for an empty window.
	NoDataMessage = "まだ分析に必要なデータが集まっていません。日記を書いてみましょう！"

	// ThinkingFallback replaces a summary when the model call fails.
	ThinkingFallback = "今はココロンがちょっと考え中...また後で覗いてみてワン！"

	maxMessageLen = 100
	maxKeywords   = 5
)

// keywordRule maps diary-text substrings to one keyword tag.
type keywordRule struct {
	tag      string
	triggers []string
}

var keywordRules = []keywordRule{
	{tag: "楽しい", triggers: []string{"嬉しい", "楽しい", "良い"}},
	{tag: "仕事", triggers: []string{"仕事", "働"}},
	{tag: "散歩", triggers: []string{"散歩", "歩"}},
	{tag: "疲れた", triggers: []string{"疲れ", "つかれ"}},
	{tag: "美味しい", triggers: []string{"美味しい", "おいしい"}},
}

// MoodTally counts entries per mood class for one window.
type MoodTally struct {
	Positive int
	Neutral  int
	Negative int
}

func (t MoodTally) Total() int {
	return t.Positive + t.Neutral + t.Negative
}

// Engine turns one user's diary window into a single summary message.
// It is purely functional over the fetched entries plus one model call.
type Engine struct {
	logs domain.DiaryLogStore
	llm  domain.LLMClient
	now  func() time.Time
}

func NewEngine(logs domain.DiaryLogStore, llm domain.LLMClient) *Engine {
	return &Engine{
		logs: logs,
		llm:  llm,
		now:  time.Now,
	}
}

// SummarizePeriod produces the summary message for one period window.
// Only a store read failure comes back as an error; an empty window and
// a model failure both resolve to fixed messages.
func (e *Engine) SummarizePeriod(ctx context.Context, userID domain.UserID, period domain.PeriodDefinition) (string, error) {
	log := observability.LoggerFromContext(ctx).With(
		"user_id", userID,
		"period", period.Name,
	)

	since := e.now().AddDate(0, 0, -period.WindowDays)
	entries, err := e.logs.ListDiaryLogsSince(ctx, userID, since)
	if err != nil {
		return "", fmt.Errorf("fetch %s window: %w", period.Name, err)
	}

	if len(entries) == 0 {
		log.Info("no diary logs in window")
		return NoDataMessage, nil
	}

	tally, keywords := Aggregate(entries)
	log.Info("window aggregated",
		"entries", len(entries),
		"positive", tally.Positive,
		"neutral", tally.Neutral,
		"negative", tally.Negative,
		"keywords", keywords)

	resp, err := e.llm.Generate(ctx, domain.GenerateRequest{
		SystemInstruction: summarySystemPrompt(period),
		Turns: []domain.Turn{
			domain.TextTurn(domain.RoleUser, summaryUserPrompt(period, tally, keywords)),
		},
	})
	if err != nil || resp.Text == "" {
		log.Error("summary generation failed", "error", err)
		return ThinkingFallback, nil
	}

	return TruncateMessage(strings.TrimSpace(resp.Text)), nil
}

// Aggregate classifies every entry's effective mood and collects the
// keyword tags found in diary texts (first-seen order, capped).
func Aggregate(entries []*domain.DiaryLog) (MoodTally, []string) {
	var tally MoodTally
	var keywords []string
	seen := make(map[string]bool)

	for _, entry := range entries {
		score := entry.EffectiveMoodScore()
		switch {
		case score >= 4:
			tally.Positive++
		case score >= 3:
			tally.Neutral++
		default:
			tally.Negative++
		}

		if entry.DiaryText == "" {
			continue
		}
		for _, rule := range keywordRules {
			if seen[rule.tag] {
				continue
			}
			for _, trigger := range rule.triggers {
				if strings.Contains(entry.DiaryText, trigger) {
					if len(keywords) < maxKeywords {
						keywords = append(keywords, rule.tag)
					}
					seen[rule.tag] = true
					break
				}
			}
		}
	}

	return tally, keywords
}

// TruncateMessage enforces the 100-character display limit, cutting at
// rune boundaries and appending an ellipsis marker.
func TruncateMessage(msg string) string {
	runes := []rune(msg)
	if len(runes) <= maxMessageLen {
		return msg
	}
	return string(runes[:97]) + "..."
}

func summarySystemPrompt(period domain.PeriodDefinition) string {
	return persona.MindForecast + fmt.Sprintf(`

重要：応答は100文字以内のテキスト形式のメッセージのみを返してください。JSON形式ではありません。分析期間（「%s」など）を自然に文章に含めてください。`, period.Label)
}

func summaryUserPrompt(period domain.PeriodDefinition, tally MoodTally, keywords []string) string {
	return fmt.Sprintf(`これは、あるユーザーの%sの日記データです。

データ要約:
- ポジティブな日: %d日
- 普通の日: %d日
- ネガティブな日: %d日
- よく出るキーワード: %s

このデータから、ユーザーの気分の主な傾向を分析し、ユーザーを励ますような、温かいメッセージを100文字以内で生成してください。分析期間を文章に含めてください。`,
		period.Label,
		tally.Positive,
		tally.Neutral,
		tally.Negative,
		strings.Join(keywords, "、"))
}
