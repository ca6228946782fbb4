package analysis_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kokoron/kokoron-backend/internal/adapters/llm"
	"github.com/kokoron/kokoron-backend/internal/adapters/storage/memory"
	"github.com/kokoron/kokoron-backend/internal/app/analysis"
	"github.com/kokoron/kokoron-backend/internal/domain"
)

const testUser = domain.UserID("user-1")

func seedEntry(t *testing.T, store *memory.Store, daysAgo int, mood int, text string) {
	t.Helper()
	_, err := store.CreateDiaryLog(context.Background(), &domain.DiaryLog{
		UserID:                testUser,
		Timestamp:             time.Now().AddDate(0, 0, -daysAgo),
		SelfReportedMoodScore: mood,
		DiaryText:             text,
	})
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}
}

func TestSummarizePeriodNoData(t *testing.T) {
	store := memory.NewStore()
	client := llm.NewScriptedClient()
	engine := analysis.NewEngine(store, client)

	msg, err := engine.SummarizePeriod(context.Background(), testUser, domain.AnalysisPeriods()[0])
	if err != nil {
		t.Fatalf("SummarizePeriod failed: %v", err)
	}
	if msg != analysis.NoDataMessage {
		t.Fatalf("expected no-data message, got %q", msg)
	}
	if client.CallCount() != 0 {
		t.Fatalf("model should not run on an empty window, ran %d times", client.CallCount())
	}
}

func TestSummarizePeriodModelFailureFallsBack(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, 1, 4, "散歩した")

	client := llm.NewScriptedClient(llm.ScriptedResponse{Err: errors.New("model down")})
	engine := analysis.NewEngine(store, client)

	msg, err := engine.SummarizePeriod(context.Background(), testUser, domain.AnalysisPeriods()[0])
	if err != nil {
		t.Fatalf("model failure must not surface as error, got %v", err)
	}
	if msg != analysis.ThinkingFallback {
		t.Fatalf("expected thinking fallback, got %q", msg)
	}
}

type failingLogStore struct {
	domain.DiaryLogStore
}

func (failingLogStore) ListDiaryLogsSince(context.Context, domain.UserID, time.Time) ([]*domain.DiaryLog, error) {
	return nil, errors.New("store down")
}

func TestSummarizePeriodStoreFailureIsAnError(t *testing.T) {
	client := llm.NewScriptedClient()
	engine := analysis.NewEngine(failingLogStore{}, client)

	_, err := engine.SummarizePeriod(context.Background(), testUser, domain.AnalysisPeriods()[0])
	if err == nil {
		t.Fatalf("expected error on store failure")
	}
}

func TestSummarizePeriodTruncatesLongReply(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, 1, 3, "")

	long := strings.Repeat("あ", 120)
	client := llm.NewScriptedClient(llm.ScriptedResponse{Text: long})
	engine := analysis.NewEngine(store, client)

	msg, err := engine.SummarizePeriod(context.Background(), testUser, domain.AnalysisPeriods()[0])
	if err != nil {
		t.Fatalf("SummarizePeriod failed: %v", err)
	}

	runes := []rune(msg)
	if len(runes) != 100 {
		t.Fatalf("expected 100 runes, got %d", len(runes))
	}
	if !strings.HasSuffix(msg, "...") {
		t.Fatalf("truncated message must end with ellipsis: %q", msg)
	}
}

func TestSummarizePeriodWeeklyLabelInPrompt(t *testing.T) {
	store := memory.NewStore()
	for day := 1; day <= 40; day++ {
		seedEntry(t, store, day, 1+day%5, "")
	}

	client := llm.NewScriptedClient(llm.ScriptedResponse{Text: "過去12週間、よく頑張りましたね。"})
	engine := analysis.NewEngine(store, client)

	weekly := domain.AnalysisPeriods()[1]
	if _, err := engine.SummarizePeriod(context.Background(), testUser, weekly); err != nil {
		t.Fatalf("SummarizePeriod failed: %v", err)
	}

	reqs := client.Requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 model call, got %d", len(reqs))
	}
	prompt := reqs[0].Turns[0].Text()
	if !strings.Contains(prompt, "過去12週間") {
		t.Fatalf("weekly prompt must carry the period label, got %q", prompt)
	}
	if !strings.Contains(reqs[0].SystemInstruction, "100文字以内") {
		t.Fatalf("system instruction must demand the length cap")
	}
}

func TestAggregateClassifiesByEffectiveScore(t *testing.T) {
	pos := 0.9
	entries := []*domain.DiaryLog{
		{SelfReportedMoodScore: 5}, // positive
		{SelfReportedMoodScore: 4}, // positive (boundary)
		{SelfReportedMoodScore: 3}, // neutral (boundary)
		{SelfReportedMoodScore: 2}, // negative
		// overall score wins over the self-reported one
		{SelfReportedMoodScore: 2, OverallMoodScore: 4.2},
		// no scores at all defaults to neutral
		{},
		// a bare positivity score does not reclassify
		{SelfReportedMoodScore: 1, AIAnalyzedPositivityScore: &pos},
	}

	tally, _ := analysis.Aggregate(entries)

	if tally.Total() != len(entries) {
		t.Fatalf("tally total %d != entry count %d", tally.Total(), len(entries))
	}
	if tally.Positive != 3 || tally.Neutral != 2 || tally.Negative != 2 {
		t.Fatalf("unexpected tally: %+v", tally)
	}
}

func TestAggregateKeywordsDedupedInFirstSeenOrder(t *testing.T) {
	entries := []*domain.DiaryLog{
		{SelfReportedMoodScore: 2, DiaryText: "疲れた一日だった"},
		{SelfReportedMoodScore: 4, DiaryText: "楽しい散歩をした。少し疲れた"},
		{SelfReportedMoodScore: 4, DiaryText: "美味しいご飯。仕事も良い感じ"},
	}

	_, keywords := analysis.Aggregate(entries)

	want := []string{"疲れた", "楽しい", "散歩", "仕事", "美味しい"}
	if len(keywords) != len(want) {
		t.Fatalf("expected %v, got %v", want, keywords)
	}
	for i := range want {
		if keywords[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, keywords)
		}
	}
}

func TestTruncateMessage(t *testing.T) {
	exact := strings.Repeat("い", 100)
	if got := analysis.TruncateMessage(exact); got != exact {
		t.Fatalf("100-rune message must pass through unchanged")
	}

	over := strings.Repeat("い", 101)
	got := analysis.TruncateMessage(over)
	if got != strings.Repeat("い", 97)+"..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
