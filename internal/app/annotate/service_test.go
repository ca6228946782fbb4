package annotate_test

import (
	"context"
	"testing"
	"time"

	"github.com/kokoron/kokoron-backend/internal/adapters/llm"
	"github.com/kokoron/kokoron-backend/internal/adapters/storage/memory"
	"github.com/kokoron/kokoron-backend/internal/app/annotate"
	"github.com/kokoron/kokoron-backend/internal/domain"
	"github.com/kokoron/kokoron-backend/internal/events"
)

const testUser = domain.UserID("user-1")

func TestBlendMoodScore(t *testing.T) {
	cases := []struct {
		selfReported int
		positivity   float64
		want         float64
	}{
		{3, 0.5, 3.0}, // 0.5 rescales to 3.0, average unchanged
		{1, 0.0, 1.0}, // floor
		{5, 1.0, 5.0}, // ceiling
		{2, 0.9, 3.3}, // (2 + 4.6) / 2
		{5, 0.0, 3.0}, // strong disagreement averages out
	}

	for _, c := range cases {
		got := annotate.BlendMoodScore(c.selfReported, c.positivity)
		if got != c.want {
			t.Errorf("BlendMoodScore(%d, %.1f) = %.2f, want %.2f",
				c.selfReported, c.positivity, got, c.want)
		}
	}
}

func TestHandleDiaryLogCreatedAnnotatesEntry(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	logID, err := store.CreateDiaryLog(ctx, &domain.DiaryLog{
		UserID:                testUser,
		Timestamp:             time.Now(),
		SelfReportedMoodScore: 2,
		DiaryText:             "今日は眠れなかった",
		OverallMoodScore:      2,
	})
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	// First call scores positivity, second writes the comment.
	client := llm.NewScriptedClient(
		llm.ScriptedResponse{Text: "0.3"},
		llm.ScriptedResponse{Text: "眠れない夜はつらいですね。"},
	)
	svc := annotate.NewService(store, client)

	svc.HandleDiaryLogCreated(ctx, events.DiaryLogCreated{UserID: testUser, LogID: logID})

	entry, err := store.GetDiaryLog(ctx, testUser, logID)
	if err != nil {
		t.Fatalf("GetDiaryLog failed: %v", err)
	}
	if entry.AIAnalyzedPositivityScore == nil || *entry.AIAnalyzedPositivityScore != 0.3 {
		t.Fatalf("positivity score not persisted: %+v", entry.AIAnalyzedPositivityScore)
	}
	if entry.OverallMoodScore != annotate.BlendMoodScore(2, 0.3) {
		t.Fatalf("overall score not blended: %.2f", entry.OverallMoodScore)
	}
	if entry.AIComment != "眠れない夜はつらいですね。" {
		t.Fatalf("comment not persisted: %q", entry.AIComment)
	}
}

func TestHandleDiaryLogCreatedSkipsAnnotatedEntries(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	score := 0.8
	logID, err := store.CreateDiaryLog(ctx, &domain.DiaryLog{
		UserID:                    testUser,
		Timestamp:                 time.Now(),
		SelfReportedMoodScore:     4,
		DiaryText:                 "良い日だった",
		AIAnalyzedPositivityScore: &score,
	})
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	client := llm.NewScriptedClient()
	svc := annotate.NewService(store, client)

	svc.HandleDiaryLogCreated(ctx, events.DiaryLogCreated{UserID: testUser, LogID: logID})

	if client.CallCount() != 0 {
		t.Fatalf("annotated entry must be skipped, model ran %d times", client.CallCount())
	}
}

func TestHandleDiaryLogCreatedSkipsEmptyText(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	logID, err := store.CreateDiaryLog(ctx, &domain.DiaryLog{
		UserID:                testUser,
		Timestamp:             time.Now(),
		SelfReportedMoodScore: 3,
	})
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	client := llm.NewScriptedClient()
	svc := annotate.NewService(store, client)

	svc.HandleDiaryLogCreated(ctx, events.DiaryLogCreated{UserID: testUser, LogID: logID})

	if client.CallCount() != 0 {
		t.Fatalf("textless entry must be skipped, model ran %d times", client.CallCount())
	}
}

func TestHandleDiaryLogCreatedUnusableScoreStillComments(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	logID, err := store.CreateDiaryLog(ctx, &domain.DiaryLog{
		UserID:                testUser,
		Timestamp:             time.Now(),
		SelfReportedMoodScore: 3,
		DiaryText:             "ふつうの日",
		OverallMoodScore:      3,
	})
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	client := llm.NewScriptedClient(
		llm.ScriptedResponse{Text: "とてもポジティブです"}, // not a number
		llm.ScriptedResponse{Text: "穏やかな一日でしたね。"},
	)
	svc := annotate.NewService(store, client)

	svc.HandleDiaryLogCreated(ctx, events.DiaryLogCreated{UserID: testUser, LogID: logID})

	entry, err := store.GetDiaryLog(ctx, testUser, logID)
	if err != nil {
		t.Fatalf("GetDiaryLog failed: %v", err)
	}
	if entry.AIAnalyzedPositivityScore != nil {
		t.Fatalf("unusable score must not be persisted")
	}
	if entry.OverallMoodScore != 3 {
		t.Fatalf("overall score must stay untouched, got %.2f", entry.OverallMoodScore)
	}
	if entry.AIComment != "穏やかな一日でしたね。" {
		t.Fatalf("comment should still land: %q", entry.AIComment)
	}
}
