package hints_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kokoron/kokoron-backend/internal/adapters/llm"
	"github.com/kokoron/kokoron-backend/internal/adapters/storage/memory"
	"github.com/kokoron/kokoron-backend/internal/app/hints"
	"github.com/kokoron/kokoron-backend/internal/domain"
)

const testUser = domain.UserID("user-1")

func seedEntry(t *testing.T, store *memory.Store, daysAgo int, score int, text string) {
	t.Helper()
	_, err := store.CreateDiaryLog(context.Background(), &domain.DiaryLog{
		UserID:                testUser,
		Timestamp:             time.Now().AddDate(0, 0, -daysAgo),
		SelfReportedMoodScore: score,
		DiaryText:             text,
	})
	if err != nil {
		t.Fatalf("seed entry: %v", err)
	}
}

func TestGetBeforeFirstRefresh(t *testing.T) {
	store := memory.NewStore()
	svc := hints.NewService(store, store, llm.NewScriptedClient())

	set, err := svc.Get(context.Background(), testUser)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(set.Hints) != 0 || set.Message != hints.PreparingMessage {
		t.Fatalf("expected preparing set, got %+v", set)
	}

	// The read path must not persist anything.
	if _, err := store.GetHints(context.Background(), testUser); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected no stored set, got %v", err)
	}
}

func TestRefreshWithoutEntries(t *testing.T) {
	store := memory.NewStore()
	client := llm.NewScriptedClient()
	svc := hints.NewService(store, store, client)

	set, err := svc.Refresh(context.Background(), testUser)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if len(set.Hints) != 0 || set.Message != hints.NoDataMessage {
		t.Fatalf("expected empty no-data set, got %+v", set)
	}
	if set.IsUpdating {
		t.Fatalf("finished refresh must clear isUpdating")
	}
	if client.CallCount() != 0 {
		t.Fatalf("model must not run without entries, ran %d times", client.CallCount())
	}

	stored, err := store.GetHints(context.Background(), testUser)
	if err != nil {
		t.Fatalf("GetHints failed: %v", err)
	}
	if stored.Message != hints.NoDataMessage {
		t.Fatalf("no-data set must be persisted, got %+v", stored)
	}
}

func TestRefreshParsesModelHints(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, 1, 5, "公園まで散歩した")
	seedEntry(t, store, 3, 2, "眠れなかった")

	client := llm.NewScriptedClient(llm.ScriptedResponse{
		Text: "```json\n" + `{"hints":[
			{"title":"お散歩と気分の関係だワン","content":"散歩した日は気分スコアが高いみたい！","icon":"🐾","type":"positive"},
			{"title":"睡眠に注意","content":"眠れない日は気分が落ちやすいかも。","icon":"🌙","type":"warning"}
		]}` + "\n```",
	})
	svc := hints.NewService(store, store, client)

	set, err := svc.Refresh(context.Background(), testUser)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if len(set.Hints) != 2 {
		t.Fatalf("expected 2 hints, got %+v", set.Hints)
	}
	if set.Hints[0].Title != "お散歩と気分の関係だワン" || set.Hints[1].Type != "warning" {
		t.Fatalf("unexpected hints: %+v", set.Hints)
	}
	if set.TotalLogs != 2 {
		t.Fatalf("expected 2 analyzed logs, got %d", set.TotalLogs)
	}

	// The model sees the diary data and the JSON output contract.
	req := client.Requests()[0]
	if !strings.Contains(req.SystemInstruction, "JSON形式") {
		t.Fatalf("system instruction must request JSON output")
	}
	prompt := req.Turns[len(req.Turns)-1].Text()
	if !strings.Contains(prompt, "公園まで散歩した") {
		t.Fatalf("prompt must carry the diary data, got %q", prompt)
	}
}

func TestRefreshUnparseableReplyFallsBack(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, 1, 3, "今日のこと")

	client := llm.NewScriptedClient(llm.ScriptedResponse{Text: "ヒントだワン！JSONは書けないワン。"})
	svc := hints.NewService(store, store, client)

	set, err := svc.Refresh(context.Background(), testUser)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if len(set.Hints) != 1 || set.Hints[0] != hints.AnalyzingHint {
		t.Fatalf("expected the analyzing placeholder hint, got %+v", set.Hints)
	}
}

func TestRefreshModelFailureStoresErrorSet(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, 1, 3, "今日のこと")

	client := llm.NewScriptedClient(llm.ScriptedResponse{Err: errors.New("model down")})
	svc := hints.NewService(store, store, client)

	set, err := svc.Refresh(context.Background(), testUser)
	if err != nil {
		t.Fatalf("model failure must degrade, not error: %v", err)
	}
	if len(set.Hints) != 1 || set.Hints[0] != hints.ErrorHint {
		t.Fatalf("expected the error placeholder hint, got %+v", set.Hints)
	}
	if set.Message != hints.ErrorMessage {
		t.Fatalf("unexpected message: %q", set.Message)
	}
	if set.IsUpdating {
		t.Fatalf("finished refresh must clear isUpdating")
	}
}

func TestRefreshCapsHintCount(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, 1, 4, "いろいろあった")

	var b strings.Builder
	b.WriteString(`{"hints":[`)
	for i := 0; i < 7; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(`{"title":"ヒント","content":"内容","icon":"💡","type":"neutral"}`)
	}
	b.WriteString(`]}`)

	client := llm.NewScriptedClient(llm.ScriptedResponse{Text: b.String()})
	svc := hints.NewService(store, store, client)

	set, err := svc.Refresh(context.Background(), testUser)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if len(set.Hints) != 5 {
		t.Fatalf("expected at most 5 hints, got %d", len(set.Hints))
	}
}

func TestGetReturnsStoredSetAfterRefresh(t *testing.T) {
	store := memory.NewStore()
	seedEntry(t, store, 1, 5, "散歩した")

	client := llm.NewScriptedClient(llm.ScriptedResponse{
		Text: `{"hints":[{"title":"散歩","content":"良い傾向！","icon":"🐾","type":"positive"}]}`,
	})
	svc := hints.NewService(store, store, client)

	if _, err := svc.Refresh(context.Background(), testUser); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	set, err := svc.Get(context.Background(), testUser)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(set.Hints) != 1 || set.Hints[0].Title != "散歩" {
		t.Fatalf("Get must return the refreshed set, got %+v", set)
	}
	if set.Message == hints.PreparingMessage {
		t.Fatalf("refreshed user must not see the preparing message")
	}
}
