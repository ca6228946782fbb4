package insight_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kokoron/kokoron-backend/internal/adapters/llm"
	"github.com/kokoron/kokoron-backend/internal/adapters/storage/memory"
	"github.com/kokoron/kokoron-backend/internal/app/insight"
	"github.com/kokoron/kokoron-backend/internal/domain"
)

const testUser = domain.UserID("user-1")

type recordingNotifier struct {
	mu     sync.Mutex
	pushes []domain.PushNotification
}

func (n *recordingNotifier) SendPush(_ context.Context, _ string, p domain.PushNotification) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.pushes = append(n.pushes, p)
	return "msg-1", nil
}

func (n *recordingNotifier) sent() []domain.PushNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.PushNotification{}, n.pushes...)
}

func seedLogs(t *testing.T, store *memory.Store, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		_, err := store.CreateDiaryLog(context.Background(), &domain.DiaryLog{
			UserID:                testUser,
			Timestamp:             time.Now().AddDate(0, 0, -i),
			SelfReportedMoodScore: 3,
			DiaryText:             "いつもどおりの一日",
		})
		if err != nil {
			t.Fatalf("seed entry: %v", err)
		}
	}
}

func TestGenerateBelowLogGate(t *testing.T) {
	store := memory.NewStore()
	seedLogs(t, store, 9)

	client := llm.NewScriptedClient()
	notifier := &recordingNotifier{}
	svc := insight.NewService(store, store, store, client, notifier)

	out, err := svc.Generate(context.Background(), testUser)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out.Insight != nil {
		t.Fatalf("below the gate no insight must be generated")
	}
	if out.Message != insight.NotEnoughDataMessage {
		t.Fatalf("unexpected message: %q", out.Message)
	}
	if client.CallCount() != 0 {
		t.Fatalf("model must not run below the gate, ran %d times", client.CallCount())
	}
}

func TestGenerateSavesInsightAndNotifies(t *testing.T) {
	store := memory.NewStore()
	seedLogs(t, store, 12)
	store.PutUser(&domain.User{ID: testUser, FCMToken: "token-1"})

	fenced := "```json\n" + `{
  "summaryText": "穏やかな一ヶ月でした。",
  "keyObservations": ["睡眠が安定", "散歩の日は気分が良い", "週末に気分が下がりがち"],
  "positiveAffirmation": "あなたは毎日よく頑張っています。"
}` + "\n```"

	client := llm.NewScriptedClient(llm.ScriptedResponse{Text: fenced})
	notifier := &recordingNotifier{}
	svc := insight.NewService(store, store, store, client, notifier)

	out, err := svc.Generate(context.Background(), testUser)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out.Insight == nil {
		t.Fatalf("expected an insight, got message %q", out.Message)
	}
	if out.Insight.SummaryText != "穏やかな一ヶ月でした。" {
		t.Fatalf("unexpected summary: %q", out.Insight.SummaryText)
	}
	if len(out.Insight.KeyObservations) != 3 {
		t.Fatalf("expected 3 observations, got %v", out.Insight.KeyObservations)
	}

	saved := store.Insights(testUser)
	if len(saved) != 1 || saved[0].ID != out.Insight.ID {
		t.Fatalf("insight not persisted: %+v", saved)
	}

	pushes := notifier.sent()
	if len(pushes) != 1 {
		t.Fatalf("expected one notification, got %d", len(pushes))
	}
	if pushes[0].Title != "ココロの振り返り🌿" {
		t.Fatalf("unexpected push title: %q", pushes[0].Title)
	}
}

func TestGenerateUnparseableReplyIsAnError(t *testing.T) {
	store := memory.NewStore()
	seedLogs(t, store, 12)

	client := llm.NewScriptedClient(llm.ScriptedResponse{Text: "JSONを書き忘れました"})
	svc := insight.NewService(store, store, store, client, &recordingNotifier{})

	if _, err := svc.Generate(context.Background(), testUser); err == nil {
		t.Fatalf("unparseable reply must surface as error")
	}
}

func TestGenerateMissingTokenSkipsNotification(t *testing.T) {
	store := memory.NewStore()
	seedLogs(t, store, 12)
	// no user profile at all: notification is best-effort

	reply := `{"summaryText": "要約", "keyObservations": ["a"], "positiveAffirmation": "前向きに"}`
	client := llm.NewScriptedClient(llm.ScriptedResponse{Text: reply})
	notifier := &recordingNotifier{}
	svc := insight.NewService(store, store, store, client, notifier)

	out, err := svc.Generate(context.Background(), testUser)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out.Insight == nil {
		t.Fatalf("missing token must not block generation")
	}
	if len(notifier.sent()) != 0 {
		t.Fatalf("no push should go out without a token")
	}
}
