package chat_test

import (
	"context"
	"errors"
	"testing"

	"github.com/kokoron/kokoron-backend/internal/adapters/llm"
	"github.com/kokoron/kokoron-backend/internal/app/chat"
	"github.com/kokoron/kokoron-backend/internal/domain"
)

const testUser = domain.UserID("user-1")

func TestPartnerAdviceReturnsModelReply(t *testing.T) {
	client := llm.NewScriptedClient(llm.ScriptedResponse{Text: "まずは話を聞いてあげましょう。"})
	svc := chat.NewService(client)

	reply, err := svc.PartnerAdvice(context.Background(), testUser, "最近パートナーの元気がない", nil)
	if err != nil {
		t.Fatalf("PartnerAdvice failed: %v", err)
	}
	if reply != "まずは話を聞いてあげましょう。" {
		t.Fatalf("unexpected reply: %q", reply)
	}

	reqs := client.Requests()
	if reqs[0].Temperature == nil || *reqs[0].Temperature != 0.7 {
		t.Fatalf("partner advice must run at temperature 0.7")
	}
}

func TestPartnerAdviceFallsBackOnModelFailure(t *testing.T) {
	client := llm.NewScriptedClient(llm.ScriptedResponse{Err: errors.New("model down")})
	svc := chat.NewService(client)

	reply, err := svc.PartnerAdvice(context.Background(), testUser, "相談です", nil)
	if err != nil {
		t.Fatalf("model failure must not surface as error, got %v", err)
	}
	if reply != chat.PartnerAdviceFallback {
		t.Fatalf("expected fallback, got %q", reply)
	}
}

func TestGetCommunicationAdviceParsesSections(t *testing.T) {
	raw := `アドバイス：
焦らず、相手のペースに合わせて話しかけてみましょう。

会話例・行動提案：
- 「今日はどんな一日だった？」と軽く聞いてみる
- 一緒に散歩に誘ってみる
補足のテキストは無視されます`

	client := llm.NewScriptedClient(llm.ScriptedResponse{Text: raw})
	svc := chat.NewService(client)

	advice, err := svc.GetCommunicationAdvice(context.Background(), testUser, "夫婦の会話が減っている", "")
	if err != nil {
		t.Fatalf("GetCommunicationAdvice failed: %v", err)
	}

	if advice.AdviceText != "焦らず、相手のペースに合わせて話しかけてみましょう。" {
		t.Fatalf("unexpected advice text: %q", advice.AdviceText)
	}
	if len(advice.ExamplePhrases) != 2 {
		t.Fatalf("expected 2 example phrases, got %v", advice.ExamplePhrases)
	}
	if advice.ExamplePhrases[1] != "一緒に散歩に誘ってみる" {
		t.Fatalf("unexpected phrase: %q", advice.ExamplePhrases[1])
	}
}

func TestParseCommunicationAdviceUnformattedReply(t *testing.T) {
	raw := "とにかく寄り添うことが大切です。"

	advice := chat.ParseCommunicationAdvice(raw)

	if advice.AdviceText != raw {
		t.Fatalf("unformatted reply must come back whole, got %q", advice.AdviceText)
	}
	if len(advice.ExamplePhrases) != 0 {
		t.Fatalf("expected no phrases, got %v", advice.ExamplePhrases)
	}
}

func TestGetCommunicationAdviceFallsBackOnModelFailure(t *testing.T) {
	client := llm.NewScriptedClient(llm.ScriptedResponse{Err: errors.New("model down")})
	svc := chat.NewService(client)

	advice, err := svc.GetCommunicationAdvice(context.Background(), testUser, "状況です", "")
	if err != nil {
		t.Fatalf("model failure must not surface as error, got %v", err)
	}
	if advice.AdviceText != chat.CommunicationAdviceFallback {
		t.Fatalf("expected fallback, got %q", advice.AdviceText)
	}
}
