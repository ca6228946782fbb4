// Package agent drives the tool-augmented companion chat: a bounded
// loop that alternates model inference with tool execution until the
// model answers in plain text.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kokoron/kokoron-backend/internal/app/persona"
	"github.com/kokoron/kokoron-backend/internal/app/tools"
	"github.com/kokoron/kokoron-backend/internal/domain"
	"github.com/kokoron/kokoron-backend/internal/observability"
)

const (
	// maxRounds bounds the model round-trips of one Run call.
	maxRounds = 5

	recentLogContextCount = 3

	// MaxLoopsFallback is returned when the model keeps requesting
	// tools past the round ceiling.
	MaxLoopsFallback = "ごめんねワン、うまく調べきれなかったワン...もう一度聞いてみてほしいワン！"

	// SafetyFallback replaces a content-safety rejection.
	SafetyFallback = "ごめんねワン、その話題はココロンには少し難しいワン...でも、気持ちはちゃんと受け止めたワン。"
)

// medicineKeywords flag a message as medication-related, which pulls
// the caller-supplied medication context into the prompt.
var medicineKeywords = []string{
	"薬", "くすり", "クスリ", "medication", "副作用", "飲み合わせ", "服用", "錠剤", "カプセル",
}

// RunInput is one chat invocation.
type RunInput struct {
	UserID  domain.UserID
	Message string
	// History is the prior conversation as supplied by the client.
	// A leading model-authored turn is dropped: the dialogue sent to
	// the model must open with a user turn.
	History []domain.Turn
	// MedicationContext is an optional list of medication names the
	// client already holds; injected only for medication-related
	// messages.
	MedicationContext []string
}

// Loop runs the bounded conversation state machine.
type Loop struct {
	llm      domain.LLMClient
	registry *tools.Registry
	logs     domain.DiaryLogStore
	now      func() time.Time
}

func NewLoop(llm domain.LLMClient, registry *tools.Registry, logs domain.DiaryLogStore) *Loop {
	return &Loop{
		llm:      llm,
		registry: registry,
		logs:     logs,
		now:      time.Now,
	}
}

// Run returns the final reply text. The caller always receives either a
// real reply or one of the fixed fallback strings; only non-safety model
// failures surface as errors.
func (l *Loop) Run(ctx context.Context, in RunInput) (string, error) {
	log := observability.LoggerFromContext(ctx).With("user_id", in.UserID)

	if strings.TrimSpace(in.Message) == "" {
		return "", fmt.Errorf("user message is required")
	}

	turns := SanitizeHistory(in.History)
	turns = append(turns, domain.TextTurn(domain.RoleUser, l.enrichMessage(ctx, in)))

	req := domain.GenerateRequest{
		SystemInstruction: persona.EmpatheticChat,
		Tools:             l.registry.Declarations(),
	}

	for round := 1; round <= maxRounds; round++ {
		req.Turns = turns

		resp, err := l.llm.Generate(ctx, req)
		if err != nil {
			if errors.Is(err, domain.ErrSafetyBlocked) {
				log.Info("reply blocked by content safety", "round", round)
				return SafetyFallback, nil
			}
			return "", fmt.Errorf("chat generation (round %d): %w", round, err)
		}

		if !resp.HasFunctionCalls() {
			log.Info("chat completed", "rounds", round)
			return resp.Text, nil
		}

		log.Info("model requested tools",
			"round", round,
			"calls", len(resp.FunctionCalls))

		// Echo the model's request into history, then answer it with
		// the tool results as the next user-side turn.
		turns = append(turns, functionCallTurn(resp.FunctionCalls))
		responses := l.registry.Dispatch(ctx, in.UserID, resp.FunctionCalls)
		turns = append(turns, functionResponseTurn(responses))
	}

	log.Warn("chat aborted at round ceiling", "max_rounds", maxRounds)
	return MaxLoopsFallback, nil
}

// SanitizeHistory drops a leading model-authored turn so the dialogue
// always opens from the user side.
func SanitizeHistory(history []domain.Turn) []domain.Turn {
	if len(history) > 0 && history[0].Role == domain.RoleModel {
		history = history[1:]
	}
	out := make([]domain.Turn, len(history))
	copy(out, history)
	return out
}

// enrichMessage appends recent-diary context and, for medication-related
// messages, the supplied medication list. Both are best-effort.
func (l *Loop) enrichMessage(ctx context.Context, in RunInput) string {
	var b strings.Builder
	b.WriteString(in.Message)

	if diaryCtx := l.recentDiaryContext(ctx, in.UserID); diaryCtx != "" {
		b.WriteString(diaryCtx)
	}

	if len(in.MedicationContext) > 0 && isMedicineRelated(in.Message) {
		b.WriteString("\n\nユーザーが服用中の薬: ")
		b.WriteString(strings.Join(in.MedicationContext, "、"))
	}

	return b.String()
}

func (l *Loop) recentDiaryContext(ctx context.Context, userID domain.UserID) string {
	log := observability.LoggerFromContext(ctx)

	entries, err := l.logs.ListRecentDiaryLogs(ctx, userID, recentLogContextCount)
	if err != nil {
		log.Warn("failed to fetch recent logs for chat context", "error", err)
		return ""
	}
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n参考：ユーザーの最近の日記:")
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("\n- %s (気分: %.1f/5)",
			e.Timestamp.Format("2006-01-02"), e.EffectiveMoodScore()))
		if e.DiaryText != "" {
			b.WriteString(" " + e.DiaryText)
		}
		if len(e.SelectedEvents) > 0 {
			b.WriteString(" [" + strings.Join(e.SelectedEvents, "、") + "]")
		}
	}
	return b.String()
}

func isMedicineRelated(message string) bool {
	for _, kw := range medicineKeywords {
		if strings.Contains(message, kw) {
			return true
		}
	}
	return false
}

func functionCallTurn(calls []domain.FunctionCall) domain.Turn {
	parts := make([]domain.Part, len(calls))
	for i := range calls {
		parts[i] = domain.Part{FunctionCall: &calls[i]}
	}
	return domain.Turn{Role: domain.RoleModel, Parts: parts}
}

func functionResponseTurn(responses []domain.FunctionResponse) domain.Turn {
	parts := make([]domain.Part, len(responses))
	for i := range responses {
		parts[i] = domain.Part{FunctionResponse: &responses[i]}
	}
	return domain.Turn{Role: domain.RoleUser, Parts: parts}
}
