// Package chat covers the one-shot advisory calls: partner chat advice
// and communication coaching. The tool-augmented companion chat lives
// in package agent.
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/kokoron/kokoron-backend/internal/app/persona"
	"github.com/kokoron/kokoron-backend/internal/domain"
	"github.com/kokoron/kokoron-backend/internal/observability"
)

// PartnerAdviceFallback replaces a failed partner-advice model call.
const PartnerAdviceFallback = "申し訳ありません、現在AIチャットアドバイスを提供できません。少し時間をおいて再度お試しください。"

// CommunicationAdviceFallback replaces a failed coaching model call.
const CommunicationAdviceFallback = "申し訳ありません、現在AIによるアドバイスを提供できません。一般的な情報源を参考にするか、専門家にご相談ください。"

type Service struct {
	llm domain.LLMClient
}

func NewService(llm domain.LLMClient) *Service {
	return &Service{llm: llm}
}

// PartnerAdvice answers one turn of the partner-support chat. Model
// failures resolve to the fixed apology text, not an error.
func (s *Service) PartnerAdvice(ctx context.Context, userID domain.UserID, userMessage string, history []domain.Turn) (string, error) {
	log := observability.LoggerFromContext(ctx).With("user_id", userID)

	if strings.TrimSpace(userMessage) == "" {
		return "", fmt.Errorf("user message is required")
	}

	turns := append(append([]domain.Turn{}, history...),
		domain.TextTurn(domain.RoleUser, userMessage))

	temp := float32(0.7)
	resp, err := s.llm.Generate(ctx, domain.GenerateRequest{
		SystemInstruction: persona.PartnerAdvice,
		Turns:             turns,
		Temperature:       &temp,
	})
	if err != nil || resp.Text == "" {
		log.Error("partner advice generation failed", "error", err)
		return PartnerAdviceFallback, nil
	}
	return resp.Text, nil
}

// CommunicationAdvice is the parsed result of one coaching call.
type CommunicationAdvice struct {
	AdviceText     string
	ExamplePhrases []string
}

// GetCommunicationAdvice asks for structured coaching and parses the
// アドバイス： / 会話例・行動提案： sections out of the free-text reply.
func (s *Service) GetCommunicationAdvice(ctx context.Context, userID domain.UserID, situation, partnerQuery string) (*CommunicationAdvice, error) {
	log := observability.LoggerFromContext(ctx).With("user_id", userID)

	if strings.TrimSpace(situation) == "" {
		return nil, fmt.Errorf("situation is required")
	}

	var prompt strings.Builder
	prompt.WriteString("状況：" + situation)
	if strings.TrimSpace(partnerQuery) != "" {
		prompt.WriteString("\n具体的な悩みや質問：" + partnerQuery)
	}
	prompt.WriteString("\n\n上記の状況と悩みを踏まえて、アドバイスと具体的な会話例・行動提案をください。")

	resp, err := s.llm.Generate(ctx, domain.GenerateRequest{
		SystemInstruction: persona.CommunicationAdvice,
		Turns:             []domain.Turn{domain.TextTurn(domain.RoleUser, prompt.String())},
	})
	if err != nil || resp.Text == "" {
		log.Error("communication advice generation failed", "error", err)
		return &CommunicationAdvice{AdviceText: CommunicationAdviceFallback}, nil
	}

	return ParseCommunicationAdvice(resp.Text), nil
}

// ParseCommunicationAdvice splits the reply into advice body and bullet
// phrases. A reply that does not follow the section format comes back
// whole as the advice text.
func ParseCommunicationAdvice(raw string) *CommunicationAdvice {
	const (
		adviceMarker   = "アドバイス："
		examplesMarker = "会話例・行動提案："
	)

	out := &CommunicationAdvice{AdviceText: strings.TrimSpace(raw)}

	adviceIdx := strings.Index(raw, adviceMarker)
	examplesIdx := strings.Index(raw, examplesMarker)

	if adviceIdx != -1 {
		body := raw[adviceIdx+len(adviceMarker):]
		if examplesIdx > adviceIdx {
			body = raw[adviceIdx+len(adviceMarker) : examplesIdx]
		}
		if trimmed := strings.TrimSpace(body); trimmed != "" {
			out.AdviceText = trimmed
		}
	}

	if examplesIdx != -1 {
		for _, line := range strings.Split(raw[examplesIdx+len(examplesMarker):], "\n") {
			line = strings.TrimSpace(line)
			if !strings.HasPrefix(line, "- ") {
				continue
			}
			if phrase := strings.TrimSpace(strings.TrimPrefix(line, "- ")); phrase != "" {
				out.ExamplePhrases = append(out.ExamplePhrases, phrase)
			}
		}
	}

	return out
}
