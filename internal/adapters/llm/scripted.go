package llm

import (
	"context"
	"sync"

	"github.com/kokoron/kokoron-backend/internal/domain"
)

// ScriptedClient is a domain.LLMClient for local mode and tests: it
// replays a queue of scripted responses and records every request.
type ScriptedClient struct {
	mu        sync.Mutex
	responses []ScriptedResponse
	requests  []domain.GenerateRequest

	// Default is returned once the queue is exhausted (or when no
	// script was given at all).
	Default string
}

// ScriptedResponse is one step of the script.
type ScriptedResponse struct {
	Text          string
	FunctionCalls []domain.FunctionCall
	Err           error
}

func NewScriptedClient(responses ...ScriptedResponse) *ScriptedClient {
	return &ScriptedClient{
		responses: responses,
		Default:   "そうなんだね。もう少し聞かせてほしいワン。",
	}
}

// Generate pops the next scripted response.
func (c *ScriptedClient) Generate(_ context.Context, req domain.GenerateRequest) (*domain.GenerateResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, req)

	if len(c.responses) == 0 {
		return &domain.GenerateResponse{Text: c.Default}, nil
	}

	next := c.responses[0]
	c.responses = c.responses[1:]

	if next.Err != nil {
		return nil, next.Err
	}
	return &domain.GenerateResponse{
		Text:          next.Text,
		FunctionCalls: next.FunctionCalls,
	}, nil
}

// Requests returns a copy of every request seen so far.
func (c *ScriptedClient) Requests() []domain.GenerateRequest {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.GenerateRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// CallCount returns how many times Generate ran.
func (c *ScriptedClient) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.requests)
}
