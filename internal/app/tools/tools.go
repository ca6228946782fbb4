package tools

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kokoron/kokoron-backend/internal/domain"
	"github.com/kokoron/kokoron-backend/internal/observability"
)

// Tool is one named callable the model may request. Call never returns
// an error: failures degrade to an {"error": ...} payload so a broken
// tool cannot take down the conversation.
type Tool interface {
	Name() string
	Declaration() domain.ToolDeclaration
	Call(ctx context.Context, userID domain.UserID, args map[string]any) map[string]any
}

// Registry holds the tools exposed to the agent loop.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Declarations lists every tool schema in registration order.
func (r *Registry) Declarations() []domain.ToolDeclaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ToolDeclaration, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Declaration())
	}
	return out
}

// Dispatch executes all requested calls concurrently and returns one
// response per call, in request order. An unknown tool resolves to an
// error payload like any other tool failure.
func (r *Registry) Dispatch(ctx context.Context, userID domain.UserID, calls []domain.FunctionCall) []domain.FunctionResponse {
	log := observability.LoggerFromContext(ctx).With("user_id", userID)

	responses := make([]domain.FunctionResponse, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		g.Go(func() error {
			log.Info("executing tool", "tool", call.Name, "args", call.Args)
			responses[i] = domain.FunctionResponse{
				Name:     call.Name,
				Response: r.call(gctx, userID, call),
			}
			return nil
		})
	}
	_ = g.Wait() // workers never error; Wait is the join barrier

	return responses
}

func (r *Registry) call(ctx context.Context, userID domain.UserID, call domain.FunctionCall) map[string]any {
	r.mu.RLock()
	tool, ok := r.tools[call.Name]
	r.mu.RUnlock()

	if !ok {
		return map[string]any{
			"error": fmt.Sprintf("The tool '%s' is not available.", call.Name),
		}
	}
	return tool.Call(ctx, userID, call.Args)
}
