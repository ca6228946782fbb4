package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/kokoron/kokoron-backend/internal/domain"
)

// GeminiClient implements domain.LLMClient on top of the Gemini API
// (Vertex AI backend in gcp mode).
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates the client. projectID/location select the
// Vertex backend; modelName defaults upstream via config.
func NewGeminiClient(ctx context.Context, projectID, location, modelName string) (*GeminiClient, error) {
	if projectID == "" || location == "" {
		return nil, fmt.Errorf("projectID and location are required for the Gemini client")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// Generate implements domain.LLMClient.
func (c *GeminiClient) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.GenerateResponse, error) {
	contents := make([]*genai.Content, 0, len(req.Turns))
	for _, turn := range req.Turns {
		contents = append(contents, toContent(turn))
	}

	cfg := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.Temperature != nil {
		cfg.Temperature = req.Temperature
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = req.MaxOutputTokens
	}
	if len(req.Tools) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: toDeclarations(req.Tools)}}
	}

	res, err := c.client.Models.GenerateContent(ctx, c.modelName, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	if blocked(res) {
		return nil, domain.ErrSafetyBlocked
	}

	out := &domain.GenerateResponse{Text: res.Text()}
	for _, fc := range res.FunctionCalls() {
		out.FunctionCalls = append(out.FunctionCalls, domain.FunctionCall{
			Name: fc.Name,
			Args: fc.Args,
		})
	}

	if out.Text == "" && len(out.FunctionCalls) == 0 {
		return nil, fmt.Errorf("gemini returned neither text nor function calls")
	}
	return out, nil
}

func toContent(turn domain.Turn) *genai.Content {
	role := genai.RoleUser
	if turn.Role == domain.RoleModel {
		role = genai.RoleModel
	}

	parts := make([]*genai.Part, 0, len(turn.Parts))
	for _, p := range turn.Parts {
		switch {
		case p.FunctionCall != nil:
			parts = append(parts, genai.NewPartFromFunctionCall(p.FunctionCall.Name, p.FunctionCall.Args))
		case p.FunctionResponse != nil:
			parts = append(parts, genai.NewPartFromFunctionResponse(p.FunctionResponse.Name, p.FunctionResponse.Response))
		default:
			parts = append(parts, genai.NewPartFromText(p.Text))
		}
	}

	return &genai.Content{Role: string(role), Parts: parts}
}

func toDeclarations(tools []domain.ToolDeclaration) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		out = append(out, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  toSchema(t.Parameters),
		})
	}
	return out
}

func toSchema(s *domain.Schema) *genai.Schema {
	if s == nil {
		return nil
	}

	out := &genai.Schema{
		Description: s.Description,
		Required:    s.Required,
	}
	switch s.Type {
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeObject
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toSchema(prop)
		}
	}
	return out
}

func blocked(res *genai.GenerateContentResponse) bool {
	if res.PromptFeedback != nil && res.PromptFeedback.BlockReason != "" {
		return true
	}
	for _, cand := range res.Candidates {
		if cand.FinishReason == genai.FinishReasonSafety {
			return true
		}
	}
	return false
}
