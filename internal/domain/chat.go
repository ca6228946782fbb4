package domain

// FunctionCall is the model's structured request to invoke a named tool.
type FunctionCall struct {
	Name string
	Args map[string]any
}

// FunctionResponse feeds one tool result back into the conversation.
type FunctionResponse struct {
	Name     string
	Response map[string]any
}

// Part is one piece of a turn: exactly one of the fields is set.
type Part struct {
	Text             string
	FunctionCall     *FunctionCall
	FunctionResponse *FunctionResponse
}

// Turn is one entry in a chat history.
type Turn struct {
	Role  ChatRole
	Parts []Part
}

// TextTurn builds a plain-text turn.
func TextTurn(role ChatRole, text string) Turn {
	return Turn{Role: role, Parts: []Part{{Text: text}}}
}

// Text concatenates the text parts of a turn.
func (t Turn) Text() string {
	var out string
	for _, p := range t.Parts {
		out += p.Text
	}
	return out
}

// Schema is the parameter schema of a tool declaration. It mirrors the
// subset of OpenAPI the model API accepts.
type Schema struct {
	Type        string // "object", "string", ...
	Description string
	Properties  map[string]*Schema
	Required    []string
}

// ToolDeclaration describes a callable the model may request.
type ToolDeclaration struct {
	Name        string
	Description string
	Parameters  *Schema
}

// GenerateRequest is one stateless model call.
type GenerateRequest struct {
	SystemInstruction string
	Turns             []Turn
	Tools             []ToolDeclaration
	Temperature       *float32
	MaxOutputTokens   int32
}

// GenerateResponse is either a text completion or a set of
// tool-invocation requests (the two are mutually exclusive in
// practice; tool calls win when both are present).
type GenerateResponse struct {
	Text          string
	FunctionCalls []FunctionCall
}

// HasFunctionCalls reports whether the model asked for tools.
func (r *GenerateResponse) HasFunctionCalls() bool {
	return len(r.FunctionCalls) > 0
}
