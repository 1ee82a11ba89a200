package llm

import "context"

// GenerateRequest is one judgment call: a prompt, an optional image to attach
// inline, and sampling controls.
type GenerateRequest struct {
	Prompt      string
	ImagePath   string // optional; attached as a base64 data URL when set
	Temperature float64
	MaxTokens   int // 0 -> client default
}

// TextGenerator is the judgment capability the pipeline depends on.
type TextGenerator interface {
	GenerateText(ctx context.Context, req GenerateRequest) (string, error)
}
