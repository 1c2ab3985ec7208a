package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "models/gemini-2.5-flash"

// ErrEmptyReply is returned when the model responds without any text content.
var ErrEmptyReply = errors.New("model returned an empty reply")

// GeminiCompleter implements Completer on top of the Gemini API.
type GeminiCompleter struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiCompleter creates a completer for the given model. A zero timeout
// disables the per-call deadline.
func NewGeminiCompleter(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiCompleter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	if model == "" {
		model = DefaultModel
	}
	return &GeminiCompleter{client: client, model: model, timeout: timeout}, nil
}

// Complete sends the full transcript and returns the assistant reply text.
// The leading system turn becomes the system instruction; the rest map to
// user/model contents in order.
func (gc *GeminiCompleter) Complete(ctx context.Context, transcript []Turn) (string, error) {
	if gc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gc.timeout)
		defer cancel()
	}

	system, contents := toContents(transcript)

	resp, err := gc.client.Models.GenerateContent(ctx, gc.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: system,
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// toContents maps the transcript onto the SDK's shape: the leading system
// turn becomes the system instruction, assistant turns become model contents.
func toContents(transcript []Turn) (system *genai.Content, contents []*genai.Content) {
	contents = make([]*genai.Content, 0, len(transcript))
	for _, turn := range transcript {
		switch turn.Role {
		case RoleSystem:
			system = genai.NewContentFromText(turn.Content, genai.RoleUser)
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(turn.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(turn.Content, genai.RoleUser))
		}
	}
	return system, contents
}
