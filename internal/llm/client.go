package llm

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"github.com/roamwise/go-trip-planner/app/observability/metrics"
	"github.com/roamwise/go-trip-planner/internal/types"
)

const defaultChatTimeout = 60 * time.Second

// ChatClient is the chat-completion collaborator consumed by the router and
// agents. Implementations must be synchronous; callers treat every call as
// fallible and degrade on error.
type ChatClient interface {
	Chat(ctx context.Context, messages []types.Message, temperature float32) (string, error)
}

var _ ChatClient = (*GeminiClient)(nil)

// GeminiClient talks to the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient builds the production chat client. A missing API key is a
// configuration failure and aborts the caller: no data can ever be fetched
// without it.
func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	ctx, span := otel.Tracer("LLM").Start(ctx, "NewGeminiClient")
	defer span.End()

	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		err := fmt.Errorf("GOOGLE_GEMINI_API_KEY environment variable is not set")
		span.RecordError(err)
		span.SetStatus(codes.Error, "API key not set")
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create Gemini client")
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	span.SetStatus(codes.Ok, "Chat client created successfully")
	return &GeminiClient{client: client, model: model}, nil
}

// Chat sends the ordered message sequence and returns the raw reply text.
// System messages become the system instruction; assistant turns map to the
// "model" role.
func (g *GeminiClient) Chat(ctx context.Context, messages []types.Message, temperature float32) (string, error) {
	ctx, span := otel.Tracer("LLM").Start(ctx, "Chat", trace.WithAttributes(
		attribute.String("model", g.model),
		attribute.Int("messages.count", len(messages)),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, defaultChatTimeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](temperature),
	}

	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case types.RoleSystem:
			config.SystemInstruction = &genai.Content{
				Parts: []*genai.Part{{Text: m.Content}},
			}
		case types.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: m.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}

	start := time.Now()
	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	metrics.Get().ChatDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to generate content")
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	responseText := result.Text()
	if responseText == "" {
		err := fmt.Errorf("no content in chat response")
		span.RecordError(err)
		span.SetStatus(codes.Error, "Empty response")
		return "", err
	}

	span.SetAttributes(attribute.Int("response.length", len(responseText)))
	span.SetStatus(codes.Ok, "Content generated successfully")
	return responseText, nil
}
