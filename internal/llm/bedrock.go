// Package llm provides the language-model backend client used by the chat
// and triage components. The backend is AWS Bedrock's InvokeModel API with
// the Nova chat envelope: a messages list in, a nested output/message/content
// envelope out. Every level of that envelope is optional on the wire, so the
// response types carry explicit pointers and FirstText walks them with
// explicit branches instead of speculative lookups.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	smithy "github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// ErrUnavailable marks a model call that failed or timed out. Callers decide
// whether to retry; the client never does.
var ErrUnavailable = errors.New("model backend unavailable")

// ModelAPI is the subset of the Bedrock runtime client used here. It matches
// *bedrockruntime.Client so tests can substitute a fake.
type ModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client is the narrow interface the chat and triage components depend on.
// Generate returns the first text segment of the model's reply, which may be
// empty when the model produced no text.
type Client interface {
	Generate(ctx context.Context, prompt string, cfg InferenceConfig) (string, error)
}

// InferenceConfig bounds a single generation request.
type InferenceConfig struct {
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// request is the Nova chat request envelope.
type request struct {
	Messages        []message       `json:"messages"`
	InferenceConfig inferenceConfig `json:"inferenceConfig"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Text string `json:"text"`
}

type inferenceConfig struct {
	MaxTokens   int     `json:"maxTokens"`
	Temperature float32 `json:"temperature"`
	TopP        float32 `json:"topP"`
}

// response mirrors the Nova reply envelope. Pointers mark the levels the
// backend may omit.
type response struct {
	Output *responseOutput `json:"output"`
}

type responseOutput struct {
	Message *responseMessage `json:"message"`
}

type responseMessage struct {
	Content []contentBlock `json:"content"`
}

// FirstText returns the first text segment of the envelope, or "" when any
// level is absent.
func (r response) FirstText() string {
	if r.Output == nil {
		return ""
	}
	if r.Output.Message == nil {
		return ""
	}
	if len(r.Output.Message.Content) == 0 {
		return ""
	}
	return r.Output.Message.Content[0].Text
}

// BedrockClient implements Client on top of Bedrock InvokeModel.
type BedrockClient struct {
	api     ModelAPI
	modelID string
}

// NewBedrockClient constructs a Bedrock-backed model client for the given
// model identifier (e.g. "amazon.nova-lite-v1:0").
func NewBedrockClient(api ModelAPI, modelID string) (*BedrockClient, error) {
	if api == nil {
		return nil, errors.New("llm: bedrock runtime client is required")
	}
	if modelID == "" {
		return nil, errors.New("llm: model identifier is required")
	}
	return &BedrockClient{api: api, modelID: modelID}, nil
}

// Generate sends a single user turn to the model and returns the first text
// segment of the reply. A failed or timed-out backend call is wrapped in
// ErrUnavailable and surfaced without retrying.
func (c *BedrockClient) Generate(ctx context.Context, prompt string, cfg InferenceConfig) (string, error) {
	body, err := json.Marshal(request{
		Messages: []message{
			{Role: "user", Content: []contentBlock{{Text: prompt}}},
		},
		InferenceConfig: inferenceConfig{
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm: encode request: %w", err)
	}
	out, err := c.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return "", wrapInvokeError(err)
	}
	var resp response
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return "", fmt.Errorf("llm: decode response envelope: %w", err)
	}
	return resp.FirstText(), nil
}

// wrapInvokeError classifies a Bedrock failure and wraps it in
// ErrUnavailable so callers can test with errors.Is without depending on
// AWS error types.
func wrapInvokeError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, apiErr.ErrorCode(), err)
	}
	var respErr *smithyhttp.ResponseError
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() >= http.StatusInternalServerError {
		return fmt.Errorf("%w: http %d: %w", ErrUnavailable, respErr.HTTPStatusCode(), err)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
