package llm_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/require"

	"github.com/keatteoh99/medrock/internal/llm"
)

type mockRuntime struct {
	captured *bedrockruntime.InvokeModelInput
	body     string
	err      error
}

func (m *mockRuntime) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	m.captured = params
	if m.err != nil {
		return nil, m.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(m.body)}, nil
}

func TestGenerateSendsNovaEnvelope(t *testing.T) {
	mock := &mockRuntime{body: `{"output":{"message":{"content":[{"text":"hello"}]}}}`}
	client, err := llm.NewBedrockClient(mock, "amazon.nova-lite-v1:0")
	require.NoError(t, err)

	got, err := client.Generate(context.Background(), "hi", llm.InferenceConfig{
		MaxTokens:   300,
		Temperature: 0.3,
		TopP:        0.9,
	})
	require.NoError(t, err)
	require.Equal(t, "hello", got)

	require.Equal(t, "amazon.nova-lite-v1:0", *mock.captured.ModelId)
	require.Equal(t, "application/json", *mock.captured.ContentType)
	require.Equal(t, "application/json", *mock.captured.Accept)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(mock.captured.Body, &sent))
	msgs := sent["messages"].([]any)
	require.Len(t, msgs, 1)
	first := msgs[0].(map[string]any)
	require.Equal(t, "user", first["role"])
	cfg := sent["inferenceConfig"].(map[string]any)
	require.InDelta(t, 300.0, cfg["maxTokens"], 0.001)
	require.InDelta(t, 0.3, cfg["temperature"], 0.001)
	require.InDelta(t, 0.9, cfg["topP"], 0.001)
}

func TestGenerateEmptyEnvelopeLevels(t *testing.T) {
	for _, body := range []string{
		`{}`,
		`{"output":null}`,
		`{"output":{}}`,
		`{"output":{"message":{}}}`,
		`{"output":{"message":{"content":[]}}}`,
	} {
		mock := &mockRuntime{body: body}
		client, err := llm.NewBedrockClient(mock, "m")
		require.NoError(t, err)
		got, err := client.Generate(context.Background(), "hi", llm.InferenceConfig{MaxTokens: 10})
		require.NoError(t, err, "body %s", body)
		require.Empty(t, got, "body %s", body)
	}
}

func TestGenerateWrapsBackendFailure(t *testing.T) {
	mock := &mockRuntime{err: errors.New("connection reset")}
	client, err := llm.NewBedrockClient(mock, "m")
	require.NoError(t, err)
	_, err = client.Generate(context.Background(), "hi", llm.InferenceConfig{MaxTokens: 10})
	require.ErrorIs(t, err, llm.ErrUnavailable)
}

func TestNewBedrockClientValidation(t *testing.T) {
	_, err := llm.NewBedrockClient(nil, "m")
	require.Error(t, err)
	_, err = llm.NewBedrockClient(&mockRuntime{}, "")
	require.Error(t, err)
}
