package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/aws/smithy-go"

	"github.com/keatteoh99/medrock/pkg"
)

var (
	// ErrChunkDecode marks a streamed text chunk that is not valid UTF-8.
	ErrChunkDecode = errors.New("chunk is not valid UTF-8")

	// ErrUnavailable marks a failure reaching the agent backend.
	ErrUnavailable = errors.New("agent backend unavailable")
)

// Event is one element of a turn's event stream: either a text chunk or a
// return-control pause, never both.
type Event struct {
	Chunk         string
	ReturnControl *ReturnControl
}

// ReturnControl wraps the decoded return-control payload.
type ReturnControl struct {
	Payload pkg.ReturnControlRequest
}

// ActionGroup returns the action group of the first requested invocation.
func (rc *ReturnControl) ActionGroup() string {
	if len(rc.Payload.InvocationInputs) == 0 {
		return ""
	}
	return rc.Payload.InvocationInputs[0].ActionGroup
}

// Function returns the function name of the first requested invocation.
func (rc *ReturnControl) Function() string {
	if len(rc.Payload.InvocationInputs) == 0 {
		return ""
	}
	return rc.Payload.InvocationInputs[0].Function
}

// EventStream yields the events of one agent turn in arrival order. Next
// returns io.EOF after the final event.
type EventStream interface {
	Next() (Event, error)
	Close() error
}

// Gateway starts and resumes agent turns. Implementations translate the
// backend's wire protocol into Events.
type Gateway interface {
	Start(ctx context.Context, sessionID, prompt string) (EventStream, error)
	Resume(ctx context.Context, sessionID string, res Result) (EventStream, error)
}

// AgentAPI is the slice of the Bedrock agent runtime client the gateway
// uses. *bedrockagentruntime.Client satisfies it.
type AgentAPI interface {
	InvokeAgent(ctx context.Context, params *bedrockagentruntime.InvokeAgentInput, optFns ...func(*bedrockagentruntime.Options)) (*bedrockagentruntime.InvokeAgentOutput, error)
}

// BedrockGateway drives turns against a Bedrock agent alias.
type BedrockGateway struct {
	api     AgentAPI
	agentID string
	aliasID string
}

// NewBedrockGateway returns a gateway bound to one agent alias.
func NewBedrockGateway(api AgentAPI, agentID, aliasID string) (*BedrockGateway, error) {
	if api == nil {
		return nil, errors.New("agent: nil api")
	}
	if agentID == "" || aliasID == "" {
		return nil, errors.New("agent: agent and alias IDs are required")
	}
	return &BedrockGateway{api: api, agentID: agentID, aliasID: aliasID}, nil
}

// Start opens a new turn with free-form input text.
func (g *BedrockGateway) Start(ctx context.Context, sessionID, prompt string) (EventStream, error) {
	return g.invoke(ctx, &bedrockagentruntime.InvokeAgentInput{
		AgentId:      aws.String(g.agentID),
		AgentAliasId: aws.String(g.aliasID),
		SessionId:    aws.String(sessionID),
		InputText:    aws.String(prompt),
		EnableTrace:  aws.Bool(false),
	})
}

// Resume continues a paused turn by feeding the function result back under
// the pending invocation ID. The input carries session state instead of
// text.
func (g *BedrockGateway) Resume(ctx context.Context, sessionID string, res Result) (EventStream, error) {
	return g.invoke(ctx, &bedrockagentruntime.InvokeAgentInput{
		AgentId:      aws.String(g.agentID),
		AgentAliasId: aws.String(g.aliasID),
		SessionId:    aws.String(sessionID),
		EnableTrace:  aws.Bool(false),
		SessionState: &types.SessionState{
			InvocationId: aws.String(res.InvocationID),
			ReturnControlInvocationResults: []types.InvocationResultMember{
				&types.InvocationResultMemberMemberFunctionResult{
					Value: types.FunctionResult{
						ActionGroup: aws.String(res.ActionGroup),
						Function:    aws.String(res.Function),
						ResponseBody: map[string]types.ContentBody{
							"TEXT": {Body: aws.String(res.ResultText)},
						},
					},
				},
			},
		},
	})
}

func (g *BedrockGateway) invoke(ctx context.Context, in *bedrockagentruntime.InvokeAgentInput) (EventStream, error) {
	out, err := g.api.InvokeAgent(ctx, in)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("invoke agent: %s: %w", apiErr.ErrorCode(), ErrUnavailable)
		}
		return nil, fmt.Errorf("invoke agent: %w", err)
	}
	return &wireStream{stream: out.GetStream()}, nil
}

// wireStream adapts the SDK event stream to EventStream, skipping trace
// events.
type wireStream struct {
	stream *bedrockagentruntime.InvokeAgentEventStream
}

func (w *wireStream) Next() (Event, error) {
	for raw := range w.stream.Events() {
		ev, ok, err := decodeEvent(raw)
		if err != nil {
			return Event{}, err
		}
		if ok {
			return ev, nil
		}
	}
	if err := w.stream.Err(); err != nil {
		return Event{}, fmt.Errorf("agent stream: %w", err)
	}
	return Event{}, io.EOF
}

func (w *wireStream) Close() error {
	return w.stream.Close()
}

// decodeEvent translates one wire event. The second return is false for
// event kinds the protocol ignores, such as traces.
func decodeEvent(raw types.ResponseStream) (Event, bool, error) {
	switch v := raw.(type) {
	case *types.ResponseStreamMemberChunk:
		if !utf8.Valid(v.Value.Bytes) {
			return Event{}, false, fmt.Errorf("decode event: %w", ErrChunkDecode)
		}
		return Event{Chunk: string(v.Value.Bytes)}, true, nil
	case *types.ResponseStreamMemberReturnControl:
		return Event{ReturnControl: decodeReturnControl(v.Value)}, true, nil
	default:
		return Event{}, false, nil
	}
}

func decodeReturnControl(p types.ReturnControlPayload) *ReturnControl {
	rc := &ReturnControl{
		Payload: pkg.ReturnControlRequest{
			InvocationID: aws.ToString(p.InvocationId),
		},
	}
	for _, in := range p.InvocationInputs {
		fn, ok := in.(*types.InvocationInputMemberMemberFunctionInvocationInput)
		if !ok {
			continue
		}
		inv := pkg.FunctionInvocation{
			ActionGroup: aws.ToString(fn.Value.ActionGroup),
			Function:    aws.ToString(fn.Value.Function),
		}
		for _, param := range fn.Value.Parameters {
			inv.Parameters = append(inv.Parameters, pkg.FunctionParameter{
				Name:  aws.ToString(param.Name),
				Type:  aws.ToString(param.Type),
				Value: aws.ToString(param.Value),
			})
		}
		rc.Payload.InvocationInputs = append(rc.Payload.InvocationInputs, inv)
	}
	return rc
}
