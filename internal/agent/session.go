// Package agent implements the continuation protocol for a tool-augmented
// agent conversation. A turn streams text chunks until the agent either
// finishes or pauses with a return-control event asking the caller to
// execute a function; the session then parks until the caller supplies the
// result, correlated by the (invocationId, actionGroup, function) triple.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

var (
	// ErrCorrelationMismatch marks a resume attempt with nothing pending or
	// with correlation fields that do not match the pending invocation. The
	// session state is unchanged.
	ErrCorrelationMismatch = errors.New("invocation result does not match pending invocation")

	// ErrPendingInvocation marks a new turn started while the session is
	// still waiting for an invocation result.
	ErrPendingInvocation = errors.New("session has a pending invocation")

	// ErrTurnExpired marks a resume attempt after the pending invocation was
	// expired by the idle sweep.
	ErrTurnExpired = errors.New("pending invocation expired")
)

// State is the session's continuation state.
type State int

const (
	// StateIdle means no invocation is outstanding; StartTurn is valid.
	StateIdle State = iota
	// StateAwaitingResult means a return-control event was recorded and the
	// session only accepts a matching ResumeTurn.
	StateAwaitingResult
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResult:
		return "awaiting_result"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// PendingInvocation is the correlation triple recorded when the agent hands
// control back. All three fields must match exactly on resume; session-id
// matching alone would let a caller complete the wrong pending call when
// multiple action groups are in flight, or replay a stale result.
type PendingInvocation struct {
	InvocationID string
	ActionGroup  string
	Function     string
}

// Result is the caller-supplied outcome of a client-executed function call.
type Result struct {
	InvocationID string
	ActionGroup  string
	Function     string
	ResultText   string
}

// TurnResult is what one drained turn produced: the concatenated streamed
// text, and the return-control payload when the agent paused instead of
// finishing.
type TurnResult struct {
	Completion    string
	ReturnControl *ReturnControl
}

// Session owns one conversation's continuation state. Methods are safe for
// concurrent use, but the protocol itself is sequential: one outstanding
// turn per session at a time.
type Session struct {
	id string
	gw Gateway

	mu       sync.Mutex
	state    State
	pending  *PendingInvocation
	payload  *ReturnControl
	buf      strings.Builder
	parkedAt time.Time
	expired  bool
}

// NewSession creates a session in the Idle state. The id is caller-supplied
// and stable for the conversation's lifetime.
func NewSession(id string, gw Gateway) *Session {
	return &Session{id: id, gw: gw}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// State returns the current continuation state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pending returns the recorded correlation triple, if any.
func (s *Session) Pending() (PendingInvocation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return PendingInvocation{}, false
	}
	return *s.pending, true
}

// Accumulated returns the text streamed so far in the current turn.
func (s *Session) Accumulated() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// StartTurn sends a prompt to the agent and drains the resulting event
// stream. Valid only in Idle; a session parked on a pending invocation must
// be resumed (or expire) first.
func (s *Session) StartTurn(ctx context.Context, prompt string) (TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return TurnResult{}, fmt.Errorf("start turn: %w", ErrPendingInvocation)
	}
	stream, err := s.gw.Start(ctx, s.id, prompt)
	if err != nil {
		return TurnResult{}, fmt.Errorf("start turn: %w", err)
	}
	s.expired = false
	return s.drain(stream)
}

// ResumeTurn completes the pending invocation with the caller's result and
// drains the continuation stream. It fails with ErrCorrelationMismatch, the
// session untouched, when nothing is pending or any correlation field
// differs. A resume is never valid for a turn that did not request control.
func (s *Session) ResumeTurn(ctx context.Context, res Result) (TurnResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingResult {
		if s.expired {
			return TurnResult{}, fmt.Errorf("resume turn: %w", ErrTurnExpired)
		}
		return TurnResult{}, fmt.Errorf("resume turn: no pending invocation: %w", ErrCorrelationMismatch)
	}
	p := s.pending
	if res.InvocationID != p.InvocationID || res.ActionGroup != p.ActionGroup || res.Function != p.Function {
		return TurnResult{}, fmt.Errorf(
			"resume turn: got (%s, %s, %s), want (%s, %s, %s): %w",
			res.InvocationID, res.ActionGroup, res.Function,
			p.InvocationID, p.ActionGroup, p.Function,
			ErrCorrelationMismatch,
		)
	}
	stream, err := s.gw.Resume(ctx, s.id, res)
	if err != nil {
		// Backend failure: the invocation stays pending so the caller may
		// retry the resume.
		return TurnResult{}, fmt.Errorf("resume turn: %w", err)
	}
	s.pending = nil
	s.payload = nil
	s.state = StateIdle
	return s.drain(stream)
}

// drain consumes the stream to completion, concatenating chunk text in
// arrival order and recording the first return-control event. Chunks after
// a return-control event are ignored: a well-behaved backend does not send
// them, and appending text of ambiguous ownership would corrupt the turn.
// The park is committed only once the stream ends cleanly; a stream error
// leaves the session Idle, since the caller never received the invocation
// it would otherwise be parked on. Callers hold s.mu.
func (s *Session) drain(stream EventStream) (TurnResult, error) {
	defer func() { _ = stream.Close() }()
	s.buf.Reset()
	var rc *ReturnControl
	for {
		ev, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.buf.Reset()
			return TurnResult{}, err
		}
		switch {
		case ev.ReturnControl != nil:
			if rc == nil {
				rc = ev.ReturnControl
			}
		case rc != nil:
			// chunk after return control
		default:
			s.buf.WriteString(ev.Chunk)
		}
	}
	if rc != nil {
		s.payload = rc
		s.pending = &PendingInvocation{
			InvocationID: rc.Payload.InvocationID,
			ActionGroup:  rc.ActionGroup(),
			Function:     rc.Function(),
		}
		s.state = StateAwaitingResult
		s.parkedAt = time.Now()
	}
	return TurnResult{Completion: s.buf.String(), ReturnControl: rc}, nil
}

// expireIfParkedBefore resets a session parked in AwaitingResult since
// before the cutoff back to Idle. The next resume attempt then reports
// ErrTurnExpired instead of a mismatch. Reports whether the session expired.
func (s *Session) expireIfParkedBefore(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateAwaitingResult || !s.parkedAt.Before(cutoff) {
		return false
	}
	s.state = StateIdle
	s.pending = nil
	s.payload = nil
	s.buf.Reset()
	s.expired = true
	return true
}
