package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"smartbiz.ai/advisor/internal/metrics"
	"smartbiz.ai/advisor/internal/store"
)

var (
	ErrBlankPrompt   = errors.New("prompt cannot be empty")
	ErrAwaitingReply = errors.New("a reply is still pending for this session")
)

const persistTimeout = 10 * time.Second

type SessionState int

const (
	StateReady SessionState = iota
	StateAwaitingReply
)

func (s SessionState) String() string {
	if s == StateAwaitingReply {
		return "awaiting_reply"
	}
	return "ready"
}

// HistoryAppender stores one exchange in a user's chat history.
type HistoryAppender interface {
	AppendChat(ctx context.Context, userID, userMessage, aiResponse string) error
}

type SessionOptions struct {
	ID          string
	UserID      string // empty for anonymous sessions, which are never persisted
	DisplayName string
	Completion  CompletionClient
	History     HistoryAppender
	Logger      zerolog.Logger
	Now         func() time.Time
}

// Session owns the ordered turns of one conversation. Only one submission
// may be in flight at a time, which keeps replies in submission order.
type Session struct {
	id          string
	userID      string
	displayName string
	completion  CompletionClient
	history     HistoryAppender
	log         zerolog.Logger
	now         func() time.Time

	mu    sync.Mutex
	turns []Turn
	state SessionState
}

// Exchange is the pair of turns produced by one Submit.
type Exchange struct {
	UserTurn      Turn `json:"user_turn"`
	AssistantTurn Turn `json:"assistant_turn"`
	Fallback      bool `json:"fallback"`
}

func NewSession(opts SessionOptions) *Session {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	completion := opts.Completion
	if completion == nil {
		completion = UnavailableClient{}
	}
	s := &Session{
		id:          opts.ID,
		userID:      opts.UserID,
		displayName: opts.DisplayName,
		completion:  completion,
		history:     opts.History,
		log:         opts.Logger.With().Str("session_id", opts.ID).Logger(),
		now:         now,
	}
	s.turns = []Turn{s.greetingTurn()}
	return s
}

func (s *Session) ID() string     { return s.id }
func (s *Session) UserID() string { return s.userID }

// Greeting is the assistant turn every session starts with.
func Greeting(displayName string) string {
	intro := "I'm SmartBiz AI. Ask me about any business idea, and I'll provide detailed analysis including market potential, investment requirements, and success probability."
	if displayName == "" {
		return "Hello! " + intro
	}
	return fmt.Sprintf("Hello %s! 👋 %s", displayName, intro)
}

func (s *Session) greetingTurn() Turn {
	return newTurn(AuthorAssistant, Greeting(s.displayName), s.now())
}

// Turns returns a copy of the conversation in display order.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LatestAssistantText is read by the text-to-speech side channel.
func (s *Session) LatestAssistantText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.turns) - 1; i >= 0; i-- {
		if s.turns[i].Author == AuthorAssistant {
			return s.turns[i].Text
		}
	}
	return ""
}

// LoadHistory replaces the conversation with the greeting followed by one
// user/assistant pair per stored entry, in stored order.
func (s *Session) LoadHistory(entries []store.ChatEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateAwaitingReply {
		return ErrAwaitingReply
	}

	turns := make([]Turn, 0, 1+2*len(entries))
	turns = append(turns, s.greetingTurn())
	for _, e := range entries {
		at := e.Timestamp
		if at.IsZero() {
			at = s.now()
		}
		turns = append(turns,
			newTurn(AuthorUser, e.UserMessage, at),
			newTurn(AuthorAssistant, e.AIResponse, at),
		)
	}
	s.turns = turns
	return nil
}

// Submit appends the user's prompt and the resolved reply. Completion
// failures are answered by Fallback; persistence failures are only logged.
func (s *Session) Submit(ctx context.Context, prompt string) (Exchange, error) {
	if strings.TrimSpace(prompt) == "" {
		return Exchange{}, ErrBlankPrompt
	}

	s.mu.Lock()
	if s.state == StateAwaitingReply {
		s.mu.Unlock()
		return Exchange{}, ErrAwaitingReply
	}
	s.state = StateAwaitingReply
	userTurn := newTurn(AuthorUser, prompt, s.now())
	s.turns = append(s.turns, userTurn)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.state = StateReady
		s.mu.Unlock()
	}()

	reply, fellBack := resolveReply(ctx, s.completion, prompt, s.log)

	s.mu.Lock()
	assistantTurn := newTurn(AuthorAssistant, reply, s.now())
	s.turns = append(s.turns, assistantTurn)
	s.mu.Unlock()

	s.persist(ctx, prompt, reply)

	return Exchange{UserTurn: userTurn, AssistantTurn: assistantTurn, Fallback: fellBack}, nil
}

func (s *Session) persist(ctx context.Context, prompt, reply string) {
	if s.userID == "" || s.history == nil {
		return
	}
	// The write outlives a cancelled request; the turns are already shown.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.history.AppendChat(ctx, s.userID, prompt, reply); err != nil {
		metrics.PersistenceFailuresTotal.Inc()
		s.log.Error().Err(err).Str("user_id", s.userID).Msg("Error saving chat")
	}
}

// resolveReply asks the completion client and substitutes the canned
// analysis when it fails.
func resolveReply(ctx context.Context, client CompletionClient, prompt string, log zerolog.Logger) (string, bool) {
	text, err := client.Complete(ctx, prompt)
	if err == nil {
		metrics.CompletionsTotal.WithLabelValues(metrics.OutcomeSuccess, "").Inc()
		return text, false
	}

	topic := FallbackTopic(prompt)
	log.Warn().Err(err).Str("client", client.Name()).Str("topic", topic).Msg("Completion failed, using fallback analysis")
	metrics.CompletionsTotal.WithLabelValues(metrics.OutcomeFallback, topic).Inc()
	return Fallback(prompt), true
}
