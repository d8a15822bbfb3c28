package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"smartbiz.ai/advisor/internal/metrics"
	"smartbiz.ai/advisor/internal/store"
)

// ChatService keeps the live sessions of signed-in users and answers
// one-off prompts for the public proxy route.
type ChatService struct {
	completion CompletionClient
	dbStore    store.Store
	log        zerolog.Logger
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]sessionEntry
}

// sessionEntry pairs a session with the expiry of the token that opened it.
// A zero expiresAt never expires.
type sessionEntry struct {
	sess      *Session
	expiresAt time.Time
}

func (e sessionEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// NewChatService accepts a nil store; sessions then skip persistence.
func NewChatService(completion CompletionClient, db store.Store, log zerolog.Logger) *ChatService {
	if completion == nil {
		completion = UnavailableClient{}
	}
	return &ChatService{
		completion: completion,
		dbStore:    db,
		log:        log,
		now:        time.Now,
		sessions:   make(map[string]sessionEntry),
	}
}

func (s *ChatService) CompletionName() string {
	return s.completion.Name()
}

// StartSession creates a session seeded from the user's stored history.
// A nil user starts an anonymous session. An existing session with the same
// id is replaced without merging. The session is dropped once expiresAt
// passes; a zero expiresAt keeps it until EndSession.
func (s *ChatService) StartSession(sessionID string, user *store.User, expiresAt time.Time) *Session {
	return s.startSession(sessionID, user, expiresAt, true)
}

// EnsureSession returns the live session for sessionID, starting one only
// when none exists. Concurrent callers for the same id share one session.
func (s *ChatService) EnsureSession(sessionID string, user *store.User, expiresAt time.Time) *Session {
	return s.startSession(sessionID, user, expiresAt, false)
}

func (s *ChatService) startSession(sessionID string, user *store.User, expiresAt time.Time, replace bool) *Session {
	if !replace {
		if sess, ok := s.Session(sessionID); ok {
			return sess
		}
	}

	opts := SessionOptions{
		ID:         sessionID,
		Completion: s.completion,
		Logger:     s.log,
	}
	if s.dbStore != nil {
		opts.History = s.dbStore
	}
	if user != nil {
		opts.UserID = user.ID
		opts.DisplayName = user.DisplayName
	}

	sess := NewSession(opts)
	if user != nil {
		// A fresh session is never awaiting a reply.
		_ = sess.LoadHistory(user.ChatHistory)
	}

	s.mu.Lock()
	now := s.now()
	s.sweepExpiredLocked(now)
	if existing, ok := s.sessions[sessionID]; ok && !replace {
		s.mu.Unlock()
		return existing.sess
	}
	if _, exists := s.sessions[sessionID]; !exists {
		metrics.ActiveSessions.Inc()
	}
	s.sessions[sessionID] = sessionEntry{sess: sess, expiresAt: expiresAt}
	s.mu.Unlock()

	s.log.Info().Str("session_id", sessionID).Int("turns", sess.Len()).Msg("Session started")
	return sess
}

// Session returns the live session for sessionID. Expired sessions are
// reported as missing.
func (s *ChatService) Session(sessionID string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[sessionID]
	if !ok || entry.expired(s.now()) {
		return nil, false
	}
	return entry.sess, true
}

// Len reports how many sessions are held in memory, expired ones included
// until the next sweep.
func (s *ChatService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// EndSession discards the in-memory turns; nothing is merged back.
func (s *ChatService) EndSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; ok {
		delete(s.sessions, sessionID)
		metrics.ActiveSessions.Dec()
		s.log.Info().Str("session_id", sessionID).Msg("Session ended")
	}
}

// SweepExpired drops every session whose token has expired and returns how
// many were dropped.
func (s *ChatService) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepExpiredLocked(s.now())
}

// RunSweeper calls SweepExpired every interval until ctx is done.
func (s *ChatService) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepExpired()
		}
	}
}

func (s *ChatService) sweepExpiredLocked(now time.Time) int {
	dropped := 0
	for id, entry := range s.sessions {
		if entry.expired(now) {
			delete(s.sessions, id)
			metrics.ActiveSessions.Dec()
			dropped++
		}
	}
	if dropped > 0 {
		s.log.Debug().Int("sessions", dropped).Msg("Expired sessions swept")
	}
	return dropped
}

// Analyze answers a prompt without a session and without persistence.
// The bool reports whether the fallback analysis was used.
func (s *ChatService) Analyze(ctx context.Context, prompt string) (string, bool, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", false, ErrBlankPrompt
	}
	text, fellBack := resolveReply(ctx, s.completion, prompt, s.log)
	return text, fellBack, nil
}
