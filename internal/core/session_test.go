package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartbiz.ai/advisor/internal/store"
)

func newTestSession(client CompletionClient, history HistoryAppender, userID string) *Session {
	return NewSession(SessionOptions{
		ID:          "sess-1",
		UserID:      userID,
		DisplayName: "Asha",
		Completion:  client,
		History:     history,
		Logger:      zerolog.Nop(),
	})
}

func texts(turns []Turn) []string {
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = t.Text
	}
	return out
}

func authors(turns []Turn) []Author {
	out := make([]Author, len(turns))
	for i, t := range turns {
		out[i] = t.Author
	}
	return out
}

func TestNewSessionStartsWithGreeting(t *testing.T) {
	sess := newTestSession(replying("x"), nil, "")
	turns := sess.Turns()
	require.Len(t, turns, 1)
	assert.Equal(t, AuthorAssistant, turns[0].Author)
	assert.Equal(t, Greeting("Asha"), turns[0].Text)
	assert.Contains(t, turns[0].Text, "Hello Asha!")
	assert.Equal(t, StateReady, sess.State())

	anon := NewSession(SessionOptions{Logger: zerolog.Nop()})
	assert.Equal(t, Greeting(""), anon.Turns()[0].Text)
	assert.Contains(t, anon.Turns()[0].Text, "Hello! I'm SmartBiz AI.")
}

func TestSubmitAppendsUserThenAssistant(t *testing.T) {
	client := replying("Great idea.")
	history := &recordingHistory{}
	sess := newTestSession(client, history, "user-1")

	ex, err := sess.Submit(context.Background(), "Bookshop in Pune")
	require.NoError(t, err)
	assert.False(t, ex.Fallback)
	assert.Equal(t, AuthorUser, ex.UserTurn.Author)
	assert.Equal(t, "Bookshop in Pune", ex.UserTurn.Text)
	assert.Equal(t, "Great idea.", ex.AssistantTurn.Text)
	assert.NotEqual(t, ex.UserTurn.ID, ex.AssistantTurn.ID)

	turns := sess.Turns()
	assert.Equal(t, []Author{AuthorAssistant, AuthorUser, AuthorAssistant}, authors(turns))
	assert.Equal(t, "Bookshop in Pune", turns[1].Text)
	assert.Equal(t, "Great idea.", turns[2].Text)
	assert.False(t, turns[2].CreatedAt.Before(turns[1].CreatedAt))

	assert.Equal(t, []string{"Bookshop in Pune"}, client.calls)
	assert.Equal(t, []appendCall{{"user-1", "Bookshop in Pune", "Great idea."}}, history.Calls())
	assert.Equal(t, StateReady, sess.State())
}

func TestSubmitUsesFallbackWhenCompletionUnavailable(t *testing.T) {
	prompt := "Opening a coffee shop in Bangalore"
	history := &recordingHistory{}
	sess := newTestSession(failing(), history, "user-1")

	ex, err := sess.Submit(context.Background(), prompt)
	require.NoError(t, err)
	assert.True(t, ex.Fallback)
	assert.Equal(t, Fallback(prompt), ex.AssistantTurn.Text)
	assert.Contains(t, ex.AssistantTurn.Text, "Market Potential")
	assert.Contains(t, ex.AssistantTurn.Text, prompt)

	calls := history.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, Fallback(prompt), calls[0].AIResponse)
}

func TestSubmitBlankIsNoop(t *testing.T) {
	client := replying("never")
	history := &recordingHistory{}
	sess := newTestSession(client, history, "user-1")

	for _, blank := range []string{"", "   ", "\n\t "} {
		_, err := sess.Submit(context.Background(), blank)
		assert.ErrorIs(t, err, ErrBlankPrompt)
	}
	assert.Equal(t, 1, sess.Len())
	assert.Zero(t, client.CallCount())
	assert.Empty(t, history.Calls())
}

func TestPersistenceFailureDoesNotAlterTurns(t *testing.T) {
	ok := newTestSession(replying("Reply"), &recordingHistory{}, "user-1")
	broken := newTestSession(replying("Reply"), &recordingHistory{err: errDiskFull}, "user-1")

	_, err := ok.Submit(context.Background(), "Idea")
	require.NoError(t, err)
	_, err = broken.Submit(context.Background(), "Idea")
	require.NoError(t, err)

	assert.Equal(t, texts(ok.Turns()), texts(broken.Turns()))
	assert.Equal(t, authors(ok.Turns()), authors(broken.Turns()))
	assert.Equal(t, StateReady, broken.State())
}

func TestAnonymousSessionIsNotPersisted(t *testing.T) {
	history := &recordingHistory{}
	sess := newTestSession(replying("Reply"), history, "")

	_, err := sess.Submit(context.Background(), "Idea")
	require.NoError(t, err)
	assert.Equal(t, 3, sess.Len())
	assert.Empty(t, history.Calls())
}

func TestLoadHistoryOrder(t *testing.T) {
	sess := newTestSession(replying("x"), nil, "user-1")
	err := sess.LoadHistory([]store.ChatEntry{
		{UserMessage: "a", AIResponse: "b"},
		{UserMessage: "c", AIResponse: "d"},
	})
	require.NoError(t, err)

	turns := sess.Turns()
	assert.Equal(t, []string{Greeting("Asha"), "a", "b", "c", "d"}, texts(turns))
	assert.Equal(t,
		[]Author{AuthorAssistant, AuthorUser, AuthorAssistant, AuthorUser, AuthorAssistant},
		authors(turns))
}

func TestLoadHistoryReplacesTurnsWithoutFallback(t *testing.T) {
	client := failing()
	sess := newTestSession(client, nil, "user-1")
	_, err := sess.Submit(context.Background(), "old")
	require.NoError(t, err)

	stamp := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, sess.LoadHistory([]store.ChatEntry{{UserMessage: "coffee?", AIResponse: "stored reply", Timestamp: stamp}}))

	turns := sess.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, "stored reply", turns[2].Text)
	assert.Equal(t, stamp, turns[1].CreatedAt)
	assert.Equal(t, 1, client.CallCount())
}

func TestSecondSubmitRejectedWhileAwaitingReply(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	client := &stubCompletion{fn: func(ctx context.Context, prompt string) (string, error) {
		once.Do(func() { close(started) })
		<-release
		return "reply to " + prompt, nil
	}}
	history := &recordingHistory{}
	sess := newTestSession(client, history, "user-1")
	before := sess.Len()

	done := make(chan error, 1)
	go func() {
		_, err := sess.Submit(context.Background(), "first")
		done <- err
	}()
	<-started

	assert.Equal(t, StateAwaitingReply, sess.State())
	_, err := sess.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrAwaitingReply)
	assert.ErrorIs(t, sess.LoadHistory(nil), ErrAwaitingReply)

	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, before+2, sess.Len())
	assert.Equal(t, 1, client.CallCount())
	assert.Len(t, history.Calls(), 1)
	assert.Equal(t, StateReady, sess.State())

	_, err = sess.Submit(context.Background(), "third")
	require.NoError(t, err)
	assert.Equal(t, before+4, sess.Len())
	turns := sess.Turns()
	assert.Equal(t, []string{"first", "reply to first", "third", "reply to third"}, texts(turns[before:]))
}

func TestTurnsReturnsCopy(t *testing.T) {
	sess := newTestSession(replying("Reply"), nil, "")
	turns := sess.Turns()
	turns[0].Text = "mutated"
	assert.NotEqual(t, "mutated", sess.Turns()[0].Text)
}

func TestLatestAssistantText(t *testing.T) {
	sess := newTestSession(replying("**Bold** reply"), nil, "")
	assert.Equal(t, Greeting("Asha"), sess.LatestAssistantText())

	_, err := sess.Submit(context.Background(), "Idea")
	require.NoError(t, err)
	assert.Equal(t, "**Bold** reply", sess.LatestAssistantText())
}

func TestSessionStateString(t *testing.T) {
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "awaiting_reply", StateAwaitingReply.String())
}
