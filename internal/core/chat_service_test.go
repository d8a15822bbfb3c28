package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartbiz.ai/advisor/internal/metrics"
	"smartbiz.ai/advisor/internal/store"
)

func TestStartSessionSeedsHistory(t *testing.T) {
	db := &memStore{}
	svc := NewChatService(replying("fresh"), db, zerolog.Nop())

	user := &store.User{
		ID:          "user-1",
		DisplayName: "Ravi",
		ChatHistory: []store.ChatEntry{{UserMessage: "a", AIResponse: "b"}},
	}
	sess := svc.StartSession("sid-1", user, time.Time{})
	assert.Equal(t, []string{Greeting("Ravi"), "a", "b"}, texts(sess.Turns()))
	assert.Equal(t, "user-1", sess.UserID())

	got, ok := svc.Session("sid-1")
	require.True(t, ok)
	assert.Same(t, sess, got)

	_, err := sess.Submit(context.Background(), "Idea")
	require.NoError(t, err)
	assert.Equal(t, []appendCall{{"user-1", "Idea", "fresh"}}, db.Calls())
}

func TestEndSessionDiscardsTurns(t *testing.T) {
	svc := NewChatService(replying("x"), nil, zerolog.Nop())
	svc.StartSession("sid-1", nil, time.Time{})
	svc.EndSession("sid-1")
	svc.EndSession("sid-1")

	_, ok := svc.Session("sid-1")
	assert.False(t, ok)

	// A new session with the same id starts clean.
	sess := svc.StartSession("sid-1", nil, time.Time{})
	assert.Equal(t, 1, sess.Len())
}

func TestSessionsExpireWithTheirToken(t *testing.T) {
	svc := NewChatService(replying("x"), nil, zerolog.Nop())
	now := time.Now()
	svc.now = func() time.Time { return now }
	baseline := testutil.ToFloat64(metrics.ActiveSessions)

	svc.StartSession("short", nil, now.Add(time.Minute))
	svc.StartSession("long", nil, now.Add(time.Hour))
	svc.StartSession("cli", nil, time.Time{})
	assert.Equal(t, baseline+3, testutil.ToFloat64(metrics.ActiveSessions))

	now = now.Add(time.Minute)
	_, ok := svc.Session("short")
	assert.False(t, ok)
	_, ok = svc.Session("long")
	assert.True(t, ok)

	// Starting another session sweeps the expired one.
	svc.StartSession("next", nil, now.Add(time.Hour))
	assert.Equal(t, 3, svc.Len())
	assert.Equal(t, baseline+3, testutil.ToFloat64(metrics.ActiveSessions))

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 2, svc.SweepExpired())
	assert.Equal(t, 1, svc.Len())
	_, ok = svc.Session("cli")
	assert.True(t, ok)
	assert.Equal(t, baseline+1, testutil.ToFloat64(metrics.ActiveSessions))

	svc.EndSession("cli")
	assert.Equal(t, baseline, testutil.ToFloat64(metrics.ActiveSessions))
}

func TestEnsureSessionKeepsPendingSession(t *testing.T) {
	gate := make(chan struct{})
	entered := make(chan struct{})
	completion := &stubCompletion{fn: func(context.Context, string) (string, error) {
		close(entered)
		<-gate
		return "late", nil
	}}
	svc := NewChatService(completion, nil, zerolog.Nop())
	user := &store.User{ID: "user-1", DisplayName: "Ravi"}
	expires := time.Now().Add(time.Hour)

	sess := svc.EnsureSession("sid-1", user, expires)
	done := make(chan error, 1)
	go func() {
		_, err := sess.Submit(context.Background(), "first")
		done <- err
	}()
	<-entered

	again := svc.EnsureSession("sid-1", user, expires)
	assert.Same(t, sess, again)
	assert.Equal(t, StateAwaitingReply, again.State())

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, 3, sess.Len())
	svc.EndSession("sid-1")
}

func TestEnsureSessionConcurrentCallersShareOne(t *testing.T) {
	svc := NewChatService(replying("x"), nil, zerolog.Nop())
	baseline := testutil.ToFloat64(metrics.ActiveSessions)
	user := &store.User{ID: "user-1", DisplayName: "Ravi"}

	const callers = 16
	got := make([]*Session, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = svc.EnsureSession("sid-1", user, time.Time{})
		}(i)
	}
	wg.Wait()

	for _, sess := range got {
		assert.Same(t, got[0], sess)
	}
	assert.Equal(t, 1, svc.Len())
	assert.Equal(t, baseline+1, testutil.ToFloat64(metrics.ActiveSessions))
	svc.EndSession("sid-1")
}

func TestRunSweeperDropsExpiredSessions(t *testing.T) {
	svc := NewChatService(replying("x"), nil, zerolog.Nop())
	svc.StartSession("sid-1", nil, time.Now().Add(-time.Second))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		svc.RunSweeper(ctx, time.Millisecond)
		close(stopped)
	}()
	assert.Eventually(t, func() bool { return svc.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	<-stopped
}

func TestAnalyze(t *testing.T) {
	svc := NewChatService(failing(), nil, zerolog.Nop())

	_, _, err := svc.Analyze(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrBlankPrompt)

	text, fellBack, err := svc.Analyze(context.Background(), "Restaurant business in Mumbai")
	require.NoError(t, err)
	assert.True(t, fellBack)
	assert.Equal(t, Fallback("Restaurant business in Mumbai"), text)

	svc = NewChatService(replying("live"), nil, zerolog.Nop())
	text, fellBack, err = svc.Analyze(context.Background(), "Anything")
	require.NoError(t, err)
	assert.False(t, fellBack)
	assert.Equal(t, "live", text)
	assert.Equal(t, "stub", svc.CompletionName())
}

func TestNilCompletionClientFallsBack(t *testing.T) {
	svc := NewChatService(nil, nil, zerolog.Nop())
	assert.Equal(t, "offline", svc.CompletionName())

	text, fellBack, err := svc.Analyze(context.Background(), "pub")
	require.NoError(t, err)
	assert.True(t, fellBack)
	assert.Equal(t, Fallback("pub"), text)
}

func TestAnalyzeBusinessRecordsFigures(t *testing.T) {
	db := &memStore{}
	svc := NewChatService(nil, db, zerolog.Nop())

	report, err := svc.AnalyzeBusiness(context.Background(), BusinessData{
		CompanyName:     "Bean There",
		Industry:        "cafe",
		MonthlyRevenue:  decimal.NewFromInt(10000),
		MonthlyExpenses: decimal.NewFromInt(7500),
		EmployeeCount:   4,
	})
	require.NoError(t, err)
	assert.Equal(t, BusinessReport{Company: "Bean There", Profit: "$2,500.00", ProfitMargin: "25.0%"}, report)
	require.Len(t, db.analytics, 1)
	assert.Equal(t, "2500", db.analytics[0].Profit)

	db.err = errDiskFull
	_, err = svc.AnalyzeBusiness(context.Background(), BusinessData{
		CompanyName:    "Still Fine",
		MonthlyRevenue: decimal.NewFromInt(1),
	})
	assert.NoError(t, err)
}
