package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClientRateLimiterDropsIdleClients(t *testing.T) {
	l := NewClientRateLimiter(0, 1)
	now := time.Now()
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))
	assert.Equal(t, 2, l.Len())

	// 10.0.0.2 stays active; 10.0.0.1 goes idle.
	now = now.Add(clientIdleTTL / 2)
	assert.False(t, l.Allow("10.0.0.2"))
	now = now.Add(clientIdleTTL / 2)
	assert.True(t, l.Allow("10.0.0.3"))
	assert.Equal(t, 2, l.Len())

	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.2"))
}
