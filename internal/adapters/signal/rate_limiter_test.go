package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnRateLimiter_Window(t *testing.T) {
	rl := NewConnRateLimiter(3, 50*time.Millisecond)

	require.True(t, rl.Allow("c1"))
	require.True(t, rl.Allow("c1"))
	require.True(t, rl.Allow("c1"))
	require.False(t, rl.Allow("c1"))

	// Other connections are tracked independently.
	require.True(t, rl.Allow("c2"))

	time.Sleep(60 * time.Millisecond)
	require.True(t, rl.Allow("c1"))
}

func TestConnRateLimiter_Forget(t *testing.T) {
	rl := NewConnRateLimiter(1, time.Minute)

	require.True(t, rl.Allow("c1"))
	require.False(t, rl.Allow("c1"))

	rl.Forget("c1")
	require.True(t, rl.Allow("c1"))
}
