package signal

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avoronov/signalhub/internal/core"
)

func TestWsSignalConn_TrySendBackpressure(t *testing.T) {
	c := &WsSignalConn{send: make(chan core.Frame, 2)}

	require.NoError(t, c.TrySend(core.Frame("one")))
	require.NoError(t, c.TrySend(core.Frame("two")))
	require.ErrorIs(t, c.TrySend(core.Frame("three")), ErrBackpressure)

	<-c.send
	require.NoError(t, c.TrySend(core.Frame("four")))
}

func TestWsSignalConn_TrySendAfterClose(t *testing.T) {
	c := &WsSignalConn{send: make(chan core.Frame, 2)}
	c.closed = true

	require.Error(t, c.TrySend(core.Frame("late")))
}
