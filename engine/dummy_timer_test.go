package engine_test

import (
	"testing"
	"time"

	"github.com/ndncomm/ndn-go/engine"
	"github.com/stretchr/testify/require"
)

func TestDummyTimerSchedule(t *testing.T) {
	timer := engine.NewDummyTimer()
	start := timer.Now()

	fired := 0
	timer.Schedule(100*time.Millisecond, func() { fired++ })

	timer.MoveForward(50 * time.Millisecond)
	require.Equal(t, 0, fired)

	timer.MoveForward(60 * time.Millisecond)
	require.Equal(t, 1, fired)
	require.Equal(t, 110*time.Millisecond, timer.Now().Sub(start))

	// events fire only once
	timer.MoveForward(time.Second)
	require.Equal(t, 1, fired)
}

func TestDummyTimerCancel(t *testing.T) {
	timer := engine.NewDummyTimer()

	fired := 0
	cancel := timer.Schedule(100*time.Millisecond, func() { fired++ })
	require.NoError(t, cancel())

	timer.MoveForward(time.Second)
	require.Equal(t, 0, fired)
}

func TestDummyTimerNonce(t *testing.T) {
	timer := engine.NewDummyTimer()
	require.Equal(t, 8, len(timer.Nonce()))
}
