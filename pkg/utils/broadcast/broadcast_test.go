package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastFanOut(t *testing.T) {
	source := make(chan int)
	b := NewBroadcastServer("test", source)
	defer b.Close()

	first := b.Subscribe()
	second := b.Subscribe()

	go func() { source <- 42 }()
	assert.Equal(t, 42, <-first)
	assert.Equal(t, 42, <-second)

	b.CancelSubscription(second)
	_, open := <-second
	assert.False(t, open)

	go func() { source <- 43 }()
	assert.Equal(t, 43, <-first)
}

func TestBroadcastCountsWhileObserved(t *testing.T) {
	source := make(chan int)
	b := NewBroadcastServer("counts", source)
	srv := b.(*broadcastServer[int])

	// poll the gauges the way the metrics reader does, concurrent to serve()
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
				srv.numRcv.Load()
				srv.numSnd.Load()
				srv.numSkip.Load()
				srv.numListeners.Load()
			}
		}
	}()

	listener := b.Subscribe()
	for i := 0; i < 5; i++ {
		go func(v int) { source <- v }(i)
		<-listener
	}
	close(stop)
	b.Close()

	require.Eventually(t, func() bool {
		return srv.numRcv.Load() == 5 && srv.numSnd.Load() == 5
	}, time.Second, 10*time.Millisecond)
	assert.Zero(t, srv.numSkip.Load())
}
