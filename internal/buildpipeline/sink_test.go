package buildpipeline

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitToNilSinkIsNoop(t *testing.T) {
	Emit(nil, Event{File: "a.rsl"})
	ChannelSink{}.OnEvent(Event{File: "a.rsl"})
}

func TestChannelSinkForwards(t *testing.T) {
	ch := make(chan Event, 1)
	Emit(ChannelSink{Ch: ch}, Event{File: "a.rsl", Stage: StageParse, Status: StatusWorking})
	ev := <-ch
	assert.Equal(t, "a.rsl", ev.File)
	assert.Equal(t, StatusWorking, ev.Status)
}

func TestCollectSinkConcurrent(t *testing.T) {
	var sink CollectSink
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Emit(&sink, Event{Status: StatusDone})
		}()
	}
	wg.Wait()
	events := sink.Events()
	require.Len(t, events, 8)
	events[0].File = "changed"
	assert.Empty(t, sink.Events()[0].File)
}
