package progress

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-ai/wayfarer/pkg/models"
)

type collector struct {
	mu     sync.Mutex
	events []models.ProgressEvent
}

func (c *collector) Emit(evt models.ProgressEvent) {
	c.mu.Lock()
	c.events = append(c.events, evt)
	c.mu.Unlock()
}

func TestSectionPercent(t *testing.T) {
	assert.Equal(t, StartPercent, SectionPercent(0, 7))
	assert.Equal(t, SectionsDonePercent, SectionPercent(7, 7))
	assert.Equal(t, SectionsDonePercent, SectionPercent(9, 7))
	for i := 1; i <= 7; i++ {
		assert.Greater(t, SectionPercent(i, 7), SectionPercent(i-1, 7))
	}
}

func TestReporterMonotonic(t *testing.T) {
	c := &collector{}
	r := NewReporter("run-1", c, nil)

	r.Report(10, models.StageSection, models.SectionWeather, "weather ready")
	r.Report(7, models.StageSection, models.SectionEvents, "events ready")
	r.Report(99, models.StageAssembling, "", "assembling")
	r.Complete("done")

	require.Len(t, c.events, 4)
	assert.Equal(t, 10, c.events[0].Percent)
	assert.Equal(t, 10, c.events[1].Percent)
	assert.Equal(t, AssemblingPercent, c.events[2].Percent)
	assert.Equal(t, CompletePercent, c.events[3].Percent)
	for _, e := range c.events {
		assert.Equal(t, "run-1", e.RunID)
	}
}

func TestReporterSingleCompletion(t *testing.T) {
	c := &collector{}
	r := NewReporter("run-1", c, nil)
	r.Complete("done")
	r.Complete("again")
	r.Report(50, models.StageSection, "", "late")
	r.Fail("late failure")

	require.Len(t, c.events, 1)
	assert.Equal(t, CompletePercent, c.events[0].Percent)
}

func TestReporterFailNeverReaches100(t *testing.T) {
	c := &collector{}
	r := NewReporter("run-1", c, nil)
	r.Report(StartPercent, models.StageStarted, "", "started")
	r.Report(ValidatingPercent, models.StageValidating, "", "validating")
	r.Fail("missing sections")

	require.Len(t, c.events, 3)
	last := c.events[2]
	assert.Equal(t, models.StageFailed, last.Stage)
	assert.Equal(t, ValidatingPercent, last.Percent)
	for _, e := range c.events {
		assert.Less(t, e.Percent, CompletePercent)
	}
}

func TestReporterConcurrent(t *testing.T) {
	c := &collector{}
	r := NewReporter("run-1", c, nil)

	var wg sync.WaitGroup
	for i := range 7 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Report(SectionPercent(i+1, 7), models.StageSection, "", "")
		}(i)
	}
	wg.Wait()

	prev := 0
	for _, e := range c.events {
		assert.GreaterOrEqual(t, e.Percent, prev)
		prev = e.Percent
	}
}

func TestChannelSinkDropsIntermediateButNotTerminal(t *testing.T) {
	ch := make(chan models.ProgressEvent, 1)
	s := NewChannelSink(ch)
	s.Emit(models.ProgressEvent{Percent: 5, Stage: models.StageStarted})
	s.Emit(models.ProgressEvent{Percent: 10, Stage: models.StageSection})

	done := make(chan struct{})
	go func() {
		s.Emit(models.ProgressEvent{Percent: 100, Stage: models.StageComplete})
		close(done)
	}()

	assert.Equal(t, 5, (<-ch).Percent)
	assert.Equal(t, 100, (<-ch).Percent)
	<-done
}

func TestMultiSink(t *testing.T) {
	a, b := &collector{}, &collector{}
	MultiSink{a, nil, b}.Emit(models.ProgressEvent{Percent: 5})
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

func TestMemoryBroker(t *testing.T) {
	b := NewMemoryBroker()
	ch := b.Subscribe("run-1")
	other := b.Subscribe("run-2")

	sink := NewBrokerSink(b, nil)
	sink.Emit(models.ProgressEvent{RunID: "run-1", Percent: 5})

	select {
	case evt := <-ch:
		assert.Equal(t, 5, evt.Percent)
	case <-time.After(time.Second):
		t.Fatal("expected event")
	}
	select {
	case <-other:
		t.Fatal("run-2 should not see run-1 events")
	default:
	}

	b.Unsubscribe("run-1", ch)
	_, open := <-ch
	assert.False(t, open)
	b.Unsubscribe("run-1", ch)
	require.NoError(t, b.Publish(context.Background(), "run-1", models.ProgressEvent{}))
}

func TestRedisBroker(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	b, err := NewRedisBroker(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	ch := b.Subscribe("redis-run")
	require.NoError(t, b.Publish(context.Background(), "redis-run", models.ProgressEvent{RunID: "redis-run", Percent: 42}))

	select {
	case evt := <-ch:
		assert.Equal(t, 42, evt.Percent)
	case <-time.After(2 * time.Second):
		t.Fatal("expected event from redis")
	}
	b.Unsubscribe("redis-run", ch)
}

func TestNewRedisBrokerInvalidURL(t *testing.T) {
	_, err := NewRedisBroker("::")
	assert.Error(t, err)
}
