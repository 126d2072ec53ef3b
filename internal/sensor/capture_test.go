package sensor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jbevemyr/rocktimer/internal/trigger"
)

// fakeLine feeds edges to the capture unit from the test.
type fakeLine struct {
	edges chan struct{}
}

func newFakeLine() *fakeLine {
	return &fakeLine{edges: make(chan struct{})}
}

func (l *fakeLine) WaitForEdge(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.edges:
		return nil
	}
}

func (l *fakeLine) Close() error { return nil }

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func runCapture(t *testing.T, debounce time.Duration) (*fakeLine, *fakeClock, chan trigger.Event, func()) {
	t.Helper()

	line := newFakeLine()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	emitted := make(chan trigger.Event, 16)

	c := NewCapture("tee", debounce, line, func(ev trigger.Event) error {
		emitted <- ev
		return nil
	})
	c.now = clock.now

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx)
	}()
	return line, clock, emitted, func() {
		cancel()
		<-done
	}
}

func expectEvent(t *testing.T, emitted chan trigger.Event) trigger.Event {
	t.Helper()
	select {
	case ev := <-emitted:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for emitted event")
		return trigger.Event{}
	}
}

func expectNoEvent(t *testing.T, emitted chan trigger.Event) {
	t.Helper()
	select {
	case ev := <-emitted:
		t.Fatalf("unexpected event emitted: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCaptureEmitsStampedEvent(t *testing.T) {
	line, clock, emitted, stop := runCapture(t, 50*time.Millisecond)
	defer stop()

	line.edges <- struct{}{}
	ev := expectEvent(t, emitted)

	if ev.DeviceID != "tee" {
		t.Errorf("device_id = %q, want tee", ev.DeviceID)
	}
	if ev.TimestampNS != clock.now().UnixNano() {
		t.Errorf("timestamp_ns = %d, want %d", ev.TimestampNS, clock.now().UnixNano())
	}
	if ev.Type != trigger.TypeTrigger {
		t.Errorf("type = %q", ev.Type)
	}
}

func TestCaptureDebounce(t *testing.T) {
	line, clock, emitted, stop := runCapture(t, 50*time.Millisecond)
	defer stop()

	line.edges <- struct{}{}
	expectEvent(t, emitted)

	// Chatter inside the window is swallowed.
	clock.advance(10 * time.Millisecond)
	line.edges <- struct{}{}
	clock.advance(10 * time.Millisecond)
	line.edges <- struct{}{}
	expectNoEvent(t, emitted)

	// Past the window the next pass is accepted again.
	clock.advance(60 * time.Millisecond)
	line.edges <- struct{}{}
	expectEvent(t, emitted)
}

func TestCaptureSurvivesEmitFailure(t *testing.T) {
	line := newFakeLine()
	var calls int
	var mu sync.Mutex

	c := NewCapture("tee", time.Millisecond, line, func(ev trigger.Event) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return context.DeadlineExceeded // any send error
	})
	clock := &fakeClock{t: time.Unix(1000, 0)}
	c.now = clock.now

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx)

	line.edges <- struct{}{}
	clock.advance(time.Second)
	line.edges <- struct{}{}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 2
	})
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
