// Package simulate sends realistic trigger sequences at a running
// coordinator, for bench testing without sensors on the ice.
package simulate

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/jbevemyr/rocktimer/internal/trigger"
)

// Draw timing ranges measured from real stone passes.
const (
	teeHogMin = 2800 * time.Millisecond
	teeHogMax = 3300 * time.Millisecond
	hogHogMin = 8 * time.Second
	hogHogMax = 14 * time.Second
)

type Runner struct {
	emit  func(trigger.Event) error
	rng   *rand.Rand
	sleep func(context.Context, time.Duration) error
}

func NewRunner(emit func(trigger.Event) error) *Runner {
	return &Runner{
		emit:  emit,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: ctxSleep,
	}
}

// SendTrigger emits a single trigger stamped now.
func (r *Runner) SendTrigger(deviceID string) error {
	log.Printf("simulate: trigger %s", deviceID)
	return r.emit(trigger.New(deviceID, time.Now().UnixNano()))
}

// PassOptions shapes one simulated stone pass. Zero durations are
// randomized within the measured ranges.
type PassOptions struct {
	TeeToHog time.Duration
	HogToHog time.Duration
	SkipFar  bool // stone stops before the far hog line
}

// StonePass plays a full tee -> hog_close -> hog_far sequence in real time.
func (r *Runner) StonePass(ctx context.Context, opts PassOptions) error {
	teeToHog := opts.TeeToHog
	if teeToHog <= 0 {
		teeToHog = r.draw(teeHogMin, teeHogMax)
	}
	hogToHog := opts.HogToHog
	if hogToHog <= 0 {
		hogToHog = r.draw(hogHogMin, hogHogMax)
	}

	log.Printf("simulate: stone pass, tee->hog %s, hog->hog %s, skip_far=%v", teeToHog, hogToHog, opts.SkipFar)

	if err := r.SendTrigger("tee"); err != nil {
		return err
	}
	if err := r.sleep(ctx, teeToHog); err != nil {
		return err
	}
	if err := r.SendTrigger("hog_close"); err != nil {
		return err
	}

	if opts.SkipFar {
		return nil
	}
	if err := r.sleep(ctx, hogToHog); err != nil {
		return err
	}
	return r.SendTrigger("hog_far")
}

func (r *Runner) draw(min, max time.Duration) time.Duration {
	return min + time.Duration(r.rng.Int63n(int64(max-min)))
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
