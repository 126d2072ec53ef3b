// Package sensor turns raw break-beam edges into trigger events. The
// capture unit is stateless with respect to the measurement lifecycle: a
// misbehaving sensor can only ever produce a spurious or missing event.
package sensor

import (
	"context"
	"log"
	"time"

	"github.com/jbevemyr/rocktimer/internal/trigger"
)

// DefaultDebounce suppresses sensor chatter (electrical noise, partial beam
// restoration) after an accepted edge.
const DefaultDebounce = 50 * time.Millisecond

// EdgeSource delivers one notification per raw electrical edge on a
// monitored line. WaitForEdge blocks until the next edge or ctx cancel.
type EdgeSource interface {
	WaitForEdge(ctx context.Context) error
	Close() error
}

// EmitFunc forwards a trigger event toward the coordinator: over UDP from a
// remote node, or straight into the coordinator's inbox locally. A non-nil
// error means the event was lost, which the capture unit logs and ignores —
// a delayed retry would misrepresent the physical timing.
type EmitFunc func(trigger.Event) error

// Capture emits exactly one timestamped trigger event per physical pass.
type Capture struct {
	deviceID string
	debounce time.Duration
	source   EdgeSource
	emit     EmitFunc
	now      func() time.Time

	lastAccepted time.Time
}

func NewCapture(deviceID string, debounce time.Duration, source EdgeSource, emit EmitFunc) *Capture {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Capture{
		deviceID: deviceID,
		debounce: debounce,
		source:   source,
		emit:     emit,
		now:      time.Now,
	}
}

// Run monitors the line until ctx is cancelled. The timestamp is captured
// immediately after the edge wait returns, before any further processing.
func (c *Capture) Run(ctx context.Context) error {
	for {
		if err := c.source.WaitForEdge(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		now := c.now()

		if !c.lastAccepted.IsZero() && now.Sub(c.lastAccepted) < c.debounce {
			continue
		}
		c.lastAccepted = now

		log.Printf("sensor: trigger %s", c.deviceID)
		if err := c.emit(trigger.New(c.deviceID, now.UnixNano())); err != nil {
			log.Printf("sensor: dropping trigger: %v", err)
		}
	}
}
