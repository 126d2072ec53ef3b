package sensor

import (
	"context"
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// edgeBuffer absorbs bursts between WaitForEdge calls; edges beyond it fall
// inside the debounce window anyway.
const edgeBuffer = 4

// GPIOLine is an EdgeSource backed by a kernel gpiochip character device.
// The photoelectric sensors pull the line low when the beam breaks, so the
// line is requested with a pull-up and falling-edge detection.
type GPIOLine struct {
	line  *gpiocdev.Line
	edges chan struct{}
}

func RequestGPIOLine(chip string, offset int) (*GPIOLine, error) {
	l := &GPIOLine{edges: make(chan struct{}, edgeBuffer)}
	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(l.onEvent))
	if err != nil {
		return nil, fmt.Errorf("requesting %s line %d: %w", chip, offset, err)
	}
	l.line = line
	return l, nil
}

func (l *GPIOLine) onEvent(evt gpiocdev.LineEvent) {
	if evt.Type != gpiocdev.LineEventFallingEdge {
		return
	}
	select {
	case l.edges <- struct{}{}:
	default:
	}
}

func (l *GPIOLine) WaitForEdge(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.edges:
		return nil
	}
}

func (l *GPIOLine) Close() error {
	return l.line.Close()
}
