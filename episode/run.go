package episode

import (
	"context"
	"time"

	channerics "github.com/niceyeti/channerics/channels"
)

// Run paces the loop at the configured tick rate until ctx is cancelled. Before
// each tick it applies every pending command; after it, the tick's frame is offered
// to frames. Frames are dropped rather than stalling the simulation when the viewer
// is slow. Either channel may be nil.
func (l *Loop) Run(
	ctx context.Context,
	commands <-chan Command,
	frames chan<- Frame,
) error {
	period := time.Second / time.Duration(l.cfg.Loop.TickRate)
	ticker := channerics.NewTicker(ctx.Done(), period)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ticker:
			if !ok {
				return ctx.Err()
			}
			commands = l.drain(commands)
			l.Update()
			if frames != nil {
				select {
				case frames <- l.Frame():
				default:
				}
			}
		}
	}
}

// Train runs up to ticks ticks as fast as possible, or until ctx is done, calling
// progressFn after each one. It returns the number of ticks run.
func (l *Loop) Train(
	ctx context.Context,
	ticks int,
	progressFn func(tick int),
) (n int, err error) {
	for n = 0; n < ticks; n++ {
		select {
		case <-ctx.Done():
			return n, ctx.Err()
		default:
		}
		l.Update()
		if progressFn != nil {
			progressFn(l.tick)
		}
	}
	return
}

// drain applies pending commands without blocking. It returns nil once commands
// has been closed, which disables further receives.
func (l *Loop) drain(commands <-chan Command) <-chan Command {
	for commands != nil {
		select {
		case cmd, ok := <-commands:
			if !ok {
				return nil
			}
			l.Apply(cmd)
		default:
			return commands
		}
	}
	return nil
}
