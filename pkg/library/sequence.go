package library

import (
	"context"
	"time"
)

// Timings of the open and close animations.
type Timings struct {
	OpenDelay  time.Duration
	Cover      time.Duration
	Buffer     time.Duration
	Flip       time.Duration
	CloseFlip  time.Duration
	ClosePause time.Duration
	CloseCover time.Duration
	CloseFade  time.Duration
}

var DefaultTimings = Timings{
	OpenDelay:  300 * time.Millisecond,
	Cover:      300 * time.Millisecond,
	Buffer:     50 * time.Millisecond,
	Flip:       500 * time.Millisecond,
	CloseFlip:  50 * time.Millisecond,
	ClosePause: 50 * time.Millisecond,
	CloseCover: 300 * time.Millisecond,
	CloseFade:  300 * time.Millisecond,
}

// Clock waits between animation phases.
type Clock interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RealClock sleeps on wall time.
var RealClock Clock = realClock{}

// Sequencer drives a Book through its animated transitions.
type Sequencer struct {
	Clock   Clock
	Timings Timings
}

func NewSequencer(clock Clock) *Sequencer {
	if clock == nil {
		clock = RealClock
	}
	return &Sequencer{Clock: clock, Timings: DefaultTimings}
}

// OpenBook runs the opening animation: cover, then the intro page turn.
func (s *Sequencer) OpenBook(ctx context.Context, b *Book) error {
	t := s.Timings
	if err := b.Open(); err != nil {
		return err
	}
	if err := s.Clock.Sleep(ctx, t.OpenDelay); err != nil {
		return err
	}
	if err := b.CoverOpened(); err != nil {
		return err
	}
	if err := s.Clock.Sleep(ctx, t.Cover+t.Buffer); err != nil {
		return err
	}
	if err := b.FlipFirst(); err != nil {
		return err
	}
	if err := s.Clock.Sleep(ctx, t.Flip); err != nil {
		return err
	}
	return b.Opened()
}

// CloseBook turns pages back newest first, closes the cover and fades out.
// The book always ends Closed, even when ctx is cancelled midway.
func (s *Sequencer) CloseBook(ctx context.Context, b *Book) (err error) {
	t := s.Timings
	plan, err := b.Close()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			b.forceClosed()
		}
	}()

	for _, i := range plan.Animated {
		if err := b.BeginUnflip(i); err != nil {
			return err
		}
		if err := s.Clock.Sleep(ctx, t.CloseFlip); err != nil {
			return err
		}
		if err := b.Unflip(i); err != nil {
			return err
		}
	}
	for _, i := range plan.Instant {
		if err := b.Unflip(i); err != nil {
			return err
		}
	}
	if err := s.Clock.Sleep(ctx, t.ClosePause+t.CloseCover); err != nil {
		return err
	}
	if err := b.CoverClosed(); err != nil {
		return err
	}
	if err := s.Clock.Sleep(ctx, t.CloseFade); err != nil {
		return err
	}
	return b.Faded()
}

func (b *Book) forceClosed() {
	for i := range b.flipped {
		b.flipped[i] = false
		b.unflipping[i] = false
	}
	b.coverOpen = false
	b.state = Closed
}
