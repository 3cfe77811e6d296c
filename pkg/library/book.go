package library

import (
	"errors"
	"fmt"
)

type State int

const (
	Closed State = iota
	Opening
	Open
	Closing
	FadingOut
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Opening:
		return "opening"
	case Open:
		return "open"
	case Closing:
		return "closing"
	case FadingOut:
		return "fading-out"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var ErrInvalidTransition = errors.New("invalid book transition")

const (
	// closeAnimateThreshold is the flipped-page count above which closing
	// only animates the first closeAnimateLimit pages.
	closeAnimateThreshold = 7
	closeAnimateLimit     = 5
)

// Book tracks which pages of the fact library are turned. Page 0 is the intro
// page; the rest hold fact grids.
type Book struct {
	state      State
	coverOpen  bool
	flipped    []bool
	unflipping []bool
}

func NewBook(pages int) *Book {
	if pages < 1 {
		pages = 1
	}
	return &Book{
		flipped:    make([]bool, pages),
		unflipping: make([]bool, pages),
	}
}

func (b *Book) State() State { return b.state }

func (b *Book) Pages() int { return len(b.flipped) }

func (b *Book) CoverOpen() bool { return b.coverOpen }

func (b *Book) Flipped(i int) bool { return i >= 0 && i < len(b.flipped) && b.flipped[i] }

func (b *Book) Unflipping(i int) bool {
	return i >= 0 && i < len(b.unflipping) && b.unflipping[i]
}

// Current is the front page: the first page not yet turned, or -1 when every
// page is turned.
func (b *Book) Current() int {
	for i, f := range b.flipped {
		if !f {
			return i
		}
	}
	return -1
}

// LastFlipped is the most recently turned page, or -1 when none is.
func (b *Book) LastFlipped() int {
	cur := b.Current()
	if cur == -1 {
		return len(b.flipped) - 1
	}
	return cur - 1
}

func (b *Book) FlippedCount() int {
	n := 0
	for _, f := range b.flipped {
		if f {
			n++
		}
	}
	return n
}

func (b *Book) guard(want State, event string) error {
	if b.state != want {
		return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, event, b.state)
	}
	return nil
}

func (b *Book) Open() error {
	if err := b.guard(Closed, "open"); err != nil {
		return err
	}
	b.state = Opening
	return nil
}

func (b *Book) CoverOpened() error {
	if err := b.guard(Opening, "cover opened"); err != nil {
		return err
	}
	b.coverOpen = true
	return nil
}

// FlipFirst turns the intro page once the cover is open.
func (b *Book) FlipFirst() error {
	if err := b.guard(Opening, "flip first page"); err != nil {
		return err
	}
	if !b.coverOpen {
		return fmt.Errorf("%w: flip before cover opened", ErrInvalidTransition)
	}
	b.flipped[0] = true
	return nil
}

// Opened ends the opening animation.
func (b *Book) Opened() error {
	if err := b.guard(Opening, "opened"); err != nil {
		return err
	}
	if !b.flipped[0] {
		return fmt.Errorf("%w: opened before first flip", ErrInvalidTransition)
	}
	b.state = Open
	return nil
}

// Next turns page i. Only the front page may be turned, and never the last.
func (b *Book) Next(i int) error {
	if err := b.guard(Open, "next"); err != nil {
		return err
	}
	if i < 0 || i >= len(b.flipped)-1 || i != b.Current() {
		return fmt.Errorf("%w: next on page %d", ErrInvalidTransition, i)
	}
	b.flipped[i] = true
	return nil
}

// Prev turns page i back. Only the most recently turned page may go back.
func (b *Book) Prev(i int) error {
	if err := b.guard(Open, "prev"); err != nil {
		return err
	}
	if i < 0 || i >= len(b.flipped) || i != b.LastFlipped() {
		return fmt.Errorf("%w: prev on page %d", ErrInvalidTransition, i)
	}
	b.flipped[i] = false
	return nil
}

// ClosePlan lists the turned pages to close, newest first. Animated pages are
// turned back one at a time; Instant ones all at once afterwards.
type ClosePlan struct {
	Animated []int
	Instant  []int
}

func (b *Book) Close() (ClosePlan, error) {
	if err := b.guard(Open, "close"); err != nil {
		return ClosePlan{}, err
	}
	var order []int
	for i := len(b.flipped) - 1; i >= 0; i-- {
		if b.flipped[i] {
			order = append(order, i)
		}
	}
	plan := ClosePlan{Animated: order}
	if len(order) > closeAnimateThreshold {
		plan.Animated = order[:closeAnimateLimit]
		plan.Instant = order[closeAnimateLimit:]
	}
	b.state = Closing
	return plan, nil
}

// BeginUnflip marks page i as animating back.
func (b *Book) BeginUnflip(i int) error {
	if err := b.guard(Closing, "begin unflip"); err != nil {
		return err
	}
	if !b.Flipped(i) {
		return fmt.Errorf("%w: page %d is not turned", ErrInvalidTransition, i)
	}
	b.unflipping[i] = true
	return nil
}

// Unflip finishes turning page i back.
func (b *Book) Unflip(i int) error {
	if err := b.guard(Closing, "unflip"); err != nil {
		return err
	}
	if !b.Flipped(i) {
		return fmt.Errorf("%w: page %d is not turned", ErrInvalidTransition, i)
	}
	b.flipped[i] = false
	b.unflipping[i] = false
	return nil
}

// CoverClosed requires every page to be turned back first.
func (b *Book) CoverClosed() error {
	if err := b.guard(Closing, "cover closed"); err != nil {
		return err
	}
	if n := b.FlippedCount(); n > 0 {
		return fmt.Errorf("%w: %d pages still turned", ErrInvalidTransition, n)
	}
	b.coverOpen = false
	b.state = FadingOut
	return nil
}

func (b *Book) Faded() error {
	if err := b.guard(FadingOut, "faded"); err != nil {
		return err
	}
	b.state = Closed
	return nil
}
