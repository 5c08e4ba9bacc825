package clock

import (
	"sync"
	"time"

	"github.com/erazemk/lekarna/internal/model"
)

// Clock supplies the current time. Expiry classification only looks at
// the calendar date, see Today.
type Clock interface {
	Now() time.Time
}

// Today returns the calendar date of c.Now() in the clock's location.
func Today(c Clock) model.Date {
	return model.DateOf(c.Now())
}

// System is the wall clock in a fixed location.
type System struct {
	Location *time.Location
}

// Now implements Clock.
func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now()
	}
	return time.Now().In(s.Location)
}

// Fake is a manually driven clock for tests.
type Fake struct {
	mu  sync.Mutex
	now time.Time
}

// NewFake returns a Fake clock set to t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

// NewFakeDate returns a Fake clock set to noon UTC of d.
func NewFakeDate(d model.Date) *Fake {
	return NewFake(d.Time().Add(12 * time.Hour))
}

// Now implements Clock.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// AdvanceDays moves the clock forward by n calendar days.
func (f *Fake) AdvanceDays(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.AddDate(0, 0, n)
}
