package clock

import (
	"sync"
	"time"

	"github.com/kirinyoku/stayledger/internal/domain"
)

type Clock interface {
	Now() domain.Moment
}

// System reads the wall clock in milliseconds.
type System struct{}

func (System) Now() domain.Moment {
	return domain.MomentFromTime(time.Now())
}

// Manual is a settable clock.
type Manual struct {
	mu  sync.Mutex
	now domain.Moment
}

func NewManual(now domain.Moment) *Manual {
	return &Manual{now: now}
}

func (m *Manual) Now() domain.Moment {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Set(now domain.Moment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now += domain.Moment(d.Milliseconds())
}
