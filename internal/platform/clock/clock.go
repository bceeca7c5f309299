package clock

import "time"

// Clock abstracts time to keep usecases deterministic in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Manual is a settable clock for tests and replay.
type Manual struct {
	T time.Time
}

func (m *Manual) Now() time.Time {
	return m.T
}

func (m *Manual) Advance(d time.Duration) {
	m.T = m.T.Add(d)
}
