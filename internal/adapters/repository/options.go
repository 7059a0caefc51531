package repository

import "time"

// Option applies a configuration option to the SQLiteStore.
type Option func(*SQLiteStore)

// WithMaxEvents caps the events returned by one ListEvents call.
func WithMaxEvents(n int) Option {
	return func(s *SQLiteStore) {
		if n > 0 {
			s.maxEvents = n
		}
	}
}

// WithClock sets the clock used to stamp new rows.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces uuid.NewString for new rows.
func WithIDGenerator(gen func() string) Option {
	return func(s *SQLiteStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}
