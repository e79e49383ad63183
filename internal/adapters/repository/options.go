package repository

// Option applies a configuration option to the FrameStore.
type Option func(*FrameStore)

// WithHistory sets how many frames are kept per chart.
func WithHistory(n int) Option {
	return func(s *FrameStore) {
		if n > 0 {
			s.history = n
		}
	}
}
