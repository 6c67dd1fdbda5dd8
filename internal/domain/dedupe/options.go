package dedupe

// Option applies a configuration option to the Tracker.
type Option func(*Tracker)

// WithCapacity preallocates room for n distinct keys.
func WithCapacity(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.indices = make(map[string][]int, n)
			t.order = make([]string, 0, n)
		}
	}
}
