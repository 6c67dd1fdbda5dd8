package report

// Option applies a configuration option to the Aggregator.
type Option func(*Aggregator)

// WithComma sets the report delimiter, usually the one the input used.
func WithComma(comma rune) Option {
	return func(a *Aggregator) {
		if comma != 0 {
			a.comma = comma
		}
	}
}
