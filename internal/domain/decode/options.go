package decode

// Option applies a configuration option to the Decoder.
type Option func(*Decoder)

// WithComma fixes the CSV delimiter instead of sniffing it.
func WithComma(comma rune) Option {
	return func(d *Decoder) {
		if comma != 0 {
			d.comma = comma
		}
	}
}
