package rbasis

import "fmt"

type Option func(*Builder) error

// WithOversampling sets the number of extra sketch columns used by the
// randomized method beyond the requested component count. Larger values
// improve accuracy at the cost of extra work. Minimum is 1.
func WithOversampling(p int) Option {
	return func(b *Builder) error {
		if p < 1 {
			return fmt.Errorf("oversampling must be at least 1, got %d", p)
		}
		b.oversampling = p
		return nil
	}
}

// WithPowerIterations sets the number of power iterations applied to the
// randomized sketch. More iterations sharpen the separation of the leading
// singular subspace for matrices with slowly decaying spectra.
func WithPowerIterations(q int) Option {
	return func(b *Builder) error {
		if q < 0 {
			return fmt.Errorf("power iterations must not be negative, got %d", q)
		}
		b.powerIterations = q
		return nil
	}
}

// WithLogger sets the structured logger used for fit and evaluation events.
// The default logger discards everything.
func WithLogger(l *Logger) Option {
	return func(b *Builder) error {
		if l == nil {
			return fmt.Errorf("logger must not be nil")
		}
		b.logger = l
		return nil
	}
}
