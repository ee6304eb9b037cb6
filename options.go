package epubsage

import "go.uber.org/zap"

// Option configures how a book is opened.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

func newOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger attaches a logger for progress and diagnostic output.
// Without it, opening a book is silent.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
