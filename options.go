package epub

import "go.uber.org/zap"

// defaultMaxEntrySize is the maximum allowed decompressed size for a single ZIP
// entry. This guards against zip bomb attacks.
const defaultMaxEntrySize int64 = 256 * 1024 * 1024

type options struct {
	log          *zap.Logger
	maxEntrySize int64
}

// Option configures Open, NewReader, OpenArchive and NewArchive.
type Option func(*options)

// WithLogger sets the logger used to report non-fatal conditions. A nil
// logger disables logging.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithMaxEntrySize limits the decompressed size of any single archive entry.
// Values <= 0 restore the default of 256 MiB.
func WithMaxEntrySize(n int64) Option {
	return func(o *options) {
		o.maxEntrySize = n
	}
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if o.maxEntrySize <= 0 {
		o.maxEntrySize = defaultMaxEntrySize
	}
	return o
}
