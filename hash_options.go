package streamjoin

// HashOption is a functional option for configuring hash joins.
type HashOption func(*hashConfig)

type hashConfig struct {
	sizeHint int // expected number of distinct right-side keys
}

func defaultHashConfig() *hashConfig {
	return &hashConfig{}
}

func newHashConfig(opts []HashOption) *hashConfig {
	cfg := defaultHashConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.sizeHint < 0 {
		cfg.sizeHint = 0
	}
	return cfg
}

// WithSizeHint pre-sizes the lookup table for n distinct right-side keys.
// It only affects allocation, never results.
func WithSizeHint(n int) HashOption {
	return func(c *hashConfig) {
		c.sizeHint = n
	}
}
