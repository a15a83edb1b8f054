package smile

// config holds the feature flags and logger shared by Decoder and Encoder
// construction.
type config struct {
	rawBinary        bool
	sharedStrings    bool
	sharedProperties bool
	logger           Logger
}

func defaultConfig() config {
	return config{
		rawBinary:        false,
		sharedStrings:    false,
		sharedProperties: true,
		logger:           NopLogger{},
	}
}

// Option configures a Decoder or Encoder at construction time.
type Option func(*config)

// WithRawBinary selects 0xFD-framed literal bytes for binary payloads
// instead of the default 0xE8-framed 7-bit packed encoding.
func WithRawBinary(enabled bool) Option {
	return func(c *config) { c.rawBinary = enabled }
}

// WithSharedStrings enables back-reference deduplication for value
// strings.
func WithSharedStrings(enabled bool) Option {
	return func(c *config) { c.sharedStrings = enabled }
}

// WithSharedProperties enables back-reference deduplication for map keys.
// Enabled by default.
func WithSharedProperties(enabled bool) Option {
	return func(c *config) { c.sharedProperties = enabled }
}

// WithLogger supplies a Logger for decode/encode diagnostics. The default
// is NopLogger.
func WithLogger(l Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func (c *config) headerFlags() byte {
	var f byte
	if c.sharedProperties {
		f |= 0x01
	}
	if c.sharedStrings {
		f |= 0x02
	}
	if c.rawBinary {
		f |= 0x04
	}
	return f
}
