package ar

import (
	"encoding/binary"
	"log/slog"
)

// DefaultMaxTableSize is the default limit on the size of the name and symbol tables a Reader will
// load into memory.
const DefaultMaxTableSize = 64 << 20

// Option configures a Reader or Writer.
type Option func(*config)

type config struct {
	variant      Variant
	variantSet   bool
	byteOrder    binary.ByteOrder
	maxTableSize int64
	logger       *slog.Logger
}

func newConfig(opts []Option) *config {
	cfg := &config{
		variant:      BSD,
		byteOrder:    binary.LittleEndian,
		maxTableSize: DefaultMaxTableSize,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithVariant selects the variant of the file format.
//
// For a Reader, this disables variant detection; by default the variant is inferred from the first
// header that can only have been written by one variant. For a Writer, only Common and BSD are
// accepted (the default is BSD); GNU archives must be written with NewGNUWriter.
func WithVariant(v Variant) Option {
	return func(c *config) {
		c.variant = v
		c.variantSet = true
	}
}

// WithSymbolByteOrder sets the byte order of the integers in BSD symbol tables, which is that of
// the machine the archive was built for. The default is little-endian.
func WithSymbolByteOrder(order binary.ByteOrder) Option {
	return func(c *config) {
		c.byteOrder = order
	}
}

// WithMaxTableSize limits the size of name tables, symbol tables and BSD long file names read into
// memory.
// Set limit to 0 to disable the limit.
func WithMaxTableSize(limit int64) Option {
	return func(c *config) {
		c.maxTableSize = limit
	}
}

// WithLogger sets the logger for debug output.
// By default, logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
