package sdspi

import (
	"log/slog"
	"time"
)

// Config holds the timeout, retry, and CRC policy the driver runs with.
// Values are injected at construction so they can be tightened on fast
// transports or relaxed on USB-SPI bridges; see DefaultConfig.
type Config struct {
	// Cmd0Retry is the number of CMD0 attempts during init before
	// giving up (each preceded by the stuck-multi-block-write recovery
	// on failure).
	Cmd0Retry int
	// CmdTimeout bounds command-response polling, token waits, and the
	// busy-before-command check.
	CmdTimeout time.Duration
	// InitTimeout is reserved for aggregate init-phase waits.
	InitTimeout time.Duration
	// ReadTimeout bounds inter-block waits during a multi-block read.
	ReadTimeout time.Duration
	// WriteTimeout bounds post-block and post-stop busy waits.
	WriteTimeout time.Duration
	// UseCRC7 enables computing a fresh CRC7 for every command frame
	// instead of relying on the two canonical constants plus the
	// CRC-disabled end bit.
	UseCRC7 bool
	// UseCRC16 enables checking each read block's trailing CRC16 against
	// the data received.
	UseCRC16 bool
	// VerifyAfterWrite gates the optional CMD13 post-write status check
	// run after WriteBlock and WriteBlocks; ACMD22 is not issued. Off by
	// default.
	VerifyAfterWrite bool
	// Logger receives debug/info events; nil disables logging.
	Logger *slog.Logger
}

// DefaultConfig returns the policy values from the SD Physical Layer
// driver literature: 10 CMD0 retries, a 300ms command timeout, a 2000ms
// init timeout, a 1000ms read timeout, and a 2000ms write timeout, with
// CRC16 checking enabled and CRC7 computation and post-write
// verification disabled.
func DefaultConfig() Config {
	return Config{
		Cmd0Retry:        10,
		CmdTimeout:       300 * time.Millisecond,
		InitTimeout:      2000 * time.Millisecond,
		ReadTimeout:      1000 * time.Millisecond,
		WriteTimeout:     2000 * time.Millisecond,
		UseCRC7:          false,
		UseCRC16:         true,
		VerifyAfterWrite: false,
	}
}

// Option configures a CardHandle at construction time.
type Option func(*Config)

// WithCmd0Retry overrides the number of CMD0 attempts during init.
func WithCmd0Retry(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.Cmd0Retry = n
		}
	}
}

// WithCmdTimeout overrides the command-response timeout.
func WithCmdTimeout(d time.Duration) Option {
	return func(c *Config) { c.CmdTimeout = d }
}

// WithReadTimeout overrides the inter-block read timeout.
func WithReadTimeout(d time.Duration) Option {
	return func(c *Config) { c.ReadTimeout = d }
}

// WithWriteTimeout overrides the post-block/post-stop busy timeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) { c.WriteTimeout = d }
}

// WithCRC7 enables or disables computing a fresh CRC7 for every command.
func WithCRC7(enabled bool) Option {
	return func(c *Config) { c.UseCRC7 = enabled }
}

// WithCRC16 enables or disables checking each read block's CRC16.
func WithCRC16(enabled bool) Option {
	return func(c *Config) { c.UseCRC16 = enabled }
}

// WithVerifyAfterWrite enables the optional post-write CMD13 status
// check.
func WithVerifyAfterWrite(enabled bool) Option {
	return func(c *Config) { c.VerifyAfterWrite = enabled }
}

// WithLogger attaches a structured logger; nil disables logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}
