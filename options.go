package zipflow

import "log/slog"

// readerConfig holds the settings every read strategy shares.
type readerConfig struct {
	verifyLocalHeaderName bool
	strictStringDecoding  bool
	logger                *slog.Logger
}

func defaultReaderConfig() readerConfig {
	return readerConfig{verifyLocalHeaderName: true}
}

// log returns the configured logger, falling back to a discard logger
// if none was set via WithReaderLogger.
func (c *readerConfig) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// ReaderOption configures a SeekReader, StreamReader, or ConcurrentReader.
type ReaderOption func(*readerConfig)

// WithLocalHeaderNameVerification controls whether SeekReader and
// ConcurrentReader reparse and compare each entry's local file header
// name against its central directory name before handing back a
// payload reader. It is on by default; disabling it trades that
// consistency check for one fewer header parse per entry open.
func WithLocalHeaderNameVerification(enabled bool) ReaderOption {
	return func(c *readerConfig) {
		c.verifyLocalHeaderName = enabled
	}
}

// WithReaderLogger sets the logger SeekReader, StreamReader, and
// ConcurrentReader use for archive open/close and ZIP64-detection
// diagnostics. If nil (the default), a discard logger is used.
func WithReaderLogger(logger *slog.Logger) ReaderOption {
	return func(c *readerConfig) {
		c.logger = logger
	}
}

// WithStrictStringDecoding makes name and comment decoding fail with
// ErrStringNotUTF8 instead of returning raw, uninterpreted bytes when
// the general-purpose UTF-8 flag is clear, no Info-ZIP Unicode extra
// field recovers the value, and the raw bytes contain non-ASCII bytes.
// Off by default, matching the permissive behavior of most
// ZIP readers: an archive written by a tool that never set the UTF-8
// flag is far more common than one that is actually corrupt.
func WithStrictStringDecoding(enabled bool) ReaderOption {
	return func(c *readerConfig) {
		c.strictStringDecoding = enabled
	}
}
