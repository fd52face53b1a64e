package transport

import (
	speclog "spectral/internal/log"
)

// LoggingTransport implements Transport by logging data at debug
// level instead of sending it anywhere, for runs started without a
// telemetry listener.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	speclog.Info("transport: using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received data at debug level. Never fails.
func (lt *LoggingTransport) Send(data interface{}) error {
	speclog.Debugf("telemetry: %+v", data)
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	speclog.Info("transport: LoggingTransport closed")
	return nil
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
