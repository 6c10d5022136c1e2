package config

import "time"

const (
	// DefaultRecordTimeout bounds resolving and updating a single record
	DefaultRecordTimeout = 30 * time.Second

	// DefaultCacheTTL defines how long a cached point resolution is kept
	DefaultCacheTTL = 24 * time.Hour

	// MemoryReportInterval defines how often memory usage is logged
	MemoryReportInterval = 30 * time.Second

	// ShutdownTimeout bounds the HTTP server shutdown
	ShutdownTimeout = 10 * time.Second
)
