// File: utils/constants.go
package utils

// ServiceName identifies this service in health output and logs.
const ServiceName = "sarthi-booking"

// Gin context keys shared by middleware and handlers.
const (
	LoggerKey    = "logger"
	RequestIDKey = "requestId"
	AdminKey     = "adminSubject"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// SlotListCacheKey holds the cached unfiltered slot listing.
const SlotListCacheKey = "slots:all"
